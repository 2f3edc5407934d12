package server

import (
	"log/slog"
	"net/http"
	"room-lab/auth"
	"room-lab/domain"
	"room-lab/errors"
	"room-lab/services"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// RoomServer maps each engine operation onto one HTTP exchange.
type RoomServer struct {
	roomService services.IRoomService
	resolver    auth.IIdentityResolver
	log         *slog.Logger
}

func NewRoomServer(log *slog.Logger, roomService services.IRoomService, resolver auth.IIdentityResolver) *RoomServer {
	return &RoomServer{roomService: roomService, resolver: resolver, log: log}
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type enterRequest struct {
	Address string `json:"address"`
}

type participantJSON struct {
	Username string `json:"username"`
	Address  string `json:"address"`
}

type roomJSON struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Capacity     int               `json:"capacity"`
	Kind         string            `json:"kind"`
	Status       string            `json:"status"`
	Participants []participantJSON `json:"participants"`
}

type roomInfoJSON struct {
	Room      roomJSON `json:"room"`
	Addresses []string `json:"addresses"`
}

type joinJSON struct {
	Room   roomJSON `json:"room"`
	Filled bool     `json:"filled"`
}

// Register mounts the routes. Every route requires a resolved user.
func (s *RoomServer) Register(router gin.IRouter) {
	api := router.Group("/api/v1", auth.RequireUser(s.resolver))

	api.POST("/rooms", s.createRoom)
	api.GET("/rooms/:id", s.roomInfo)
	api.PUT("/rooms/:id", s.enterRoom)
	api.DELETE("/rooms/:id", s.deleteRoom)
	api.DELETE("/rooms/:id/participants/me", s.exitRoom)

	api.GET("/public", s.listPublicRooms)
	api.GET("/public/:capacity", s.publicRoomInfo)
	api.PUT("/public/:capacity", s.enterPublicRoom)
	api.DELETE("/public/:capacity/participants/me", s.exitPublicRoom)
}

func (s *RoomServer) createRoom(c *gin.Context) {
	var body createRoomRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := auth.ValidateCreateRoom(body.Name, body.Capacity); err != nil {
		s.fail(c, err)
		return
	}
	id, err := s.roomService.CreateRoom(c.Request.Context(), body.Name, body.Capacity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room_id": id.String()})
}

func (s *RoomServer) enterRoom(c *gin.Context) {
	participant, ok := s.participant(c)
	if !ok {
		return
	}
	result, err := s.roomService.EnterRoom(c.Request.Context(), domain.RoomID(c.Param("id")), participant)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toJoinJSON(result))
}

func (s *RoomServer) exitRoom(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	if err := s.roomService.ExitRoom(c.Request.Context(), domain.RoomID(c.Param("id")), user); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *RoomServer) roomInfo(c *gin.Context) {
	info, err := s.roomService.RoomInfo(c.Request.Context(), domain.RoomID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomInfoJSON(info))
}

func (s *RoomServer) deleteRoom(c *gin.Context) {
	if err := s.roomService.DeleteRoom(c.Request.Context(), domain.RoomID(c.Param("id"))); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *RoomServer) listPublicRooms(c *gin.Context) {
	rooms, err := s.roomService.ListPublicRooms(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": lo.Map(rooms, func(room domain.Room, _ int) roomJSON {
		return toRoomJSON(room)
	})})
}

func (s *RoomServer) publicRoomInfo(c *gin.Context) {
	capacity, ok := capacityParam(c)
	if !ok {
		return
	}
	info, err := s.roomService.PublicRoomInfo(c.Request.Context(), capacity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomInfoJSON(info))
}

func (s *RoomServer) enterPublicRoom(c *gin.Context) {
	capacity, ok := capacityParam(c)
	if !ok {
		return
	}
	participant, ok := s.participant(c)
	if !ok {
		return
	}
	result, err := s.roomService.EnterPublicRoom(c.Request.Context(), capacity, participant)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toJoinJSON(result))
}

func (s *RoomServer) exitPublicRoom(c *gin.Context) {
	capacity, ok := capacityParam(c)
	if !ok {
		return
	}
	user, _ := auth.UserFrom(c)
	if err := s.roomService.ExitPublicRoom(c.Request.Context(), capacity, user); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// participant builds the joining participant from the token user and the
// address in the body.
func (s *RoomServer) participant(c *gin.Context) (domain.Participant, bool) {
	var body enterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return domain.Participant{}, false
	}
	user, _ := auth.UserFrom(c)
	participant, err := auth.NewParticipant(user, body.Address)
	if err != nil {
		s.fail(c, err)
		return domain.Participant{}, false
	}
	return participant, true
}

func (s *RoomServer) fail(c *gin.Context, err error) {
	httpErr := errors.MapToHTTPError(err)
	if httpErr.Status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(httpErr.Status, gin.H{"code": httpErr.Code, "error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
}

func capacityParam(c *gin.Context) (int, bool) {
	capacity, err := strconv.Atoi(c.Param("capacity"))
	if err != nil || capacity < 1 {
		httpErr := errors.MapToHTTPError(errors.ErrInvalidCapacity)
		c.AbortWithStatusJSON(httpErr.Status, gin.H{"code": httpErr.Code, "error": errors.ErrInvalidCapacity.Error()})
		return 0, false
	}
	return capacity, true
}

func toRoomJSON(room domain.Room) roomJSON {
	return roomJSON{
		ID:       room.ID.String(),
		Name:     room.Name,
		Capacity: room.Capacity,
		Kind:     string(room.Kind),
		Status:   string(room.Status),
		Participants: lo.Map(room.Participants, func(p domain.Participant, _ int) participantJSON {
			return participantJSON{Username: p.Username(), Address: p.Address.String()}
		}),
	}
}

func toRoomInfoJSON(info services.RoomInfo) roomInfoJSON {
	return roomInfoJSON{
		Room: toRoomJSON(info.Room),
		Addresses: lo.Map(info.Addresses, func(a domain.Address, _ int) string {
			return a.String()
		}),
	}
}

func toJoinJSON(result services.JoinResult) joinJSON {
	return joinJSON{Room: toRoomJSON(result.Room), Filled: result.Filled}
}
