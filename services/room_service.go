package services

import (
	"context"
	"log/slog"
	"room-lab/contract"
	"room-lab/domain"
	"room-lab/errors"
	"room-lab/repositories"
	"sync/atomic"
	"time"
)

// DefaultScheduleTimeout bounds how long a fill-winning join waits for the
// notifier to accept its event.
const DefaultScheduleTimeout = time.Second

// IRoomService is the room lifecycle engine.
type IRoomService interface {
	CreateRoom(ctx context.Context, name string, capacity int) (domain.RoomID, error)
	EnterRoom(ctx context.Context, id domain.RoomID, participant domain.Participant) (JoinResult, error)
	EnterPublicRoom(ctx context.Context, capacity int, participant domain.Participant) (JoinResult, error)
	ExitRoom(ctx context.Context, id domain.RoomID, user domain.User) error
	ExitPublicRoom(ctx context.Context, capacity int, user domain.User) error
	RoomInfo(ctx context.Context, id domain.RoomID) (RoomInfo, error)
	PublicRoomInfo(ctx context.Context, capacity int) (RoomInfo, error)
	ListPublicRooms(ctx context.Context) ([]domain.Room, error)
	DeleteRoom(ctx context.Context, id domain.RoomID) error
	DeleteAndRecreatePublicRoom(ctx context.Context, capacity int) (domain.Room, error)
}

// JoinResult is returned by a successful join. Filled is true for the single
// join that brought the room to its capacity.
type JoinResult struct {
	Room   domain.Room
	Filled bool
}

// RoomInfo is a consistent snapshot of a room and its participant addresses.
type RoomInfo struct {
	Room      domain.Room
	Addresses []domain.Address
}

type RoomService struct {
	repository      repositories.IRoomRepository
	notifier        contract.IFillNotifier
	log             *slog.Logger
	now             func() time.Time
	scheduleTimeout time.Duration
	dropped         atomic.Int64
}

func NewRoomService(repository repositories.IRoomRepository, notifier contract.IFillNotifier, log *slog.Logger) *RoomService {
	return &RoomService{
		repository:      repository,
		notifier:        notifier,
		log:             log,
		now:             time.Now,
		scheduleTimeout: DefaultScheduleTimeout,
	}
}

// WithScheduleTimeout overrides DefaultScheduleTimeout. A non-positive value
// keeps the default.
func (s *RoomService) WithScheduleTimeout(timeout time.Duration) *RoomService {
	if timeout > 0 {
		s.scheduleTimeout = timeout
	}
	return s
}

// DroppedFills counts fill events the notifier refused or did not accept in time.
func (s *RoomService) DroppedFills() int64 {
	return s.dropped.Load()
}

func (s *RoomService) CreateRoom(_ context.Context, name string, capacity int) (domain.RoomID, error) {
	room, err := domain.NewPrivateRoom("", name, capacity)
	if err != nil {
		return "", err
	}
	id, err := s.repository.Create(room)
	if err != nil {
		return "", err
	}
	s.log.Info("Private room created", "room_id", id, "name", name, "capacity", capacity)
	return id, nil
}

func (s *RoomService) EnterRoom(ctx context.Context, id domain.RoomID, participant domain.Participant) (JoinResult, error) {
	room, err := s.repository.Get(id)
	if err != nil {
		return JoinResult{}, err
	}
	if room.Kind != domain.Private {
		return JoinResult{}, errors.ErrRoomNotFound
	}
	return s.enter(ctx, id, participant)
}

// EnterPublicRoom joins the pool room for capacity, creating it on first
// demand. The join that fills it swaps the pool entry for a fresh room.
func (s *RoomService) EnterPublicRoom(ctx context.Context, capacity int, participant domain.Participant) (JoinResult, error) {
	if capacity < 1 {
		return JoinResult{}, errors.ErrInvalidCapacity
	}
	room, err := s.repository.PublicRoom(capacity)
	if err != nil {
		return JoinResult{}, err
	}
	result, err := s.enter(ctx, room.ID, participant)
	if err != nil {
		return JoinResult{}, err
	}
	if result.Filled {
		if _, err = s.repository.ReplacePublicRoom(capacity, room.ID); err != nil {
			// The next PublicRoom call replaces the full entry itself
			s.log.Error("Public room replacement failed", "capacity", capacity, "room_id", room.ID, "error", err)
		}
	}
	return result, nil
}

// enter runs the join protocol inside the room's atomic section and, once
// outside of it, hands the fill event to the notifier.
func (s *RoomService) enter(ctx context.Context, id domain.RoomID, participant domain.Participant) (JoinResult, error) {
	var filled bool
	room, err := s.repository.WithRoom(id, func(room *domain.Room) error {
		var err error
		filled, err = room.Join(participant)
		return err
	})
	if err != nil {
		s.log.Debug("Join rejected", "room_id", id, "username", participant.Username(), "error", err)
		return JoinResult{}, err
	}
	s.log.Debug("Participant joined", "room_id", id, "username", participant.Username(), "filled", filled)

	if filled {
		s.notifyFill(ctx, room)
	}
	return JoinResult{Room: room, Filled: filled}, nil
}

// notifyFill never fails the join: the room is full whatever happens to the
// notification. The hand-over is bounded by scheduleTimeout so a saturated
// notifier never holds the join's response.
func (s *RoomService) notifyFill(ctx context.Context, room domain.Room) {
	evt := domain.FillEvent{
		RoomID:   room.ID,
		RoomName: room.Name,
		Kind:     room.Kind,
		Roster:   room.Roster(),
		FilledAt: s.now().UTC(),
	}
	s.log.Info("Room filled", "room_id", room.ID, "kind", room.Kind, "capacity", room.Capacity)
	scheduleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.scheduleTimeout)
	defer cancel()
	if err := s.notifier.Notify(scheduleCtx, evt); err != nil {
		dropped := s.dropped.Add(1)
		s.log.Error("Fill notification could not be scheduled",
			"room_id", room.ID, "error", err, "dropped_total", dropped)
	}
}

func (s *RoomService) ExitRoom(_ context.Context, id domain.RoomID, user domain.User) error {
	room, err := s.repository.Get(id)
	if err != nil {
		return err
	}
	if room.Kind != domain.Private {
		return errors.ErrRoomNotFound
	}
	return s.exit(id, user)
}

func (s *RoomService) ExitPublicRoom(_ context.Context, capacity int, user domain.User) error {
	if capacity < 1 {
		return errors.ErrInvalidCapacity
	}
	room, err := s.repository.PublicRoom(capacity)
	if err != nil {
		return err
	}
	return s.exit(room.ID, user)
}

func (s *RoomService) exit(id domain.RoomID, user domain.User) error {
	_, err := s.repository.WithRoom(id, func(room *domain.Room) error {
		return room.Leave(user.Username)
	})
	if err != nil {
		return err
	}
	s.log.Debug("Participant left", "room_id", id, "username", user.Username)
	return nil
}

// RoomInfo looks up any room by id, including pool rooms that already filled.
func (s *RoomService) RoomInfo(_ context.Context, id domain.RoomID) (RoomInfo, error) {
	room, err := s.repository.Get(id)
	if err != nil {
		return RoomInfo{}, err
	}
	return toRoomInfo(room), nil
}

func (s *RoomService) PublicRoomInfo(_ context.Context, capacity int) (RoomInfo, error) {
	if capacity < 1 {
		return RoomInfo{}, errors.ErrInvalidCapacity
	}
	room, err := s.repository.PublicRoom(capacity)
	if err != nil {
		return RoomInfo{}, err
	}
	return toRoomInfo(room), nil
}

func (s *RoomService) ListPublicRooms(_ context.Context) ([]domain.Room, error) {
	return s.repository.ListPublicRooms()
}

// DeleteRoom removes a private room. Pool rooms are never reachable here.
func (s *RoomService) DeleteRoom(_ context.Context, id domain.RoomID) error {
	room, err := s.repository.Get(id)
	if err != nil {
		return err
	}
	if room.Kind != domain.Private {
		return errors.ErrRoomNotFound
	}
	if err = s.repository.Delete(id); err != nil {
		return err
	}
	s.log.Info("Private room deleted", "room_id", id)
	return nil
}

// DeleteAndRecreatePublicRoom unconditionally replaces the pool entry for
// capacity with a fresh empty room.
func (s *RoomService) DeleteAndRecreatePublicRoom(_ context.Context, capacity int) (domain.Room, error) {
	if capacity < 1 {
		return domain.Room{}, errors.ErrInvalidCapacity
	}
	room, err := s.repository.ReplacePublicRoom(capacity, "")
	if err != nil {
		return domain.Room{}, err
	}
	s.log.Info("Public room recreated", "capacity", capacity, "room_id", room.ID)
	return room, nil
}

func toRoomInfo(room domain.Room) RoomInfo {
	return RoomInfo{Room: room, Addresses: domain.Addresses(room.Participants)}
}
