// Package receiver is the participant side of a fill notification: it waits
// for exactly one roster and then stops listening.
package receiver

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"room-lab/notifier"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Receiver accepts the first authorized POST on notifier.ReceptionPath.
// The token, when set, must be sent as the Authorization header or as the
// token query parameter, so participants registering a full URL can embed it.
type Receiver struct {
	token    string
	log      *slog.Logger
	received atomic.Bool
	rosters  chan notifier.FillNotification
	router   *gin.Engine
}

func NewReceiver(token string, log *slog.Logger) *Receiver {
	r := &Receiver{
		token:   token,
		log:     log,
		rosters: make(chan notifier.FillNotification, 1),
	}
	r.router = gin.New()
	r.router.Use(gin.Recovery())
	r.router.POST(notifier.ReceptionPath, r.receive)
	return r
}

func (r *Receiver) Handler() http.Handler {
	return r.router
}

func (r *Receiver) receive(c *gin.Context) {
	if !r.authorized(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "auth_failure", "error": "invalid token"})
		return
	}
	var notification notifier.FillNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
		return
	}
	if !r.received.CompareAndSwap(false, true) {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"code": "already_received", "error": "roster already received"})
		return
	}
	r.log.Info("Roster received", "room_id", notification.RoomID, "participants", len(notification.Participants))
	r.rosters <- notification
	c.Status(http.StatusOK)
}

func (r *Receiver) authorized(c *gin.Context) bool {
	if r.token == "" {
		return true
	}
	given := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if given == "" {
		given = c.Query("token")
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(r.token)) == 1
}

// Wait blocks until the roster arrives or ctx is done.
func (r *Receiver) Wait(ctx context.Context) (notifier.FillNotification, error) {
	select {
	case notification := <-r.rosters:
		return notification, nil
	case <-ctx.Done():
		return notifier.FillNotification{}, ctx.Err()
	}
}

// Serve listens on listener until the roster arrives or ctx is done, then
// shuts the server down.
func (r *Receiver) Serve(ctx context.Context, listener net.Listener) (notifier.FillNotification, error) {
	srv := &http.Server{Handler: r.router, ReadHeaderTimeout: 5 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()
	r.log.Info("Waiting for roster", "address", listener.Addr().String())

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if e, ok := <-serveErr; ok {
			r.log.Error("Receiver server failed", "error", e)
			cancel()
		}
	}()
	notification, err := r.Wait(waitCtx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		r.log.Warn("Receiver shutdown failed", "error", shutdownErr)
	}
	if err != nil {
		return notifier.FillNotification{}, fmt.Errorf("no roster received: %w", err)
	}
	return notification, nil
}
