package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"room-lab/domain"
	"strings"

	"github.com/samber/lo"
)

// ReceptionPath is where a one-shot receiver listens when the participant
// registered a bare host:port address.
const ReceptionPath = "/api/v1/room"

// FillNotification is the body POSTed to every participant of a filled room.
type FillNotification struct {
	RoomID       string             `json:"room_id"`
	RoomName     string             `json:"room_name"`
	Participants []NotifiedUserJSON `json:"participants"`
}

type NotifiedUserJSON struct {
	Username string `json:"username"`
	Address  string `json:"address"`
}

func NewFillNotification(event domain.FillEvent) FillNotification {
	return FillNotification{
		RoomID:   event.RoomID.String(),
		RoomName: event.RoomName,
		Participants: lo.Map(event.Roster, func(p domain.Participant, _ int) NotifiedUserJSON {
			return NotifiedUserJSON{Username: p.Username(), Address: p.Address.String()}
		}),
	}
}

// IDeliverer performs a single delivery attempt to one address.
type IDeliverer interface {
	Deliver(ctx context.Context, address domain.Address, notification FillNotification) error
}

type HTTPDeliverer struct {
	client *http.Client
}

func NewHTTPDeliverer(client *http.Client) *HTTPDeliverer {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDeliverer{client: client}
}

// Deliver POSTs the notification as JSON. Any non-2xx answer is an error.
func (d *HTTPDeliverer) Deliver(ctx context.Context, address domain.Address, notification FillNotification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, TargetURL(address), bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := d.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", response.StatusCode, address)
	}
	return nil
}

// TargetURL turns a participant address into the URL to POST to.
// Absolute URLs are used verbatim.
func TargetURL(address domain.Address) string {
	value := address.String()
	if strings.Contains(value, "://") {
		return value
	}
	return "http://" + value + ReceptionPath
}
