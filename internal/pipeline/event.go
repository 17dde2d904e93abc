package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/suPer8Hu/docchat/internal/common"
)

// Event is one end-user message as received from the messaging platform.
type Event struct {
	ID                string    `json:"id"`
	EndUserID         string    `json:"end_user_id"`
	DisplayName       string    `json:"display_name,omitempty"`
	Text              string    `json:"text"`
	RoutingCredential string    `json:"routing_credential"`
	ReceivedAt        time.Time `json:"received_at"`
}

var ErrBadEvent = errors.New("pipeline: event needs an end user id, text and routing credential")

func NewEvent(endUserID, displayName, text, credential string) (Event, error) {
	ev := Event{
		EndUserID:         strings.TrimSpace(endUserID),
		DisplayName:       displayName,
		Text:              text,
		RoutingCredential: strings.TrimSpace(credential),
		ReceivedAt:        time.Now().UTC(),
	}
	if err := ev.validate(); err != nil {
		return Event{}, err
	}
	id, err := common.NewULID()
	if err != nil {
		return Event{}, err
	}
	ev.ID = id
	return ev, nil
}

func (e Event) validate() error {
	if e.EndUserID == "" || strings.TrimSpace(e.Text) == "" || e.RoutingCredential == "" {
		return ErrBadEvent
	}
	return nil
}

// DecodeEvent parses a queued event body.
func DecodeEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, err
	}
	if err := ev.validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}
