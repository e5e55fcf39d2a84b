package connection

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	messageTypeRequest  = "request"
	messageTypeResponse = "response"
	authenticateName    = "authenticate"
)

// Message is the envelope of every musikcube websocket message
type Message struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ID       string          `json:"id"`
	DeviceID string          `json:"device_id,omitempty"`
	Options  json.RawMessage `json:"options"`
}

type authenticateOptions struct {
	Password string `json:"password"`
}

type authenticateResult struct {
	Authenticated bool            `json:"authenticated"`
	Environment   json.RawMessage `json:"environment,omitempty"`
}

func newAuthenticateRequest(deviceID, password string) (*Message, error) {
	opts, err := json.Marshal(authenticateOptions{Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode authenticate options: %w", err)
	}
	return &Message{
		Name:     authenticateName,
		Type:     messageTypeRequest,
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		Options:  opts,
	}, nil
}
