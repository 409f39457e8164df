package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hr-backend/domain/core/entities"
)

// Type discriminates notification envelopes on the wire.
type Type string

const TypeUserCreated Type = "user_created"

var ErrMalformed = errors.New("malformed notification envelope")

// Header is the part every envelope shares. ID is the idempotency key
// consumers use to recognise a redelivered message.
type Header struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Timestamp string `json:"timestamp"`
}

// UserCreated announces a newly committed user.
type UserCreated struct {
	Header
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserCreated builds the envelope for u; the timestamp is the user's
// creation time in RFC 3339.
func NewUserCreated(u *entities.User) UserCreated {
	return UserCreated{
		Header: Header{
			ID:        uuid.NewString(),
			Type:      TypeUserCreated,
			Timestamp: u.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func (e UserCreated) validate() error {
	if e.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be positive", ErrMalformed)
	}
	if e.Username == "" || e.Email == "" {
		return fmt.Errorf("%w: username and email are required", ErrMalformed)
	}
	return nil
}

// PeekHeader decodes only the shared header so the body can be routed by type.
func PeekHeader(body []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(body, &h); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if h.Type == "" {
		return Header{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return h, nil
}

// DecodeUserCreated parses and checks a user_created body.
func DecodeUserCreated(body []byte) (UserCreated, error) {
	var e UserCreated
	if err := json.Unmarshal(body, &e); err != nil {
		return UserCreated{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if e.Type != TypeUserCreated {
		return UserCreated{}, fmt.Errorf("%w: unexpected type %q", ErrMalformed, e.Type)
	}
	if err := e.validate(); err != nil {
		return UserCreated{}, err
	}
	return e, nil
}

// Unwrap strips the event wrapper added when an envelope reaches the queue
// through an EventBridge rule; any other body is returned unchanged.
func Unwrap(body []byte) []byte {
	var wrapper struct {
		DetailType string          `json:"detail-type"`
		Detail     json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return body
	}
	if wrapper.DetailType == "" || len(wrapper.Detail) == 0 {
		return body
	}
	return wrapper.Detail
}
