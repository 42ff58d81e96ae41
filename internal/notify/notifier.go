package notify

import (
	"context"
	"errors"

	"github.com/northstarhq/northstar/internal/models"
)

// Message is the payload delivered to a conversation.
type Message struct {
	Text    string `json:"text"`
	Summary string `json:"summary,omitempty"`
}

// Notifier is the outbound conversation-delivery capability. Implementations
// must wrap rate-limit and gateway failures in TransientError so the
// dispatcher can distinguish retryable deliveries from permanent ones.
type Notifier interface {
	// SendProactive pushes a message into an existing conversation.
	SendProactive(ctx context.Context, ref models.ConversationRef, msg Message) error

	// CreateConversation opens (or reuses) a 1:1 conversation with a member
	// and returns a reference that can be used with SendProactive.
	CreateConversation(ctx context.Context, serviceURL, memberID string) (models.ConversationRef, error)
}

// Member identifies a single member of a team conversation.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// RosterProvider enumerates the current members of a team conversation.
// Pagination is drained internally; callers always get the full list.
type RosterProvider interface {
	ListMembers(ctx context.Context, serviceURL, teamID string) ([]Member, error)
}

// TransientError marks a delivery failure as retryable (rate limited or a
// gateway hiccup on the platform side).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient delivery error: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is a retryable delivery failure. It is the
// default transience predicate for the dispatcher; notifier implementations
// with their own error taxonomy can supply a different one.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
