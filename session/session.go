// Package session keeps per-conversation state between turns: the input
// awaiting confirmation, the queue of remaining actions from a multi-action
// request, and the last target written to. State is small and disposable;
// losing a session costs the user one re-ask, so stores evict aggressively
// on TTL.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwellhq/inkwell/interpret"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 30 * time.Minute

// State is everything remembered about one conversation.
type State struct {
	ID             string                 `json:"id"`
	PendingInput   string                 `json:"pending_input,omitempty"`
	RequireConfirm bool                   `json:"require_confirm,omitempty"`
	Queue          []interpret.Descriptor `json:"queue,omitempty"`
	LastTarget     string                 `json:"last_target,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ErrSessionNotFound is returned when a session id is unknown or expired.
type ErrSessionNotFound struct {
	ID string
}

func (e ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// Store persists session state. Get returns ErrSessionNotFound for unknown
// or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, state *State) error
	Evict(ctx context.Context, id string) error
}
