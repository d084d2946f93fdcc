// Package events defines the push side of state synchronization. Services
// publish events after committing state changes; subscribers treat them as
// hints to re-fetch authoritative state. Polling remains the correctness
// backstop, so every publisher here is fire-and-forget.
package events

import (
	"context"

	"github.com/mediconnect/api/internal/platform/websocket"
)

// Publisher delivers events to interested clients. Implementations must be
// best-effort: a failed delivery is logged, never propagated to the caller's
// request.
type Publisher interface {
	Publish(ctx context.Context, event websocket.Event) error
}

// Nop discards all events. Used when no real-time transport is wired.
type Nop struct{}

func (Nop) Publish(context.Context, websocket.Event) error { return nil }
