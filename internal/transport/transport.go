// Package transport delivers outbound session messages.
package transport

import (
	"context"

	"github.com/jkang1643/Exbabel/internal/models"
)

// Sender accepts one outbound message and reports success or failure.
// Failures are logged by the caller, not retried; retry policy belongs to
// the transport implementation itself.
type Sender interface {
	Send(ctx context.Context, msg models.OutboundMessage) error
}
