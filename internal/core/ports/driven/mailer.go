package driven

import (
	"context"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Mailer hands a rendered message to the notification transport.
// Delivery success or failure is the only observable signal.
// A Mailer is a process-scoped handle; it is created once and closed at shutdown.
type Mailer interface {
	// Send submits the message once. It never resubmits on failure.
	// Returns the transport's message ID when available.
	Send(ctx context.Context, msg *domain.MailMessage) (string, error)

	// Close releases the transport connection.
	Close() error
}
