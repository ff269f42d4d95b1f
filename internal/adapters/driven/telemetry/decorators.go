package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure decorators implement the interfaces.
var (
	_ driven.Oracle = (*Oracle)(nil)
	_ driven.Mailer = (*Mailer)(nil)
)

// Oracle traces every oracle invocation.
type Oracle struct {
	next     driven.Oracle
	provider *Provider
}

// WrapOracle instruments an oracle.
func WrapOracle(next driven.Oracle, p *Provider) *Oracle {
	return &Oracle{next: next, provider: p}
}

// Invoke calls the wrapped oracle inside an "oracle.invoke" span.
func (o *Oracle) Invoke(ctx context.Context, req domain.OracleRequest) (string, error) {
	ctx, done := o.provider.TrackOperation(ctx, "oracle.invoke",
		attribute.String("oracle.name", o.next.Name()),
		attribute.Bool("oracle.pdf", req.Document.IsEmpty() && len(req.PDF) > 0),
	)
	verdict, err := o.next.Invoke(ctx, req)
	done(err)
	return verdict, err
}

// Name returns the wrapped oracle's name.
func (o *Oracle) Name() string {
	return o.next.Name()
}

// AcceptsPDF reports whether the wrapped oracle reads raw PDFs.
func (o *Oracle) AcceptsPDF() bool {
	return o.next.AcceptsPDF()
}

// Ping validates the wrapped oracle.
func (o *Oracle) Ping(ctx context.Context) error {
	return o.next.Ping(ctx)
}

// Close closes the wrapped oracle.
func (o *Oracle) Close() error {
	return o.next.Close()
}

// Mailer traces every send.
type Mailer struct {
	next     driven.Mailer
	provider *Provider
	name     string
}

// WrapMailer instruments a mailer. name identifies the transport (smtp, gmail).
func WrapMailer(next driven.Mailer, p *Provider, name string) *Mailer {
	return &Mailer{next: next, provider: p, name: name}
}

// Send calls the wrapped mailer inside a "mail.send" span.
func (m *Mailer) Send(ctx context.Context, msg *domain.MailMessage) (string, error) {
	ctx, done := m.provider.TrackOperation(ctx, "mail.send",
		attribute.String("mail.transport", m.name),
		attribute.Bool("mail.html", msg != nil && msg.HasHTML()),
	)
	id, err := m.next.Send(ctx, msg)
	done(err)
	return id, err
}

// Close closes the wrapped mailer.
func (m *Mailer) Close() error {
	return m.next.Close()
}
