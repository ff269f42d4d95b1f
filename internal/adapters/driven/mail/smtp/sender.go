// Package smtp delivers notifications over SMTP.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	gomail "github.com/wneessen/go-mail"

	"github.com/custodia-labs/triagem/internal/adapters/driven/mail"
	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure Sender implements the interface.
var _ driven.Mailer = (*Sender)(nil)

// Default configuration values.
const (
	DefaultPort         = 587
	DefaultDialAttempts = 3
	DefaultDialBackoff  = 500 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// TLS selects implicit TLS (SMTPS). Otherwise STARTTLS is required.
	TLS bool

	// DialAttempts bounds connection attempts (default: 3).
	DialAttempts int

	// DialBackoff is the base of the Fibonacci backoff between attempts.
	DialBackoff time.Duration

	// Timeout bounds each SMTP operation (default: 30s).
	Timeout time.Duration
}

// client is the part of the go-mail client the sender uses.
type client interface {
	DialWithContext(ctx context.Context) error
	Send(msgs ...*gomail.Msg) error
	Close() error
}

// Sender delivers messages through one process-scoped SMTP client.
// Sends are serialised; only dialling is retried so a message is never submitted twice.
type Sender struct {
	mu      sync.Mutex
	client  client
	backoff func() retry.Backoff
}

// NewSender creates an SMTP sender from settings.
func NewSender(cfg Config) (*Sender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host is required", domain.ErrInvalidInput)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.TLS {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	c, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return newSender(c, cfg), nil
}

func newSender(c client, cfg Config) *Sender {
	attempts := cfg.DialAttempts
	if attempts <= 0 {
		attempts = DefaultDialAttempts
	}
	base := cfg.DialBackoff
	if base <= 0 {
		base = DefaultDialBackoff
	}
	return &Sender{
		client: c,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(uint64(attempts-1), retry.NewFibonacci(base))
		},
	}
}

// Send dials, submits the message once and closes the connection.
func (s *Sender) Send(ctx context.Context, msg *domain.MailMessage) (string, error) {
	m, id, err := mail.Build(msg)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := 0
	err = retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		if err := s.client.DialWithContext(ctx); err != nil {
			slog.WarnContext(ctx, "smtp dial failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("smtp dial: %w", err)
	}
	defer s.client.Close()

	if err := s.client.Send(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return id, nil
}

// Close is a no-op; connections are closed after each send.
func (s *Sender) Close() error {
	return nil
}
