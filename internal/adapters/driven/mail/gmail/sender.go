// Package gmail delivers notifications through the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/triagem/internal/adapters/driven/mail"
	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
)

// Ensure Sender implements the interface.
var _ driven.Mailer = (*Sender)(nil)

// userID is the Gmail alias for the authenticated account.
const userID = "me"

// Sender delivers messages with users.messages.send.
type Sender struct {
	svc *gmailapi.Service
}

// TokenSourceFromFile reads Google credentials JSON (an authorized user with a
// refresh token, or a service account) scoped to sending mail.
func TokenSourceFromFile(ctx context.Context, path string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, gmailapi.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	return creds.TokenSource, nil
}

// NewSender creates a Gmail sender using the given token source.
// Extra client options (endpoint, HTTP client) are for tests.
func NewSender(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Sender, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Sender{svc: svc}, nil
}

// Send submits the message once and returns the Gmail message ID.
func (s *Sender) Send(ctx context.Context, msg *domain.MailMessage) (string, error) {
	raw, _, err := mail.Raw(msg)
	if err != nil {
		return "", err
	}

	sent, err := s.svc.Users.Messages.Send(userID, &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", wrapError(err)
	}
	return sent.Id, nil
}

// Close releases resources.
func (s *Sender) Close() error {
	return nil
}

// wrapError adds a hint for the common credential failures.
func wrapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("gmail: unauthorised (invalid credentials): %w", err)
		case http.StatusForbidden:
			return fmt.Errorf("gmail: forbidden (missing gmail.send scope): %w", err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("gmail: rate limit exceeded: %w", err)
		}
	}
	return fmt.Errorf("gmail send: %w", err)
}
