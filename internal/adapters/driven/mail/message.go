// Package mail builds RFC 822 notification messages with go-mail.
// The smtp and gmail subpackages deliver them.
package mail

import (
	"bytes"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Build converts a notification into a go-mail message.
// It returns the message and its generated Message-ID.
func Build(msg *domain.MailMessage) (*gomail.Msg, string, error) {
	if msg == nil {
		return nil, "", fmt.Errorf("%w: nil message", domain.ErrInvalidInput)
	}

	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, "", fmt.Errorf("%w: sender %q: %w", domain.ErrInvalidInput, msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, "", fmt.Errorf("%w: recipient %q: %w", domain.ErrInvalidInput, msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HasHTML() {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
		for _, asset := range msg.Inline {
			err := m.EmbedReader(asset.Filename, bytes.NewReader(asset.Content),
				gomail.WithFileContentID(asset.ContentID),
				gomail.WithFileContentType(gomail.ContentType(asset.MIMEType)),
			)
			if err != nil {
				return nil, "", fmt.Errorf("embed %s: %w", asset.Filename, err)
			}
		}
	}

	return m, MessageID(m), nil
}

// Raw renders the notification as RFC 822 bytes.
func Raw(msg *domain.MailMessage) ([]byte, string, error) {
	m, id, err := Build(msg)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, "", fmt.Errorf("render message: %w", err)
	}
	return buf.Bytes(), id, nil
}

// MessageID returns the Message-ID header of m, or "" if unset.
func MessageID(m *gomail.Msg) string {
	ids := m.GetGenHeader(gomail.HeaderMessageID)
	if len(ids) == 0 {
		return ""
	}
	return strings.TrimSpace(ids[0])
}
