package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

// authorizedUser is the credentials file format read by TokenSourceFromFile.
type authorizedUser struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// ConsentConfig identifies the OAuth client used to authorise sending.
type ConsentConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// CredentialsFile receives the authorised user credentials.
	CredentialsFile string

	// Endpoint overrides Google's OAuth endpoint. Used by tests.
	Endpoint *oauth2.Endpoint
}

// Consent runs the offline authorisation-code flow with PKCE for the send scope.
type Consent struct {
	cfg      *oauth2.Config
	path     string
	verifier string
}

// NewConsent prepares a consent for one authorisation.
func NewConsent(cfg ConsentConfig) (*Consent, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("gmail consent requires an OAuth client id and secret")
	}
	if cfg.CredentialsFile == "" {
		return nil, errors.New("gmail consent requires a credentials file path")
	}
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	return &Consent{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{gmailapi.GmailSendScope},
		},
		path:     cfg.CredentialsFile,
		verifier: oauth2.GenerateVerifier(),
	}, nil
}

// AuthCodeURL returns the consent page URL. A refresh token is always requested.
func (c *Consent) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(c.verifier),
	)
}

// Exchange trades the authorisation code for tokens and writes the credentials file.
func (c *Consent) Exchange(ctx context.Context, code string) error {
	tok, err := c.cfg.Exchange(ctx, code, oauth2.VerifierOption(c.verifier))
	if err != nil {
		return fmt.Errorf("exchange gmail authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return errors.New("gmail did not return a refresh token; revoke the app's access and retry")
	}

	data, err := json.MarshalIndent(authorizedUser{
		Type:         "authorized_user",
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RefreshToken: tok.RefreshToken,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write gmail credentials: %w", err)
	}
	return nil
}

// CredentialsFile returns the path the credentials are written to.
func (c *Consent) CredentialsFile() string {
	return c.path
}
