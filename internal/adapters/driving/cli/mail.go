package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triagem/internal/adapters/driving/oauth"
	"github.com/custodia-labs/triagem/internal/core/domain"
)

// gmailCredentialsFile is the default credentials file name next to config.toml.
const gmailCredentialsFile = "gmail.json"

var (
	mailClientID     string
	mailClientSecret string
	mailCredentials  string
	mailNoBrowser    bool
	mailLoginTimeout time.Duration
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Manage the email transport",
}

var mailLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorise triagem to send email with a Gmail account",
	Long: `Authorise triagem to send email with a Gmail account.

A browser opens on Google's consent page. After approval the refresh token
is written to the credentials file and the mail provider is set to gmail.

The OAuth client (type "Desktop app") is read from --client-id and
--client-secret, or from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.`,
	Args: cobra.NoArgs,
	RunE: runMailLogin,
}

func init() {
	mailLoginCmd.Flags().StringVar(&mailClientID, "client-id", "", "OAuth client id")
	mailLoginCmd.Flags().StringVar(&mailClientSecret, "client-secret", "", "OAuth client secret")
	mailLoginCmd.Flags().StringVar(&mailCredentials, "credentials", "", "credentials file (default next to config.toml)")
	mailLoginCmd.Flags().BoolVar(&mailNoBrowser, "no-browser", false, "print the consent URL instead of opening a browser")
	mailLoginCmd.Flags().DurationVar(&mailLoginTimeout, "timeout", 5*time.Minute, "how long to wait for the consent")
	mailCmd.AddCommand(mailLoginCmd)
	rootCmd.AddCommand(mailCmd)
}

func runMailLogin(cmd *cobra.Command, _ []string) error {
	if appRuntime == nil {
		return errors.New("mail login not configured")
	}

	clientID := firstNonEmpty(mailClientID, os.Getenv("GOOGLE_CLIENT_ID"))
	clientSecret := firstNonEmpty(mailClientSecret, os.Getenv("GOOGLE_CLIENT_SECRET"))
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("%w: an OAuth client id and secret are required", domain.ErrInvalidInput)
	}

	path, err := credentialsPath()
	if err != nil {
		return err
	}

	state, err := oauth.NewState()
	if err != nil {
		return err
	}
	server := oauth.NewCallbackServer(state)
	if err := server.Start(0); err != nil {
		return err
	}
	defer server.Stop()

	consent, err := appRuntime.GmailConsent(clientID, clientSecret, server.RedirectURI(), path)
	if err != nil {
		return err
	}

	authURL := consent.AuthCodeURL(state)
	if mailNoBrowser {
		cmd.Println("Abra esta URL no navegador para autorizar o envio:")
		cmd.Println(authURL)
	} else if err := oauth.OpenBrowser(authURL); err != nil {
		cmd.Println(warningStyle.Render("Não foi possível abrir o navegador. Abra esta URL:"))
		cmd.Println(authURL)
	} else {
		cmd.Println(mutedStyle.Render("Aguardando autorização no navegador..."))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), mailLoginTimeout)
	defer cancel()

	code, err := server.Wait(ctx)
	if err != nil {
		return err
	}
	if err := consent.Exchange(ctx, code); err != nil {
		return err
	}

	if configStore != nil {
		if err := configStore.Set("mail.provider", string(domain.MailProviderGmail)); err != nil {
			return err
		}
		if err := storeValue("mail.gmail_credentials", consent.CredentialsFile()); err != nil {
			return err
		}
	}

	cmd.Printf("%s credentials written to %s\n", successStyle.Render("Authorised:"), consent.CredentialsFile())
	return nil
}

// credentialsPath resolves where the Gmail credentials are written.
func credentialsPath() (string, error) {
	if mailCredentials != "" {
		return mailCredentials, nil
	}
	if appSettings.Mail.GmailTokenFile != "" {
		return appSettings.Mail.GmailTokenFile, nil
	}
	if configStore != nil && filepath.IsAbs(configStore.Path()) {
		return filepath.Join(filepath.Dir(configStore.Path()), gmailCredentialsFile), nil
	}
	return "", fmt.Errorf("%w: --credentials is required", domain.ErrInvalidInput)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
