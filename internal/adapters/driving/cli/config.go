package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in ~/.triagem/config.toml.

Environment variables (GEMINI_API_KEY, PORT, SMTP_HOST, ...) and .env files
take precedence over stored values.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved settings",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a stored value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a value",
	Long: `Store a value. Booleans, integers and numbers are stored typed;
a comma-separated value is stored as a list.

Examples:
  triagem config set oracle.provider gemini
  triagem config set oracle.requests_per_minute 15
  triagem config set server.allowed_origins https://a.example,https://b.example`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key>",
	Short: "Store a credential read without echo",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetSecret,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetSecretCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s := appSettings

	cmd.Println(titleStyle.Render("Current Settings"))
	cmd.Println()

	cmd.Println(labelStyle.Render("[Server]"))
	cmd.Printf("  Port: %d\n", s.Server.Port)
	cmd.Printf("  Mode: %s\n", s.Server.Mode)
	cmd.Printf("  Allowed Origins: %s\n", strings.Join(s.Server.AllowedOrigins, ", "))
	cmd.Println()

	cmd.Println(labelStyle.Render("[Oracle]"))
	cmd.Printf("  Provider: %s\n", s.Oracle.Provider.Description())
	if s.Oracle.Model != "" {
		cmd.Printf("  Model: %s\n", s.Oracle.Model)
	}
	if s.Oracle.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", s.Oracle.BaseURL)
	}
	if s.Oracle.Provider.RequiresAPIKey() {
		if s.Oracle.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(s.Oracle.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Timeout: %s\n", s.Oracle.Timeout)
	if s.Oracle.RequestsPerMinute > 0 {
		cmd.Printf("  Requests per minute: %d\n", s.Oracle.RequestsPerMinute)
	}
	status := successStyle.Render("configured")
	if !s.Oracle.IsConfigured() {
		status = errorStyle.Render("not configured")
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println(labelStyle.Render("[Mail]"))
	cmd.Printf("  Provider: %s\n", s.Mail.Provider)
	if s.Mail.From != "" {
		cmd.Printf("  From: %s\n", s.Mail.From)
	}
	if s.Mail.Host != "" {
		cmd.Printf("  Server: %s:%d\n", s.Mail.Host, s.Mail.Port)
	}
	if s.Mail.Password != "" {
		cmd.Printf("  Password: %s\n", maskAPIKey(s.Mail.Password))
	}
	cmd.Println()

	cmd.Println(labelStyle.Render("[Store]"))
	cmd.Printf("  Backend: %s\n", s.Store.Backend)
	cmd.Println()

	cmd.Println(labelStyle.Render("[Policy]"))
	if s.Policy.File != "" {
		cmd.Printf("  File: %s (watch: %t)\n", s.Policy.File, s.Policy.Watch)
	} else {
		cmd.Printf("  Name: %s\n", s.Policy.Name)
	}
	cmd.Println()

	cmd.Println(labelStyle.Render("[Telemetry]"))
	cmd.Printf("  Enabled: %t\n", s.Telemetry.Enabled)
	if s.Telemetry.Enabled {
		cmd.Printf("  Endpoint: %s\n", s.Telemetry.Endpoint)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	val, ok := configStore.Get(key)
	if !ok {
		return fmt.Errorf("%s is not set", key)
	}
	if isSecret(key) {
		cmd.Println(maskAPIKey(fmt.Sprint(val)))
		return nil
	}
	cmd.Println(fmt.Sprint(val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	if isSecret(key) {
		return fmt.Errorf("%s is a credential, use 'triagem config set-secret %s'", key, key)
	}
	if err := storeValue(key, parseValue(args[1])); err != nil {
		return err
	}
	cmd.Printf("%s %s\n", successStyle.Render("Saved"), key)
	return nil
}

func runConfigSetSecret(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	cmd.Printf("%s: ", key)
	secret := readPassword()
	cmd.Println()
	if secret == "" {
		return fmt.Errorf("no value entered for %s", key)
	}

	if err := storeValue(key, secret); err != nil {
		return err
	}
	cmd.Printf("%s %s (%s)\n", successStyle.Render("Saved"), key, maskAPIKey(secret))
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	cmd.Println(configStore.Path())
	return nil
}

func storeValue(key string, value any) error {
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := configStore.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func isSecret(key string) bool {
	if appRuntime != nil {
		return appRuntime.IsSecret(key)
	}
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "password")
}

// parseValue types a command line value for the TOML store.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		return list
	}
	return raw
}

func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
