package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triagem/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/triagem/internal/core/domain"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP intake server",
	Long: `Start the HTTP server that receives intimations.

Endpoints:
  POST /upload-pdf   multipart field 'pdfFile' (PDF up to 10MB), answered with
                     the analysis; or JSON {from, subject, pdfText}, answered
                     by email to 'from'
  POST /v1/classify  JSON {text}, answered with the structured classification
  GET  /health       liveness and active policy

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from settings, 3000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureServices(ctx); err != nil {
		return err
	}

	port := appSettings.Server.Port
	if servePort > 0 {
		port = servePort
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Triage:    triageService,
		Extractor: extractor,
	}, httpapi.Config{
		Port:           port,
		Mode:           appSettings.Server.Mode,
		AllowedOrigins: appSettings.Server.AllowedOrigins,
		Middleware:     middleware,
		OnReply: func(r *domain.Reply) {
			if r.Analysis != "" {
				cmd.Println(renderAnalysis(r.File, r.Analysis))
				return
			}
			cmd.Println(successStyle.Render(r.Message))
		},
	})
	if err != nil {
		return err
	}

	if p := triageService.Policy(); p != nil {
		cmd.Printf("%s %s\n", labelStyle.Render("Policy:"), p.Name)
	}
	cmd.Printf("%s http://localhost%s\n", titleStyle.Render("triagem listening on"), server.Addr())
	return server.Run(ctx)
}
