package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// DefaultServerURL is the server 'send' uploads to.
const DefaultServerURL = "http://localhost:3000"

var (
	sendURL     string
	sendTimeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <pdf>",
	Short: "Upload a PDF to a running server",
	Long: `Upload a PDF intimation to a triagem server and print the analysis.

The file is posted to /upload-pdf as the multipart field 'pdfFile'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendURL, "url", DefaultServerURL, "server base URL")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 2*time.Minute, "request timeout")
	rootCmd.AddCommand(sendCmd)
}

// uploadReply is the server's answer to an upload.
type uploadReply struct {
	Status   string `json:"status"`
	File     string `json:"file"`
	Analysis string `json:"analysis"`
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	Details  string `json:"details"`
}

func runSend(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	body, contentType, err := multipartPDF(filepath.Base(path), content)
	if err != nil {
		return err
	}

	endpoint := strings.TrimRight(sendURL, "/") + "/upload-pdf"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	cmd.Printf("Enviando %s para %s...\n", filepath.Base(path), endpoint)

	client := &http.Client{Timeout: sendTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var reply uploadReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if resp.StatusCode != http.StatusOK {
		cmd.Println(errorStyle.Render("Erro: " + reply.Error))
		if reply.Details != "" {
			cmd.Println(mutedStyle.Render(reply.Details))
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	cmd.Println(renderAnalysis(reply.File, reply.Analysis))
	return nil
}

// multipartPDF builds the upload body with the part typed as a PDF.
func multipartPDF(filename string, content []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdfFile"; filename=%q`, filename))
	h.Set("Content-Type", domain.MIMETypePDF)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("failed to write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}
