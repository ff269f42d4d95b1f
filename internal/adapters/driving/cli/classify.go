package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/rules"
	"github.com/custodia-labs/triagem/internal/logger"
)

var (
	classifyJSON      bool
	classifyPublished string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file|-]",
	Short: "Classify an intimation",
	Long: `Classify an intimation and print the suggested action and deadline.

The document is read from a text or PDF file, or from stdin when the
argument is '-' or omitted. Nothing is sent; use 'serve' to deliver
analyses by email.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output the result as JSON")
	classifyCmd.Flags().StringVar(&classifyPublished, "published", "", "publication date (YYYY-MM-DD) to compute due dates")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var publishedAt *time.Time
	if classifyPublished != "" {
		t, err := time.Parse("2006-01-02", classifyPublished)
		if err != nil {
			return fmt.Errorf("%w: --published must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		publishedAt = &t
	}

	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	logger.Section("Classify")
	logger.Debug("read %s: %d bytes (%s)", raw.Name, len(raw.Content), raw.MIMEType)

	if err := ensureServices(ctx); err != nil {
		return err
	}

	result, err := classifyRaw(cmd, raw)
	if err != nil {
		return fmt.Errorf("classification failed (%s): %w", domain.KindOf(err), err)
	}
	logger.Info("rule %s matched: %s", result.RuleID, result.Classification)
	if publishedAt != nil {
		if p := triageService.Policy(); p != nil {
			rules.ResolveDueDates(result, p, *publishedAt)
		}
	}

	if classifyJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(renderResult(result))
	return nil
}

// classifyRaw classifies text directly. PDFs are extracted first; when no
// extractor is installed the bytes go through a synchronous triage job so
// the oracle can read them.
func classifyRaw(cmd *cobra.Command, raw *domain.RawDocument) (*domain.ClassificationResult, error) {
	ctx := cmd.Context()
	if raw.MIMEType != domain.MIMETypePDF {
		return triageService.Classify(ctx, domain.NewTextDocument(string(raw.Content), raw.Name))
	}

	if extractor != nil {
		doc, err := extractor.Extract(ctx, raw)
		switch {
		case err == nil && !doc.IsEmpty():
			doc.SourceName = raw.Name
			return triageService.Classify(ctx, doc)
		case err == nil:
			logger.Debug("no text extracted from %s", raw.Name)
		case err != nil && !errors.Is(err, domain.ErrExtractorUnavailable):
			return nil, err
		}
	}

	outcome, err := triageService.Triage(ctx, domain.TriageRequest{
		Document: domain.Document{SourceName: raw.Name},
		PDF:      raw.Content,
		Channel:  domain.ChannelHTTP,
	})
	if err != nil {
		return nil, err
	}
	return outcome.Result, nil
}

// readInput reads the document named by args, or stdin.
func readInput(cmd *cobra.Command, args []string) (*domain.RawDocument, error) {
	name := "stdin"
	var content []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), domain.MaxUploadBytes+1))
	} else {
		name = filepath.Base(args[0])
		content, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if len(content) > domain.MaxUploadBytes {
		return nil, domain.ErrDocumentTooLarge
	}

	mimeType := "text/plain"
	if bytes.HasPrefix(content, []byte("%PDF")) || strings.EqualFold(filepath.Ext(name), ".pdf") {
		mimeType = domain.MIMETypePDF
	}
	return &domain.RawDocument{Name: name, MIMEType: mimeType, Content: content}, nil
}
