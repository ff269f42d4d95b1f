package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

// dateLayout is the accepted publication date format.
const dateLayout = "2006-01-02"

// ClassifyInput is the input schema for the classify_intimation tool.
type ClassifyInput struct {
	Text        string `json:"text" jsonschema:"the full text of the court intimation"`
	Source      string `json:"source,omitempty" jsonschema:"name of the document the text came from"`
	PublishedAt string `json:"published_at,omitempty" jsonschema:"publication date (YYYY-MM-DD) used to compute due dates"`
}

// ClassifyOutput is the output schema for the classify_intimation tool.
type ClassifyOutput struct {
	Classification  string                 `json:"classification"`
	SuggestedAction string                 `json:"suggested_action"`
	DeadlineDays    *int                   `json:"deadline_days,omitempty"`
	Deadlines       []DeadlineOutput       `json:"deadlines,omitempty"`
	Verdict         string                 `json:"verdict"`
	RuleID          string                 `json:"rule_id,omitempty"`
	Risk            *domain.RiskAssessment `json:"risk,omitempty"`
	NotAnIntimation bool                   `json:"not_an_intimation"`
}

// DeadlineOutput is one recourse deadline of a classification.
type DeadlineOutput struct {
	Name    string `json:"name"`
	Days    int    `json:"days"`
	DueDate string `json:"due_date,omitempty"`
}

// TriageInput is the input schema for the triage_and_email tool.
type TriageInput struct {
	Text        string `json:"text" jsonschema:"the full text of the court intimation"`
	Destination string `json:"destination" jsonschema:"email address that receives the analysis"`
	Subject     string `json:"subject,omitempty" jsonschema:"subject of the notification email"`
	PublishedAt string `json:"published_at,omitempty" jsonschema:"publication date (YYYY-MM-DD) used to compute due dates"`
}

// TriageOutput is the output schema for the triage_and_email tool.
type TriageOutput struct {
	JobID          string `json:"job_id"`
	State          string `json:"state"`
	Destination    string `json:"destination"`
	MessageID      string `json:"message_id,omitempty"`
	Classification string `json:"classification"`
	Verdict        string `json:"verdict"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_intimation",
		Description: "Classify a Brazilian court intimation and suggest the procedural action and deadline",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "triage_and_email",
		Description: "Classify a court intimation and email the analysis to the destination address",
	}, s.handleTriage)
}

// handleClassify handles the classify_intimation tool invocation.
func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	publishedAt, err := parseDate(input.PublishedAt)
	if err != nil {
		return nil, ClassifyOutput{}, err
	}

	result, err := s.ports.Triage.Classify(ctx, domain.NewTextDocument(input.Text, input.Source))
	if err != nil {
		return nil, ClassifyOutput{}, toolError(err)
	}
	if publishedAt != nil {
		if policy := s.ports.Triage.Policy(); policy != nil {
			rules.ResolveDueDates(result, policy, *publishedAt)
		}
	}

	return nil, classifyOutput(result), nil
}

// handleTriage handles the triage_and_email tool invocation.
func (s *Server) handleTriage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TriageInput,
) (*mcp.CallToolResult, TriageOutput, error) {
	publishedAt, err := parseDate(input.PublishedAt)
	if err != nil {
		return nil, TriageOutput{}, err
	}

	subject := input.Subject
	if subject == "" {
		subject = "Análise de intimação"
	}

	outcome, err := s.ports.Triage.Triage(ctx, domain.TriageRequest{
		Document:    domain.NewTextDocument(input.Text, subject),
		Channel:     domain.ChannelEmail,
		Destination: strings.TrimSpace(input.Destination),
		Subject:     subject,
		PublishedAt: publishedAt,
	})
	if err != nil {
		if outcome != nil {
			return nil, TriageOutput{}, fmt.Errorf("job %s ended %s: %w", outcome.JobID, outcome.State, toolError(err))
		}
		return nil, TriageOutput{}, toolError(err)
	}

	output := TriageOutput{
		JobID:       outcome.JobID,
		State:       string(outcome.State),
		Destination: strings.TrimSpace(input.Destination),
	}
	if outcome.Receipt != nil {
		output.MessageID = outcome.Receipt.MessageID
	}
	if outcome.Result != nil {
		output.Classification = outcome.Result.Classification
		output.Verdict = outcome.Result.Verdict
	}
	return nil, output, nil
}

func classifyOutput(result *domain.ClassificationResult) ClassifyOutput {
	output := ClassifyOutput{
		Classification:  result.Classification,
		SuggestedAction: result.SuggestedAction,
		DeadlineDays:    result.DeadlineDays,
		Verdict:         result.Verdict,
		RuleID:          result.RuleID,
		Risk:            result.Risk,
		NotAnIntimation: result.NotAnIntimation,
	}
	for _, d := range result.Deadlines {
		out := DeadlineOutput{Name: d.Name, Days: d.Days}
		if d.DueDate != nil {
			out.DueDate = d.DueDate.Format(dateLayout)
		}
		output.Deadlines = append(output.Deadlines, out)
	}
	return output
}

// toolError prefixes err with its stable kind so assistants can branch on it.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", domain.KindOf(err), err)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: published_at must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return &t, nil
}
