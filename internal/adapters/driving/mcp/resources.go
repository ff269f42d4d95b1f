package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for triagem resources.
	uriScheme = "triagem://"
)

// policyInfo is the JSON view of a policy.
type policyInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Variant     string     `json:"variant"`
	Rules       []ruleInfo `json:"rules"`
}

// ruleInfo is the JSON view of one rule.
type ruleInfo struct {
	ID             string                `json:"id"`
	Tier           string                `json:"tier"`
	Priority       int                   `json:"priority"`
	Classification string                `json:"classification"`
	Action         string                `json:"action"`
	Deadlines      []domain.DeadlineRule `json:"deadlines,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "policy",
		Name:        "policy",
		Description: "The active classification policy and its ordered rules",
		MIMEType:    "application/json",
	}, s.handlePolicyResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "policy/instruction",
		Name:        "policy-instruction",
		Description: "The instruction handed to the classification oracle",
		MIMEType:    "text/plain",
	}, s.handleInstructionResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "policy/rules/{ruleId}",
		Name:        "policy-rule",
		Description: "A single rule of the active policy",
		MIMEType:    "application/json",
	}, s.handleRuleResource)
}

// handlePolicyResource returns the active policy.
func (s *Server) handlePolicyResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	policy := s.ports.Triage.Policy()
	if policy == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info := policyInfo{
		Name:        policy.Name,
		Description: policy.Description,
		Variant:     string(policy.Variant),
	}
	for _, r := range policy.OrderedRules() {
		info.Rules = append(info.Rules, toRuleInfo(r))
	}

	return jsonResult(req.Params.URI, info)
}

// handleInstructionResource returns the compiled oracle instruction.
func (s *Server) handleInstructionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	instruction := s.ports.Triage.Instruction()
	if instruction == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     instruction,
		}},
	}, nil
}

// handleRuleResource returns one rule of the active policy.
func (s *Server) handleRuleResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ruleID := extractRuleID(req.Params.URI)
	policy := s.ports.Triage.Policy()
	if ruleID == "" || policy == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	for _, r := range policy.Rules {
		if r.ID == ruleID {
			return jsonResult(req.Params.URI, toRuleInfo(r))
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func toRuleInfo(r domain.Rule) ruleInfo {
	return ruleInfo{
		ID:             r.ID,
		Tier:           r.Tier.String(),
		Priority:       r.Priority,
		Classification: r.Classification,
		Action:         r.Action,
		Deadlines:      r.Deadlines,
	}
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRuleID extracts the rule ID from a URI like triagem://policy/rules/{ruleId}.
func extractRuleID(uri string) string {
	const prefix = uriScheme + "policy/rules/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
