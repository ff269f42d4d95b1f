package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/rules"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestExtractRuleID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid rule URI",
			uri:      "triagem://policy/rules/merit",
			expected: "merit",
		},
		{
			name:     "invalid prefix",
			uri:      "file://policy/rules/merit",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractRuleID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestServer_handlePolicyResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ordered rules", func(t *testing.T) {
		policy := rules.Simple()
		server := newTestServer(t, &mockTriageService{policy: policy})

		result, err := server.handlePolicyResource(ctx, makeReadResourceRequest("triagem://policy"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var info policyInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, policy.Name, info.Name)
		require.Len(t, info.Rules, len(policy.Rules))
		for i := 1; i < len(info.Rules); i++ {
			assert.LessOrEqual(t, info.Rules[i-1].Priority, info.Rules[i].Priority)
		}
	})

	t.Run("no policy", func(t *testing.T) {
		server := newTestServer(t, &mockTriageService{})

		_, err := server.handlePolicyResource(ctx, makeReadResourceRequest("triagem://policy"))

		assert.Error(t, err)
	})
}

func TestServer_handleInstructionResource(t *testing.T) {
	ctx := context.Background()

	server := newTestServer(t, &mockTriageService{instruction: "Você é um assistente jurídico."})
	result, err := server.handleInstructionResource(ctx, makeReadResourceRequest("triagem://policy/instruction"))

	require.NoError(t, err)
	assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	assert.Equal(t, "Você é um assistente jurídico.", result.Contents[0].Text)

	empty := newTestServer(t, &mockTriageService{})
	_, err = empty.handleInstructionResource(ctx, makeReadResourceRequest("triagem://policy/instruction"))
	assert.Error(t, err)
}

func TestServer_handleRuleResource(t *testing.T) {
	ctx := context.Background()
	policy := rules.Simple()
	server := newTestServer(t, &mockTriageService{policy: policy})

	t.Run("known rule", func(t *testing.T) {
		id := policy.Rules[0].ID
		result, err := server.handleRuleResource(ctx, makeReadResourceRequest("triagem://policy/rules/"+id))

		require.NoError(t, err)
		var info ruleInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, id, info.ID)
		assert.Equal(t, policy.Rules[0].Classification, info.Classification)
	})

	t.Run("unknown rule", func(t *testing.T) {
		_, err := server.handleRuleResource(ctx, makeReadResourceRequest("triagem://policy/rules/nope"))
		assert.Error(t, err)
	})

	t.Run("invalid uri", func(t *testing.T) {
		_, err := server.handleRuleResource(ctx, makeReadResourceRequest("triagem://sources/x"))
		assert.Error(t, err)
	})
}
