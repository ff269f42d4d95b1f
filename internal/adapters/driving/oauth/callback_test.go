//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	s := NewCallbackServer(state)
	require.NoError(t, s.Start(0))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func callback(t *testing.T, s *CallbackServer, params url.Values) *http.Response {
	t.Helper()
	resp, err := http.Get(s.RedirectURI() + "?" + params.Encode())
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCallbackServer_RedirectURI(t *testing.T) {
	s := NewCallbackServer("state")
	assert.Empty(t, s.RedirectURI())

	require.NoError(t, s.Start(0))
	defer s.Stop()

	assert.Regexp(t, `^http://127\.0\.0\.1:\d+/callback$`, s.RedirectURI())
}

func TestCallbackServer_StartTwice(t *testing.T) {
	s := startServer(t, "state")
	assert.Error(t, s.Start(0))
}

func TestCallbackServer_Success(t *testing.T) {
	s := startServer(t, "state-123")

	resp := callback(t, s, url.Values{"state": {"state-123"}, "code": {"auth-code"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := s.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "auth-code", code)
}

func TestCallbackServer_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		params     url.Values
		wantStatus int
		wantErr    string
	}{
		{
			name:       "state mismatch",
			params:     url.Values{"state": {"other"}, "code": {"auth-code"}},
			wantStatus: http.StatusBadRequest,
			wantErr:    ErrStateMismatch.Error(),
		},
		{
			name:       "missing state",
			params:     url.Values{"code": {"auth-code"}},
			wantStatus: http.StatusBadRequest,
			wantErr:    ErrStateMismatch.Error(),
		},
		{
			name:       "missing code",
			params:     url.Values{"state": {"state-123"}},
			wantStatus: http.StatusBadRequest,
			wantErr:    "no authorization code",
		},
		{
			name:       "provider error",
			params:     url.Values{"error": {"access_denied"}, "error_description": {"user cancelled"}},
			wantStatus: http.StatusOK,
			wantErr:    "access_denied user cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := startServer(t, "state-123")

			resp := callback(t, s, tt.params)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			_, err := s.Wait(waitCtx(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCallbackServer_FirstResultWins(t *testing.T) {
	s := startServer(t, "state-123")

	callback(t, s, url.Values{"state": {"state-123"}, "code": {"first"}})
	callback(t, s, url.Values{"state": {"state-123"}, "code": {"second"}})

	code, err := s.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}

func TestCallbackServer_WaitCancelled(t *testing.T) {
	s := startServer(t, "state")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackServer_StopIdempotent(t *testing.T) {
	s := NewCallbackServer("state")
	assert.NoError(t, s.Stop())

	require.NoError(t, s.Start(0))
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestPage_EscapesContent(t *testing.T) {
	out := page("<b>título</b>", `a "b" & c`)
	assert.Contains(t, out, "&lt;b&gt;título&lt;/b&gt;")
	assert.Contains(t, out, "a &#34;b&#34; &amp; c")
}
