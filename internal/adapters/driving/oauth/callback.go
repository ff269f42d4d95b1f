// Package oauth receives the OAuth redirect that completes a browser consent.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// callbackPath is the path registered as the redirect URI.
const callbackPath = "/callback"

// ErrStateMismatch indicates a redirect that does not belong to this consent.
var ErrStateMismatch = errors.New("oauth state mismatch")

type callbackResult struct {
	code string
	err  error
}

// CallbackServer listens on the loopback interface for a single OAuth redirect.
type CallbackServer struct {
	mu            sync.Mutex
	expectedState string
	listener      net.Listener
	server        *http.Server
	result        chan callbackResult
}

// NewCallbackServer creates a callback server expecting the given state.
func NewCallbackServer(expectedState string) *CallbackServer {
	return &CallbackServer{
		expectedState: expectedState,
		result:        make(chan callbackResult, 1),
	}
}

// Start listens on 127.0.0.1. If port is 0 a free port is chosen.
func (s *CallbackServer) Start(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("callback server already started")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen for oauth callback: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, s.handleCallback)
	s.listener = listener
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliver(callbackResult{err: err})
		}
	}()
	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if e := q.Get("error"); e != "" {
		s.deliver(callbackResult{err: fmt.Errorf("authorization denied: %s %s", e, q.Get("error_description"))})
		fmt.Fprint(w, page("Autorização negada", q.Get("error_description")))
		return
	}
	if q.Get("state") != s.expectedState {
		s.deliver(callbackResult{err: ErrStateMismatch})
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, page("Autorização inválida", "O parâmetro state não confere."))
		return
	}
	code := q.Get("code")
	if code == "" {
		s.deliver(callbackResult{err: errors.New("no authorization code received")})
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, page("Autorização inválida", "Nenhum código recebido."))
		return
	}

	s.deliver(callbackResult{code: code})
	fmt.Fprint(w, page("Autorização concluída", "Você já pode fechar esta janela e voltar ao terminal."))
}

// deliver keeps the first result; later redirects are ignored.
func (s *CallbackServer) deliver(res callbackResult) {
	select {
	case s.result <- res:
	default:
	}
}

// Wait blocks until the authorization code arrives or ctx is done.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-s.result:
		return res.code, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

// Stop shuts the server down. It is safe to call more than once.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

// RedirectURI returns the redirect URI to register with the provider.
func (s *CallbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	port := s.listener.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath)
}

// NewState returns a random state value for one consent.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// OpenBrowser opens the default browser at url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func page(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>triagem</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}
