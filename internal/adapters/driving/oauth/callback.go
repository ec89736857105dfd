// Package oauth provides the loopback redirect server, the browser
// presenter and related browser utilities.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// CallbackPath is the path the identity provider redirects to.
const CallbackPath = "/callback"

// notificationBuffer bounds redirects queued before the bridge drains them.
const notificationBuffer = 16

// DefaultReplyTimeout bounds the wait for the bridge to accept a redirect
// before a page is rendered.
const DefaultReplyTimeout = 5 * time.Second

// Messages shown on the result pages.
const (
	msgSignedIn  = "You can close this window and return to the application."
	msgNoCode    = "No authorization code received."
	msgNotActive = "This sign-in request is no longer active. Return to the application and try again."
	msgNoReply   = "The application did not respond. Return to it to check whether sign-in finished."
)

// CallbackServer receives OAuth redirects on the loopback interface and
// posts each one as a domain.NotificationOpenURL notification. The success
// page is only shown once the consumer replies that it accepted the
// redirect.
type CallbackServer struct {
	// ReplyTimeout bounds the wait for the consumer's reply.
	ReplyTimeout time.Duration

	mu            sync.Mutex
	port          int
	pages         driven.PageStore
	notifications chan domain.Notification
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a callback server. If port is 0 a random free
// port is chosen on Start. pages may be nil, in which case plain text is served.
func NewCallbackServer(port int, pages driven.PageStore) *CallbackServer {
	return &CallbackServer{
		ReplyTimeout:  DefaultReplyTimeout,
		port:          port,
		pages:         pages,
		notifications: make(chan domain.Notification, notificationBuffer),
		errChan:       make(chan error, 1),
	}
}

// Notifications returns the channel redirect notifications are posted on.
func (s *CallbackServer) Notifications() <-chan domain.Notification {
	return s.notifications
}

// Start starts the callback server on the configured port.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+CallbackPath, s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Matters when port was 0.
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	server := s.server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	logger.Debug("callback server listening on %s", s.redirectURI())
	return nil
}

// Serve blocks until ctx is done or the server fails, starting the server
// first unless Start has already been called.
func (s *CallbackServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	started := s.listener != nil
	s.mu.Unlock()
	if !started {
		if err := s.Start(); err != nil {
			return err
		}
	}
	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-s.errChan:
		_ = s.Stop()
		return fmt.Errorf("callback server: %w", err)
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	redirect := &url.URL{
		Scheme:   "http",
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}

	reply := make(chan bool, 1)
	n := domain.Notification{
		Name:   domain.NotificationOpenURL,
		Object: map[string]any{"url": redirect},
		Reply:  reply,
	}
	select {
	case s.notifications <- n:
	case <-r.Context().Done():
		return
	}

	query := r.URL.Query()
	switch {
	case query.Get("error") != "":
		desc := query.Get("error_description")
		if desc == "" {
			desc = query.Get("error")
		}
		s.render(w, driven.PageSignInFailed, desc)
		return
	case query.Get("code") == "":
		s.render(w, driven.PageSignInFailed, msgNoCode)
		return
	}

	timer := time.NewTimer(s.ReplyTimeout)
	defer timer.Stop()
	select {
	case handled := <-reply:
		if handled {
			s.render(w, driven.PageSignedIn, msgSignedIn)
			return
		}
		logger.Debug("redirect for an unknown sign-in request")
		s.render(w, driven.PageSignInFailed, msgNotActive)
	case <-timer.C:
		s.render(w, driven.PageSignInFailed, msgNoReply)
	case <-r.Context().Done():
	}
}

func (s *CallbackServer) render(w http.ResponseWriter, page, message string) {
	escaped := html.EscapeString(message)
	if s.pages != nil {
		tmpl, err := s.pages.Load(page)
		if err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = fmt.Fprintf(w, tmpl, escaped)
			return
		}
		logger.Warn("loading page %s: %v", page, err)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, message)
}

// Stop shuts down the callback server. Stopping twice is not an error.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirectURI()
}

func (s *CallbackServer) redirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", s.port, CallbackPath)
}

// OpenBrowser opens the default browser to the given URL.
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

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", startPort, endPort)
}
