package oauth

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// Ensure BrowserPresenter implements the interface.
var _ driven.Presenter = (*BrowserPresenter)(nil)

// BrowserPresenter shows the consent page in the system browser. Present
// returns as soon as the browser has been launched; the redirect arrives
// later through the callback server.
type BrowserPresenter struct {
	out         io.Writer
	interactive bool
	open        func(string) error
}

// NewBrowserPresenter creates a presenter writing instructions to out.
// Instructions are only printed when out is a terminal; stdout is never
// used so that a stdio transport stays clean.
func NewBrowserPresenter(out *os.File) *BrowserPresenter {
	return &BrowserPresenter{
		out:         out,
		interactive: out != nil && term.IsTerminal(int(out.Fd())),
		open:        OpenBrowser,
	}
}

// Present opens authURL in the browser. When the browser cannot be started
// the URL is printed for the user to open by hand; Present fails only if
// there is nobody to show it to.
func (p *BrowserPresenter) Present(_ context.Context, authURL string) error {
	if err := p.open(authURL); err != nil {
		logger.Warn("opening browser: %v", err)
		if !p.interactive {
			return fmt.Errorf("opening browser: %w", err)
		}
		fmt.Fprintf(p.out, "Open this URL in your browser to sign in:\n\n  %s\n\n", authURL)
		return nil
	}

	if p.interactive {
		fmt.Fprintf(p.out, "Opened your browser to sign in. If nothing happened, visit:\n\n  %s\n\n", authURL)
	}
	logger.Info("consent page opened in browser")
	return nil
}
