package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
)

// Ensure PageStore implements the interface.
var _ driven.PageStore = (*PageStore)(nil)

// PageStore loads callback pages from user-editable files on disk, falling
// back to embedded defaults.
//
// Initialisation is lazy: the page directory and default files are only
// written on the first Load, never in the constructor.
type PageStore struct {
	mu       sync.RWMutex
	pageDir  string
	cache    map[string]string
	initOnce sync.Once
	initErr  error
}

const pageLayout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>gsignin</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
               display: flex; justify-content: center; align-items: center;
               height: 100vh; margin: 0; background: #FAFAFA; }
        .container { text-align: center; background: white; padding: 48px 64px;
                     border-radius: 16px; border: 1px solid #DADCE0; }
        h1 { color: #202124; margin: 0 0 8px 0; font-size: 24px; font-weight: 600; }
        p { color: #5F6368; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%%s</p>
    </div>
</body>
</html>`

// defaultPages holds the embedded default pages. They are also the initial
// content written for new files.
var defaultPages = map[string]string{
	driven.PageSignedIn:     fmt.Sprintf(pageLayout, "Signed in"),
	driven.PageSignInFailed: fmt.Sprintf(pageLayout, "Sign-in failed"),
}

// NewPageStore creates a new file-based page store.
// If pageDir is empty, defaults to ~/.gsignin/pages/.
func NewPageStore(pageDir string) (*PageStore, error) {
	if pageDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		pageDir = filepath.Join(home, ".gsignin", "pages")
	}

	return &PageStore{
		pageDir: pageDir,
		cache:   make(map[string]string),
	}, nil
}

// Load returns the page template for the given name.
// Falls back to the embedded default when the file is missing or the
// page directory could not be created.
func (s *PageStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if page, ok := defaultPages[name]; ok {
			return page, nil
		}
		return "", fmt.Errorf("page store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if page, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return page, nil
	}
	s.mu.RUnlock()

	// No lock held during I/O.
	page, err := s.loadFromFile(name)
	if err != nil {
		if defaultPage, ok := defaultPages[name]; ok {
			return defaultPage, nil
		}
		return "", fmt.Errorf("load page %q: %w", name, err)
	}

	// Keep whichever concurrent load won.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		page = cached
	} else {
		s.cache[name] = page
	}
	s.mu.Unlock()

	return page, nil
}

// Reload clears the page cache, forcing fresh loads from disk.
func (s *PageStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the page directory path.
func (s *PageStore) Dir() string {
	return s.pageDir
}

// initialise creates the page directory and default files.
func (s *PageStore) initialise() {
	if err := os.MkdirAll(s.pageDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create page directory: %w", err)
		return
	}

	for name, content := range defaultPages {
		path := filepath.Join(s.pageDir, name+".html")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default page %q: %w", name, err)
				return
			}
		}
	}
}

func (s *PageStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.pageDir, name+".html"))
	if err != nil {
		return "", err
	}
	page := strings.TrimSpace(string(data))
	if !strings.Contains(page, "%s") {
		return "", fmt.Errorf("page %q has no %%s placeholder", name)
	}
	return page, nil
}
