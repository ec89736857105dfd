package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2/google"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
)

// DescriptorFileName is the default provider-services descriptor file.
const DescriptorFileName = "GoogleService-Info.json"

// Ensure DescriptorReader implements the interface.
var _ driven.DescriptorReader = (*DescriptorReader)(nil)

// DescriptorReader reads the OAuth client from a bundled descriptor file.
//
// Two layouts are accepted: a flat GoogleService-Info document with a
// top-level CLIENT_ID, and a client secret JSON downloaded from the Google
// Cloud console ({"installed": {...}} or {"web": {...}}). Only the latter
// carries a client secret.
type DescriptorReader struct {
	path string

	once     sync.Once
	clientID string
	secret   string
	err      error
}

// NewDescriptorReader creates a reader for path.
// If path is empty, defaults to ~/.gsignin/GoogleService-Info.json.
func NewDescriptorReader(path string) (*DescriptorReader, error) {
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, DescriptorFileName)
	}
	return &DescriptorReader{path: path}, nil
}

// Path returns the descriptor file path.
func (r *DescriptorReader) Path() string {
	return r.path
}

// ClientID returns the descriptor's client id.
// Returns domain.ErrNotFound if the file does not exist or has no client id.
func (r *DescriptorReader) ClientID() (string, error) {
	r.once.Do(r.read)
	if r.err != nil {
		return "", r.err
	}
	return r.clientID, nil
}

// ClientSecret returns the client secret of a console client JSON.
// Returns domain.ErrNotFound if the descriptor carries none.
func (r *DescriptorReader) ClientSecret() (string, error) {
	r.once.Do(r.read)
	if r.err != nil {
		return "", r.err
	}
	if r.secret == "" {
		return "", domain.ErrNotFound
	}
	return r.secret, nil
}

func (r *DescriptorReader) read() {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.err = domain.ErrNotFound
		return
	}
	if err != nil {
		r.err = fmt.Errorf("reading descriptor %s: %w", r.path, err)
		return
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		r.err = fmt.Errorf("parsing descriptor %s: %w", r.path, err)
		return
	}
	if id, ok := flat[domain.DescriptorClientIDKey].(string); ok && id != "" {
		r.clientID = id
		return
	}

	conf, err := google.ConfigFromJSON(data)
	if err != nil || conf.ClientID == "" {
		r.err = domain.ErrNotFound
		return
	}
	r.clientID = conf.ClientID
	r.secret = conf.ClientSecret
}
