package driven

// ConfigSource provides read access to static configuration values.
// Several sources can be layered; the first source holding a key wins.
type ConfigSource interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice configuration value.
	// Returns nil if key doesn't exist or isn't a slice.
	GetStringSlice(key string) []string
}

// ConfigStore provides access to persisted application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	ConfigSource

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Unset removes a configuration value. Removing a missing key is not an error.
	Unset(key string) error

	// Keys returns all configuration keys, sorted.
	Keys() []string

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

// DescriptorReader reads the client id embedded in a bundled
// provider-services descriptor file.
type DescriptorReader interface {
	// ClientID returns the descriptor's client id.
	// Returns domain.ErrNotFound if there is no descriptor or it has no client id.
	ClientID() (string, error)
}
