// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.gsignin.
//
// Adapters:
//   - ConfigStore: TOML-based static configuration with hot reload
//   - PageStore: user-editable callback pages with embedded defaults
//   - DescriptorReader: client id from a GoogleService-Info or console client JSON
package file
