// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - IdentityProvider: The native sign-in SDK (Google OAuth for installed apps)
//   - Presenter: Hosts the interactive consent flow
//   - ConfigSource: Static configuration values (file, environment)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - DescriptorReader: Bundled provider-services descriptor. Without it the
//     client id must come from static configuration.
//   - SessionCache: Used by identity provider adapters, not by core services.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven
