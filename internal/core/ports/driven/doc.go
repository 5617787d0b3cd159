// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ContentStore: Fetches tables of contents and documents by logical path
//   - ApproximateMatcher: Typo-tolerant substring matching (bitap)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// Adapters may additionally implement these; callers type-assert for them:
//
//   - ContentWatcher: Change notifications, used to clear the index
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
