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
//   - QueryClient: Sends questions to the retrieval backend
//   - PaperClient: Lists, uploads and downloads backend documents
//   - TokenProvider: Supplies the opaque bearer token
//   - BlobStore: Local cache for document bytes
//   - Viewer: Displays a document at a page
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TranscriptStore: Transcript persistence. Without it, history is lost on exit.
//   - AuthClient: Login and signup. Without it, tokens must be configured by hand.
//   - FileWatcher: Upload folder watching.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
