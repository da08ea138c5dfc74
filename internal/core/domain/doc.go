// Package domain defines the core business entities for Cortex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Message: One entry of the chat transcript
//   - Citation: A reference from an answer into a source document
//   - ParsedAnswer: The tolerant decoding of a backend answer
//   - DocumentEntry: A document known to the client catalog
//   - ContentHandle: A reference to locally available document bytes
//   - Navigation: The outcome of moving the viewer to a citation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
