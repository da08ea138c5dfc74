// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the cortex directory (~/.cortex by default).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
package file
