// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The chat session, document catalog and fetcher live here, together
// with the pure answer parsing and citation resolution functions.
// Services are pure Go with no CGO.
package services
