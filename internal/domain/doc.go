// Package domain defines the core voting types and interfaces.
//
// This package contains concept-oriented files (vote.go, tally.go, store.go,
// observer.go, errors.go) with shared types and cross-cutting interfaces. No
// implementation code - just contracts. Prevents circular imports by keeping
// interfaces on the consumer side.
package domain
