// Package app provides the application service layer.
//
// Orchestrates the voting pipeline: message intake into the ledger, the
// periodic tally cycle, and observer fan-out. Sits between the chat/HTTP
// adapters and the domain contracts. Depends on domain interfaces, not
// concrete implementations.
package app
