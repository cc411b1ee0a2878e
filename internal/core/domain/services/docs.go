// Package services provides domain services that coordinate the session and
// order aggregates.
//
// The package includes:
//   - ConversationMachine: the intake conversation state machine. It reads one
//     inbound event, advances the user's session and reports the prompts to send
//     and, on confirmation, the order draft to persist.
//
// The machine performs no I/O. Rendering prompts into localized text, storing
// the session and creating the order belong to the application layer.
package services
