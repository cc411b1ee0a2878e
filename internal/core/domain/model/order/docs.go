// Package order provides the Order aggregate created when a customer confirms
// an intake flow, together with the status graph staff move it through.
//
// The package includes:
//   - Order: the aggregate root holding the collected request and its lifecycle
//   - Status: the lifecycle state machine
//   - StatusChange: one entry of the append-only status history
//   - InvalidTransitionError: returned for edges outside the status graph
//
// Key business rules:
//   - An order is created in status New and is never deleted
//   - Status follows New -> Acknowledged -> InProgress -> Fulfilled
//   - New, Acknowledged and InProgress may also move to Cancelled
//   - Fulfilled and Cancelled are final
//   - The last reminder time is never earlier than the creation time
package order
