// Package kernel holds the value objects shared by the conversation and order
// aggregates: the flow identifier, the conversation locale, the normalized
// phone number and the child size descriptor.
//
// All value objects are immutable and must be obtained through their
// constructors; a zero value fails Validate.
package kernel
