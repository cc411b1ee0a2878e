// Package errs provides standardized error types for the order bot.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError: For when a required value is missing
//   - ValueIsInvalidError: For when a value is invalid
//   - ValueIsOutOfRangeError: For when a numeric value falls outside its permitted range
//   - ObjectNotFoundError: For when an object cannot be found
//   - VersionIsInvalidError: For when a record changed underneath an optimistic update
//   - StorageError: For when a durable write or read failed
//   - DeliveryError: For when the messaging transport could not deliver a message
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
package errs
