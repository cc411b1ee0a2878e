package ports

import "time"

// Clock is the source of the current time for the scheduler and handlers.
type Clock interface {
	Now() time.Time
}
