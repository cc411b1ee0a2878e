package ports

import "context"

// WatermarkRepository remembers the last period a scheduled job ran for, so a
// restart within the same period does not repeat it.
type WatermarkRepository interface {
	// LastRun returns the stored period key (YYYY-MM-DD for daily jobs,
	// YYYY-MM for monthly ones) and false if the job never ran.
	LastRun(ctx context.Context, job string) (string, bool, error)
	SetLastRun(ctx context.Context, job, date string) error
}
