// Package jobs provides the scheduled background work of the order bot.
//
// A single cron entry (github.com/robfig/cron/v3, "@every 1m" by default)
// drives Scheduler.Tick. Each tick:
//
//  1. escalates new orders nobody acknowledged in time, in one batched
//     staff reminder
//  2. offers every DailyJob a run: daily summary, content autopost, session
//     purge, report cleanup and the month-end report
//
// Daily jobs compare the period due at the tick (the local date, or the month
// for the report) against a watermark stored through
// ports.WatermarkRepository, so a restart neither skips nor repeats a period.
// Each job recovers its own panics and logs its own errors.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(handlers, cfg, watermarks, clock, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
package jobs
