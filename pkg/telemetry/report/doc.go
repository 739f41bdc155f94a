// Package report emits periodic summaries of shadow delivery outcomes.
//
// # Overview
//
// The reporter tallies every terminal shadow outcome it observes and, on a
// cron schedule, flushes the window into one structured log line:
//
//	{
//	  "msg": "shadow outcome report",
//	  "report_id": "7d63f5a2-...",
//	  "window_start": "2026-08-25T10:29:00Z",
//	  "engine_state": "running",
//	  "delivered": 118,
//	  "failed": 2,
//	  "timed_out": 0,
//	  "dropped": 4,
//	  "cancelled": 0,
//	  "attempts": 124,
//	  "total": 124
//	}
//
// Windows with no traffic are reported at debug level to keep quiet
// deployments quiet.
//
// # Usage
//
//	reporter := report.NewReporter(&cfg.Telemetry.Report, logger)
//
//	engine, _ := shadow.NewEngine(sender,
//	    shadow.WithObserver(shadow.MultiObserver{collector, reporter}),
//	)
//
//	reporter.Start(ctx)
//	defer reporter.Stop()
//
// The schedule accepts standard five-field cron expressions and the
// "@every" descriptor syntax, for example "@every 1m" or "*/5 * * * *".
package report
