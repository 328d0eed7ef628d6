package service

import "context"

// ScanService periodically walks every reminder of every user, firing
// deadline and interval notifications per the timing rules and pruning
// expired reminders.
type ScanService interface {
	// Start registers the periodic scan with the scheduler.
	Start() error
	// RunOnce executes a single tick over the whole store. Each reminder is
	// evaluated exactly once per tick, also when earlier entries of the same
	// list are removed mid-scan.
	RunOnce(ctx context.Context)
	// Stop stops the underlying scheduler.
	Stop()
}
