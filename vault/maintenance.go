package vault

// MaintenanceReport summarizes a startup maintenance pass.
type MaintenanceReport struct {
	Flattened    int // stray nested files moved to the storage root
	SweptExpired int // expired files removed
	FlattenErr   error
	SweepErr     error
}

// Maintain runs the startup housekeeping pass: flatten any nested
// files in the storage directory, then sweep expired entries. Failures
// are reported in the result and logged, never returned; maintenance
// must not block normal operation.
func (e *Engine) Maintain() MaintenanceReport {
	var report MaintenanceReport

	report.Flattened, report.FlattenErr = e.Store.Flatten()
	if report.FlattenErr != nil {
		e.Logger.Warn("storage flatten failed", "error", report.FlattenErr)
	}

	report.SweptExpired, report.SweepErr = e.Ledger.SweepExpired(e.Store)
	if report.SweepErr != nil {
		e.Logger.Warn("expiry sweep failed", "error", report.SweepErr)
	}

	if report.Flattened > 0 || report.SweptExpired > 0 {
		e.Logger.Info("maintenance complete",
			"flattened", report.Flattened,
			"swept_expired", report.SweptExpired)
	}
	return report
}
