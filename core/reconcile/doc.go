// Package reconcile provides the generic building blocks shared by reconcilers:
// outcome and report types, a read-mostly Index used for snapshot tables, and Run,
// which drives many independent per-record reconcile calls over a bounded worker pool.
//
// # Outcomes
//
// Every reconcile call ends in exactly one Outcome:
//   - updated: the target row was rewritten and the unit of work committed
//   - unchanged: the unit committed without touching the target row
//   - rolled_back: a persistence step failed and the unit was rolled back
//   - skipped: the observation was never finalized upstream
//   - failed: nothing was attempted (for example, no prior snapshot entry)
//
// # Dry Run
//
// Options.DryRun keeps every decision but rolls the unit back. Results carry the
// outcome that would have been committed with DryRun set.
//
// # Usage Example
//
//	report := reconcile.Run(ctx, observations, cfg.WorkerCount(), cfg.Options(),
//	    func(ctx context.Context, o models.Observation) reconcile.Result {
//	        res, _ := svc.Intake(ctx, o)
//	        return res
//	    })
//	fmt.Println(report.Summary.Updated)
package reconcile
