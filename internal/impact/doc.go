// Package impact scores the risk of a proposed change to one or more paths.
//
// Each target path is evaluated independently against the governance
// artifacts and governance-bearing directories that match it:
//
//   - Any matched artifact flagged high_importance, git_hook or
//     project_manifest raises the risk to high.
//   - More than five high-confidence artifacts escalates the risk one step.
//   - A matched directory holding more than ten artifacts escalates it one
//     more step.
//
// Escalation never lowers a level. A delete additionally collects the
// subtree below the target as affected children. The overall risk of a
// multi-path request is the maximum of the per-path levels.
//
// Basic usage:
//
//	analyzer := impact.NewAnalyzer(store, logger)
//	report, err := analyzer.AnalyzeGovernance(ctx, []string{"/repo/app"}, "delete")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.OverallRisk)
//
// AnalyzeImpact runs the same evaluation and attaches each path's stored
// directory risk and dependency edges. The dependency view adds
// recommendations but does not change the assessed level.
package impact
