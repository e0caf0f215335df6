// Package preflight validates the environment before indexing starts.
//
// The checks cover:
//   - Vault path exists and is readable
//   - State directory is writable
//   - Disk headroom for the snapshot and record store (minimum 100MB)
//   - File descriptor limits (minimum 1024)
//   - Configuration validity
//   - Embedding provider reachable with the configured model installed
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cfg, stateDir)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
