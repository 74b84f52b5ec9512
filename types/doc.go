// Package types holds the small value types shared by the scoring service,
// its readiness endpoint and the CLI doctor command.
//
//	status := types.NewHealthyStatus("store", "redis reachable")
//	if status.IsHealthy() {
//	    // dependency is usable
//	}
package types
