// Package health checks the dependencies of the scoring service and the
// CLI: TCP reachability, HTTP endpoints and anything exposing Ping.
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	overall := health.Combine(
//	    health.PingCheck(ctx, "store", st),
//	    health.FuncCheck(ctx, "secret", func(ctx context.Context) error {
//	        _, err := provider.Secret(ctx)
//	        return err
//	    }),
//	)
//	if !overall.Usable() {
//	    log.Printf("not ready: %s %v", overall.Message, overall.Details)
//	}
//
// Combine reports unhealthy if any check is unhealthy, degraded if any is
// degraded, and healthy otherwise.
package health
