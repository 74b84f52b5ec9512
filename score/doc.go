// Package score turns a scan into a 0..100 safety score.
//
// Scoring is rule based. Each Rule is a CEL expression evaluated against
// three variables:
//
//   - security: the upper-cased network.security value ("" when null)
//   - checks: map(string, bool) holding only the anomaly checks that were
//     measured, keyed by wire name (client_isolation, arp_anomaly, ...)
//   - reputation: map with seen (int) and high_rate (double) for the
//     network's fingerprint before this scan
//
// The score starts at 100, every matching rule adds its (negative) impact
// and the total is clamped to 0..100. The three most negative reasons are
// reported.
//
//	engine := score.Default()
//	res, err := engine.Evaluate(score.Input{Security: "OPEN", Checks: map[string]bool{"tls_intercept": true}})
//	// res.Score == 25, res.Label == score.LabelHigh
//
// Rules can be replaced from YAML with LoadRules:
//
//	rules:
//	  - code: OPEN_WIFI
//	    impact: -40
//	    when: security == "OPEN"
package score
