// Package netguardian assesses the security posture of the Wi-Fi network a
// device is attached to and submits it to a remote scoring service.
//
// # Core Concepts
//
// The module is organized around a small pipeline:
//
//   - security: maps platform-native security codes (Android WifiInfo
//     constants, iOS hotspot security cases) onto a canonical SecurityType and
//     derives a coarse risk label from it
//   - observe: the capability layer that acquires a NetworkObservation from the
//     platform, with a null implementation selected when no platform bridge exists
//   - report: builds the ScanPayload wire body from an observation plus anomaly checks
//   - client: talks to the scoring service (GET /health, POST /v1/scans) and
//     classifies every failure as RemoteRejected, MalformedResponse or TransportError
//   - scan: the orchestration flow tying the above together for one user action
//
// The scoring service itself lives in serve, score, store, secret and fingerprint,
// and the binaries in cmd/.
//
// # Getting Started
//
//	c, err := client.New("https://api.example.com")
//	if err != nil {
//		log.Fatal(err)
//	}
//	scanner := scan.New(c, deviceID, scan.WithObserver(observe.Null{Platform: security.PlatformAndroid}))
//	outcome := scanner.Run(ctx)
//	fmt.Println(outcome.Summary())
//
// # Error Handling
//
// Normalization and classification never fail: anything unrecognised becomes
// UNKNOWN. Errors that can occur carry a kind (see KindOf) so the presentation
// layer can turn them into a status string instead of crashing.
package netguardian
