// Package schema provides a small JSON Schema implementation used to guard
// the scan protocol at the HTTP boundary.
//
// Both directions are validated explicitly instead of trusting that a decoded
// body has the expected shape: the client checks ScanPayload before sending and
// ScoreResult after receiving, and the scoring service checks ScanRequest
// before scoring.
//
//	if err := schema.ScoreResult().ValidateBytes(body); err != nil {
//		// the response is malformed, do not use it
//	}
//
// Validation errors are *ValidationError values carrying the dotted path of
// the offending field, e.g. "top_reasons[0].code".
package schema
