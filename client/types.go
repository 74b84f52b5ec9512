package client

import "encoding/json"

// HealthResult is the outcome of a liveness probe. Detail carries the
// response body or the transport error when OK is false.
type HealthResult struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// ScoreResult is the scoring service's answer. The client passes it through
// unchanged: Raw keeps the exact body so fields this version does not know
// about are not lost.
type ScoreResult struct {
	Score      float64  `json:"score"`
	RiskLabel  string   `json:"risk_label"`
	TopReasons []Reason `json:"top_reasons"`

	// Optional fields the current service also returns.
	Fingerprint string      `json:"fingerprint,omitempty"`
	Advice      []string    `json:"advice,omitempty"`
	Reputation  *Reputation `json:"reputation,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Reputation summarises how often a network fingerprint has been seen and
// how often it scored HIGH.
type Reputation struct {
	SeenCount    int     `json:"seen_count"`
	HighRiskRate float64 `json:"high_risk_rate"`
}

// Reason is one entry of top_reasons. Only Code is guaranteed; every other
// field the service sent is kept in Fields.
type Reason struct {
	Code   string
	Fields map[string]any
}

// Impact returns the numeric impact the service attached to the reason, if any.
func (r Reason) Impact() (float64, bool) {
	v, ok := r.Fields["impact"].(float64)
	return v, ok
}

// UnmarshalJSON keeps every field of the reason object.
func (r *Reason) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	code, _ := fields["code"].(string)
	delete(fields, "code")
	if len(fields) == 0 {
		fields = nil
	}
	*r = Reason{Code: code, Fields: fields}
	return nil
}

// MarshalJSON writes the reason back in its wire form.
func (r Reason) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["code"] = r.Code
	return json.Marshal(out)
}

// optional mirrors the optional ScoreResult fields. It is decoded separately
// so an unexpected shape there cannot fail an otherwise valid response.
type optional struct {
	Fingerprint string      `json:"fingerprint"`
	Advice      []string    `json:"advice"`
	Reputation  *Reputation `json:"reputation"`
}
