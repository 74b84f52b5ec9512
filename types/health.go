package types

// Status is the operational state of a dependency.
type Status string

const (
	// StatusHealthy means the dependency is fully usable.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the dependency answers but something is off
	// (slow, unexpected status code).
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means the dependency cannot be used.
	StatusUnhealthy Status = "unhealthy"
)

// HealthStatus is the result of checking one dependency, or of combining
// several checks.
type HealthStatus struct {
	// Name identifies the checked dependency (e.g. "store", "secret").
	Name string `json:"name,omitempty"`

	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	// Details carries diagnostic context such as the error text or latency.
	Details map[string]any `json:"details,omitempty"`
}

func (h HealthStatus) IsHealthy() bool   { return h.Status == StatusHealthy }
func (h HealthStatus) IsDegraded() bool  { return h.Status == StatusDegraded }
func (h HealthStatus) IsUnhealthy() bool { return h.Status == StatusUnhealthy }

// Usable reports whether the dependency can serve requests, degraded or not.
func (h HealthStatus) Usable() bool {
	return h.Status == StatusHealthy || h.Status == StatusDegraded
}

// NewHealthyStatus creates a healthy status.
func NewHealthyStatus(name, message string) HealthStatus {
	return HealthStatus{Name: name, Status: StatusHealthy, Message: message}
}

// NewDegradedStatus creates a degraded status.
func NewDegradedStatus(name, message string, details map[string]any) HealthStatus {
	return HealthStatus{Name: name, Status: StatusDegraded, Message: message, Details: details}
}

// NewUnhealthyStatus creates an unhealthy status.
func NewUnhealthyStatus(name, message string, details map[string]any) HealthStatus {
	return HealthStatus{Name: name, Status: StatusUnhealthy, Message: message, Details: details}
}
