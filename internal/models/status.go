package models

// Leg states reported in IntegrationStatus.Status.
const (
	StatusLogged        = "logged"
	StatusCreated       = "created"
	StatusNotConfigured = "not_configured"
	StatusDispatched    = "dispatched"
	StatusDisabled      = "disabled"
	StatusNoEndpoint    = "no_endpoint"
	StatusFailed        = "failed"
	StatusTimedOut      = "timed_out"
)

// Master log write paths.
const (
	ModeSecure   = "secure"
	ModeFallback = "fallback"
)

// IntegrationStatus is the outcome of one best-effort leg.
type IntegrationStatus struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Status  string `json:"status,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

func Succeeded(status string) IntegrationStatus {
	return IntegrationStatus{Success: true, Status: status}
}

func Failed(status string, err error) IntegrationStatus {
	s := IntegrationStatus{Status: status}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
