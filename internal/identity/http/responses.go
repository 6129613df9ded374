package http

// MintRequest is the body of the internal session mint endpoint. The
// wider app has already authenticated the user by the time it calls us.
type MintRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// SessionResponse is returned by mint, refresh, and verify.
type SessionResponse struct {
	Success   bool   `json:"success"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Name      string `json:"name,omitempty"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// TicketResponse is returned by the SSO issue endpoint when the caller
// wants the composed URL instead of being redirected.
type TicketResponse struct {
	Success bool   `json:"success"`
	Ticket  string `json:"ticket"`
	URL     string `json:"url,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// HealthResponse is the body of the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
