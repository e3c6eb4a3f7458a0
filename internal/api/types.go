package api

import "time"

// Form field names accepted by the upload endpoint.
const (
	FieldFile     = "file"
	FieldTo       = "to"
	FieldSkipS3   = "skipS3"
	FieldIs720p   = "is720p"
	FieldNoEmail  = "noEmail"
	DefaultPrefix = "/api"
)

// UploadResponse is returned by POST /api/video/upload.
type UploadResponse struct {
	ID string `json:"id"`
}

// BusyResponse is returned by GET /api/video/is-busy.
type BusyResponse struct {
	Status bool `json:"status"`
}

// StatusResponse is returned by GET /api/video/status.
type StatusResponse struct {
	Status string `json:"status"`
}

// JobStatus is one row of the status-all listing.
type JobStatus struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
}

// StatusAllResponse is returned by GET /api/video/status-all.
type StatusAllResponse struct {
	Statuses []JobStatus `json:"statuses"`
}

// ErrorResponse carries a human readable failure reason.
type ErrorResponse struct {
	Message string `json:"message"`
}

// TestNotifyRequest asks the daemon to send a test email.
type TestNotifyRequest struct {
	To string `json:"to"`
}

// TestNotifyResponse reports the outcome of a test email.
type TestNotifyResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// DependencyStatus captures availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates runtime information for GET /api/health.
type DaemonStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	LockFilePath   string             `json:"lockFilePath"`
	StorageBackend string             `json:"storageBackend"`
	HistoryBackend string             `json:"historyBackend"`
	Busy           bool               `json:"busy"`
	Current        *JobStatus         `json:"current,omitempty"`
	Pending        int                `json:"pending"`
	Dependencies   []DependencyStatus `json:"dependencies"`
	Checks         []CheckResult      `json:"checks"`
}
