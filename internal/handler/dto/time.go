// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// TimeResponse is the body of a successful GET /api/ntp-time.
type TimeResponse struct {
	NTPDate string `json:"ntp_date"`
	NTPTime string `json:"ntp_time"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// InfoResponse describes the running service on GET /.
type InfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}
