package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ntpapi/ntpapi/internal/handler/dto"
	"github.com/ntpapi/ntpapi/internal/middleware"
	"github.com/ntpapi/ntpapi/internal/service"
)

// TimezoneParam is the query parameter naming the target timezone.
const TimezoneParam = "timezone"

// UpstreamFailureMessage is returned for every failed time lookup.
const UpstreamFailureMessage = "Failed to retrieve time from NTP server"

// TimeGetter returns network time in a timezone.
type TimeGetter interface {
	Now(ctx context.Context, req service.TimeRequest) (*service.TimeResponse, error)
}

// TimeHandler serves the network time endpoint.
type TimeHandler struct {
	svc    TimeGetter
	logger *slog.Logger
}

// NewTimeHandler creates a new TimeHandler.
func NewTimeHandler(svc TimeGetter, logger *slog.Logger) *TimeHandler {
	return &TimeHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/ntp-time?timezone=<IANA name>.
func (h *TimeHandler) Get(w http.ResponseWriter, r *http.Request) {
	req := service.TimeRequest{Timezone: r.URL.Query().Get(TimezoneParam)}

	resp, err := h.svc.Now(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Debug("ntp_time_served",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("timezone", resp.Timezone),
		slog.String("server", resp.Server),
		slog.Duration("rtt", resp.RTT),
	)

	writeJSON(w, http.StatusOK, dto.TimeResponse{
		NTPDate: resp.Date,
		NTPTime: resp.Time,
	})
}

// handleServiceError maps service errors to HTTP responses. Upstream detail
// is logged and never sent to the client.
func (h *TimeHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}

	attrs := []any{
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("error", err.Error()),
	}
	if errors.Is(err, service.ErrUpstream) {
		h.logger.Error("ntp_query_failed", attrs...)
	} else {
		h.logger.Error("internal_error", attrs...)
	}

	writeError(w, http.StatusInternalServerError, UpstreamFailureMessage)
}
