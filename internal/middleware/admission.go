package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Vishal2827/pern-stack/internal/model"
	"github.com/Vishal2827/pern-stack/internal/perimeter"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Rejection messages returned to clients.
const (
	MessageRateLimited = "Too Many Requests"
	MessageBotDenied   = "Bot access denied"
	MessageForbidden   = "Forbidden"
	MessageSpoofedBot  = "Spoofed bot detected"
)

// Protector decides whether a request may proceed.
type Protector interface {
	Protect(ctx context.Context, r *http.Request, requested int) (perimeter.Decision, error)
}

// Admission consults p before every request. Each request costs one token.
// In dry run mode decisions are logged and every request is admitted.
func Admission(p Protector, dryRun bool, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "admission").Bool("dry_run", dryRun).Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := p.Protect(r.Context(), r, 1)
			if err != nil {
				logger.Error().
					Err(err).
					Str("request_id", chimiddleware.GetReqID(r.Context())).
					Str("path", r.URL.Path).
					Msg("admission check failed")
				if dryRun {
					next.ServeHTTP(w, r)
					return
				}
				writeFailure(w, http.StatusInternalServerError, model.ErrInternal.Message)
				return
			}

			status, message, rejected := rejection(decision)
			if !rejected {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("remote_addr", r.RemoteAddr).
				Str("path", r.URL.Path).
				Str("reason", string(decision.Reason.Kind)).
				Str("detail", decision.Reason.Detail).
				Int("status", status).
				Msg("request rejected")

			if dryRun {
				next.ServeHTTP(w, r)
				return
			}

			if status == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", retryAfterHeader(decision.Reason.RetryAfter))
			}
			writeFailure(w, status, message)
		})
	}
}

// rejection maps a decision to the response that rejects it.
func rejection(d perimeter.Decision) (int, string, bool) {
	if d.IsDenied() {
		switch {
		case d.Reason.IsRateLimit():
			return http.StatusTooManyRequests, MessageRateLimited, true
		case d.Reason.IsBot():
			return http.StatusForbidden, MessageBotDenied, true
		default:
			return http.StatusForbidden, MessageForbidden, true
		}
	}

	if d.SpoofedBot() {
		return http.StatusForbidden, MessageSpoofedBot, true
	}

	return 0, "", false
}

func retryAfterHeader(d time.Duration) string {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// writeFailure writes the failure envelope.
func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.Failure(message))
}
