package httpapi

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/m3rciful/boxingcrm/core/logger"
	"github.com/m3rciful/boxingcrm/crm/domain"
)

const adminKeyHeader = "X-Admin-Key"

// BroadcastRequest asks for a message to be sent to an audience.
type BroadcastRequest struct {
	Audience string `json:"audience" validate:"required,oneof=parents children"`
	Text     string `json:"text" validate:"required,max=4096"`
}

// requireAdmin rejects requests without the configured key. An empty key
// disables the admin routes.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.opts.AdminKey
		got := r.Header.Get(adminKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			logger.Warn(r.Context(), "http", "admin.denied", slog.Bool("key_set", key != ""))
			fail(w, r, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) runBroadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Audience = strings.ToLower(strings.TrimSpace(req.Audience))
	if err := s.validate.Struct(req); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, "validation failed", invalidFields(err)...)
		return
	}

	res, err := s.broadcast.Broadcast(r.Context(), domain.Audience(req.Audience), req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnknownAudience) {
			status = http.StatusUnprocessableEntity
		}
		logger.Error(r.Context(), "http", "broadcast.fail", logger.Err(err),
			slog.Int("sent", res.Sent), slog.Int("failed", res.Failed))
		fail(w, r, status, "broadcast interrupted")
		return
	}
	render.JSON(w, r, res)
}
