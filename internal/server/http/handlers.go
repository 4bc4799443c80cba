package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

const healthTimeout = 2 * time.Second

type registerer interface {
	Execute(ctx context.Context, in *services.RegisterInput) (*models.PublicUser, error)
}

type authenticator interface {
	Execute(ctx context.Context, in *services.LoginInput) (*services.LoginResult, error)
}

type tokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Handlers adapts the use cases to HTTP.
type Handlers struct {
	register    registerer
	login       authenticator
	tokens      tokenVerifier
	store       pinger
	metrics     *Metrics
	logger      logging.Logger
	development bool
}

type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// decodeBody reads a JSON body into T. An empty or null body yields a nil
// value so the use case reports its own validation error. The raw body is
// returned for error logging.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) ([]byte, *T, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, common.Validation("Request body too large")
		}
		return nil, nil, common.Validation("Invalid request body")
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return body, nil, nil
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return body, nil, common.Validation("Invalid request body")
	}
	return body, &v, nil
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	body, in, err := decodeBody[services.RegisterInput](w, r)
	if err != nil {
		h.metrics.RecordAuthEvent("register", common.KindOf(err).String())
		h.writeError(w, r, err, body)
		return
	}

	user, err := h.register.Execute(r.Context(), in)
	if err != nil {
		h.metrics.RecordAuthEvent("register", common.KindOf(err).String())
		h.writeError(w, r, err, body)
		return
	}

	h.metrics.RecordAuthEvent("register", OutcomeSuccess)
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	body, in, err := decodeBody[services.LoginInput](w, r)
	if err != nil {
		h.metrics.RecordAuthEvent("login", common.KindOf(err).String())
		h.writeError(w, r, err, body)
		return
	}

	res, err := h.login.Execute(r.Context(), in)
	if err != nil {
		h.metrics.RecordAuthEvent("login", common.KindOf(err).String())
		h.writeError(w, r, err, body)
		return
	}

	h.metrics.RecordAuthEvent("login", OutcomeSuccess)
	writeJSON(w, http.StatusOK, res)
}

// Me returns the identity carried by the bearer token. It is mounted
// behind AuthMiddleware.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, r, common.Authentication("Authentication required"), nil)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		ID:    claims.UserID(),
		Email: claims.Email,
		Role:  claims.Role,
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logging.LogError(ctx, h.logger, "health check failed", err, "request_id", RequestIDFromContext(ctx))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Services: map[string]string{"database": "down"},
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Services: map[string]string{"database": "up"},
	})
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, common.NotFound("Route not found"), nil)
}
