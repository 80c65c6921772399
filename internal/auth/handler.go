package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/shared"
)

// Handler wires authentication HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	providers map[string]Provider
	validate  *validator.Validate

	loginLimit  int
	loginWindow time.Duration
}

// NewHandler constructs a Handler. loginLimit/loginWindow bound the
// per-IP rate of password attempts.
func NewHandler(logger *slog.Logger, service *Service, providers map[string]Provider, loginLimit int, loginWindow time.Duration) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		providers:   providers,
		validate:    validator.New(),
		loginLimit:  loginLimit,
		loginWindow: loginWindow,
	}
}

// MountPublicRoutes registers the unauthenticated routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(h.loginLimit, h.loginWindow)).Post("/login", h.login)
	r.Get("/oauth/{provider}/login", h.oauthLogin)
	r.Get("/oauth/{provider}/callback", h.oauthCallback)
}

// MountProtectedRoutes registers routes behind the auth middleware.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Logout(r.Context(), claims); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	u, err := h.service.Me(r.Context(), identity)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) oauthLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", ErrProviderDisabled.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": provider.AuthorizationURL()})
}

func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", ErrProviderDisabled.Error())
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing authorization code")
		return
	}
	external, err := provider.FetchUser(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", "provider", provider.Name(), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "OAuth Exchange Failed", "the identity provider rejected the request")
		return
	}
	session, err := h.service.LoginOAuth(r.Context(), external.Email)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrAccountDeactivated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
	case errors.Is(err, httpx.ErrMFARequired):
		httpx.RespondError(w, httpx.ErrMFARequired)
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("auth handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
