package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opencanteen/opencanteen/internal/platform/httpx"
	"github.com/opencanteen/opencanteen/internal/schools"
	"github.com/opencanteen/opencanteen/internal/shared"
	"github.com/opencanteen/opencanteen/internal/users"
)

const maxUploadBytes = 5 << 20

// UserImages is the slice of user management the upload endpoints need.
type UserImages interface {
	AvatarObject(ctx context.Context, userID string) (string, error)
	SignatureObject(ctx context.Context, userID string) (string, error)
	SetAvatarObject(ctx context.Context, userID, objectKey string) error
	SetSignatureObject(ctx context.Context, userID, objectKey string) error
}

// SchoolImages is the slice of school management the upload endpoints need.
type SchoolImages interface {
	LogoObject(ctx context.Context, schoolID int64) (string, error)
	SetLogoObject(ctx context.Context, schoolID int64, objectKey string) error
}

// Handler serves image upload and download endpoints.
type Handler struct {
	logger  *slog.Logger
	store   *Store
	users   UserImages
	schools SchoolImages
}

// NewHandler constructs a storage Handler.
func NewHandler(logger *slog.Logger, store *Store, users UserImages, schools SchoolImages) *Handler {
	return &Handler{logger: logger, store: store, users: users, schools: schools}
}

// MountUserRoutes registers avatar and signature routes under a user.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Put("/{id}/avatar", h.putUserImage(MaxAvatarDim, "avatars", h.users.SetAvatarObject))
	r.Get("/{id}/avatar", h.getUserImage(h.users.AvatarObject))
	r.Put("/{id}/signature", h.putUserImage(MaxSignatureDim, "signatures", h.users.SetSignatureObject))
	r.Get("/{id}/signature", h.getUserImage(h.users.SignatureObject))
}

// MountSchoolRoutes registers the logo routes under a school.
func (h *Handler) MountSchoolRoutes(r chi.Router) {
	r.Put("/{id}/logo", h.putLogo)
	r.Get("/{id}/logo", h.getLogo)
}

func (h *Handler) putUserImage(maxDim int, prefix string, set func(context.Context, string, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")
		actor := shared.IdentityFromContext(r.Context())
		// Users manage their own images, admins anyone's.
		if actor == nil || (actor.UserID != userID && !actor.HasPermission("users:manage")) {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		key, ok := h.storeImage(w, r, maxDim, prefix)
		if !ok {
			return
		}
		if err := set(r.Context(), userID, key); err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"object": key})
	}
}

func (h *Handler) getUserImage(lookup func(context.Context, string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := lookup(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.serveObject(w, key)
	}
}

func (h *Handler) putLogo(w http.ResponseWriter, r *http.Request) {
	schoolID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid school id")
		return
	}
	key, ok := h.storeImage(w, r, MaxLogoDim, "logos")
	if !ok {
		return
	}
	if err := h.schools.SetLogoObject(r.Context(), schoolID, key); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"object": key})
}

func (h *Handler) getLogo(w http.ResponseWriter, r *http.Request) {
	schoolID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid school id")
		return
	}
	key, err := h.schools.LogoObject(r.Context(), schoolID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.serveObject(w, key)
}

// storeImage reads, normalizes and persists the request body. It writes
// the error response itself when ok is false.
func (h *Handler) storeImage(w http.ResponseWriter, r *http.Request, maxDim int, prefix string) (string, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unreadable request body")
		return "", false
	}
	if len(data) > maxUploadBytes {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "image exceeds the 5 MiB upload limit")
		return "", false
	}
	normalized, err := NormalizeImage(data, maxDim)
	if err != nil {
		httpx.Problem(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "body must be a decodable image")
		return "", false
	}
	key, err := h.store.Put(prefix, normalized, "png")
	if err != nil {
		h.logger.Error("store image", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return "", false
	}
	return key, true
}

func (h *Handler) serveObject(w http.ResponseWriter, key string) {
	if key == "" {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	rc, err := h.store.Open(key)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrObjectNotFound), errors.Is(err, shared.ErrNotFound),
		errors.Is(err, users.ErrNotFound), errors.Is(err, schools.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("storage handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
