package report

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencanteen/opencanteen/internal/rbac"
	"github.com/opencanteen/opencanteen/internal/shared"
)

// newTestRouter mounts the report routes behind a fixed caller identity,
// the way the application router does after authentication.
func newTestRouter(t *testing.T, svc *Service, caller *shared.Identity) http.Handler {
	t.Helper()
	h := NewHandler(slog.Default(), svc, nil, nil, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), caller)))
		})
	})
	h.MountRoutes(r, rbac.Middleware{}.Require)
	return r
}

func TestReadOnlyCallerCannotWriteOrTransition(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	seedDraft(t, svc)
	viewer := identity("viewer", rbac.PermReportsRead)
	router := newTestRouter(t, svc, viewer)

	base := "/7/2025/6/clinic_fund"

	req := httptest.NewRequest(http.MethodPatch, base, strings.NewReader(`{"entries":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	for _, next := range []string{"review", "received", "archived"} {
		req = httptest.NewRequest(http.MethodPatch, base+"/status", strings.NewReader(`{"new_status":"`+next+`"}`))
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "transition to %s", next)
	}

	stored, err := repo.Get(context.Background(), testKey())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)

	req = httptest.NewRequest(http.MethodGet, base, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriterCanSubmitViaStatusRoute(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	seedDraft(t, svc)
	clerk := identity("clerk", rbac.PermReportsRead, rbac.PermReportsWrite)
	router := newTestRouter(t, svc, clerk)

	req := httptest.NewRequest(http.MethodPatch, "/7/2025/6/clinic_fund/status", strings.NewReader(`{"new_status":"review"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
