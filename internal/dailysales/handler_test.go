package dailysales

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

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(context.Context) error {
	m.calls++
	return nil
}

func newRecordRouter(t *testing.T, inv *mockInvalidator, perms ...string) http.Handler {
	t.Helper()
	h := NewHandler(slog.Default(), NewService(newMockRepository()), inv)
	caller := &shared.Identity{UserID: "clerk", Permissions: perms}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithIdentity(req.Context(), caller)))
		})
	})
	h.MountRoutes(r, rbac.Middleware{}.Require)
	return r
}

func TestRecordBumpsAnalyticsCache(t *testing.T) {
	inv := &mockInvalidator{}
	router := newRecordRouter(t, inv, rbac.PermReportsRead, rbac.PermReportsWrite)

	body := strings.NewReader(`{"date":"2025-06-02","sales":1500,"purchases":900}`)
	req := httptest.NewRequest(http.MethodPut, "/3/2025/6/entries", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, inv.calls)

	// A rejected figure must not touch the cache.
	body = strings.NewReader(`{"date":"2025-06-03","sales":-5,"purchases":0}`)
	req = httptest.NewRequest(http.MethodPut, "/3/2025/6/entries", body)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, inv.calls)
}

func TestRecordDemandsWritePermission(t *testing.T) {
	inv := &mockInvalidator{}
	router := newRecordRouter(t, inv, rbac.PermReportsRead)

	body := strings.NewReader(`{"date":"2025-06-02","sales":1500,"purchases":900}`)
	req := httptest.NewRequest(http.MethodPut, "/3/2025/6/entries", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, inv.calls)
}
