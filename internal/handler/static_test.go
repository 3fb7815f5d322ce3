package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomity/research-server-go/internal/middleware"
	"github.com/atomity/research-server-go/internal/model"
)

func newStaticRouter(t *testing.T) chi.Router {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	r := chi.NewRouter()
	r.Get("/*", NewSPAHandler(dir).ServeHTTP)
	return r
}

func withResearcher(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ResearcherContextKey, &model.Researcher{ID: "res-1"})
	return req.WithContext(ctx)
}

func TestSPAHandler(t *testing.T) {
	router := newStaticRouter(t)

	t.Run("serves existing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "console.log")
	})

	t.Run("falls back to index for unknown path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "app")
	})

	t.Run("does not shadow api routes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/reserve", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSPAHandlerPageGate(t *testing.T) {
	router := newStaticRouter(t)

	t.Run("redirects anonymous reserve page to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/reserve", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("redirects anonymous research page to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/research", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("serves gated page to signed-in researcher", func(t *testing.T) {
		req := withResearcher(httptest.NewRequest(http.MethodGet, "/reserve", nil))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "app")
	})

	t.Run("login page stays public", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
