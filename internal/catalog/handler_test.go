package catalog

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamhub/internal/public"
	"streamhub/pkg/models"
)

// newTestRouter wires the admin and public surfaces the way
// cmd/api-server does, backed by an in-memory store and the fake
// metadata service.
func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := newTestService(t)

	router := gin.New()
	NewHandler(s).RegisterRoutes(router.Group("/api"))
	public.NewHandler(s.Repo, false).RegisterRoutes(router.Group("/public"))
	return router, s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestImportThenReadNewest(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/import", map[string]any{
		"externalId": 21,
		"category":   "NEWEST",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(21), data["anilistId"])

	w = doJSON(t, router, http.MethodGet, "/public/newest?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body = decodeBody(t, w)
	items := body["data"].([]any)
	require.NotEmpty(t, items)
	first := items[0].(map[string]any)
	assert.Equal(t, float64(21), first["anilistId"])

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(5), pagination["limit"])
	assert.Equal(t, float64(1), pagination["totalItems"])
	assert.Equal(t, float64(1), pagination["totalPages"])
}

func TestImportUnknownIDIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/import", map[string]any{"anilistId": 424242})
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
}

func TestServerUpsertIsIdempotent(t *testing.T) {
	router, s := newTestRouter(t)

	c, err := s.Ingest(context.Background(), 21, "", "", nil)
	require.NoError(t, err)

	payload := map[string]any{"serverName": "server1", "episode": 1, "url": "https://a/1.m3u8"}
	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/content/"+c.ID+"/servers", payload)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, router, http.MethodGet, "/public/watch/"+c.ID+"/episode/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	servers := data["servers"].([]any)
	require.Len(t, servers, 1)
	assert.Equal(t, "https://a/1.m3u8", servers[0].(map[string]any)["url"])
}

func TestInvalidCategoryRejected(t *testing.T) {
	router, s := newTestRouter(t)

	c, err := s.Ingest(context.Background(), 21, models.CategoryNewest, "", nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPut, "/api/content/"+c.ID+"/category", map[string]any{"category": "BOGUS"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/public/watch/"+c.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "NEWEST", data["category"])
}

func TestBannerToggleCoercion(t *testing.T) {
	router, s := newTestRouter(t)

	c, err := s.Ingest(context.Background(), 21, "", "", nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPut, "/api/content/"+c.ID+"/banner", map[string]any{"showInBanner": true})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := s.Repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, got.ShowInBanner)

	// absent field binds to false
	w = doJSON(t, router, http.MethodPut, "/api/content/"+c.ID+"/banner", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)

	got, err = s.Repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, got.ShowInBanner)
}

func TestUpdatePatchValidatesEnums(t *testing.T) {
	router, s := newTestRouter(t)

	c, err := s.Ingest(context.Background(), 21, "", "", nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPut, "/api/content/"+c.ID, map[string]any{"type": "TELENOVELA"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/content/"+c.ID, map[string]any{"type": "KDRAMA", "featured": true})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := s.Repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KindKDrama, got.Kind)
	assert.True(t, got.Featured)
}

func TestDeleteContentRoute(t *testing.T) {
	router, s := newTestRouter(t)

	c, err := s.Ingest(context.Background(), 21, "", "", nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodDelete, "/api/content/"+c.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/content/"+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsRoute(t *testing.T) {
	router, s := newTestRouter(t)

	_, err := s.Ingest(context.Background(), 21, models.CategoryNewest, "", nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])
}
