package upstream

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProxyRouter(t *testing.T, upstream http.HandlerFunc, timeout time.Duration) (*gin.Engine, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	router := gin.New()
	NewHandler(NewClient(srv.URL, "", timeout)).RegisterRoutes(router)
	return router, srv
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListRouteRelaysProjectedBody(t *testing.T) {
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id":            101,
			"title":         "Moon Lovers",
			"thumbnail":     "https://img/101.jpg",
			"episodesCount": 20,
			"extra":         "dropped",
		}})
	}, 5*time.Second)

	w := serve(router, "/api/DramaList/TopRating")
	require.Equal(t, http.StatusOK, w.Code)

	// raw array response, no envelope
	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Moon Lovers", items[0]["title"])
	assert.NotContains(t, items[0], "extra")
}

func TestUpstreamTimeoutAnswers504(t *testing.T) {
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	w := serve(router, "/api/DramaList/LastUpdate")
	require.Equal(t, http.StatusGatewayTimeout, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestUpstreamFailureStatusIsMirrored(t *testing.T) {
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}, 5*time.Second)

	w := serve(router, "/api/DramaList/MostView")
	require.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["details"], "blocked")
}

func TestSubtitlesRequireKkey(t *testing.T) {
	var calls int32
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("[]"))
	}, 5*time.Second)

	w := serve(router, "/api/Sub/901")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, atomic.LoadInt32(&calls), "upstream must not be called without kkey")

	w = serve(router, "/api/Sub/901?kkey=k123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestVideoRouteSynthesizesWithoutUpstream(t *testing.T) {
	var calls int32
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, 5*time.Second)

	w := serve(router, "/api/Video/12345/7")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "12345", body["dramaId"])
	assert.Equal(t, "7", body["episodeNumber"])
	assert.Equal(t, "https://hls.cdnvideo11.shop/hls07/12345/Ep7_index.m3u8", body["streamUrl"])
	assert.Equal(t, "hls", body["type"])
	assert.Zero(t, atomic.LoadInt32(&calls), "video links are synthesized locally")
}

func TestDramaEpisodesRoute(t *testing.T) {
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/DramaList/Drama/55", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    55,
			"title": "Vincenzo",
			"episodes": []map[string]any{
				{"id": 902, "number": 2, "sub": 1},
				{"id": 901, "number": 1, "sub": 0},
			},
		})
	}, 5*time.Second)

	w := serve(router, "/api/DramaList/Drama/55/episodes")
	require.Equal(t, http.StatusOK, w.Code)

	var eps []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eps))
	require.Len(t, eps, 2)
	assert.Equal(t, float64(902), eps[0]["id"])
	assert.NotContains(t, eps[0], "title")
}

func TestDramaDetailRoute(t *testing.T) {
	router, _ := newProxyRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/DramaList/Drama/55", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       55,
			"title":    "Vincenzo",
			"episodes": []map[string]any{{"id": 901, "number": 1, "sub": 1}},
		})
	}, 5*time.Second)

	w := serve(router, "/api/DramaList/Drama/55")
	require.Equal(t, http.StatusOK, w.Code)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Vincenzo", detail["title"])
}
