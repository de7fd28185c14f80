package anilist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamhub/pkg/apperr"
)

func stubServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestSearchUnwrapsTagsAndStudios(t *testing.T) {
	var gotVars map[string]any
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotVars = req.Variables

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"Page": map[string]any{
					"pageInfo": map[string]any{"total": 42, "currentPage": 2, "lastPage": 5, "hasNextPage": true},
					"media": []map[string]any{{
						"id":      30,
						"title":   map[string]any{"romaji": "Berserk"},
						"tags":    []map[string]any{{"name": "Seinen"}, {"name": ""}},
						"studios": map[string]any{"nodes": []map[string]any{{"name": "OLM"}}},
					}},
				},
			},
		})
	})

	pageInfo, media, err := client.Search(context.Background(), "berserk", 2, 25, "MANGA")
	require.NoError(t, err)

	assert.Equal(t, "berserk", gotVars["search"])
	assert.Equal(t, "MANGA", gotVars["type"])
	assert.Equal(t, float64(2), gotVars["page"])
	assert.Equal(t, float64(25), gotVars["perPage"])

	assert.Equal(t, PageInfo{Total: 42, CurrentPage: 2, LastPage: 5, HasNextPage: true}, pageInfo)
	require.Len(t, media, 1)
	assert.Equal(t, 30, media[0].ID)
	assert.Equal(t, []string{"Seinen"}, media[0].Tags)
	assert.Equal(t, []string{"OLM"}, media[0].Studios)
}

func TestSearchDefaults(t *testing.T) {
	var gotVars map[string]any
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotVars = req.Variables
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"Page": map[string]any{}}})
	})

	_, _, err := client.Search(context.Background(), "x", 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "ANIME", gotVars["type"])
	assert.Equal(t, float64(1), gotVars["page"])
	assert.Equal(t, float64(10), gotVars["perPage"])
}

func TestGetByIDMissingRecordIsNilNil(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":   map[string]any{"Media": nil},
			"errors": []map[string]any{{"message": "Not Found.", "status": 404}},
		})
	})

	m, err := client.GetByID(context.Background(), 999999)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestGetByIDReturnsMedia(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"Media": map[string]any{
				"id":        21,
				"title":     map[string]any{"english": "One Piece"},
				"startDate": map[string]any{"year": 1999, "month": 10, "day": 20},
				"trailer":   map[string]any{"id": "v1", "site": "youtube"},
			}},
		})
	})

	m, err := client.GetByID(context.Background(), 21)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "One Piece", m.Title.English)
	assert.Equal(t, FuzzyDate{Year: 1999, Month: 10, Day: 20}, m.StartDate)
	require.NotNil(t, m.Trailer)
	assert.Equal(t, "youtube", m.Trailer.Site)
}

func TestServerErrorIsUpstreamStatus(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, _, err := client.Search(context.Background(), "x", 1, 10, "")
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUpstreamStatus, e.Kind)
	assert.Equal(t, http.StatusTooManyRequests, e.Status)
}

func TestGraphQLErrorWithoutStatusIsUpstreamStatus(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":   map[string]any{},
			"errors": []map[string]any{{"message": "validation failed"}},
		})
	})

	_, err := client.GetByID(context.Background(), 21)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamStatus, apperr.KindOf(err))
}

func TestSlowServerIsTimeout(t *testing.T) {
	client := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.HTTP.Timeout = 50 * time.Millisecond

	_, err := client.GetByID(context.Background(), 21)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamTimeout, apperr.KindOf(err))
}
