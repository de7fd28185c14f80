package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"streamhub/internal/httpapi"
	"streamhub/pkg/apperr"
)

// videoCDNFormat synthesizes the HLS playlist location for an episode.
// No upstream call is involved.
const videoCDNFormat = "https://hls.cdnvideo11.shop/hls07/%s/Ep%s_index.m3u8"

// Handler exposes the proxy surface. Successful responses relay the
// projected upstream body as-is; failures go through the shared error
// envelope.
type Handler struct {
	Client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{Client: client}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	dl := api.Group("/DramaList")
	dl.GET("/Show", h.show)
	dl.GET("/TopRating", h.listRoute(h.Client.TopRating))
	dl.GET("/MostView", h.listRoute(h.Client.MostView))
	dl.GET("/MostSearch", h.listRoute(h.Client.MostSearch))
	dl.GET("/LastUpdate", h.listRoute(h.Client.LastUpdate))
	dl.GET("/Upcoming", h.listRoute(h.Client.Upcoming))
	dl.GET("/Animate", h.listRoute(h.Client.Animate))
	dl.GET("/Search", h.listRoute(h.Client.Search))
	dl.GET("/Drama/:id", h.drama)
	dl.GET("/Drama/:id/episodes", h.episodes)

	api.GET("/Sub/:episodeId", h.subtitles)
	api.GET("/Video/:dramaId/:episodeNumber", h.video)
}

func (h *Handler) listRoute(fetch func(ctx context.Context, q url.Values) ([]DramaListItem, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := fetch(c.Request.Context(), c.Request.URL.Query())
		if err != nil {
			httpapi.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func (h *Handler) show(c *gin.Context) {
	items, err := h.Client.Show(c.Request.Context())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) drama(c *gin.Context) {
	detail, err := h.Client.Drama(c.Request.Context(), c.Param("id"), c.Request.URL.Query())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) episodes(c *gin.Context) {
	eps, err := h.Client.Episodes(c.Request.Context(), c.Param("id"), c.Request.URL.Query())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eps)
}

func (h *Handler) subtitles(c *gin.Context) {
	kkey := c.Query("kkey")
	if kkey == "" {
		httpapi.Fail(c, apperr.Validation("kkey parameter is required"))
		return
	}

	subs, err := h.Client.Subtitles(c.Request.Context(), c.Param("episodeId"), kkey)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *Handler) video(c *gin.Context) {
	dramaID := c.Param("dramaId")
	episode := c.Param("episodeNumber")

	c.JSON(http.StatusOK, gin.H{
		"dramaId":       dramaID,
		"episodeNumber": episode,
		"streamUrl":     fmt.Sprintf(videoCDNFormat, dramaID, episode),
		"type":          "hls",
	})
}
