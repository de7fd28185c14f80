// Package public is the read surface end users hit.
package public

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"streamhub/internal/content"
	"streamhub/internal/httpapi"
	"streamhub/pkg/apperr"
	"streamhub/pkg/models"
)

type Handler struct {
	Repo *content.Repo

	// CountViews bumps the view counter on every detail hit when the
	// deployment wants it.
	CountViews bool
}

func NewHandler(repo *content.Repo, countViews bool) *Handler {
	return &Handler{Repo: repo, CountViews: countViews}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/list", h.listAll)
	rg.GET("/newest", h.listCategory(models.CategoryNewest, content.SortCreatedDesc, false))
	rg.GET("/popular", h.listCategory(models.CategoryPopular, content.SortPopularityDesc, false))
	rg.GET("/top-rated", h.listCategory(models.CategoryTopRated, content.SortScoreDesc, true))
	rg.GET("/upcoming", h.listCategory(models.CategoryUpcoming, content.SortReleaseDesc, false))
	rg.GET("/trending", h.trending)
	rg.GET("/recent", h.recent)
	rg.GET("/banner", h.banner)
	rg.GET("/featured", h.featured)
	rg.GET("/search", h.search)
	rg.GET("/genre/:genre", h.byGenre)
	rg.GET("/watch/:id", h.watch)
	rg.GET("/watch/:id/episode/:episode", h.episodeServers)
	rg.POST("/watch/:id/like", h.like)
}

func (h *Handler) listAll(c *gin.Context) {
	f, ok := kindFilter(c)
	if !ok {
		return
	}
	h.paged(c, f, content.SortUpdatedDesc)
}

func (h *Handler) listCategory(cat models.Category, sort content.Sort, requireScore bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := kindFilter(c)
		if !ok {
			return
		}
		f.Category = cat
		f.RequireScore = requireScore
		h.paged(c, f, sort)
	}
}

func (h *Handler) paged(c *gin.Context, f content.Filter, sort content.Sort) {
	page, limit := httpapi.PageParams(c)

	total, err := h.Repo.Count(c.Request.Context(), f)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	items, err := h.Repo.List(c.Request.Context(), f, sort, limit, (page-1)*limit)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OKList(c, items, httpapi.NewPagination(page, limit, total))
}

func (h *Handler) trending(c *gin.Context) {
	h.capped(c, content.Filter{RequireTrending: true}, content.SortTrendingDesc, httpapi.DefaultLimit)
}

func (h *Handler) recent(c *gin.Context) {
	h.capped(c, content.Filter{}, content.SortCreatedDesc, httpapi.DefaultLimit)
}

func (h *Handler) banner(c *gin.Context) {
	yes := true
	h.capped(c, content.Filter{ShowInBanner: &yes}, content.SortCreatedDesc, 10)
}

func (h *Handler) featured(c *gin.Context) {
	yes := true
	h.capped(c, content.Filter{Featured: &yes}, content.SortPopularityDesc, 10)
}

func (h *Handler) capped(c *gin.Context, f content.Filter, sort content.Sort, defLimit int) {
	limit := httpapi.LimitParam(c, defLimit)
	items, err := h.Repo.List(c.Request.Context(), f, sort, limit, 0)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, items)
}

func (h *Handler) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		httpapi.Fail(c, apperr.Validation("search query is required"))
		return
	}

	f, ok := kindFilter(c)
	if !ok {
		return
	}
	f.Title = q

	page, limit := httpapi.PageParams(c)
	total, err := h.Repo.Count(c.Request.Context(), f)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if total == 0 {
		httpapi.Fail(c, apperr.EmptyResult(q, fmt.Sprintf("%q is not uploaded yet", q)))
		return
	}

	items, err := h.Repo.List(c.Request.Context(), f, content.SortPopularityDesc, limit, (page-1)*limit)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OKList(c, items, httpapi.NewPagination(page, limit, total))
}

func (h *Handler) byGenre(c *gin.Context) {
	f := content.Filter{Genre: c.Param("genre")}
	h.paged(c, f, content.SortPopularityDesc)
}

func (h *Handler) watch(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if rec == nil {
		httpapi.Fail(c, apperr.NotFound("content not found"))
		return
	}

	if h.CountViews {
		if bumped, err := h.Repo.IncrementCounter(c.Request.Context(), id, "views", 1); err == nil && bumped != nil {
			rec = bumped
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"data":          rec,
		"defaultServer": rec.DefaultServer(),
	})
}

func (h *Handler) episodeServers(c *gin.Context) {
	episode, err := strconv.Atoi(c.Param("episode"))
	if err != nil {
		httpapi.Fail(c, apperr.Validation("episode must be a number"))
		return
	}

	rec, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if rec == nil {
		httpapi.Fail(c, apperr.NotFound("content not found"))
		return
	}

	servers := rec.EpisodeServers(episode)
	if len(servers) == 0 {
		httpapi.Fail(c, apperr.NotFound("no servers uploaded for episode %d", episode))
		return
	}

	httpapi.OK(c, gin.H{
		"title":         rec.Title.Display(),
		"episodeNumber": episode,
		"totalEpisodes": rec.Episodes,
		"servers":       servers,
	})
}

func (h *Handler) like(c *gin.Context) {
	rec, err := h.Repo.IncrementCounter(c.Request.Context(), c.Param("id"), "likes", 1)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if rec == nil {
		httpapi.Fail(c, apperr.NotFound("content not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "likes": rec.Likes})
}

// kindFilter reads the optional ?type filter; a bad value answers the
// request itself and reports !ok.
func kindFilter(c *gin.Context) (content.Filter, bool) {
	var f content.Filter
	if v := c.Query("type"); v != "" {
		kind, ok := models.ParseKind(v)
		if !ok {
			httpapi.Fail(c, apperr.Validation("invalid type %q", v))
			return f, false
		}
		f.Kind = kind
	}
	return f, true
}
