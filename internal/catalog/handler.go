package catalog

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"streamhub/internal/content"
	"streamhub/internal/httpapi"
	"streamhub/pkg/apperr"
	"streamhub/pkg/models"
)

// Handler is the admin surface. Authentication is handled by an outer
// layer; nothing here assumes a user identity.
type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import", h.importContent)
	rg.GET("/search", h.searchMetadata)
	rg.GET("/stats", h.stats)

	rg.GET("/content", h.list)
	rg.PUT("/content/:id", h.update)
	rg.PUT("/content/:id/category", h.setCategory)
	rg.PUT("/content/:id/banner", h.setBanner)
	rg.POST("/content/:id/servers", h.upsertServer)
	rg.POST("/content/:id/servers/bulk", h.bulkUpsertServers)
	rg.DELETE("/content/:id", h.remove)
	rg.DELETE("/content/:id/servers/:entryId", h.removeServer)
}

type importReq struct {
	AnilistID  int                `json:"anilistId"`
	ExternalID int                `json:"externalId"` // alias kept for older admin UIs
	Category   string             `json:"category"`
	Kind       string             `json:"type"`
	Servers    []ServerEntryInput `json:"servers"`
}

func (h *Handler) importContent(c *gin.Context) {
	var req importReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("invalid json body"))
		return
	}

	id := req.AnilistID
	if id == 0 {
		id = req.ExternalID
	}
	if id <= 0 {
		httpapi.Fail(c, apperr.Validation("anilistId is required"))
		return
	}

	var category models.Category
	if req.Category != "" {
		cat, ok := models.ParseCategory(req.Category)
		if !ok {
			httpapi.Fail(c, apperr.Validation("invalid category %q", req.Category))
			return
		}
		category = cat
	}

	var kind models.Kind
	if req.Kind != "" {
		k, ok := models.ParseKind(req.Kind)
		if !ok {
			httpapi.Fail(c, apperr.Validation("invalid type %q", req.Kind))
			return
		}
		kind = k
	}

	stored, err := h.Service.Ingest(c.Request.Context(), id, category, kind, req.Servers)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, stored)
}

func (h *Handler) searchMetadata(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		query = strings.TrimSpace(c.Query("q"))
	}
	if query == "" {
		httpapi.Fail(c, apperr.Validation("query parameter is required"))
		return
	}

	page, _ := httpapi.PageParams(c)
	perPage := 10
	if n, err := strconv.Atoi(c.Query("perPage")); err == nil && n > 0 {
		perPage = n
		if perPage > httpapi.MaxLimit {
			perPage = httpapi.MaxLimit
		}
	}

	pageInfo, media, err := h.Service.Anilist.Search(c.Request.Context(), query, page, perPage, c.Query("type"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	c.JSON(200, gin.H{
		"success":  true,
		"count":    len(media),
		"data":     media,
		"pageInfo": pageInfo,
	})
}

func (h *Handler) list(c *gin.Context) {
	page, limit := httpapi.PageParams(c)

	f := content.Filter{
		Title:  c.Query("search"),
		Genre:  c.Query("genre"),
		Status: c.Query("status"),
	}
	if v := c.Query("type"); v != "" {
		kind, ok := models.ParseKind(v)
		if !ok {
			httpapi.Fail(c, apperr.Validation("invalid type %q", v))
			return
		}
		f.Kind = kind
	}
	if v := c.Query("featured"); v != "" {
		featured := v == "true"
		f.Featured = &featured
	}

	sort := content.SortCreatedDesc
	if v := c.Query("category"); v != "" && v != "all" {
		cat, ok := models.ParseCategory(v)
		if !ok {
			httpapi.Fail(c, apperr.Validation("invalid category %q", v))
			return
		}
		f.Category = cat
		switch cat {
		case models.CategoryPopular:
			sort = content.SortViewsDesc
		case models.CategoryTopRated:
			sort = content.SortScoreDesc
		}
	}

	total, err := h.Service.Repo.Count(c.Request.Context(), f)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	items, err := h.Service.Repo.List(c.Request.Context(), f, sort, limit, (page-1)*limit)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OKList(c, items, httpapi.NewPagination(page, limit, total))
}

func (h *Handler) update(c *gin.Context) {
	var patch UpdatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httpapi.Fail(c, apperr.Validation("invalid json body"))
		return
	}

	updated, err := h.Service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, updated)
}

func (h *Handler) setCategory(c *gin.Context) {
	var req struct {
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("invalid json body"))
		return
	}

	updated, err := h.Service.SetCategory(c.Request.Context(), c.Param("id"), req.Category)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, updated)
}

func (h *Handler) setBanner(c *gin.Context) {
	// strict coercion: anything but boolean true means false
	var req struct {
		ShowInBanner bool `json:"showInBanner"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("invalid json body"))
		return
	}

	updated, err := h.Service.SetBanner(c.Request.Context(), c.Param("id"), req.ShowInBanner)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, updated)
}

func (h *Handler) upsertServer(c *gin.Context) {
	var req ServerEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("invalid json body"))
		return
	}

	updated, err := h.Service.UpsertServerEntry(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, updated)
}

func (h *Handler) bulkUpsertServers(c *gin.Context) {
	var req struct {
		Servers []ServerEntryInput `json:"servers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, apperr.Validation("invalid json body"))
		return
	}
	if len(req.Servers) == 0 {
		httpapi.Fail(c, apperr.Validation("servers list is required"))
		return
	}

	updated, skipped, err := h.Service.BulkUpsertServerEntries(c.Request.Context(), c.Param("id"), req.Servers)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "data": updated, "skipped": skipped})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "message": "content deleted"})
}

func (h *Handler) removeServer(c *gin.Context) {
	updated, err := h.Service.RemoveServerEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, updated)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Service.Repo.Stats(c.Request.Context())
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, st)
}
