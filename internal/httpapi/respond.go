// Package httpapi holds the response envelope and the single place
// where taxonomy errors become HTTP status codes.
package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"streamhub/pkg/apperr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination is attached to every list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, TotalItems: total, TotalPages: pages}
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func OKList(c *gin.Context, data any, p Pagination) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "pagination": p})
}

// Fail translates a taxonomy error into the error envelope. Internal
// and storage failures are logged here with their cause; the client
// only ever sees the message.
func Fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)

	body := gin.H{"success": false, "error": err.Error()}
	if e, ok := apperr.As(err); ok {
		body["error"] = e.Message
		if e.Query != "" {
			body["query"] = e.Query
		}
		if e.Kind == apperr.KindUpstreamStatus && e.Body != "" {
			body["details"] = e.Body
		}
		if e.Kind == apperr.KindStorage || e.Kind == apperr.KindInternal {
			log.WithError(err).Error("request failed")
		}
	} else {
		log.WithError(err).Error("request failed")
		body["error"] = "internal error"
	}

	c.JSON(status, body)
}

// PageParams reads ?page and ?limit with the shared defaults and cap.
func PageParams(c *gin.Context) (page, limit int) {
	page = parseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit = LimitParam(c, DefaultLimit)
	return page, limit
}

// LimitParam reads ?limit with a caller-chosen default, capped at
// MaxLimit.
func LimitParam(c *gin.Context, def int) int {
	limit := parseInt(c.Query("limit"), def)
	if limit < 1 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}

// CORS allows any origin for the read surface plus the mutating admin
// methods, mirroring the deployment's outer layer expectations.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	})
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
