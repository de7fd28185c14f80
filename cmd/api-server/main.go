package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"streamhub/internal/anilist"
	"streamhub/internal/catalog"
	"streamhub/internal/content"
	"streamhub/internal/httpapi"
	"streamhub/internal/public"
	"streamhub/pkg/database"
	"streamhub/pkg/utils"
)

func main() {
	cfg := utils.Load()
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(httpapi.CORS())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "StreamHub catalog API",
			"version": "1.0.0",
			"adminEndpoints": gin.H{
				"search":         "GET /api/search?query=naruto&type=ANIME",
				"import":         "POST /api/import",
				"list":           "GET /api/content",
				"update":         "PUT /api/content/:id",
				"updateCategory": "PUT /api/content/:id/category",
				"toggleBanner":   "PUT /api/content/:id/banner",
				"addServer":      "POST /api/content/:id/servers",
				"bulkServers":    "POST /api/content/:id/servers/bulk",
				"delete":         "DELETE /api/content/:id",
				"stats":          "GET /api/stats",
			},
			"publicEndpoints": gin.H{
				"list":     "GET /public/list",
				"newest":   "GET /public/newest",
				"popular":  "GET /public/popular",
				"topRated": "GET /public/top-rated",
				"upcoming": "GET /public/upcoming",
				"trending": "GET /public/trending",
				"recent":   "GET /public/recent",
				"banner":   "GET /public/banner",
				"featured": "GET /public/featured",
				"search":   "GET /public/search?q=naruto",
				"genre":    "GET /public/genre/:genre",
				"watch":    "GET /public/watch/:id",
				"episode":  "GET /public/watch/:id/episode/:episode",
				"like":     "POST /public/watch/:id/like",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	repo := content.NewRepo(db)
	metadataClient := anilist.NewClient(cfg.AnilistEndpoint)

	service := catalog.NewService(repo, metadataClient, cfg.DefaultCategory)
	catalog.NewHandler(service).RegisterRoutes(router.Group("/api"))
	public.NewHandler(repo, cfg.CountViews).RegisterRoutes(router.Group("/public"))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("catalog API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Errorf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown error: %v", err)
	}
	log.Info("server stopped")
}
