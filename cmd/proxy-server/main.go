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

	"streamhub/internal/httpapi"
	"streamhub/internal/upstream"
	"streamhub/pkg/utils"
)

func main() {
	cfg := utils.Load()
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(httpapi.CORS())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "running",
			"message": "StreamHub drama proxy",
			"endpoints": gin.H{
				"show":         "/api/DramaList/Show",
				"topRating":    "/api/DramaList/TopRating?ispc=true",
				"mostView":     "/api/DramaList/MostView?ispc=true&c=1",
				"mostSearch":   "/api/DramaList/MostSearch?ispc=false",
				"lastUpdate":   "/api/DramaList/LastUpdate?ispc=true",
				"upcoming":     "/api/DramaList/Upcoming?ispc=true",
				"anime":        "/api/DramaList/Animate?ispc=false",
				"search":       "/api/DramaList/Search?q=spirit&type=0",
				"dramaDetails": "/api/DramaList/Drama/:id?isq=true",
				"episodes":     "/api/DramaList/Drama/:id/episodes",
				"subtitles":    "/api/Sub/:episodeId?kkey=KEY",
				"videoStream":  "/api/Video/:dramaId/:episodeNumber",
				"health":       "/health",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamCookie, cfg.UpstreamTimeout)
	upstream.NewHandler(client).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":     cfg.Port,
			"upstream": cfg.UpstreamBaseURL,
		}).Info("proxy listening")
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
