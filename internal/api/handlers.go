package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgoubet/urlshortener/internal/config"
	apperrors "github.com/mgoubet/urlshortener/internal/errors"
	"github.com/mgoubet/urlshortener/internal/models"
	"github.com/mgoubet/urlshortener/internal/ratelimit"
	"github.com/mgoubet/urlshortener/internal/services"
)

// ClickEventsChannel is the global channel used to send click events.
// This channel enables asynchronous click counting without blocking URL redirection.
var ClickEventsChannel chan models.ClickEvent

// SetupRoutes configures all Gin API routes and injects necessary dependencies.
// The rate limiter guards the shorten endpoint only; redirection and stats
// stay unthrottled.
func SetupRoutes(router *gin.Engine, linkService *services.LinkService, limiter *ratelimit.Limiter, cfg *config.Config) {
	if ClickEventsChannel == nil {
		ClickEventsChannel = make(chan models.ClickEvent, cfg.Analytics.BufferSize)
	}

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheckHandler(linkService, cfg))
		api.POST("/shorten", ratelimit.Middleware(limiter), ShortenHandler(linkService, cfg))
		api.GET("/stats/:shortCode", GetLinkStatsHandler(linkService, cfg))
	}

	// Frontend at the root, short codes everywhere else.
	router.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.Server.StaticDir, "index.html"))
	})
	router.GET("/:shortCode", RedirectHandler(linkService, cfg))
}

// HealthCheckHandler handles GET /api/health. It performs a minimal read
// against the link store and reports failure detail without crashing.
func HealthCheckHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := storeContext(c, cfg)
		defer cancel()

		if err := linkService.CheckHealth(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "connected"})
	}
}

// ShortenRequest represents the JSON request body for creating a short link.
type ShortenRequest struct {
	URL           string `json:"url"`
	CustomCode    string `json:"custom_code"`
	ExpiresInDays *int   `json:"expires_in_days"`
}

// ShortenHandler handles POST /api/shorten. It validates input via the
// service, deduplicates by URL, and answers 201 for a new link or 200 when
// an existing one is reused.
func ShortenHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ShortenRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'url' field"})
			return
		}

		ctx, cancel := storeContext(c, cfg)
		defer cancel()

		result, err := linkService.ShortenLink(ctx, services.ShortenInput{
			OriginalURL:   req.URL,
			CustomCode:    req.CustomCode,
			ExpiresInDays: req.ExpiresInDays,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidURL), errors.Is(err, apperrors.ErrInvalidCustomCode):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, apperrors.ErrCodeTaken):
				c.JSON(http.StatusConflict, gin.H{"error": "Custom code already taken"})
			case errors.Is(err, apperrors.ErrCodeGenerationExhausted):
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to generate unique short code. Please try again later."})
			default:
				log.Printf("Error creating short link: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create short link"})
			}
			return
		}

		status := http.StatusCreated
		if result.Reused {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{
			"short_url":  requestBaseURL(c) + "/" + result.Link.ShortCode,
			"short_code": result.Link.ShortCode,
			"reused":     result.Reused,
		})
	}
}

// RedirectHandler handles GET /:shortCode. Codes containing a dot are
// treated as static asset filenames and served from the public directory;
// everything else is resolved and answered with a temporary redirect.
func RedirectHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		if strings.Contains(shortCode, ".") {
			// filepath.Base guards against anything but a plain filename.
			c.File(filepath.Join(cfg.Server.StaticDir, filepath.Base(shortCode)))
			return
		}

		ctx, cancel := storeContext(c, cfg)
		defer cancel()

		link, err := linkService.ResolveLink(ctx, shortCode, time.Now())
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrLinkNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Short code not found"})
			case errors.Is(err, apperrors.ErrLinkExpired):
				c.JSON(http.StatusGone, gin.H{"error": "This link has expired"})
			default:
				log.Printf("Error resolving link for %s: %v", shortCode, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
			return
		}

		clickEvent := models.ClickEvent{
			ShortCode: link.ShortCode,
			Timestamp: time.Now(),
			UserAgent: c.GetHeader("User-Agent"),
			IPAddress: c.ClientIP(),
		}

		// Non-blocking send: when the buffer is full the event is dropped
		// rather than delaying the user's redirect.
		select {
		case ClickEventsChannel <- clickEvent:
		default:
			log.Printf("WARNING: ClickEventsChannel is full, dropping click event for %s", link.ShortCode)
		}

		c.Redirect(http.StatusFound, link.OriginalURL)
	}
}

// GetLinkStatsHandler handles GET /api/stats/:shortCode. Pure read
// projection: expired links still report their stats.
func GetLinkStatsHandler(linkService *services.LinkService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		ctx, cancel := storeContext(c, cfg)
		defer cancel()

		link, err := linkService.GetLinkStats(ctx, shortCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrLinkNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Short code not found"})
				return
			}
			log.Printf("Error retrieving stats for %s: %v", shortCode, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"short_code":   link.ShortCode,
			"original_url": link.OriginalURL,
			"clicks":       link.Clicks,
			"created_at":   link.CreatedAt,
			"expires_at":   link.ExpiresAt,
		})
	}
}

// storeContext bounds a store call with the configured timeout.
func storeContext(c *gin.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), cfg.StoreTimeout())
}

// requestBaseURL derives the service base URL from the inbound request host,
// the same way the short link will be reached from outside.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
