package monitor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mgoubet/urlshortener/internal/repository"
)

// UrlMonitor manages periodic monitoring of original URLs to check their accessibility.
// It maintains a state map to track URL status changes and notify when they occur.
type UrlMonitor struct {
	linkRepo    repository.LinkRepository // Repository to fetch all links from database
	interval    time.Duration             // How often to check URLs
	knownStates map[uint]bool             // Cache of previous URL states (ID -> accessible/not accessible)
	mu          sync.Mutex                // Protects concurrent access to knownStates map
	httpClient  *http.Client              // HTTP client for making requests
}

// NewUrlMonitor creates and returns a new instance of UrlMonitor.
// interval parameter determines how frequently URLs will be checked.
func NewUrlMonitor(linkRepo repository.LinkRepository, interval time.Duration) *UrlMonitor {
	return &UrlMonitor{
		linkRepo:    linkRepo,
		interval:    interval,
		knownStates: make(map[uint]bool),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Start launches the periodic URL monitoring loop.
// This is a blocking function that runs until the context is cancelled.
func (m *UrlMonitor) Start(ctx context.Context) {
	log.Printf("[MONITOR] Starting URL monitor with interval of %v...", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Execute an immediate check on startup before waiting for the first tick
	m.checkUrls(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[MONITOR] URL monitor stopped.")
			return
		case <-ticker.C:
			m.checkUrls(ctx)
		}
	}
}

// checkUrls performs a status check on all live original URLs.
// It compares current state with previous state and logs any changes.
func (m *UrlMonitor) checkUrls(ctx context.Context) {
	log.Println("[MONITOR] Starting URL status verification...")

	links, err := m.linkRepo.GetAllLinks(ctx)
	if err != nil {
		log.Printf("[MONITOR] ERROR retrieving links for monitoring: %v", err)
		return
	}

	now := time.Now()
	for _, link := range links {
		// Expired links are logically dead; checking them would only add noise.
		if link.IsExpired(now) {
			continue
		}

		currentState := m.isUrlAccessible(ctx, link.OriginalURL)

		m.mu.Lock()
		previousState, exists := m.knownStates[link.ID]
		m.knownStates[link.ID] = currentState
		m.mu.Unlock()

		if !exists {
			log.Printf("[MONITOR] Initial state for link %s (%s): %s",
				link.ShortCode, link.OriginalURL, formatState(currentState))
			continue
		}

		if currentState != previousState {
			log.Printf("[NOTIFICATION] Link %s (%s) changed from %s to %s!",
				link.ShortCode, link.OriginalURL, formatState(previousState), formatState(currentState))
		}
	}
	log.Println("[MONITOR] URL status verification completed.")
}

// isUrlAccessible performs an HTTP HEAD request to check if a URL is accessible.
// Returns true if the URL responds with a successful HTTP status code (2xx or 3xx).
func (m *UrlMonitor) isUrlAccessible(ctx context.Context, url string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// HEAD is enough: we only care about reachability, not the body.
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		log.Printf("[MONITOR] Error creating request for URL '%s': %v", url, err)
		return false
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("[MONITOR] Error accessing URL '%s': %v", url, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// formatState converts boolean accessibility state to a readable string.
func formatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}
