package repository

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/mgoubet/urlshortener/internal/errors"
	"github.com/mgoubet/urlshortener/internal/models"
)

// MemoryLinkRepository is an in-memory LinkRepository backed by a map.
// It mirrors the GORM implementation's error semantics (ErrCodeTaken on a
// duplicate short code, ErrLinkNotFound on a miss) so services and handlers
// can be exercised in tests without a database file.
type MemoryLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	nextID uint
}

// NewMemoryLinkRepository creates an empty in-memory repository.
func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{links: make(map[string]*models.Link)}
}

func (r *MemoryLinkRepository) CreateLink(ctx context.Context, link *models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.ShortCode]; exists {
		return apperrors.ErrCodeTaken
	}

	r.nextID++
	link.ID = r.nextID
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	stored := *link
	r.links[link.ShortCode] = &stored
	return nil
}

func (r *MemoryLinkRepository) GetLinkByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[shortCode]
	if !ok {
		return nil, apperrors.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (r *MemoryLinkRepository) GetLinkByOriginalURL(ctx context.Context, originalURL string) (*models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Pick the lowest-ID match so the fake agrees with the GORM
	// implementation, whose First orders by primary key.
	var match *models.Link
	for _, link := range r.links {
		if link.OriginalURL == originalURL && (match == nil || link.ID < match.ID) {
			match = link
		}
	}
	if match == nil {
		return nil, apperrors.ErrLinkNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *MemoryLinkRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[shortCode]
	if !ok {
		return apperrors.ErrLinkNotFound
	}
	link.Clicks++
	return nil
}

func (r *MemoryLinkRepository) GetAllLinks(ctx context.Context) ([]models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]models.Link, 0, len(r.links))
	for _, link := range r.links {
		links = append(links, *link)
	}
	return links, nil
}

func (r *MemoryLinkRepository) Ping(ctx context.Context) error {
	return nil
}
