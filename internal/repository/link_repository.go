package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/mgoubet/urlshortener/internal/errors"
	"github.com/mgoubet/urlshortener/internal/models"
)

// LinkRepository est une interface qui définit les méthodes d'accès aux données.
// Every call takes a context so callers can bound store operations with a timeout.
type LinkRepository interface {
	// CreateLink inserts a new link. A unique-constraint violation on the
	// short code is reported as apperrors.ErrCodeTaken.
	CreateLink(ctx context.Context, link *models.Link) error
	// GetLinkByShortCode returns apperrors.ErrLinkNotFound when the code is unknown.
	GetLinkByShortCode(ctx context.Context, shortCode string) (*models.Link, error)
	// GetLinkByOriginalURL returns the first link stored for the given URL,
	// or apperrors.ErrLinkNotFound.
	GetLinkByOriginalURL(ctx context.Context, originalURL string) (*models.Link, error)
	// IncrementClicks atomically adds one to the click counter of the link.
	IncrementClicks(ctx context.Context, shortCode string) error
	// GetAllLinks returns every stored link (used by the URL monitor).
	GetAllLinks(ctx context.Context) ([]models.Link, error)
	// Ping performs a minimal round trip to verify the store is reachable.
	Ping(ctx context.Context) error
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink insère un nouveau lien dans la base de données.
func (r *GormLinkRepository) CreateLink(ctx context.Context, link *models.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrCodeTaken
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetLinkByShortCode récupère un lien de la base de données en utilisant son shortCode.
func (r *GormLinkRepository) GetLinkByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	var link models.Link
	if err := r.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by short code: %w", err)
	}
	return &link, nil
}

// GetLinkByOriginalURL récupère un lien via son URL longue, pour la déduplication.
func (r *GormLinkRepository) GetLinkByOriginalURL(ctx context.Context, originalURL string) (*models.Link, error) {
	var link models.Link
	if err := r.db.WithContext(ctx).Where("original_url = ?", originalURL).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by URL: %w", err)
	}
	return &link, nil
}

// IncrementClicks incrémente le compteur de clics directement en base,
// so concurrent redirects never lose an increment.
func (r *GormLinkRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Link{}).
		Where("short_code = ?", shortCode).
		UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment clicks for %s: %w", shortCode, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrLinkNotFound
	}
	return nil
}

// GetAllLinks récupère tous les liens de la base de données.
func (r *GormLinkRepository) GetAllLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}
	return links, nil
}

// Ping vérifie que la base de données répond.
func (r *GormLinkRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err comes from the unique index on
// short_code. GORM translates some driver errors to ErrDuplicatedKey; the
// SQLite driver message is matched as a fallback.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
