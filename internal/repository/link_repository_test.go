package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/mgoubet/urlshortener/internal/errors"
	"github.com/mgoubet/urlshortener/internal/models"
)

func newGormRepo(t *testing.T) *GormLinkRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Link{}); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return NewLinkRepository(db)
}

func TestGormRepository_DuplicateShortCodeIsConflict(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	if err := repo.CreateLink(ctx, &models.Link{ShortCode: "abc123", OriginalURL: "https://example.com"}); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}

	// The unique index on short_code is the final authority; a duplicate
	// insert must surface as ErrCodeTaken just like the memory fake.
	err := repo.CreateLink(ctx, &models.Link{ShortCode: "abc123", OriginalURL: "https://other.com"})
	if !errors.Is(err, apperrors.ErrCodeTaken) {
		t.Fatalf("Expected ErrCodeTaken, got %v", err)
	}
}

func TestGormRepository_NotFoundMapping(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	if _, err := repo.GetLinkByShortCode(ctx, "nope"); !errors.Is(err, apperrors.ErrLinkNotFound) {
		t.Errorf("GetLinkByShortCode: expected ErrLinkNotFound, got %v", err)
	}
	if _, err := repo.GetLinkByOriginalURL(ctx, "https://nope.com"); !errors.Is(err, apperrors.ErrLinkNotFound) {
		t.Errorf("GetLinkByOriginalURL: expected ErrLinkNotFound, got %v", err)
	}
	if err := repo.IncrementClicks(ctx, "nope"); !errors.Is(err, apperrors.ErrLinkNotFound) {
		t.Errorf("IncrementClicks: expected ErrLinkNotFound, got %v", err)
	}
}

func TestGormRepository_LookupAndIncrement(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	if err := repo.CreateLink(ctx, &models.Link{ShortCode: "abc123", OriginalURL: "https://example.com"}); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.IncrementClicks(ctx, "abc123"); err != nil {
			t.Fatalf("IncrementClicks failed: %v", err)
		}
	}

	link, err := repo.GetLinkByShortCode(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetLinkByShortCode failed: %v", err)
	}
	if link.Clicks != 2 {
		t.Errorf("Expected 2 clicks, got %d", link.Clicks)
	}

	byURL, err := repo.GetLinkByOriginalURL(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("GetLinkByOriginalURL failed: %v", err)
	}
	if byURL.ShortCode != "abc123" {
		t.Errorf("Wrong code: %q", byURL.ShortCode)
	}

	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestGormRepository_LookupByURLPrefersOldestRow(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	// The same URL can exist under several codes via custom aliases.
	repo.CreateLink(ctx, &models.Link{ShortCode: "first1", OriginalURL: "https://example.com"})
	repo.CreateLink(ctx, &models.Link{ShortCode: "alias1", OriginalURL: "https://example.com"})

	link, err := repo.GetLinkByOriginalURL(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("GetLinkByOriginalURL failed: %v", err)
	}
	if link.ShortCode != "first1" {
		t.Errorf("Expected the lowest-ID row 'first1', got %q", link.ShortCode)
	}
}
