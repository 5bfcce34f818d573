package repository

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/mgoubet/urlshortener/internal/errors"
	"github.com/mgoubet/urlshortener/internal/models"
)

func TestMemoryRepository_ConflictAndLookup(t *testing.T) {
	repo := NewMemoryLinkRepository()
	ctx := context.Background()

	link := &models.Link{ShortCode: "abc123", OriginalURL: "https://example.com"}
	if err := repo.CreateLink(ctx, link); err != nil {
		t.Fatalf("CreateLink failed: %v", err)
	}
	if link.ID == 0 {
		t.Error("CreateLink should assign an ID")
	}

	// Same code again is a conflict, mirroring the unique index.
	err := repo.CreateLink(ctx, &models.Link{ShortCode: "abc123", OriginalURL: "https://other.com"})
	if !errors.Is(err, apperrors.ErrCodeTaken) {
		t.Errorf("Expected ErrCodeTaken, got %v", err)
	}

	got, err := repo.GetLinkByShortCode(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetLinkByShortCode failed: %v", err)
	}
	if got.OriginalURL != "https://example.com" {
		t.Errorf("Wrong URL: %q", got.OriginalURL)
	}

	if _, err := repo.GetLinkByShortCode(ctx, "nope"); !errors.Is(err, apperrors.ErrLinkNotFound) {
		t.Errorf("Expected ErrLinkNotFound, got %v", err)
	}

	byURL, err := repo.GetLinkByOriginalURL(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("GetLinkByOriginalURL failed: %v", err)
	}
	if byURL.ShortCode != "abc123" {
		t.Errorf("Wrong code: %q", byURL.ShortCode)
	}
}

func TestMemoryRepository_LookupByURLPrefersOldestRow(t *testing.T) {
	repo := NewMemoryLinkRepository()
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

func TestMemoryRepository_IncrementClicks(t *testing.T) {
	repo := NewMemoryLinkRepository()
	ctx := context.Background()

	repo.CreateLink(ctx, &models.Link{ShortCode: "abc123", OriginalURL: "https://example.com"})

	for i := 0; i < 3; i++ {
		if err := repo.IncrementClicks(ctx, "abc123"); err != nil {
			t.Fatalf("IncrementClicks failed: %v", err)
		}
	}

	link, _ := repo.GetLinkByShortCode(ctx, "abc123")
	if link.Clicks != 3 {
		t.Errorf("Expected 3 clicks, got %d", link.Clicks)
	}

	if err := repo.IncrementClicks(ctx, "nope"); !errors.Is(err, apperrors.ErrLinkNotFound) {
		t.Errorf("Expected ErrLinkNotFound, got %v", err)
	}
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryLinkRepository()
	ctx := context.Background()

	repo.CreateLink(ctx, &models.Link{ShortCode: "abc123", OriginalURL: "https://example.com"})

	got, _ := repo.GetLinkByShortCode(ctx, "abc123")
	got.Clicks = 99

	again, _ := repo.GetLinkByShortCode(ctx, "abc123")
	if again.Clicks != 0 {
		t.Error("Mutating a returned link must not affect stored state")
	}
}
