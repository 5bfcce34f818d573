// Package services contains the business logic layer for the URL shortener application
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	apperrors "github.com/mgoubet/urlshortener/internal/errors"
	"github.com/mgoubet/urlshortener/internal/models"
	"github.com/mgoubet/urlshortener/internal/repository"
)

// charset defines the character set used for generating short codes.
// Uses alphanumeric characters (both cases) for a total of 62 possible characters.
// This gives us 62^6 = ~56 billion possible combinations for 6-character codes.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxCustomCodeLength caps caller-supplied aliases to the column size.
const maxCustomCodeLength = 32

// ShortenInput carries the parameters of a shorten request.
type ShortenInput struct {
	OriginalURL   string
	CustomCode    string // empty means generate a random code
	ExpiresInDays *int   // nil means the link never expires
}

// ShortenResult is the outcome of a shorten request.
// Reused is true when an existing link was returned instead of a new row.
type ShortenResult struct {
	Link   *models.Link
	Reused bool
}

// LinkService provides business logic methods for managing shortened links.
// It acts as an intermediary between the HTTP handlers and the data repository.
type LinkService struct {
	linkRepo    repository.LinkRepository
	codeLength  int
	maxAttempts int
}

// NewLinkService creates and returns a new instance of LinkService.
// codeLength is the length of generated codes, maxAttempts bounds the
// generate-check-retry loop on collisions.
func NewLinkService(linkRepo repository.LinkRepository, codeLength, maxAttempts int) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
	}
}

// GenerateShortCode generates a cryptographically secure random short code.
// Uniqueness is not guaranteed here; ShortenLink checks the store and retries.
func (s *LinkService) GenerateShortCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	code := make([]byte, length)
	for i := range code {
		// Use crypto/rand for cryptographically secure random numbers
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// ShortenLink validates the request, deduplicates by URL, checks custom-code
// conflicts, computes the expiration date and persists the new link.
//
// Without a custom code, shortening the same URL twice returns the existing
// link with Reused=true and applies no new expiration. With a custom code,
// duplicate-URL detection is skipped entirely and an already-taken code is a
// conflict regardless of which URL it maps to.
func (s *LinkService) ShortenLink(ctx context.Context, in ShortenInput) (*ShortenResult, error) {
	if !isValidURL(in.OriginalURL) {
		return nil, apperrors.ErrInvalidURL
	}

	var shortCode string
	if in.CustomCode != "" {
		if !isValidCustomCode(in.CustomCode) {
			return nil, apperrors.ErrInvalidCustomCode
		}

		// An existing link under this code is a conflict, never a silent reuse.
		_, err := s.linkRepo.GetLinkByShortCode(ctx, in.CustomCode)
		if err == nil {
			return nil, apperrors.ErrCodeTaken
		}
		if !errors.Is(err, apperrors.ErrLinkNotFound) {
			return nil, apperrors.NewStoreError("lookup by code", err)
		}
		shortCode = in.CustomCode
	} else {
		// Dedup: the same URL keeps its original code and expiration.
		existing, err := s.linkRepo.GetLinkByOriginalURL(ctx, in.OriginalURL)
		if err == nil {
			return &ShortenResult{Link: existing, Reused: true}, nil
		}
		if !errors.Is(err, apperrors.ErrLinkNotFound) {
			return nil, apperrors.NewStoreError("lookup by URL", err)
		}

		shortCode, err = s.uniqueShortCode(ctx)
		if err != nil {
			return nil, err
		}
	}

	link := &models.Link{
		ShortCode:   shortCode,
		OriginalURL: in.OriginalURL,
		ExpiresAt:   expiresAt(time.Now(), in.ExpiresInDays),
	}

	if err := s.linkRepo.CreateLink(ctx, link); err != nil {
		// A concurrent request may have taken the code between our check and
		// the insert; the store's unique constraint is the final authority.
		if errors.Is(err, apperrors.ErrCodeTaken) {
			return nil, apperrors.ErrCodeTaken
		}
		return nil, apperrors.NewStoreError("insert", err)
	}

	return &ShortenResult{Link: link, Reused: false}, nil
}

// uniqueShortCode runs the bounded generate-check-retry loop.
func (s *LinkService) uniqueShortCode(ctx context.Context) (string, error) {
	for i := 0; i < s.maxAttempts; i++ {
		code, err := s.GenerateShortCode(s.codeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		_, err = s.linkRepo.GetLinkByShortCode(ctx, code)
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			return code, nil
		}
		if err != nil {
			return "", apperrors.NewStoreError("uniqueness check", err)
		}

		log.Printf("Short code '%s' already exists, retrying generation (%d/%d)...", code, i+1, s.maxAttempts)
	}
	return "", apperrors.ErrCodeGenerationExhausted
}

// ResolveLink looks up a short code for redirection. Expired links fail with
// ErrLinkExpired and must not be redirected to; click recording is the
// caller's responsibility and stays best-effort.
func (s *LinkService) ResolveLink(ctx context.Context, shortCode string, now time.Time) (*models.Link, error) {
	link, err := s.linkRepo.GetLinkByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, apperrors.NewStoreError("lookup by code", err)
	}

	if link.IsExpired(now) {
		return nil, apperrors.ErrLinkExpired
	}
	return link, nil
}

// GetLinkStats returns the stored metadata for a short code. Pure read
// projection: expired links still report their stats.
func (s *LinkService) GetLinkStats(ctx context.Context, shortCode string) (*models.Link, error) {
	link, err := s.linkRepo.GetLinkByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, apperrors.NewStoreError("lookup by code", err)
	}
	return link, nil
}

// CheckHealth performs a minimal round trip against the link store.
func (s *LinkService) CheckHealth(ctx context.Context) error {
	return s.linkRepo.Ping(ctx)
}

// isValidURL applies the scheme prefix check. Anything deeper than the
// prefix is deliberately out of scope.
func isValidURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// isValidCustomCode accepts 1-32 ASCII letters and digits. Dots are excluded
// so aliases can never shadow static asset filenames.
func isValidCustomCode(code string) bool {
	if len(code) == 0 || len(code) > maxCustomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// expiresAt computes the expiration timestamp. Negative day counts are
// treated as absent.
func expiresAt(now time.Time, days *int) *time.Time {
	if days == nil || *days < 0 {
		return nil
	}
	t := now.Add(time.Duration(*days) * 24 * time.Hour)
	return &t
}
