package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/repository"
)

var quickDiscountRate = decimal.RequireFromString("0.10")

// DefaultSettingsMaxAge bounds how long Get serves a loaded copy. Other
// instances may have changed the row in the meantime.
const DefaultSettingsMaxAge = 30 * time.Second

// SettingsState holds the product settings the storefront and admin views
// render. It is built once in main and shared by reference; nothing reads
// settings from a package-level variable.
type SettingsState struct {
	repo   repository.SettingsRepository
	maxAge time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	current   *models.ProductSettings
	loadedAt  time.Time
	err       error
	loading   bool
	listeners []func(models.ProductSettings)
}

func NewSettingsState(repo repository.SettingsRepository) *SettingsState {
	return &SettingsState{repo: repo, maxAge: DefaultSettingsMaxAge, now: time.Now}
}

// SetMaxAge changes how long Get trusts the loaded copy. Zero or less makes
// every Get read the repository.
func (s *SettingsState) SetMaxAge(d time.Duration) {
	s.maxAge = d
}

func (s *SettingsState) SetClock(now func() time.Time) {
	s.now = now
}

// OnChange registers fn to run after every successful update.
func (s *SettingsState) OnChange(fn func(models.ProductSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns a copy of the loaded settings, or nil before the first
// successful fetch.
func (s *SettingsState) Current() *models.ProductSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	out := *s.current
	out.AdditionalImages = append([]string{}, s.current.AdditionalImages...)
	return &out
}

// Err is the error of the most recent fetch or update, if it failed.
func (s *SettingsState) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *SettingsState) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Invalidate drops the loaded settings so the next Get refetches.
func (s *SettingsState) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Get returns the loaded settings while they are younger than the max age,
// and refetches otherwise. If the refetch fails the older copy is served and
// the error is kept in Err.
func (s *SettingsState) Get(ctx context.Context) (*models.ProductSettings, error) {
	s.mu.RLock()
	fresh := s.current != nil && s.now().Sub(s.loadedAt) < s.maxAge
	s.mu.RUnlock()
	if fresh {
		return s.Current(), nil
	}

	settings, err := s.Fetch(ctx)
	if err != nil {
		if stale := s.Current(); stale != nil {
			return stale, nil
		}
		return nil, err
	}
	return settings, nil
}

// Fetch reloads settings from the repository. On failure the previous
// settings are kept and the error is recorded.
func (s *SettingsState) Fetch(ctx context.Context) (*models.ProductSettings, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		err = fmt.Errorf("failed to fetch settings: %w", err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return nil, err
	}
	if settings.AdditionalImages == nil {
		settings.AdditionalImages = []string{}
	}

	s.mu.Lock()
	s.current = settings
	s.loadedAt = s.now()
	s.err = nil
	s.mu.Unlock()
	return s.Current(), nil
}

// Update applies patch to the loaded settings row and replaces the local
// copy with the row the repository returns. A failed update is recorded but
// nothing is rolled back.
func (s *SettingsState) Update(ctx context.Context, patch models.SettingsPatch) (*models.ProductSettings, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	updated, err := s.repo.UpdateSettings(ctx, current.ID, patch)
	if err != nil {
		err = fmt.Errorf("failed to update settings: %w", err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return nil, err
	}
	if updated.AdditionalImages == nil {
		updated.AdditionalImages = []string{}
	}

	s.mu.Lock()
	s.current = updated
	s.loadedAt = s.now()
	s.err = nil
	listeners := append([]func(models.ProductSettings){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(*updated)
	}
	return s.Current(), nil
}

// ToggleQuickDiscount clears an existing discount, or sets it to 10% of the
// price when there is none.
func (s *SettingsState) ToggleQuickDiscount(ctx context.Context) (*models.ProductSettings, error) {
	current, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if !current.Discount.IsPositive() {
		discount = current.Price.Mul(quickDiscountRate).Round(2)
	}
	return s.Update(ctx, models.SettingsPatch{Discount: &discount})
}

func (s *SettingsState) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
