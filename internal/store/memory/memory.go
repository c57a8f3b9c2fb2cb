// Package memory is an in-process implementation of repository.Store. It is
// used when no DATABASE_URL is configured and by the tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/repository"
)

type Store struct {
	mu          sync.RWMutex
	settings    models.ProductSettings
	orders      []models.Order
	promos      []models.PromotionalImage
	specs       []models.Specification
	settlements map[string]models.Settlement
	last        time.Time
	now         func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New returns a store seeded with a default product settings row.
func New() *Store {
	s := &Store{
		settlements: make(map[string]models.Settlement),
		now:         time.Now,
	}
	ts := s.tick()
	s.settings = models.ProductSettings{
		ID:               uuid.NewString(),
		Title:            "Product",
		Price:            decimal.Zero,
		Discount:         decimal.Zero,
		AdditionalImages: []string{},
		Status:           models.ProductActive,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	return s
}

// SetClock replaces the time source. Timestamps stay strictly increasing.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// tick must be called with mu held.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) GetSettings(ctx context.Context) (*models.ProductSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := copySettings(s.settings)
	return &out, nil
}

func (s *Store) UpdateSettings(ctx context.Context, id string, patch models.SettingsPatch) (*models.ProductSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || id != s.settings.ID {
		return nil, fmt.Errorf("failed to update settings %q: %w", id, repository.ErrNotFound)
	}
	updated := patch.Apply(copySettings(s.settings))
	updated.UpdatedAt = s.tick()
	s.settings = updated
	out := copySettings(updated)
	return &out, nil
}

func (s *Store) CreateOrder(ctx context.Context, order models.NewOrder) (*models.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o := models.Order{
		ID:            uuid.NewString(),
		CreatedAt:     s.tick(),
		FirstName:     order.Shipping.FirstName,
		LastName:      order.Shipping.LastName,
		Email:         order.Shipping.Email,
		Phone:         order.Shipping.Phone,
		Country:       order.Shipping.Country,
		Address:       order.Shipping.Address,
		ZipCode:       order.Shipping.ZipCode,
		PayPalOrderID: order.PayPalOrderID,
		Status:        order.Status,
	}
	s.orders = append(s.orders, o)
	return &o, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("failed to get order %q: %w", id, repository.ErrNotFound)
	}
	o := s.orders[i]
	return &o, nil
}

func (s *Store) GetOrderByPayPalOrderID(ctx context.Context, paypalOrderID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.orders) - 1; i >= 0; i-- {
		if paypalOrderID != "" && s.orders[i].PayPalOrderID == paypalOrderID {
			o := s.orders[i]
			return &o, nil
		}
	}
	return nil, fmt.Errorf("failed to get order for payment %q: %w", paypalOrderID, repository.ErrNotFound)
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListOrdersByEmail(ctx context.Context, email string) ([]models.TrackedOrder, error) {
	needle := strings.ToLower(strings.TrimSpace(email))
	all, _ := s.ListOrders(ctx)
	out := make([]models.TrackedOrder, 0)
	for _, o := range all {
		if strings.ToLower(o.Email) == needle {
			out = append(out, models.TrackedOrder{
				ID:             o.ID,
				Status:         o.Status,
				TrackingNumber: o.TrackingNumber,
				CreatedAt:      o.CreatedAt,
			})
		}
	}
	return out, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, note string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("failed to update order %q: %w", id, repository.ErrNotFound)
	}
	s.orders[i].Status = status
	s.orders[i].ShippingNotes = &note
	o := s.orders[i]
	return &o, nil
}

func (s *Store) UpdateTrackingNumber(ctx context.Context, id, trackingNumber string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("failed to update order %q: %w", id, repository.ErrNotFound)
	}
	s.orders[i].TrackingNumber = &trackingNumber
	o := s.orders[i]
	return &o, nil
}

func (s *Store) orderIndex(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListPromotionalImages(ctx context.Context) ([]models.PromotionalImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PromotionalImage{}, s.promos...), nil
}

func (s *Store) CreatePromotionalImage(ctx context.Context, imageURL, altText string) (*models.PromotionalImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := models.PromotionalImage{
		ID:        uuid.NewString(),
		ImageURL:  imageURL,
		AltText:   altText,
		CreatedAt: s.tick(),
	}
	s.promos = append(s.promos, img)
	return &img, nil
}

func (s *Store) DeletePromotionalImage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.promos {
		if s.promos[i].ID == id {
			s.promos = append(s.promos[:i], s.promos[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("failed to delete promotional image %q: %w", id, repository.ErrNotFound)
}

func (s *Store) ListSpecifications(ctx context.Context) ([]models.Specification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Specification{}, s.specs...), nil
}

func (s *Store) CreateSpecification(ctx context.Context, spec models.Specification) (*models.Specification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec.ID = uuid.NewString()
	spec.CreatedAt = s.tick()
	s.specs = append(s.specs, spec)
	return &spec, nil
}

func (s *Store) DeleteSpecification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.specs {
		if s.specs[i].ID == id {
			s.specs = append(s.specs[:i], s.specs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("failed to delete specification %q: %w", id, repository.ErrNotFound)
}

func (s *Store) CreateSettlement(ctx context.Context, st models.Settlement) (*models.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.settlements[st.PayPalOrderID]; ok {
		return &existing, nil
	}
	ts := s.tick()
	st.ID = uuid.NewString()
	st.CreatedAt = ts
	st.UpdatedAt = ts
	if st.Status == "" {
		st.Status = models.SettlementPending
	}
	s.settlements[st.PayPalOrderID] = st
	return &st, nil
}

func (s *Store) GetSettlement(ctx context.Context, paypalOrderID string) (*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settlements[paypalOrderID]
	if !ok {
		return nil, fmt.Errorf("failed to get settlement %q: %w", paypalOrderID, repository.ErrNotFound)
	}
	return &st, nil
}

func (s *Store) UpdateSettlement(ctx context.Context, paypalOrderID string, update models.SettlementUpdate) (*models.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settlements[paypalOrderID]
	if !ok {
		return nil, fmt.Errorf("failed to update settlement %q: %w", paypalOrderID, repository.ErrNotFound)
	}
	st.Status = update.Status
	if update.CaptureID != nil {
		st.CaptureID = update.CaptureID
	}
	if update.OrderID != nil {
		st.OrderID = update.OrderID
	}
	if update.FailureReason != nil {
		st.FailureReason = update.FailureReason
	}
	st.UpdatedAt = s.tick()
	s.settlements[paypalOrderID] = st
	return &st, nil
}

func (s *Store) ListSettlements(ctx context.Context, status models.SettlementStatus, olderThan time.Time) ([]models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Settlement, 0)
	for _, st := range s.settlements {
		if st.Status == status && st.UpdatedAt.Before(olderThan) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func copySettings(in models.ProductSettings) models.ProductSettings {
	out := in
	out.AdditionalImages = append([]string{}, in.AdditionalImages...)
	if in.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(in.Metadata))
		for k, v := range in.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
