package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonnyWalker81/restock/backend/internal/models"
	"github.com/JonnyWalker81/restock/backend/internal/repository"
)

// fakePurchaseRepository is an in-memory PurchaseRepository.
type fakePurchaseRepository struct {
	mu       sync.Mutex
	events   []models.PurchaseEvent
	nextID   int
	failKeys map[string]bool // product names whose reads fail
}

func newFakePurchaseRepository() *fakePurchaseRepository {
	return &fakePurchaseRepository{failKeys: make(map[string]bool)}
}

func (f *fakePurchaseRepository) add(userID, product string, at ...time.Time) {
	for _, ts := range at {
		_, _ = f.Create(context.Background(), &models.PurchaseEvent{
			UserID:      userID,
			ProductName: product,
			PurchasedAt: ts,
			Currency:    models.DefaultCurrency,
			Source:      models.SourceManual,
		})
	}
}

func (f *fakePurchaseRepository) Create(ctx context.Context, event *models.PurchaseEvent) (*models.PurchaseEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := *event
	if row.ID == "" {
		f.nextID++
		row.ID = fmt.Sprintf("evt-%06d", f.nextID)
	}
	for _, e := range f.events {
		if e.ID == row.ID {
			return nil, fmt.Errorf("purchase %s: %w", row.ID, repository.ErrDuplicate)
		}
	}
	row.CreatedAt = time.Now()
	f.events = append(f.events, row)
	return &row, nil
}

func (f *fakePurchaseRepository) GetOrderedByKey(ctx context.Context, userID, productName string) ([]models.PurchaseEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[productName] {
		return nil, errors.New("read failed")
	}
	var out []models.PurchaseEvent
	for _, e := range f.events {
		if e.UserID == userID && e.ProductName == productName {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.Before(out[j].PurchasedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakePurchaseRepository) CountOccasions(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[int64]bool)
	for _, e := range f.events {
		if e.UserID == userID {
			seen[e.PurchasedAt.UnixNano()] = true
		}
	}
	return int64(len(seen)), nil
}

func (f *fakePurchaseRepository) ListKeys(ctx context.Context, userID string) ([]models.ProductKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[models.ProductKey]bool)
	var keys []models.ProductKey
	for _, e := range f.events {
		if userID != "" && e.UserID != userID {
			continue
		}
		k := models.ProductKey{UserID: e.UserID, ProductName: e.ProductName}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

func (f *fakePurchaseRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.events[:0]
	var n int64
	for _, e := range f.events {
		if e.UserID == userID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.events = kept
	return n, nil
}

func (f *fakePurchaseRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// fakeAnalyticsRepository is an in-memory AnalyticsRepository with the same
// stale-writer guard as the SQL store.
type fakeAnalyticsRepository struct {
	mu            sync.Mutex
	rows          map[models.ProductKey]models.ProductAnalytics
	upserts       int
	conflictsLeft int
	upsertDelay   time.Duration

	inflight    map[models.ProductKey]int
	maxInflight int
}

func newFakeAnalyticsRepository() *fakeAnalyticsRepository {
	return &fakeAnalyticsRepository{
		rows:     make(map[models.ProductKey]models.ProductAnalytics),
		inflight: make(map[models.ProductKey]int),
	}
}

func (f *fakeAnalyticsRepository) put(s models.ProductAnalytics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[s.Key()] = s
}

func (f *fakeAnalyticsRepository) Upsert(ctx context.Context, snapshot *models.ProductAnalytics) error {
	key := snapshot.Key()

	f.mu.Lock()
	f.inflight[key]++
	if f.inflight[key] > f.maxInflight {
		f.maxInflight = f.inflight[key]
	}
	f.mu.Unlock()

	if f.upsertDelay > 0 {
		time.Sleep(f.upsertDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight[key]--
	f.upserts++

	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return repository.ErrConflict
	}
	existing, ok := f.rows[key]
	if ok && existing.TotalPurchases > snapshot.TotalPurchases {
		return repository.ErrConflict
	}
	if ok {
		snapshot.CreatedAt = existing.CreatedAt
	}
	f.rows[key] = *snapshot
	return nil
}

func (f *fakeAnalyticsRepository) GetByKey(ctx context.Context, userID, productName string) (*models.ProductAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[models.ProductKey{UserID: userID, ProductName: productName}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (f *fakeAnalyticsRepository) GetByUserID(ctx context.Context, userID string) ([]models.ProductAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ProductAnalytics
	for k, row := range f.rows {
		if k.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

func (f *fakeAnalyticsRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.rows {
		if k.UserID == userID {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

// fixedClock returns a Now func frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// days builds timestamps from start separated by whole-day gaps.
func days(start time.Time, gaps ...int) []time.Time {
	out := []time.Time{start}
	for _, g := range gaps {
		start = start.AddDate(0, 0, g)
		out = append(out, start)
	}
	return out
}

var t0 = time.Date(2026, time.January, 5, 18, 0, 0, 0, time.UTC)
