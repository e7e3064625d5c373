package service

import (
	"context"
	"errors"
	"sync"

	"discount-service/internal/model"
	"discount-service/internal/repository"

	"github.com/jackc/pgx/v5"
)

type usageKey struct {
	discountID string
	userID     string
}

// fakeStore is an in-memory DiscountRepository and UsageRepository. Writes
// made inside a transaction are applied immediately under the store lock and
// undone on rollback, which gives the same uniqueness and conditional
// update guarantees the database gives.
type fakeStore struct {
	mu        sync.Mutex
	discounts map[string]*model.Discount
	usages    map[usageKey]model.UsageRecord

	failIncrement bool
}

func newFakeStore(discounts ...model.Discount) *fakeStore {
	s := &fakeStore{
		discounts: make(map[string]*model.Discount),
		usages:    make(map[usageKey]model.UsageRecord),
	}
	for i := range discounts {
		d := discounts[i]
		s.discounts[d.ID] = &d
	}
	return s
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*model.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discounts[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (s *fakeStore) ReserveUse(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discounts[id]
	if !ok || d.TotalCapReached() {
		return false, nil
	}
	d.CurrentTotalUses++
	tx.(*fakeTx).undo = append(tx.(*fakeTx).undo, func() { d.CurrentTotalUses-- })
	return true, nil
}

func (s *fakeStore) IncrementUses(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failIncrement {
		return errors.New("counter update failed")
	}
	d, ok := s.discounts[id]
	if !ok {
		return repository.ErrUnknownDiscount
	}
	d.CurrentTotalUses++
	return nil
}

func (s *fakeStore) Reconcile(ctx context.Context, id string) (*model.Discount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discounts[id]
	if !ok {
		return nil, nil
	}
	if recorded := s.countLocked(id, ""); recorded > d.CurrentTotalUses {
		d.CurrentTotalUses = recorded
	}
	copied := *d
	return &copied, nil
}

func (s *fakeStore) UpsertMany(ctx context.Context, discounts []model.Discount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range discounts {
		d := discounts[i]
		if existing, ok := s.discounts[d.ID]; ok {
			d.CurrentTotalUses = existing.CurrentTotalUses
		}
		s.discounts[d.ID] = &d
	}
	return nil
}

func (s *fakeStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) Insert(ctx context.Context, tx pgx.Tx, usage *model.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.discounts[usage.DiscountID]; !ok {
		return repository.ErrUnknownDiscount
	}
	key := usageKey{discountID: usage.DiscountID, userID: usage.UserID}
	if _, exists := s.usages[key]; exists {
		return repository.ErrDuplicateUsage
	}
	s.usages[key] = *usage
	tx.(*fakeTx).undo = append(tx.(*fakeTx).undo, func() { delete(s.usages, key) })
	return nil
}

func (s *fakeStore) CountByUser(ctx context.Context, discountID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(discountID, userID), nil
}

func (s *fakeStore) CountByDiscount(ctx context.Context, discountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(discountID, ""), nil
}

// countLocked counts usages of discountID, restricted to userID when set.
func (s *fakeStore) countLocked(discountID, userID string) int {
	n := 0
	for key := range s.usages {
		if key.discountID == discountID && (userID == "" || key.userID == userID) {
			n++
		}
	}
	return n
}

func (s *fakeStore) counter(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts[id].CurrentTotalUses
}

func (s *fakeStore) recorded(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(id, "")
}

// fakeTx undoes its writes on rollback. Only Commit and Rollback are used.
type fakeTx struct {
	pgx.Tx
	store  *fakeStore
	undo   []func()
	closed bool
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.undo = nil
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	return nil
}
