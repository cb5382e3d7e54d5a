package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-stockledger-ws/internal/apperr"
	"go-stockledger-ws/internal/model"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded map store implementing the same repository
// and unit-of-work contracts as the Postgres implementations. Units of work
// read versioned copies and commit with a version check, so a concurrent
// write to the same product surfaces apperr.ErrConflict instead of silently
// losing an update.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[uuid.UUID]model.Product
	deductions map[uuid.UUID]model.Deduction
	categories map[uuid.UUID]model.Category
	dedRev     map[uuid.UUID]int64
	dedSeq     map[uuid.UUID]uint64
	nextSeq    uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[uuid.UUID]model.Product),
		deductions: make(map[uuid.UUID]model.Deduction),
		categories: make(map[uuid.UUID]model.Category),
		dedRev:     make(map[uuid.UUID]int64),
		dedSeq:     make(map[uuid.UUID]uint64),
	}
}

var (
	_ ProductRepository   = (*MemoryStore)(nil)
	_ DeductionRepository = (*memDeductionRepo)(nil)
	_ CategoryRepository  = (*memCategoryRepo)(nil)
	_ UnitOfWork          = (*MemoryStore)(nil)
)

// Categories exposes the catalog's category side of the store.
func (s *MemoryStore) Categories() CategoryRepository {
	return &memCategoryRepo{s}
}

type memCategoryRepo struct {
	s *MemoryStore
}

func (r *memCategoryRepo) Create(category *model.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}
	s.categories[category.ID] = *category
	return nil
}

func (r *memCategoryRepo) FindAll() ([]model.Category, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCategoryRepo) FindByName(name string) (*model.Category, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Name == name {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: category %s", apperr.ErrNotFound, name)
}

func (r *memCategoryRepo) SeedDefaults() error {
	existing, _ := r.FindAll()
	if len(existing) > 0 {
		return nil
	}
	for i := range model.DefaultCategories {
		c := model.DefaultCategories[i]
		if err := r.Create(&c); err != nil {
			return err
		}
	}
	return nil
}

// Deductions exposes the journal side of the store. A separate facade keeps
// the FindByID signatures of both repository interfaces satisfiable.
func (s *MemoryStore) Deductions() DeductionRepository {
	return &memDeductionRepo{s}
}

type memDeductionRepo struct {
	s *MemoryStore
}

func (s *MemoryStore) Create(product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	product.UpdatedAt = product.CreatedAt
	s.products[product.ID] = *product
	return nil
}

func (s *MemoryStore) FindAll() ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) FindByID(id uuid.UUID) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", apperr.ErrNotFound, id)
	}
	return &p, nil
}

func (s *MemoryStore) FindByName(name string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.Name == name {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: product %s", apperr.ErrNotFound, name)
}

// Update writes the product directly (catalog path) and bumps the version so
// in-flight ledger units of work against the old state conflict and retry.
func (s *MemoryStore) Update(product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return fmt.Errorf("%w: product %s", apperr.ErrNotFound, product.ID)
	}
	product.Version++
	product.UpdatedAt = time.Now()
	s.products[product.ID] = *product
	return nil
}

// Delete removes the product. Journal rows stay untouched; their snapshots
// outlive the product.
func (s *MemoryStore) Delete(product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return fmt.Errorf("%w: product %s", apperr.ErrNotFound, product.ID)
	}
	delete(s.products, product.ID)
	return nil
}

func (r *memDeductionRepo) FindByID(id uuid.UUID) (*model.Deduction, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deductions[id]
	if !ok {
		return nil, fmt.Errorf("%w: deduction %s", apperr.ErrNotFound, id)
	}
	return &d, nil
}

func (r *memDeductionRepo) Query(f DeductionFilter) ([]model.Deduction, error) {
	s := r.s
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	s.mu.RLock()
	out := make([]model.Deduction, 0, len(s.deductions))
	for _, d := range s.deductions {
		if f.Category != "" && d.CategoryName != f.Category {
			continue
		}
		if f.DateFrom != nil && d.Date.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && d.Date.After(*f.DateTo) {
			continue
		}
		if f.ProductNameContains != "" &&
			!strings.Contains(strings.ToLower(d.ProductName), strings.ToLower(f.ProductNameContains)) {
			continue
		}
		out = append(out, d)
	}
	seq := make(map[uuid.UUID]uint64, len(out))
	for _, d := range out {
		seq[d.ID] = s.dedSeq[d.ID]
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return seq[out[i].ID] > seq[out[j].ID]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memDeductionRepo) Recent(n int) ([]model.Deduction, error) {
	return r.Query(DeductionFilter{Limit: n})
}

// Do runs fn against versioned copies and commits under the write lock.
// Version drift between read and commit fails the whole unit with
// apperr.ErrConflict; nothing is applied.
func (s *MemoryStore) Do(fn func(tx LedgerTx) error) error {
	tx := &memLedgerTx{
		s:         s,
		prodReads: make(map[uuid.UUID]int64),
		dedReads:  make(map[uuid.UUID]int64),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *MemoryStore) commit(tx *memLedgerTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ver := range tx.prodReads {
		cur, ok := s.products[id]
		if !ok || cur.Version != ver {
			return fmt.Errorf("%w: product %s changed underfoot", apperr.ErrConflict, id)
		}
	}
	for id, rev := range tx.dedReads {
		cur, ok := s.dedRev[id]
		if !ok || cur != rev {
			return fmt.Errorf("%w: deduction %s changed underfoot", apperr.ErrConflict, id)
		}
	}

	now := time.Now()
	for _, p := range tx.savedProds {
		p.UpdatedAt = now
		s.products[p.ID] = *p
	}
	for _, d := range tx.createdDeds {
		d.CreatedAt = now
		d.UpdatedAt = now
		s.deductions[d.ID] = *d
		s.dedRev[d.ID] = 0
		s.nextSeq++
		s.dedSeq[d.ID] = s.nextSeq
	}
	for _, d := range tx.savedDeds {
		d.UpdatedAt = now
		s.deductions[d.ID] = *d
		s.dedRev[d.ID]++
	}
	for _, id := range tx.deletedDeds {
		delete(s.deductions, id)
		delete(s.dedRev, id)
		delete(s.dedSeq, id)
	}
	return nil
}

type memLedgerTx struct {
	s           *MemoryStore
	prodReads   map[uuid.UUID]int64
	dedReads    map[uuid.UUID]int64
	savedProds  []*model.Product
	createdDeds []*model.Deduction
	savedDeds   []*model.Deduction
	deletedDeds []uuid.UUID
}

func (t *memLedgerTx) ProductForUpdate(id uuid.UUID) (*model.Product, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	p, ok := t.s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", apperr.ErrNotFound, id)
	}
	t.prodReads[id] = p.Version
	return &p, nil
}

func (t *memLedgerTx) SaveProduct(p *model.Product) error {
	p.Version++
	t.savedProds = append(t.savedProds, p)
	return nil
}

func (t *memLedgerTx) DeductionForUpdate(id uuid.UUID) (*model.Deduction, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	d, ok := t.s.deductions[id]
	if !ok {
		return nil, fmt.Errorf("%w: deduction %s", apperr.ErrNotFound, id)
	}
	t.dedReads[id] = t.s.dedRev[id]
	return &d, nil
}

func (t *memLedgerTx) CreateDeduction(d *model.Deduction) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	t.createdDeds = append(t.createdDeds, d)
	return nil
}

func (t *memLedgerTx) SaveDeduction(d *model.Deduction) error {
	t.savedDeds = append(t.savedDeds, d)
	return nil
}

func (t *memLedgerTx) DeleteDeduction(d *model.Deduction) error {
	t.deletedDeds = append(t.deletedDeds, d.ID)
	return nil
}
