// Package porttest provides an in-memory record store for tests of code
// written against the port interfaces.
package porttest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/apperr"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Store keeps every record in maps guarded by one mutex. WithTransaction
// snapshots the maps and restores them when the callback fails, so tests can
// observe all-or-nothing behavior.
type Store struct {
	mu         sync.Mutex
	expenses   map[string]*entity.Expense
	events     []*entity.ApprovalEvent
	categories map[string]*entity.Category
	users      map[string]*entity.User
	tenants    map[string]*entity.Tenant

	// Failure hooks, consulted before the write happens
	FailUpdate func(e *entity.Expense) error
	FailAppend func(evt *entity.ApprovalEvent) error
}

var (
	_ port.ExpenseRepository       = (*Store)(nil)
	_ port.TransactionManager      = (*Store)(nil)
	_ port.ApprovalEventRepository = (*EventRepo)(nil)
	_ port.CategoryRepository      = (*CategoryRepo)(nil)
	_ port.UserRepository          = (*UserRepo)(nil)
	_ port.TenantRepository        = (*TenantRepo)(nil)
)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		expenses:   make(map[string]*entity.Expense),
		categories: make(map[string]*entity.Category),
		users:      make(map[string]*entity.User),
		tenants:    make(map[string]*entity.Tenant),
	}
}

// Events returns the approval event repository view of the store
func (s *Store) Events() *EventRepo { return &EventRepo{s} }

// Categories returns the category repository view of the store
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }

// Users returns the user repository view of the store
func (s *Store) Users() *UserRepo { return &UserRepo{s} }

// Tenants returns the tenant repository view of the store
func (s *Store) Tenants() *TenantRepo { return &TenantRepo{s} }

// WithTransaction runs fn and rolls the store back if it fails
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	expenses   map[string]*entity.Expense
	events     []*entity.ApprovalEvent
	categories map[string]*entity.Category
	users      map[string]*entity.User
	tenants    map[string]*entity.Tenant
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		expenses:   make(map[string]*entity.Expense, len(s.expenses)),
		events:     append([]*entity.ApprovalEvent(nil), s.events...),
		categories: make(map[string]*entity.Category, len(s.categories)),
		users:      make(map[string]*entity.User, len(s.users)),
		tenants:    make(map[string]*entity.Tenant, len(s.tenants)),
	}
	for k, v := range s.expenses {
		snap.expenses[k] = v.Clone()
	}
	for k, v := range s.categories {
		c := *v
		snap.categories[k] = &c
	}
	for k, v := range s.users {
		u := *v
		snap.users[k] = &u
	}
	for k, v := range s.tenants {
		t := *v
		snap.tenants[k] = &t
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.expenses = snap.expenses
	s.events = snap.events
	s.categories = snap.categories
	s.users = snap.users
	s.tenants = snap.tenants
}

// PutExpense stores e as-is, bypassing version handling
func (s *Store) PutExpense(e *entity.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e.Clone()
}

// Expense returns the stored copy of an expense regardless of tenant
func (s *Store) Expense(id string) (*entity.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// EventCount returns how many audit entries exist for an expense
func (s *Store) EventCount(expenseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, evt := range s.events {
		if evt.ExpenseID == expenseID {
			n++
		}
	}
	return n
}

// Create implements port.ExpenseRepository
func (s *Store) Create(ctx context.Context, e *entity.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.expenses[e.ID]; exists {
		return fmt.Errorf("%w: expense %s", apperr.ErrAlreadyExists, e.ID)
	}
	e.Version = 1
	s.expenses[e.ID] = e.Clone()
	return nil
}

// GetByID implements port.ExpenseRepository
func (s *Store) GetByID(ctx context.Context, tenantID, id string) (*entity.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.TenantID != tenantID {
		return nil, fmt.Errorf("%w: expense %s", apperr.ErrNotFound, id)
	}
	return e.Clone(), nil
}

// ListByOwner implements port.ExpenseRepository
func (s *Store) ListByOwner(ctx context.Context, tenantID, userID string) ([]*entity.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Expense
	for _, e := range s.expenses {
		if e.TenantID == tenantID && e.UserID == userID {
			out = append(out, e.Clone())
		}
	}
	sortExpenses(out, false)
	return out, nil
}

// ListByStatus implements port.ExpenseRepository
func (s *Store) ListByStatus(ctx context.Context, tenantID string, statuses []workflow.State, opts port.ListOptions) ([]*entity.Expense, error) {
	want := make(map[workflow.State]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Expense
	for _, e := range s.expenses {
		if e.TenantID != tenantID || !want[e.Status] {
			continue
		}
		if opts.ExcludeOwnerID != "" && e.UserID == opts.ExcludeOwnerID {
			continue
		}
		out = append(out, e.Clone())
	}
	sortExpenses(out, opts.OrderByUpdated)
	return out, nil
}

// Update implements the compare-and-swap write of port.ExpenseRepository
func (s *Store) Update(ctx context.Context, e *entity.Expense) error {
	if s.FailUpdate != nil {
		if err := s.FailUpdate(e); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[e.ID]
	if !ok || cur.TenantID != e.TenantID {
		return fmt.Errorf("%w: expense %s", apperr.ErrNotFound, e.ID)
	}
	if cur.Version != e.Version {
		return fmt.Errorf("%w: expense %s at version %d", apperr.ErrConflict, e.ID, e.Version)
	}
	e.Version++
	s.expenses[e.ID] = e.Clone()
	return nil
}

// Delete implements port.ExpenseRepository
func (s *Store) Delete(ctx context.Context, tenantID, id string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[id]
	if !ok || cur.TenantID != tenantID {
		return fmt.Errorf("%w: expense %s", apperr.ErrNotFound, id)
	}
	if cur.Version != version {
		return fmt.Errorf("%w: expense %s at version %d", apperr.ErrConflict, id, version)
	}
	delete(s.expenses, id)
	return nil
}

func sortExpenses(list []*entity.Expense, byUpdated bool) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].CreatedAt, list[j].CreatedAt
		if byUpdated {
			a, b = list[i].UpdatedAt, list[j].UpdatedAt
		}
		if a.Equal(b) {
			return list[i].ID > list[j].ID
		}
		return a.After(b)
	})
}

// EventRepo implements port.ApprovalEventRepository
type EventRepo struct{ s *Store }

// Append implements port.ApprovalEventRepository
func (r *EventRepo) Append(ctx context.Context, evt *entity.ApprovalEvent) error {
	if r.s.FailAppend != nil {
		if err := r.s.FailAppend(evt); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *evt
	r.s.events = append(r.s.events, &c)
	return nil
}

// ListByExpense implements port.ApprovalEventRepository
func (r *EventRepo) ListByExpense(ctx context.Context, tenantID, expenseID string) ([]*entity.ApprovalEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ApprovalEvent
	for _, evt := range r.s.events {
		if evt.TenantID == tenantID && evt.ExpenseID == expenseID {
			c := *evt
			out = append(out, &c)
		}
	}
	return out, nil
}

// CategoryRepo implements port.CategoryRepository
type CategoryRepo struct{ s *Store }

// Create implements port.CategoryRepository
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.categories {
		if existing.TenantID == c.TenantID && strings.EqualFold(existing.Name, c.Name) {
			return fmt.Errorf("%w: category %s", apperr.ErrAlreadyExists, c.Name)
		}
	}
	cp := *c
	r.s.categories[c.ID] = &cp
	return nil
}

// GetByID implements port.CategoryRepository
func (r *CategoryRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, fmt.Errorf("%w: category %s", apperr.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

// GetByName implements port.CategoryRepository
func (r *CategoryRepo) GetByName(ctx context.Context, tenantID, name string) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.TenantID == tenantID && strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: category %s", apperr.ErrNotFound, name)
}

// List implements port.CategoryRepository
func (r *CategoryRepo) List(ctx context.Context, tenantID string, includeInactive bool) ([]*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Category
	for _, c := range r.s.categories {
		if c.TenantID == tenantID && (includeInactive || c.Active) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Count implements port.CategoryRepository
func (r *CategoryRepo) Count(ctx context.Context, tenantID string) (int, error) {
	all, _ := r.List(ctx, tenantID, true)
	return len(all), nil
}

// Update implements port.CategoryRepository
func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.categories[c.ID]
	if !ok || cur.TenantID != c.TenantID {
		return fmt.Errorf("%w: category %s", apperr.ErrNotFound, c.ID)
	}
	for _, existing := range r.s.categories {
		if existing.ID != c.ID && existing.TenantID == c.TenantID && strings.EqualFold(existing.Name, c.Name) {
			return fmt.Errorf("%w: category %s", apperr.ErrAlreadyExists, c.Name)
		}
	}
	cp := *c
	r.s.categories[c.ID] = &cp
	return nil
}

// UserRepo implements port.UserRepository
type UserRepo struct{ s *Store }

// Create implements port.UserRepository
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.TenantID == u.TenantID && strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: user %s", apperr.ErrAlreadyExists, u.Email)
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

// GetByID implements port.UserRepository
func (r *UserRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

// GetByEmail implements port.UserRepository
func (r *UserRepo) GetByEmail(ctx context.Context, tenantID, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, email)
}

// List implements port.UserRepository
func (r *UserRepo) List(ctx context.Context, tenantID string) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if u.TenantID == tenantID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update implements port.UserRepository
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok || cur.TenantID != u.TenantID {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, u.ID)
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

// TenantRepo implements port.TenantRepository
type TenantRepo struct{ s *Store }

// Create implements port.TenantRepository
func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tenants {
		if existing.Slug == t.Slug || existing.InviteCode == t.InviteCode {
			return fmt.Errorf("%w: tenant %s", apperr.ErrAlreadyExists, t.Slug)
		}
	}
	cp := *t
	r.s.tenants[t.ID] = &cp
	return nil
}

// GetByID implements port.TenantRepository
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: tenant %s", apperr.ErrNotFound, id)
	}
	cp := *t
	return &cp, nil
}

// GetBySlug implements port.TenantRepository
func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: tenant %s", apperr.ErrNotFound, slug)
}

// ExistsInviteCode implements port.TenantRepository
func (r *TenantRepo) ExistsInviteCode(ctx context.Context, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.InviteCode == code {
			return true, nil
		}
	}
	return false, nil
}

// ListActive implements port.TenantRepository
func (r *TenantRepo) ListActive(ctx context.Context) ([]*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Tenant
	for _, t := range r.s.tenants {
		if t.Active {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
