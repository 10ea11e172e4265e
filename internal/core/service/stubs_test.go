package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories. Each mirrors the SQL predicate of the real
// PostgreSQL repository it stands in for.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[int64]*domain.User
	deleted map[int64]bool
	nextID  int64
	err     error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: map[int64]*domain.User{}, deleted: map[int64]bool{}}
	for _, u := range users {
		clone := *u
		r.byID[u.ID] = &clone
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for id, existing := range r.byID {
		if !r.deleted[id] && strings.EqualFold(existing.Email, u.Email) {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	clone := *u
	clone.ID = r.nextID
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for id, u := range r.byID {
		if !r.deleted[id] && strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok || r.deleted[id] {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.User
	for id, u := range r.byID {
		if r.deleted[id] || (f.Role != "" && u.Role != f.Role) {
			continue
		}
		clone := *u
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok || r.deleted[u.ID] {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	r.byID[u.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok || r.deleted[id] {
		return domain.ErrUserNotFound
	}
	r.deleted[id] = true
	return nil
}

type stubCaseRepo struct {
	mu         sync.Mutex
	byID       map[int64]*domain.Case
	deleted    map[int64]bool
	nextID     int64
	lastFilter ports.CaseFilter
	err        error

	// beforeCreate runs at the start of Create, outside the lock.
	beforeCreate func()
}

func newStubCaseRepo() *stubCaseRepo {
	return &stubCaseRepo{byID: map[int64]*domain.Case{}, deleted: map[int64]bool{}}
}

func (r *stubCaseRepo) Create(_ context.Context, c *domain.Case) (*domain.Case, error) {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	clone := *c
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubCaseRepo) FindByID(_ context.Context, id int64) (*domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.byID[id]
	if !ok || r.deleted[id] {
		return nil, domain.ErrCaseNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCaseRepo) List(_ context.Context, f ports.CaseFilter) ([]*domain.Case, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f
	if r.err != nil {
		return nil, 0, r.err
	}

	search := strings.ToLower(f.Search)
	var matched []*domain.Case
	for id, c := range r.byID {
		if r.deleted[id] {
			continue
		}
		if f.CaseManagerID != 0 && c.CaseManagerID != f.CaseManagerID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Priority != "" && c.Priority != f.Priority {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.CaseNumber), search) &&
			!strings.Contains(strings.ToLower(c.Title), search) {
			continue
		}
		clone := *c
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return window(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (r *stubCaseRepo) Update(_ context.Context, id int64, upd ports.CaseUpdate) (*domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || r.deleted[id] {
		return nil, domain.ErrCaseNotFound
	}
	c.Status = upd.Status
	c.Priority = upd.Priority
	c.Title = upd.Title
	c.Description = upd.Description
	c.Tags = append([]string(nil), upd.Tags...)
	if upd.CaseManagerID != nil {
		c.CaseManagerID = *upd.CaseManagerID
	}
	c.UpdatedAt = time.Now().UTC()
	clone := *c
	return &clone, nil
}

func (r *stubCaseRepo) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok || r.deleted[id] {
		return domain.ErrCaseNotFound
	}
	r.deleted[id] = true
	return nil
}

func (r *stubCaseRepo) CountByStatus(_ context.Context, managerID int64) ([]domain.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.CaseStatus]int64{}
	for id, c := range r.byID {
		if r.deleted[id] || (managerID != 0 && c.CaseManagerID != managerID) {
			continue
		}
		counts[c.Status]++
	}
	out := make([]domain.StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, domain.StatusCount{Status: st, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// seed inserts a case directly, bypassing number generation.
func (r *stubCaseRepo) seed(c domain.Case) *domain.Case {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	if c.Status == "" {
		c.Status = domain.StatusOpen
	}
	if c.Priority == "" {
		c.Priority = domain.PriorityMedium
	}
	r.byID[c.ID] = &c
	clone := c
	return &clone
}

type stubNoteRepo struct {
	mu      sync.Mutex
	byID    map[int64]*domain.Note
	deleted map[int64]bool
	nextID  int64
}

func newStubNoteRepo() *stubNoteRepo {
	return &stubNoteRepo{byID: map[int64]*domain.Note{}, deleted: map[int64]bool{}}
}

func (r *stubNoteRepo) Create(_ context.Context, n *domain.Note) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *n
	clone.ID = r.nextID
	clone.CreatedAt = time.Now().UTC().Add(time.Duration(r.nextID) * time.Millisecond)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubNoteRepo) FindByID(_ context.Context, id int64) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok || r.deleted[id] {
		return nil, domain.ErrNoteNotFound
	}
	clone := *n
	return &clone, nil
}

func (r *stubNoteRepo) ListByCase(_ context.Context, f ports.NoteFilter) ([]*domain.Note, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Note
	for id, n := range r.byID {
		if r.deleted[id] || n.CaseID != f.CaseID {
			continue
		}
		if n.IsPrivate && !f.IncludePrivate && n.UserID != f.ViewerID {
			continue
		}
		clone := *n
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return window(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (r *stubNoteRepo) Update(_ context.Context, n *domain.Note) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[n.ID]; !ok || r.deleted[n.ID] {
		return nil, domain.ErrNoteNotFound
	}
	clone := *n
	r.byID[n.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubNoteRepo) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok || r.deleted[id] {
		return domain.ErrNoteNotFound
	}
	r.deleted[id] = true
	return nil
}

type stubDocumentRepo struct {
	mu      sync.Mutex
	byID    map[int64]*domain.Document
	deleted map[int64]bool
	nextID  int64
}

func newStubDocumentRepo() *stubDocumentRepo {
	return &stubDocumentRepo{byID: map[int64]*domain.Document{}, deleted: map[int64]bool{}}
}

func (r *stubDocumentRepo) Create(_ context.Context, d *domain.Document) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *d
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubDocumentRepo) FindByID(_ context.Context, id int64) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok || r.deleted[id] {
		return nil, domain.ErrDocumentNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *stubDocumentRepo) ListByCase(_ context.Context, f ports.DocumentFilter) ([]*domain.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Document
	for id, d := range r.byID {
		if r.deleted[id] || d.CaseID != f.CaseID {
			continue
		}
		clone := *d
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return window(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (r *stubDocumentRepo) Update(_ context.Context, id int64, docType domain.DocumentType, description string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok || r.deleted[id] {
		return nil, domain.ErrDocumentNotFound
	}
	d.DocumentType = docType
	d.Description = description
	clone := *d
	return &clone, nil
}

func (r *stubDocumentRepo) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok || r.deleted[id] {
		return domain.ErrDocumentNotFound
	}
	r.deleted[id] = true
	return nil
}

// recordingPublisher captures published activity events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (p *recordingPublisher) Publish(ev domain.ActivityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) actions() []domain.ActivityAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ActivityAction, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Action
	}
	return out
}

type stubTrail struct {
	events []domain.ActivityEvent
	err    error
}

func (s *stubTrail) Record(_ context.Context, ev domain.ActivityEvent) error {
	s.events = append(s.events, ev)
	return s.err
}

func (s *stubTrail) ListByCase(_ context.Context, caseID int64, limit int) ([]domain.ActivityEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.ActivityEvent
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].CaseID == caseID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

type stubIdempotency struct {
	mu         sync.Mutex
	keys       map[string]int64
	reserveErr error
	released   []string
}

// pendingID marks a reserved key whose create has not completed.
const pendingID int64 = 0

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: map[string]int64{}}
}

func (s *stubIdempotency) k(userID int64, key string) string {
	return strconv.FormatInt(userID, 10) + ":" + key
}

func (s *stubIdempotency) Reserve(_ context.Context, userID int64, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return 0, false, s.reserveErr
	}
	if id, ok := s.keys[s.k(userID, key)]; ok {
		return id, false, nil
	}
	s.keys[s.k(userID, key)] = pendingID
	return 0, true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, userID int64, key string, caseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[s.k(userID, key)] = caseID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, userID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[s.k(userID, key)] == pendingID {
		delete(s.keys, s.k(userID, key))
	}
	s.released = append(s.released, key)
	return nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
