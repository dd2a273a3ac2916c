// Package testutil provides in-memory store implementations for testing the
// issue workflow and its HTTP handlers.
package testutil

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"civicresolve-be/events"
	"civicresolve-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockIssueStore is an in-memory issue store with error injection.
type MockIssueStore struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]*models.Issue

	// Error injection for testing
	CreateErr error
	FindErr   error
	ListErr   error
	ApplyErr  error
	CountErr  error
}

func NewMockIssueStore() *MockIssueStore {
	return &MockIssueStore{issues: make(map[primitive.ObjectID]*models.Issue)}
}

func (m *MockIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, existing := range m.issues {
		if existing.TicketID == issue.TicketID {
			return models.ErrDuplicate
		}
	}
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	m.issues[issue.ID] = clone(issue)
	return nil
}

// Put stores issue as-is, assigning an id when missing.
func (m *MockIssueStore) Put(issue *models.Issue) *models.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now()
	}
	m.issues[issue.ID] = clone(issue)
	return clone(issue)
}

// Get returns a copy of the stored issue, or nil.
func (m *MockIssueStore) Get(id primitive.ObjectID) *models.Issue {
	m.mu.RLock()
	defer m.mu.RUnlock()

	issue, ok := m.issues[id]
	if !ok {
		return nil
	}
	return clone(issue)
}

// Len reports how many issues are stored.
func (m *MockIssueStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.issues)
}

func (m *MockIssueStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	issue, ok := m.issues[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clone(issue), nil
}

func (m *MockIssueStore) FindByTicketID(ctx context.Context, ticketID string) (*models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for _, issue := range m.issues {
		if issue.TicketID == ticketID {
			return clone(issue), nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockIssueStore) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []models.Issue
	for _, issue := range m.issues {
		if filter.Matches(issue) {
			out = append(out, *clone(issue))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockIssueStore) FindNearbyActive(ctx context.Context, point models.GeoPoint, radiusMeters float64, category models.Category) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	var out []models.Issue
	for _, issue := range m.issues {
		if issue.Category != category || !issue.Status.IsActive() {
			continue
		}
		if DistanceMeters(point, issue.Location) <= radiusMeters {
			out = append(out, *clone(issue))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return DistanceMeters(point, out[i].Location) < DistanceMeters(point, out[j].Location)
	})
	return out, nil
}

func (m *MockIssueStore) ApplyChange(ctx context.Context, id primitive.ObjectID, change *models.IssueChange) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ApplyErr != nil {
		return nil, m.ApplyErr
	}
	issue, ok := m.issues[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !change.Matches(issue) {
		return nil, models.ErrStale
	}
	change.Apply(issue)
	return clone(issue), nil
}

func (m *MockIssueStore) PublicMap(ctx context.Context) ([]models.MapPin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var pins []models.MapPin
	for _, issue := range m.issues {
		pins = append(pins, models.MapPin{
			ID:             issue.ID,
			Location:       issue.Location,
			Category:       issue.Category,
			Status:         issue.Status,
			ImageURL:       issue.ImageURL,
			ResolutionCost: issue.ResolutionCost,
		})
	}
	return pins, nil
}

func (m *MockIssueStore) Count(ctx context.Context, statuses ...models.IssueStatus) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.CountErr != nil {
		return 0, m.CountErr
	}
	var n int64
	for _, issue := range m.issues {
		if len(statuses) == 0 || containsStatus(statuses, issue.Status) {
			n++
		}
	}
	return n, nil
}

func (m *MockIssueStore) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.CountErr != nil {
		return nil, m.CountErr
	}
	counts := map[models.Category]int64{}
	for _, issue := range m.issues {
		counts[issue.Category]++
	}
	out := make([]models.CategoryCount, 0, len(counts))
	for category, n := range counts {
		out = append(out, models.CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func containsStatus(statuses []models.IssueStatus, s models.IssueStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func clone(issue *models.Issue) *models.Issue {
	cp := *issue
	cp.History = append([]models.HistoryEntry(nil), issue.History...)
	cp.Location.Coordinates = append([]float64(nil), issue.Location.Coordinates...)
	if issue.AssignedDepartment != nil {
		dept := *issue.AssignedDepartment
		cp.AssignedDepartment = &dept
	}
	if issue.AssignedWorker != nil {
		w := *issue.AssignedWorker
		cp.AssignedWorker = &w
	}
	if issue.ResolvedBy != nil {
		by := *issue.ResolvedBy
		cp.ResolvedBy = &by
	}
	return &cp
}

const earthRadiusMeters = 6371008.8

// DistanceMeters is the great-circle distance between two points.
func DistanceMeters(a, b models.GeoPoint) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// MockUserStore is an in-memory citizen and worker store.
type MockUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User

	CreateErr error
	FindErr   error
}

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return models.ErrDuplicate
		}
	}
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

// Add stores user directly and returns it with an id.
func (m *MockUserStore) Add(user models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := user
	m.users[user.ID] = &cp
	return user
}

// Len reports how many accounts are stored.
func (m *MockUserStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for _, user := range m.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *MockUserStore) ListWorkers(ctx context.Context, dept models.Department) ([]models.WorkerSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.WorkerSummary
	for _, user := range m.users {
		if user.Role == models.RoleWorker && user.Department == dept {
			out = append(out, models.WorkerSummary{ID: user.ID, Name: user.Name, Email: user.Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockUserStore) CountCitizens(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, user := range m.users {
		if user.Role == models.RoleCitizen {
			n++
		}
	}
	return n, nil
}

// MockOfficerStore is an in-memory officer store.
type MockOfficerStore struct {
	mu       sync.RWMutex
	officers map[string]*models.Officer

	CreateErr error
}

func NewMockOfficerStore() *MockOfficerStore {
	return &MockOfficerStore{officers: make(map[string]*models.Officer)}
}

func (m *MockOfficerStore) Create(ctx context.Context, officer *models.Officer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.officers[officer.Email]; exists {
		return models.ErrDuplicate
	}
	now := time.Now()
	officer.ID = primitive.NewObjectID()
	officer.CreatedAt = now
	officer.UpdatedAt = now
	cp := *officer
	m.officers[officer.Email] = &cp
	return nil
}

// Len reports how many officers are stored.
func (m *MockOfficerStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.officers)
}

func (m *MockOfficerStore) FindByEmail(ctx context.Context, email string) (*models.Officer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	officer, ok := m.officers[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *officer
	return &cp, nil
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.IssueEvent

	Err error
}

func (p *RecordingPublisher) Publish(ctx context.Context, ev events.IssueEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, ev)
	return nil
}

// Types returns the published event types in order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
