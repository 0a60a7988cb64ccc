package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/landing/internal/models"
	pkgauth "github.com/BradenHooton/landing/pkg/auth"
)

// MockCredentialStore implements CredentialStore for testing
type MockCredentialStore struct {
	FindByEmailFunc       func(ctx context.Context, email string) (*models.User, error)
	UpsertFunc            func(ctx context.Context, user *models.User) (*models.User, error)
	TouchLastSignedInFunc func(ctx context.Context, id string) error
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCredentialStore) TouchLastSignedIn(ctx context.Context, id string) error {
	if m.TouchLastSignedInFunc != nil {
		return m.TouchLastSignedInFunc(ctx, id)
	}
	return nil
}

// MemoryCredentialStore is an in-memory CredentialStore keyed by lowercased email
type MemoryCredentialStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	nextID  int
	touched map[string]time.Time
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		users:   make(map[string]*models.User),
		touched: make(map[string]time.Time),
	}
}

func (m *MemoryCredentialStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryCredentialStore) Upsert(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(user.Email)
	now := time.Now()
	if existing, ok := m.users[email]; ok {
		existing.PasswordDigest = user.PasswordDigest
		existing.Role = user.Role
		existing.LoginMethod = user.LoginMethod
		if user.Name != "" {
			existing.Name = user.Name
		}
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	m.nextID++
	created := *user
	created.ID = fmt.Sprintf("user-%03d", m.nextID)
	created.Email = email
	created.OpenID = "local_" + email
	created.CreatedAt = now
	created.UpdatedAt = now
	m.users[email] = &created
	cp := created
	return &cp, nil
}

func (m *MemoryCredentialStore) TouchLastSignedIn(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ID == id {
			now := time.Now()
			u.LastSignedIn = &now
			m.touched[id] = now
			return nil
		}
	}
	return models.ErrNotFound
}

// Count returns the number of stored users
func (m *MemoryCredentialStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// Put inserts a user directly, hashing password with SHA-256 when non-empty
func (m *MemoryCredentialStore) Put(id, email, password, role string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := &models.User{
		ID:          id,
		OpenID:      "local_" + strings.ToLower(email),
		Email:       strings.ToLower(email),
		Name:        "Test User",
		LoginMethod: models.LoginMethodLocal,
		Role:        role,
	}
	if password != "" {
		digest, _ := pkgauth.SHA256Hasher{}.Hash(password)
		u.PasswordDigest = &digest
	}
	m.users[u.Email] = u
	return u
}

// MockContactStore implements ContactStore for testing
type MockContactStore struct {
	CreateFunc  func(ctx context.Context, c *models.ContactSubmission) (*models.ContactSubmission, error)
	ListFunc    func(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	ListAllFunc func(ctx context.Context) ([]*models.ContactSubmission, error)
}

func (m *MockContactStore) Create(ctx context.Context, c *models.ContactSubmission) (*models.ContactSubmission, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	c.ID = "contact-1"
	c.CreatedAt = time.Now()
	return c, nil
}

func (m *MockContactStore) List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.ContactSubmission{}, nil
}

func (m *MockContactStore) ListAll(ctx context.Context) ([]*models.ContactSubmission, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []*models.ContactSubmission{}, nil
}

// MockOwnerNotifier implements OwnerNotifier for testing
type MockOwnerNotifier struct {
	mu                   sync.Mutex
	Sent                 []*models.ContactSubmission
	NotifyNewContactFunc func(ctx context.Context, c *models.ContactSubmission) error
}

func (m *MockOwnerNotifier) NotifyNewContact(ctx context.Context, c *models.ContactSubmission) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, c)
	m.mu.Unlock()

	if m.NotifyNewContactFunc != nil {
		return m.NotifyNewContactFunc(ctx, c)
	}
	return nil
}

func (m *MockOwnerNotifier) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
