package service

import (
	"time"

	"kitrader/internal/models"
	"kitrader/internal/repository"
)

// ============ Mock UserRepository ============

type MockUserRepository struct {
	users     map[int64]*models.User
	upsertErr error
	getErr    error
	updateErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[int64]*models.User),
	}
}

func (m *MockUserRepository) GetByID(id int64) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if user, exists := m.users[id]; exists {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) Upsert(user *models.User) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if existing, exists := m.users[user.ID]; exists {
		existing.Username = user.Username
		existing.UpdatedAt = time.Now()
		user.Role = existing.Role
		user.Active = existing.Active
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = existing.UpdatedAt
		return nil
	}
	user.Active = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockUserRepository) UpdateRole(id int64, role string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	user, exists := m.users[id]
	if !exists {
		return repository.ErrUserNotFound
	}
	user.Role = role
	return nil
}

func (m *MockUserRepository) Deactivate(id int64) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	user, exists := m.users[id]
	if !exists || !user.Active {
		return repository.ErrUserNotFound
	}
	user.Active = false
	return nil
}

func (m *MockUserRepository) List(limit, offset int) ([]*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

func (m *MockUserRepository) CountActive() (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	count := 0
	for _, u := range m.users {
		if u.Active {
			count++
		}
	}
	return count, nil
}

// addUser - хелпер для заполнения мока
func (m *MockUserRepository) addUser(id int64, role string, active bool) {
	m.users[id] = &models.User{
		ID:        id,
		Role:      role,
		Active:    active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// ============ Mock NotificationRepository ============

type MockNotificationRepository struct {
	notifications []*models.Notification
	createErr     error
	getErr        error
	deleteErr     error
	nextID        int64
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{nextID: 1}
}

func (m *MockNotificationRepository) Create(notif *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	notif.ID = int(m.nextID)
	m.nextID++
	m.notifications = append(m.notifications, notif)
	return nil
}

func (m *MockNotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit > len(m.notifications) {
		limit = len(m.notifications)
	}
	return m.notifications[:limit], nil
}

func (m *MockNotificationRepository) GetRecentByUser(userID int64, limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.UserID != nil && *n.UserID == userID {
			result = append(result, n)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MockNotificationRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var kept []*models.Notification
	var deleted int64
	for _, n := range m.notifications {
		if n.Timestamp.Before(timestamp) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return deleted, nil
}

// ============ Mock TokenRepository ============

type MockTokenRepository struct {
	tokens    map[string]*models.Token
	samples   map[string][]*models.PriceSample
	upsertErr error
	getErr    error
}

func NewMockTokenRepository() *MockTokenRepository {
	return &MockTokenRepository{
		tokens:  make(map[string]*models.Token),
		samples: make(map[string][]*models.PriceSample),
	}
}

func (m *MockTokenRepository) UpsertToken(token *models.Token) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *token
	m.tokens[token.Address] = &copied
	return nil
}

func (m *MockTokenRepository) GetToken(address string) (*models.Token, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if token, exists := m.tokens[address]; exists {
		return token, nil
	}
	return nil, repository.ErrTokenNotFound
}

func (m *MockTokenRepository) GetTrackedTokens() ([]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []string
	for addr, token := range m.tokens {
		if token.Tracked {
			result = append(result, addr)
		}
	}
	return result, nil
}

func (m *MockTokenRepository) GetRecentSamples(token string, limit int) ([]*models.PriceSample, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	samples := m.samples[token]
	if limit > len(samples) {
		limit = len(samples)
	}
	return samples[:limit], nil
}

func (m *MockTokenRepository) DeleteSamplesOlderThan(timestamp time.Time) (int64, error) {
	return 0, nil
}

// ============ Mock WebSocketBroadcaster ============

type MockBroadcaster struct {
	broadcasts []*models.Notification
}

func (m *MockBroadcaster) BroadcastNotification(notif *models.Notification) {
	m.broadcasts = append(m.broadcasts, notif)
}
