package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kitrader/internal/bot"
	"kitrader/internal/models"
	"kitrader/internal/repository"
	"kitrader/internal/service"
)

// ============ Mock Trading Engine ============

type MockEngine struct {
	positions map[int64]*models.Position
	wallets   map[int64]*models.Wallet

	openErr    error
	closeErr   error
	listErr    error
	riskReason string
	nextID     int64
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		positions: make(map[int64]*models.Position),
		wallets:   make(map[int64]*models.Wallet),
		nextID:    1,
	}
}

func (m *MockEngine) OpenPosition(ctx context.Context, userID int64, token, posType string, size decimal.Decimal) (*models.Position, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}

	pos := &models.Position{
		ID:         m.nextID,
		UserID:     userID,
		Token:      token,
		Type:       posType,
		Size:       size,
		EntryPrice: decimal.NewFromFloat(0.001),
		OpenTime:   time.Now(),
		Status:     models.PositionStatusOpen,
	}
	m.nextID++
	m.positions[pos.ID] = pos
	return pos, nil
}

func (m *MockEngine) ClosePosition(ctx context.Context, positionID int64) (*models.Position, error) {
	if m.closeErr != nil {
		return nil, m.closeErr
	}

	pos, exists := m.positions[positionID]
	if !exists {
		return nil, repository.ErrPositionNotFound
	}
	if pos.Status == models.PositionStatusClosed {
		return nil, repository.ErrPositionClosed
	}

	now := time.Now()
	price := decimal.NewFromFloat(0.002)
	pnl := pos.CalcPnl(price)
	pos.Status = models.PositionStatusClosed
	pos.ClosePrice = &price
	pos.CloseTime = &now
	pos.Pnl = &pnl
	return pos, nil
}

func (m *MockEngine) ListPositions(userID int64, status string, limit, offset int) ([]*models.Position, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	var result []*models.Position
	for _, pos := range m.positions {
		if pos.UserID != userID {
			continue
		}
		if status != "" && pos.Status != status {
			continue
		}
		result = append(result, pos)
	}
	return result, nil
}

func (m *MockEngine) GetPositionHistory(positionID int64, includeSamples bool) (*bot.PositionHistory, error) {
	pos, exists := m.positions[positionID]
	if !exists {
		return nil, repository.ErrPositionNotFound
	}
	return &bot.PositionHistory{Position: pos}, nil
}

func (m *MockEngine) ValidateRisk(userID int64, token, posType string, size decimal.Decimal) (bool, string, error) {
	if m.riskReason != "" {
		return false, m.riskReason, nil
	}
	return true, "", nil
}

func (m *MockEngine) GetWallet(userID int64) (*models.Wallet, error) {
	if wallet, exists := m.wallets[userID]; exists {
		return wallet, nil
	}
	wallet := &models.Wallet{
		UserID:  userID,
		Balance: decimal.NewFromInt(1000),
	}
	m.wallets[userID] = wallet
	return wallet, nil
}

// ============ Mock User Service ============

type MockUserService struct {
	users     map[int64]*models.User
	updateErr error
}

func NewMockUserService() *MockUserService {
	return &MockUserService{users: make(map[int64]*models.User)}
}

func (m *MockUserService) RegisterOrTouch(id int64, username string) (*models.User, error) {
	if user, exists := m.users[id]; exists {
		user.Username = username
		return user, nil
	}
	user := &models.User{
		ID:       id,
		Username: username,
		Role:     models.RoleBasic,
		Active:   true,
	}
	m.users[id] = user
	return user, nil
}

func (m *MockUserService) GetUser(id int64) (*models.User, error) {
	if user, exists := m.users[id]; exists {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserService) RequireActive(id int64) (*models.User, error) {
	user, err := m.GetUser(id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, service.ErrUserInactive
	}
	return user, nil
}

func (m *MockUserService) UpdateRole(actorID, targetID int64, role string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	actor, exists := m.users[actorID]
	if !exists {
		return repository.ErrUserNotFound
	}
	if !actor.IsAdmin() {
		return service.ErrForbidden
	}
	target, exists := m.users[targetID]
	if !exists {
		return repository.ErrUserNotFound
	}
	target.Role = role
	return nil
}

func (m *MockUserService) Deactivate(actorID, targetID int64) error {
	actor, exists := m.users[actorID]
	if !exists {
		return repository.ErrUserNotFound
	}
	if !actor.IsAdmin() {
		return service.ErrForbidden
	}
	target, exists := m.users[targetID]
	if !exists {
		return repository.ErrUserNotFound
	}
	target.Active = false
	return nil
}

func (m *MockUserService) ListUsers(limit, offset int) ([]*models.User, error) {
	var result []*models.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

func (m *MockUserService) CountActive() (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Active {
			count++
		}
	}
	return count, nil
}

// ============ Mock Token Service ============

type MockTokenService struct {
	tokens  map[string]*models.Token
	samples map[string][]*models.PriceSample
}

func NewMockTokenService() *MockTokenService {
	return &MockTokenService{
		tokens:  make(map[string]*models.Token),
		samples: make(map[string][]*models.PriceSample),
	}
}

func (m *MockTokenService) TrackToken(actorID int64, address, symbol, name string) (*models.Token, error) {
	token := &models.Token{
		Address: address,
		Symbol:  symbol,
		Name:    name,
		AddedBy: actorID,
		Tracked: true,
	}
	m.tokens[address] = token
	return token, nil
}

func (m *MockTokenService) GetToken(address string) (*models.Token, error) {
	if token, exists := m.tokens[address]; exists {
		return token, nil
	}
	return nil, repository.ErrTokenNotFound
}

func (m *MockTokenService) GetPriceHistory(address string, limit int) ([]*models.PriceSample, error) {
	return m.samples[address], nil
}

// ============ Mock Notification Service ============

type MockNotificationService struct {
	notifications []*models.Notification
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) CreateNotification(notif *models.Notification) error {
	m.notifications = append(m.notifications, notif)
	return nil
}

func (m *MockNotificationService) GetNotifications(limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > len(m.notifications) {
		limit = len(m.notifications)
	}
	return m.notifications[:limit], nil
}

func (m *MockNotificationService) GetUserNotifications(userID int64, limit int) ([]*models.Notification, error) {
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.UserID != nil && *n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *MockNotificationService) CleanupOld(olderThan time.Duration) (int64, error) {
	return 0, nil
}
