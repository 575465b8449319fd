package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kitrader/internal/models"
	"kitrader/pkg/utils"
)

// TokenService предоставляет бизнес-логику управления токенами.
//
// Отслеживаемые токены опрашивает фоновый Poller; их история цен
// доступна для графиков позиций.
type TokenService struct {
	tokenRepo TokenRepositoryInterface
	users     UserServiceInterface
	logger    *zap.Logger
}

// NewTokenService создает новый экземпляр TokenService
func NewTokenService(tokenRepo TokenRepositoryInterface, users UserServiceInterface, logger *zap.Logger) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		users:     users,
		logger:    logger,
	}
}

// TrackToken добавляет токен в список отслеживаемых.
// Инициатор должен быть активным пользователем; адрес - валидный base58.
func (s *TokenService) TrackToken(actorID int64, address, symbol, name string) (*models.Token, error) {
	if err := utils.ValidateTokenAddress(address); err != nil {
		return nil, fmt.Errorf("invalid token address: %w", err)
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := utils.ValidateSymbol(symbol); err != nil {
		return nil, fmt.Errorf("invalid symbol: %w", err)
	}

	if _, err := s.users.RequireActive(actorID); err != nil {
		return nil, err
	}

	token := &models.Token{
		Address: address,
		Symbol:  symbol,
		Name:    strings.TrimSpace(name),
		AddedAt: time.Now(),
		AddedBy: actorID,
		Tracked: true,
	}

	if err := s.tokenRepo.UpsertToken(token); err != nil {
		return nil, fmt.Errorf("upsert token: %w", err)
	}

	s.logger.Info("token tracked",
		zap.String("address", address),
		zap.String("symbol", symbol),
		zap.Int64("added_by", actorID))

	return token, nil
}

// GetToken возвращает токен по адресу
func (s *TokenService) GetToken(address string) (*models.Token, error) {
	return s.tokenRepo.GetToken(address)
}

// GetPriceHistory возвращает последние сэмплы цены токена, новые сверху
func (s *TokenService) GetPriceHistory(address string, limit int) ([]*models.PriceSample, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	return s.tokenRepo.GetRecentSamples(address, limit)
}
