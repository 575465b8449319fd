package repository

import (
	"database/sql"
	"time"

	"kitrader/internal/models"
)

// TradeRepository - работа с таблицей trades
//
// Журнал сделок append-only: записи только добавляются, никогда не
// обновляются и не удаляются.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeColumns = `id, position_id, user_id, token, side, size, price, pnl, created_at`

// Create добавляет запись в журнал сделок
func (r *TradeRepository) Create(q Querier, trade *models.Trade) error {
	query := `
		INSERT INTO trades (position_id, user_id, token, side, size, price, pnl, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now()
	}

	return q.QueryRow(
		query,
		trade.PositionID,
		trade.UserID,
		trade.Token,
		trade.Side,
		trade.Size,
		trade.Price,
		trade.Pnl,
		trade.CreatedAt,
	).Scan(&trade.ID)
}

// GetByPositionID возвращает записи журнала по позиции в порядке создания
func (r *TradeRepository) GetByPositionID(positionID int64) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE position_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(query, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetRecentByUser возвращает последние сделки пользователя
func (r *TradeRepository) GetRecentByUser(userID int64, limit int) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// Count возвращает общее количество записей журнала
func (r *TradeRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM trades`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// scanTrades читает строки результата в срез сделок
func scanTrades(rows *sql.Rows) ([]*models.Trade, error) {
	var trades []*models.Trade
	for rows.Next() {
		trade := &models.Trade{}
		err := rows.Scan(
			&trade.ID,
			&trade.PositionID,
			&trade.UserID,
			&trade.Token,
			&trade.Side,
			&trade.Size,
			&trade.Price,
			&trade.Pnl,
			&trade.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}
