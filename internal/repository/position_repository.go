package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"kitrader/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")

	// ErrPositionClosed - позиция уже закрыта. Условный UPDATE по
	// status = 'open' является единственным источником истины для
	// защиты от двойного закрытия.
	ErrPositionClosed = errors.New("position already closed")
)

// PositionRepository - работа с таблицей positions
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

const positionColumns = `id, user_id, token, type, size, entry_price, open_time, status, close_price, close_time, pnl`

// Create вставляет новую открытую позицию
func (r *PositionRepository) Create(q Querier, pos *models.Position) error {
	query := `
		INSERT INTO positions (user_id, token, type, size, entry_price, open_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if pos.OpenTime.IsZero() {
		pos.OpenTime = time.Now()
	}
	pos.Status = models.PositionStatusOpen

	return q.QueryRow(
		query,
		pos.UserID,
		pos.Token,
		pos.Type,
		pos.Size,
		pos.EntryPrice,
		pos.OpenTime,
		pos.Status,
	).Scan(&pos.ID)
}

// GetByID возвращает позицию по ID
func (r *PositionRepository) GetByID(id int64) (*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE id = $1`

	pos := &models.Position{}
	err := r.db.QueryRow(query, id).Scan(
		&pos.ID,
		&pos.UserID,
		&pos.Token,
		&pos.Type,
		&pos.Size,
		&pos.EntryPrice,
		&pos.OpenTime,
		&pos.Status,
		&pos.ClosePrice,
		&pos.CloseTime,
		&pos.Pnl,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return pos, nil
}

// ListByUser возвращает позиции пользователя, новые первыми.
// status = "" означает любые.
func (r *PositionRepository) ListByUser(userID int64, status string, limit, offset int) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY open_time DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(query, userID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetOpenByUser возвращает все открытые позиции пользователя
func (r *PositionRepository) GetOpenByUser(userID int64) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE user_id = $1 AND status = $2
		ORDER BY open_time DESC, id DESC`

	rows, err := r.db.Query(query, userID, models.PositionStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPositions(rows)
}

// CountOpenByUser возвращает количество открытых позиций пользователя
func (r *PositionRepository) CountOpenByUser(userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM positions WHERE user_id = $1 AND status = $2`

	var count int
	err := r.db.QueryRow(query, userID, models.PositionStatusOpen).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountOpenByUserAndType возвращает количество открытых позиций
// пользователя одного направления (long/short)
func (r *PositionRepository) CountOpenByUserAndType(userID int64, posType string) (int, error) {
	query := `SELECT COUNT(*) FROM positions WHERE user_id = $1 AND status = $2 AND type = $3`

	var count int
	err := r.db.QueryRow(query, userID, models.PositionStatusOpen, posType).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// SumOpenSizeByUser возвращает суммарный размер всех открытых позиций
func (r *PositionRepository) SumOpenSizeByUser(userID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(size), 0)
		FROM positions
		WHERE user_id = $1 AND status = $2`

	var sum decimal.Decimal
	err := r.db.QueryRow(query, userID, models.PositionStatusOpen).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}

// SumOpenSizeByUserAndToken возвращает суммарный размер открытых
// позиций пользователя по конкретному токену
func (r *PositionRepository) SumOpenSizeByUserAndToken(userID int64, token string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(size), 0)
		FROM positions
		WHERE user_id = $1 AND status = $2 AND token = $3`

	var sum decimal.Decimal
	err := r.db.QueryRow(query, userID, models.PositionStatusOpen, token).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}

// Close помечает позицию закрытой одним условным UPDATE.
//
// Условие status = 'open' гарантирует, что из двух конкурентных
// закрытий ровно одно изменит строку; второе получит ErrPositionClosed.
func (r *PositionRepository) Close(q Querier, id int64, closePrice decimal.Decimal, closeTime time.Time, pnl decimal.Decimal) error {
	query := `
		UPDATE positions
		SET status = $2, close_price = $3, close_time = $4, pnl = $5
		WHERE id = $1 AND status = $6`

	result, err := q.Exec(query, id, models.PositionStatusClosed, closePrice, closeTime, pnl, models.PositionStatusOpen)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionClosed
	}

	return nil
}

// scanPositions читает строки результата в срез позиций
func scanPositions(rows *sql.Rows) ([]*models.Position, error) {
	var positions []*models.Position
	for rows.Next() {
		pos := &models.Position{}
		err := rows.Scan(
			&pos.ID,
			&pos.UserID,
			&pos.Token,
			&pos.Type,
			&pos.Size,
			&pos.EntryPrice,
			&pos.OpenTime,
			&pos.Status,
			&pos.ClosePrice,
			&pos.CloseTime,
			&pos.Pnl,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}
