package repository

import (
	"database/sql"
	"errors"
	"time"

	"kitrader/internal/models"
)

// Ошибки репозитория цен
var (
	ErrTokenNotFound = errors.New("token not found")
)

// PriceRepository - работа с таблицами solana_tokens и price_samples
//
// price_samples пишется фоновым опросчиком и читается историей позиций
// и риск-валидатором (окно волатильности).
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository создает новый экземпляр репозитория
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// UpsertToken добавляет токен или включает отслеживание существующего
func (r *PriceRepository) UpsertToken(token *models.Token) error {
	query := `
		INSERT INTO solana_tokens (address, symbol, name, added_at, added_by, tracked)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO UPDATE
		SET symbol = EXCLUDED.symbol, name = EXCLUDED.name, tracked = EXCLUDED.tracked`

	if token.AddedAt.IsZero() {
		token.AddedAt = time.Now()
	}

	_, err := r.db.Exec(query, token.Address, token.Symbol, token.Name, token.AddedAt, token.AddedBy, token.Tracked)
	return err
}

// GetToken возвращает токен по адресу
func (r *PriceRepository) GetToken(address string) (*models.Token, error) {
	query := `
		SELECT address, symbol, name, added_at, added_by, tracked
		FROM solana_tokens
		WHERE address = $1`

	token := &models.Token{}
	err := r.db.QueryRow(query, address).Scan(
		&token.Address,
		&token.Symbol,
		&token.Name,
		&token.AddedAt,
		&token.AddedBy,
		&token.Tracked,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return token, nil
}

// GetTrackedTokens возвращает адреса токенов под фоновым опросом
func (r *PriceRepository) GetTrackedTokens() ([]string, error) {
	query := `SELECT address FROM solana_tokens WHERE tracked = true ORDER BY address`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return addresses, nil
}

// InsertSample сохраняет сэмпл цены
func (r *PriceRepository) InsertSample(sample *models.PriceSample) error {
	query := `
		INSERT INTO price_samples (token, price_sol, time)
		VALUES ($1, $2, $3)
		RETURNING id`

	if sample.Time.IsZero() {
		sample.Time = time.Now()
	}

	return r.db.QueryRow(query, sample.Token, sample.PriceSol, sample.Time).Scan(&sample.ID)
}

// GetRecentSamples возвращает последние limit сэмплов токена,
// новые первыми
func (r *PriceRepository) GetRecentSamples(token string, limit int) ([]*models.PriceSample, error) {
	query := `
		SELECT id, token, price_sol, time
		FROM price_samples
		WHERE token = $1
		ORDER BY time DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(query, token, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// GetSamplesInRange возвращает сэмплы токена за период [from, to]
// в хронологическом порядке
func (r *PriceRepository) GetSamplesInRange(token string, from, to time.Time) ([]*models.PriceSample, error) {
	query := `
		SELECT id, token, price_sol, time
		FROM price_samples
		WHERE token = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC, id ASC`

	rows, err := r.db.Query(query, token, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// DeleteSamplesOlderThan удаляет сэмплы старше отметки (ретеншен)
func (r *PriceRepository) DeleteSamplesOlderThan(timestamp time.Time) (int64, error) {
	query := `DELETE FROM price_samples WHERE time < $1`

	result, err := r.db.Exec(query, timestamp)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// scanSamples читает строки результата в срез сэмплов
func scanSamples(rows *sql.Rows) ([]*models.PriceSample, error) {
	var samples []*models.PriceSample
	for rows.Next() {
		sample := &models.PriceSample{}
		if err := rows.Scan(&sample.ID, &sample.Token, &sample.PriceSol, &sample.Time); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}
