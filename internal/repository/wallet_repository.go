package repository

import (
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"kitrader/internal/models"
)

// Ошибки репозитория кошельков
var (
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientBalance - на балансе не хватает свободных средств
	// для резервирования. Кошелек при этом не изменен.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrReleaseConflict - освобождение нарушило бы инварианты кошелька:
	// зарезервировано меньше, чем освобождается, либо итоговый капитал
	// ушел бы в минус.
	ErrReleaseConflict = errors.New("release would violate wallet invariants")
)

// WalletRepository - работа с таблицей wallets
//
// Все изменения балансов выполняются одиночными условными UPDATE,
// чтобы конкурентные операции не могли увести кошелек в минус.
type WalletRepository struct {
	db *sql.DB
}

// NewWalletRepository создает новый экземпляр репозитория
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetOrCreate возвращает кошелек пользователя, создавая его при первом
// обращении со стартовым балансом defaultBalance и locked = 0.
// Повторные вызовы идемпотентны.
func (r *WalletRepository) GetOrCreate(userID int64, defaultBalance decimal.Decimal) (*models.Wallet, error) {
	insert := `
		INSERT INTO wallets (user_id, balance, locked, created_at, updated_at)
		VALUES ($1, $2, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.Exec(insert, userID, defaultBalance); err != nil {
		return nil, err
	}

	return r.Get(r.db, userID)
}

// Get возвращает кошелек пользователя
func (r *WalletRepository) Get(q Querier, userID int64) (*models.Wallet, error) {
	query := `
		SELECT user_id, balance, locked, created_at, updated_at
		FROM wallets
		WHERE user_id = $1`

	wallet := &models.Wallet{}
	err := q.QueryRow(query, userID).Scan(
		&wallet.UserID,
		&wallet.Balance,
		&wallet.Locked,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	return wallet, nil
}

// Reserve переносит amount из balance в locked одним условным UPDATE.
//
// Условие balance >= amount гарантирует, что при нехватке средств
// запрос не изменит ни одной строки - тогда возвращается
// ErrInsufficientBalance.
func (r *WalletRepository) Reserve(q Querier, userID int64, amount decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = balance - $2, locked = locked + $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2`

	result, err := q.Exec(query, userID, amount)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrInsufficientBalance
	}

	return nil
}

// Release возвращает locked-долю обратно в balance и применяет pnl:
//
//	locked -= lockedAmount
//	balance += lockedAmount + pnl
//
// Guard-условия не дают освободить больше, чем зарезервировано, и не
// дают итоговому капиталу стать отрицательным при убытке больше ставки.
func (r *WalletRepository) Release(q Querier, userID int64, lockedAmount, pnl decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET locked = locked - $2, balance = balance + $2 + $3, updated_at = NOW()
		WHERE user_id = $1 AND locked >= $2 AND balance + $2 + $3 >= 0`

	result, err := q.Exec(query, userID, lockedAmount, pnl)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrReleaseConflict
	}

	return nil
}
