package bot

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"kitrader/internal/models"
	"kitrader/internal/repository"
)

// Ledger - транзакционное ядро книги позиций
//
// Каждая операция выполняется в одной SQL-транзакции: либо все
// изменения (кошелек, позиция, журнал) применяются вместе, либо
// не применяется ни одно.
type Ledger struct {
	db        *sql.DB
	wallets   *repository.WalletRepository
	positions *repository.PositionRepository
	trades    *repository.TradeRepository
}

// NewLedger создает транзакционное ядро
func NewLedger(
	db *sql.DB,
	wallets *repository.WalletRepository,
	positions *repository.PositionRepository,
	trades *repository.TradeRepository,
) *Ledger {
	return &Ledger{
		db:        db,
		wallets:   wallets,
		positions: positions,
		trades:    trades,
	}
}

// Open атомарно открывает позицию:
//
//	резерв средств → вставка позиции → BUY-запись журнала
//
// Любая ошибка откатывает транзакцию целиком; в частности
// repository.ErrInsufficientBalance доходит до вызывающего без
// каких-либо изменений в БД.
func (l *Ledger) Open(userID int64, token, posType string, size, entryPrice decimal.Decimal) (*models.Position, error) {
	pos := &models.Position{
		UserID:     userID,
		Token:      token,
		Type:       posType,
		Size:       size,
		EntryPrice: entryPrice,
		OpenTime:   time.Now(),
	}

	err := repository.RunInTx(l.db, func(tx *sql.Tx) error {
		if err := l.wallets.Reserve(tx, userID, size); err != nil {
			return err
		}

		if err := l.positions.Create(tx, pos); err != nil {
			return err
		}

		trade := &models.Trade{
			PositionID: pos.ID,
			UserID:     userID,
			Token:      token,
			Side:       models.TradeSideBuy,
			Size:       size,
			Price:      entryPrice,
			CreatedAt:  pos.OpenTime,
		}
		return l.trades.Create(tx, trade)
	})
	if err != nil {
		return nil, err
	}

	return pos, nil
}

// Close атомарно закрывает позицию:
//
//	условное закрытие строки → возврат резерва с PNL → SELL-запись
//
// Условный UPDATE по status = 'open' является единственной защитой от
// двойного закрытия: проигравшая гонку транзакция откатывается с
// repository.ErrPositionClosed.
func (l *Ledger) Close(pos *models.Position, closePrice decimal.Decimal, closeTime time.Time, pnl decimal.Decimal) error {
	return repository.RunInTx(l.db, func(tx *sql.Tx) error {
		if err := l.positions.Close(tx, pos.ID, closePrice, closeTime, pnl); err != nil {
			return err
		}

		if err := l.wallets.Release(tx, pos.UserID, pos.Size, pnl); err != nil {
			return err
		}

		trade := &models.Trade{
			PositionID: pos.ID,
			UserID:     pos.UserID,
			Token:      pos.Token,
			Side:       models.TradeSideSell,
			Size:       pos.Size,
			Price:      closePrice,
			Pnl:        &pnl,
			CreatedAt:  closeTime,
		}
		return l.trades.Create(tx, trade)
	})
}
