package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"kitrader/internal/models"
)

// ============================================================
// PositionRepository Tests
// ============================================================

func TestPositionRepositoryCreate(t *testing.T) {
	tests := []struct {
		name        string
		position    *models.Position
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "success",
			position: &models.Position{
				UserID:     100,
				Token:      "So11111111111111111111111111111111111111112",
				Type:       models.PositionLong,
				Size:       decimal.NewFromFloat(2.5),
				EntryPrice: decimal.NewFromFloat(0.0015),
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO positions`).
					WithArgs(
						int64(100),
						"So11111111111111111111111111111111111111112",
						models.PositionLong,
						decimal.NewFromFloat(2.5),
						decimal.NewFromFloat(0.0015),
						sqlmock.AnyArg(),
						models.PositionStatusOpen,
					).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
			},
			expectError: false,
		},
		{
			name: "database error",
			position: &models.Position{
				UserID:     100,
				Token:      "So11111111111111111111111111111111111111112",
				Type:       models.PositionShort,
				Size:       decimal.NewFromInt(1),
				EntryPrice: decimal.NewFromInt(2),
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO positions`).
					WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewPositionRepository(db)
			err = repo.Create(db, tt.position)

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if tt.position.ID != 7 {
					t.Errorf("expected ID=7, got %d", tt.position.ID)
				}
				if tt.position.Status != models.PositionStatusOpen {
					t.Errorf("expected status=open, got %s", tt.position.Status)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPositionRepositoryGetByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		id          int64
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			id:   7,
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "user_id", "token", "type", "size", "entry_price", "open_time", "status", "close_price", "close_time", "pnl"}).
					AddRow(7, 100, "So11111111111111111111111111111111111111112", "long", "2.5", "0.0015", now, "open", nil, nil, nil)
				mock.ExpectQuery(`SELECT .+ FROM positions WHERE id = \$1`).
					WithArgs(int64(7)).
					WillReturnRows(rows)
			},
			expectError: nil,
		},
		{
			name: "not found",
			id:   999,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM positions WHERE id = \$1`).
					WithArgs(int64(999)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expectError: ErrPositionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewPositionRepository(db)
			pos, err := repo.GetByID(tt.id)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if pos.ID != tt.id {
					t.Errorf("expected ID=%d, got %d", tt.id, pos.ID)
				}
				if pos.ClosePrice != nil || pos.CloseTime != nil || pos.Pnl != nil {
					t.Error("open position must have nil close fields")
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPositionRepositoryClose(t *testing.T) {
	now := time.Now()
	closePrice := decimal.NewFromFloat(0.002)
	pnl := decimal.NewFromFloat(1.25)

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE positions`).
					WithArgs(int64(7), models.PositionStatusClosed, closePrice, now, pnl, models.PositionStatusOpen).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name: "already closed",
			mockSetup: func(mock sqlmock.Sqlmock) {
				// WHERE status = 'open' не совпал - двойное закрытие
				mock.ExpectExec(`UPDATE positions`).
					WithArgs(int64(7), models.PositionStatusClosed, closePrice, now, pnl, models.PositionStatusOpen).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrPositionClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewPositionRepository(db)
			err = repo.Close(db, 7, closePrice, now, pnl)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPositionRepositoryCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM positions WHERE user_id = \$1 AND status = \$2`).
		WithArgs(int64(100), models.PositionStatusOpen).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM positions WHERE user_id = \$1 AND status = \$2 AND type = \$3`).
		WithArgs(int64(100), models.PositionStatusOpen, models.PositionShort).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewPositionRepository(db)

	total, err := repo.CountOpenByUser(100)
	if err != nil {
		t.Fatalf("CountOpenByUser: %v", err)
	}
	if total != 4 {
		t.Errorf("expected 4 open positions, got %d", total)
	}

	shorts, err := repo.CountOpenByUserAndType(100, models.PositionShort)
	if err != nil {
		t.Fatalf("CountOpenByUserAndType: %v", err)
	}
	if shorts != 2 {
		t.Errorf("expected 2 short positions, got %d", shorts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPositionRepositorySums(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(size\), 0\)`).
		WithArgs(int64(100), models.PositionStatusOpen).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("12.5"))

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(size\), 0\)`).
		WithArgs(int64(100), models.PositionStatusOpen, "TokenA").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("0"))

	repo := NewPositionRepository(db)

	total, err := repo.SumOpenSizeByUser(100)
	if err != nil {
		t.Fatalf("SumOpenSizeByUser: %v", err)
	}
	if !total.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("expected total 12.5, got %s", total)
	}

	// Нет открытых позиций по токену - COALESCE дает 0
	byToken, err := repo.SumOpenSizeByUserAndToken(100, "TokenA")
	if err != nil {
		t.Fatalf("SumOpenSizeByUserAndToken: %v", err)
	}
	if !byToken.IsZero() {
		t.Errorf("expected zero sum, got %s", byToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPositionRepositoryListByUser(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	closePrice := "0.002"
	pnl := "1.25"
	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "type", "size", "entry_price", "open_time", "status", "close_price", "close_time", "pnl"}).
		AddRow(8, 100, "TokenA", "short", "1", "2", now, "open", nil, nil, nil).
		AddRow(7, 100, "TokenB", "long", "2.5", "0.0015", now.Add(-time.Hour), "closed", closePrice, now, pnl)

	mock.ExpectQuery(`SELECT .+ FROM positions`).
		WithArgs(int64(100), "", 50, 0).
		WillReturnRows(rows)

	repo := NewPositionRepository(db)
	positions, err := repo.ListByUser(100, "", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].ID != 8 || positions[1].ID != 7 {
		t.Error("positions must be ordered newest first")
	}
	if positions[1].Pnl == nil || !positions[1].Pnl.Equal(decimal.NewFromFloat(1.25)) {
		t.Error("closed position must carry pnl")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
