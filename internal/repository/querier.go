package repository

import (
	"database/sql"
	"fmt"
)

// Querier - общий интерфейс над *sql.DB и *sql.Tx.
//
// Методы репозиториев, которые должны уметь работать внутри
// транзакции, принимают Querier первым аргументом. Вне транзакции
// передается само соединение.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Проверка, что оба типа удовлетворяют интерфейсу
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// RunInTx выполняет fn внутри транзакции.
//
// При ошибке fn транзакция откатывается целиком, ошибка отката
// прикладывается к исходной. Commit-ошибка возвращается как есть.
func RunInTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
