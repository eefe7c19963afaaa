package store

import (
	"database/sql"
	"fmt"

	"github.com/merithub/merit/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.PointsTransaction, error) {
	var t model.PointsTransaction
	err := scanner.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const transactionCols = `id, user_id, type, amount, description, created_at`

func (s *LedgerStore) GetByID(id int64) (*model.PointsTransaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM points_transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *LedgerStore) ListByUser(userID int64) ([]model.PointsTransaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM points_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.PointsTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// Replay recomputes the user projection from the append-only log. It exists
// for reconciliation: the cached projection on the users row must match.
func (s *LedgerStore) Replay(userID int64) (current, earned, redeemed int64, err error) {
	rows, err := s.db.Query(
		`SELECT type, amount FROM points_transactions WHERE user_id = ? ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("replay transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var txType string
		var amount int64
		if err := rows.Scan(&txType, &amount); err != nil {
			return 0, 0, 0, fmt.Errorf("scan transaction: %w", err)
		}
		switch txType {
		case model.TxEarn:
			current += amount
			earned += amount
		case model.TxRedeem:
			current -= amount
			redeemed += amount
		case model.TxPenalty:
			current -= amount
		}
	}
	return current, earned, redeemed, rows.Err()
}
