package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ueslim/cloudgames-payments/internal/domain"
)

var ErrPaymentNotFound = errors.New("payment not found")

const transactionColumns = `id, payment_id, status, total_value, authorization_code, card_brand, transaction_cost, nsu, tid, transaction_date`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL UNIQUE,
			payment_type INT NOT NULL,
			value NUMERIC(12,2) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			payment_id UUID NOT NULL REFERENCES payments(id),
			status INT NOT NULL,
			total_value NUMERIC(12,2) NOT NULL,
			authorization_code VARCHAR(50),
			card_brand VARCHAR(50),
			transaction_cost NUMERIC(12,2),
			nsu VARCHAR(50),
			tid VARCHAR(50),
			transaction_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_payment_id ON transactions(payment_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// AddPayment inserts the payment and its transactions atomically. The
// transient credit card input is never written.
func (r *PaymentRepository) AddPayment(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("AddPayment: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, payment_type, value)
		VALUES ($1, $2, $3, $4)
	`, payment.ID, payment.OrderID, payment.PaymentType, payment.Value)
	if err != nil {
		return fmt.Errorf("AddPayment: %w", err)
	}

	for _, t := range payment.Transactions {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return fmt.Errorf("AddPayment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("AddPayment: commit: %w", err)
	}
	return nil
}

func (r *PaymentRepository) AddTransaction(ctx context.Context, t domain.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("AddTransaction: begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, t); err != nil {
		return fmt.Errorf("AddTransaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("AddTransaction: commit: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, payment_type, value FROM payments WHERE order_id = $1
	`, orderID).Scan(&p.ID, &p.OrderID, &p.PaymentType, &p.Value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetPaymentByOrderID: %w", ErrPaymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetPaymentByOrderID: %w", err)
	}

	txs, err := r.GetTransactionsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("GetPaymentByOrderID: %w", err)
	}
	p.Transactions = txs
	return &p, nil
}

func (r *PaymentRepository) GetTransactionsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.payment_id, t.status, t.total_value, t.authorization_code,
		       t.card_brand, t.transaction_cost, t.nsu, t.tid, t.transaction_date
		FROM transactions t
		JOIN payments p ON p.id = t.payment_id
		WHERE p.order_id = $1
		ORDER BY t.transaction_date
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionsByOrderID: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var authCode, brand, nsu, tid sql.NullString
		var cost sql.NullFloat64
		err := rows.Scan(&t.ID, &t.PaymentID, &t.Status, &t.TotalValue,
			&authCode, &brand, &cost, &nsu, &tid, &t.TransactionDate)
		if err != nil {
			return nil, fmt.Errorf("GetTransactionsByOrderID: scan: %w", err)
		}
		t.AuthorizationCode = authCode.String
		t.CardBrand = brand.String
		t.TransactionCost = cost.Float64
		t.NSU = nsu.String
		t.TID = tid.String
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetTransactionsByOrderID: rows: %w", err)
	}
	return txs, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t domain.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.PaymentID, t.Status, t.TotalValue, t.AuthorizationCode,
		t.CardBrand, t.TransactionCost, t.NSU, t.TID, t.TransactionDate)
	return err
}
