package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portpos-bridge/internal/domain"
	"portpos-bridge/internal/repository/order_repo"
)

type pgOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{db: db, logger: l}
}

func (r *pgOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (id, amount, currency, customer_name, customer_email, customer_phone, customer_address, customer_city, customer_state, customer_zip, customer_country, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.Amount, order.Currency,
		order.Customer.Name, order.Customer.Email, order.Customer.Phone,
		order.Customer.Address, order.Customer.City, order.Customer.State,
		order.Customer.Zip, order.Customer.Country,
		order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create order", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}
	r.logger.Debug("Order created successfully", zap.String("order_id", order.ID))
	return nil
}

func (r *pgOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}
	var (
		invoiceID      sql.NullString
		settlingMethod sql.NullString
		txnID          sql.NullString
		payload        []byte
	)
	query := `SELECT id, amount, currency, customer_name, customer_email, customer_phone, customer_address, customer_city, customer_state, customer_zip, customer_country, invoice_id, status, settling_method, txn_id, verified_payload, created_at, updated_at
		FROM orders WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.Amount, &order.Currency,
		&order.Customer.Name, &order.Customer.Email, &order.Customer.Phone,
		&order.Customer.Address, &order.Customer.City, &order.Customer.State,
		&order.Customer.Zip, &order.Customer.Country,
		&invoiceID, &order.Status, &settlingMethod, &txnID, &payload,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get order by ID", zap.String("order_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	order.InvoiceID = invoiceID.String
	if settlingMethod.Valid || txnID.Valid {
		order.Settlement = &domain.Settlement{
			Method:  settlingMethod.String,
			TxnID:   txnID.String,
			Payload: payload,
		}
	}
	return order, nil
}

func (r *pgOrderRepository) SetInvoiceID(ctx context.Context, orderID, invoiceID string) error {
	query := `UPDATE orders SET invoice_id = $2, updated_at = $3 WHERE id = $1 AND invoice_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, orderID, invoiceID, time.Now())
	if err != nil {
		r.logger.Error("Failed to set invoice reference", zap.String("order_id", orderID), zap.String("invoice_id", invoiceID), zap.Error(err))
		return fmt.Errorf("failed to set invoice reference for order %s: %w", orderID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check invoice reference update result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Invoice reference already set or order missing", zap.String("order_id", orderID), zap.String("invoice_id", invoiceID))
		return order_repo.ErrInvoiceAlreadySet
	}
	r.logger.Debug("Invoice reference stored", zap.String("order_id", orderID), zap.String("invoice_id", invoiceID))
	return nil
}

// MarkPaid performs the conditional terminal transition: the UPDATE only
// matches while the order is still PENDING, so concurrent confirmations
// settle the order exactly once.
func (r *pgOrderRepository) MarkPaid(ctx context.Context, orderID string, settlement domain.Settlement) (bool, error) {
	query := `UPDATE orders SET status = $2, settling_method = $3, txn_id = $4, verified_payload = $5, updated_at = $6 WHERE id = $1 AND status = $7`
	res, err := r.db.ExecContext(ctx, query,
		orderID, domain.OrderStatusPaid,
		settlement.Method, settlement.TxnID, settlement.Payload,
		time.Now(), domain.OrderStatusPending)
	if err != nil {
		r.logger.Error("Failed to mark order as paid", zap.String("order_id", orderID), zap.Error(err))
		return false, fmt.Errorf("failed to mark order %s as paid: %w", orderID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check paid update result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Debug("Order not transitioned to PAID, already finalized or missing", zap.String("order_id", orderID))
		return false, nil
	}
	r.logger.Info("Order marked as paid", zap.String("order_id", orderID), zap.String("txn_id", settlement.TxnID))
	return true, nil
}

func (r *pgOrderRepository) MarkFailed(ctx context.Context, orderID string) (bool, error) {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, orderID, domain.OrderStatusFailed, time.Now(), domain.OrderStatusPending)
	if err != nil {
		r.logger.Error("Failed to mark order as failed", zap.String("order_id", orderID), zap.Error(err))
		return false, fmt.Errorf("failed to mark order %s as failed: %w", orderID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check failed update result: %w", err)
	}
	if rowsAffected == 0 {
		r.logger.Debug("Order not transitioned to FAILED, already finalized or missing", zap.String("order_id", orderID))
		return false, nil
	}
	r.logger.Info("Order marked as failed", zap.String("order_id", orderID))
	return true, nil
}

func (r *pgOrderRepository) AddNote(ctx context.Context, orderID, body string) error {
	query := `INSERT INTO order_notes (order_id, body, created_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, orderID, body, time.Now())
	if err != nil {
		r.logger.Error("Failed to append order note", zap.String("order_id", orderID), zap.Error(err))
		return fmt.Errorf("failed to append note to order %s: %w", orderID, err)
	}
	r.logger.Debug("Order note appended", zap.String("order_id", orderID))
	return nil
}

func (r *pgOrderRepository) ListNotes(ctx context.Context, orderID string) ([]domain.Note, error) {
	query := `SELECT id, order_id, body, created_at FROM order_notes WHERE order_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to query order notes", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notes for order %s: %w", orderID, err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Body, &n.CreatedAt); err != nil {
			r.logger.Error("Failed to scan order note row", zap.String("order_id", orderID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return notes, nil
}
