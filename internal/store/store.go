package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"paygate/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// IsDuplicateID reports a unique-constraint violation, which callers of
// CreateOrder/CreatePayment treat as a generated-ID collision to retry.
func (s *Store) IsDuplicateID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) GetMerchantByAPIKey(ctx context.Context, apiKey string) (*models.Merchant, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, email, api_key, api_secret_hash, webhook_url,
			is_active, created_at, updated_at
		FROM merchants WHERE api_key=$1
	`, apiKey)

	var m models.Merchant
	var webhookURL sql.NullString
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.APIKey,
		&m.APISecretHash,
		&webhookURL,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if webhookURL.Valid {
		m.WebhookURL = &webhookURL.String
	}
	return &m, nil
}

func (s *Store) CreateMerchant(ctx context.Context, m *models.Merchant) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO merchants (id, name, email, api_key, api_secret_hash, webhook_url, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		m.ID,
		m.Name,
		m.Email,
		m.APIKey,
		m.APISecretHash,
		m.WebhookURL,
		m.IsActive,
	)
	return err
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO orders (
			id, merchant_id, amount, currency, receipt, notes,
			status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		order.ID,
		order.MerchantID,
		order.Amount,
		order.Currency,
		order.Receipt,
		order.Notes,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	return err
}

const orderColumns = `id, merchant_id, amount, currency, receipt, notes,
	status, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*models.Order, error) {
	var order models.Order
	var receipt sql.NullString
	err := row.Scan(
		&order.ID,
		&order.MerchantID,
		&order.Amount,
		&order.Currency,
		&receipt,
		&order.Notes,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if receipt.Valid {
		order.Receipt = &receipt.String
	}
	return &order, nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
	return scanOrder(row)
}

func (s *Store) GetOrderForMerchant(ctx context.Context, orderID string, merchantID uuid.UUID) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id=$1 AND merchant_id=$2
	`, orderID, merchantID)
	return scanOrder(row)
}

func (s *Store) ListOrders(ctx context.Context, merchantID uuid.UUID) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE merchant_id=$1
		ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *Store) MarkOrderPaid(ctx context.Context, orderID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET status='paid', updated_at=now()
		WHERE id=$1 AND status <> 'paid'
	`, orderID)
	return err
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO payments (
			id, order_id, merchant_id, amount, currency, method, status,
			vpa, card_network, card_last4, error_code, error_description,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		payment.ID,
		payment.OrderID,
		payment.MerchantID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.Status,
		payment.VPA,
		payment.CardNetwork,
		payment.CardLast4,
		payment.ErrorCode,
		payment.ErrorDescription,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	return err
}

// FinalizePayment writes the terminal status of a payment. The guard on
// status='processing' makes the processing->terminal transition one-way.
func (s *Store) FinalizePayment(ctx context.Context, payment *models.Payment) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE payments
		SET status=$2, error_code=$3, error_description=$4, updated_at=now()
		WHERE id=$1 AND status='processing'
	`,
		payment.ID,
		payment.Status,
		payment.ErrorCode,
		payment.ErrorDescription,
	)
	return err
}

const paymentColumns = `id, order_id, merchant_id, amount, currency, method,
	status, vpa, card_network, card_last4, error_code, error_description,
	created_at, updated_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	var p models.Payment
	var vpa, network, last4, errCode, errDesc sql.NullString
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.MerchantID,
		&p.Amount,
		&p.Currency,
		&p.Method,
		&p.Status,
		&vpa,
		&network,
		&last4,
		&errCode,
		&errDesc,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if vpa.Valid {
		p.VPA = &vpa.String
	}
	if network.Valid {
		p.CardNetwork = &network.String
	}
	if last4.Valid {
		p.CardLast4 = &last4.String
	}
	if errCode.Valid {
		p.ErrorCode = &errCode.String
	}
	if errDesc.Valid {
		p.ErrorDescription = &errDesc.String
	}
	return &p, nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, paymentID)
	return scanPayment(row)
}

func (s *Store) GetPaymentForMerchant(ctx context.Context, paymentID string, merchantID uuid.UUID) (*models.Payment, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE id=$1 AND merchant_id=$2
	`, paymentID, merchantID)
	return scanPayment(row)
}

func (s *Store) ListPayments(ctx context.Context, merchantID uuid.UUID) ([]*models.Payment, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE merchant_id=$1
		ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// FindProcessingBefore returns payments that have been stuck in
// processing since before the cutoff, for the reconciliation sweeper.
func (s *Store) FindProcessingBefore(ctx context.Context, before time.Time, limit int) ([]*models.Payment, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status='processing' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
