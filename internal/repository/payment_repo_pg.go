package repository

import (
	"context"
	"errors"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByReference(ctx context.Context, provider, reference string) (*domain.Payment, error)
	MarkSucceeded(ctx context.Context, provider, reference, cardBrand, cardLast4 string) (*domain.Payment, error)
	MarkFailed(ctx context.Context, provider, reference, errorMessage string) error
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, order_id, provider, reference, amount_cents, currency, status,
	card_brand, card_last4, error_message, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.Reference, &p.AmountCents, &p.Currency,
		&p.Status, &p.CardBrand, &p.CardLast4, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.QueryRow(ctx, `INSERT INTO payments (order_id, provider, reference, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		payment.OrderID, payment.Provider, payment.Reference, payment.AmountCents, payment.Currency, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PGPaymentRepository) GetByReference(ctx context.Context, provider, reference string) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider=$1 AND reference=$2`,
		provider, reference))
}

// MarkSucceeded flips a pending payment to succeeded. Replayed webhooks find
// zero pending rows and get ErrNotFound, which callers treat as already
// processed.
func (r *PGPaymentRepository) MarkSucceeded(ctx context.Context, provider, reference, cardBrand, cardLast4 string) (*domain.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `UPDATE payments
		SET status=$1, card_brand=$2, card_last4=$3, updated_at=now()
		WHERE provider=$4 AND reference=$5 AND status=$6
		RETURNING `+paymentColumns,
		domain.PaymentStatusSucceeded, cardBrand, cardLast4, provider, reference, domain.PaymentStatusPending))
}

func (r *PGPaymentRepository) MarkFailed(ctx context.Context, provider, reference, errorMessage string) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET status=$1, error_message=$2, updated_at=now()
		WHERE provider=$3 AND reference=$4 AND status=$5`,
		domain.PaymentStatusFailed, errorMessage, provider, reference, domain.PaymentStatusPending)
	return err
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
