package repository

import (
	"context"
	"errors"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order, passengers []domain.Passenger) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Passengers(ctx context.Context, orderID string) ([]domain.Passenger, error)
	MarkPaid(ctx context.Context, id, provider, reference string) (*domain.Order, error)
	MarkCompleted(ctx context.Context, id string) (*domain.Order, error)
	AttachTicket(ctx context.Context, id, ticketURL string) (*domain.Order, error)
	StalePendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type PGOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PGOrderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, email, flight_type, from_location, to_location,
	departure_date, return_date, travelers, provider, payment_ref, amount_cents, currency,
	ticket_url, status, notes, assigned, created_at, paid_at, completed_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Email, &o.FlightType, &o.FromLocation,
		&o.ToLocation, &o.DepartureDate, &o.ReturnDate, &o.Travelers, &o.Provider, &o.PaymentRef,
		&o.AmountCents, &o.Currency, &o.TicketURL, &o.Status, &o.Notes, &o.Assigned,
		&o.CreatedAt, &o.PaidAt, &o.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the order and its passengers in one transaction.
func (r *PGOrderRepository) Create(ctx context.Context, order *domain.Order, passengers []domain.Passenger) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	order.Status = domain.OrderStatusPendingPayment
	if err := tx.QueryRow(ctx, `INSERT INTO orders (id, order_number, user_id, email, flight_type, from_location, to_location,
			departure_date, return_date, travelers, amount_cents, currency, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`,
		order.ID, order.OrderNumber, order.UserID, order.Email, order.FlightType, order.FromLocation,
		order.ToLocation, order.DepartureDate, order.ReturnDate, order.Travelers, order.AmountCents,
		order.Currency, order.Status, order.Notes).
		Scan(&order.CreatedAt); err != nil {
		return err
	}

	for i := range passengers {
		p := &passengers[i]
		p.OrderID = order.ID
		if err := tx.QueryRow(ctx, `INSERT INTO passengers (order_id, first_name, last_name, gender, date_of_birth, email, phone_code, phone, nationality)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			p.OrderID, p.FirstName, p.LastName, p.Gender, p.DateOfBirth, p.Email, p.PhoneCode, p.Phone, p.Nationality).
			Scan(&p.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

func (r *PGOrderRepository) Passengers(ctx context.Context, orderID string) ([]domain.Passenger, error) {
	rows, err := r.db.Query(ctx, `SELECT id, order_id, first_name, last_name, gender, date_of_birth, email, phone_code, phone, nationality
		FROM passengers WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passengers []domain.Passenger
	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.ID, &p.OrderID, &p.FirstName, &p.LastName, &p.Gender, &p.DateOfBirth,
			&p.Email, &p.PhoneCode, &p.Phone, &p.Nationality); err != nil {
			return nil, err
		}
		passengers = append(passengers, p)
	}
	return passengers, rows.Err()
}

// MarkPaid transitions pending_payment -> paid in a single conditional
// update; a row in any other status is left untouched and ErrNotFound is
// returned, so concurrent confirmations cannot double-apply.
func (r *PGOrderRepository) MarkPaid(ctx context.Context, id, provider, reference string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `UPDATE orders
		SET status=$1, provider=$2, payment_ref=$3, paid_at=now()
		WHERE id=$4 AND status=$5
		RETURNING `+orderColumns,
		domain.OrderStatusPaid, provider, reference, id, domain.OrderStatusPendingPayment))
}

func (r *PGOrderRepository) MarkCompleted(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `UPDATE orders
		SET status=$1, completed_at=now()
		WHERE id=$2 AND status = ANY($3)
		RETURNING `+orderColumns,
		domain.OrderStatusCompleted, id,
		[]domain.OrderStatus{domain.OrderStatusPendingPayment, domain.OrderStatusPaid}))
}

// AttachTicket sets the ticket URL and completes the order in one statement,
// keeping the "ticket_url implies completed" invariant.
func (r *PGOrderRepository) AttachTicket(ctx context.Context, id, ticketURL string) (*domain.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `UPDATE orders
		SET ticket_url=$1, status=$2, completed_at=COALESCE(completed_at, now())
		WHERE id=$3
		RETURNING `+orderColumns,
		ticketURL, domain.OrderStatusCompleted, id))
}

func (r *PGOrderRepository) StalePendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM orders
		WHERE status=$1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`,
		domain.OrderStatusPendingPayment, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByIDs removes orders by id; passengers cascade with them. Only rows
// still pending are removed, so an order paid between select and delete
// survives the sweep.
func (r *PGOrderRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = ANY($1) AND status=$2`,
		ids, domain.OrderStatusPendingPayment)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ OrderRepository = (*PGOrderRepository)(nil)
