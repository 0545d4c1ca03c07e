package repository

import (
	"context"
	"time"

	"github.com/localink/localink/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListBefore returns up to limit messages created strictly before the
	// cursor, newest first. A zero cursor starts from the newest message.
	ListBefore(ctx context.Context, bookingID string, before time.Time, limit int) ([]domain.Message, error)
}

type PGMessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) MessageRepository {
	return &PGMessageRepository{db: db}
}

func (r *PGMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	err := r.db.QueryRow(ctx, `WITH ins AS (
			INSERT INTO messages (id, booking_id, sender_id, content)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, sender_id
		)
		SELECT ins.created_at, u.name, u.image_url FROM ins JOIN users u ON u.id = ins.sender_id`,
		msg.ID, msg.BookingID, msg.SenderID, msg.Content).
		Scan(&msg.CreatedAt, &msg.SenderName, &msg.SenderImage)
	return wrapErr(err, "create message")
}

func (r *PGMessageRepository) ListBefore(ctx context.Context, bookingID string, before time.Time, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `SELECT m.id, m.booking_id, m.sender_id, m.content, m.created_at, u.name, u.image_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.booking_id = $1 AND ($2::timestamptz IS NULL OR m.created_at < $2)
		ORDER BY m.created_at DESC
		LIMIT $3`, bookingID, cursor(before), limit)
	if err != nil {
		return nil, wrapErr(err, "list messages")
	}
	defer rows.Close()

	msgs := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.Content, &m.CreatedAt, &m.SenderName, &m.SenderImage); err != nil {
			return nil, wrapErr(err, "scan message")
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func cursor(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ MessageRepository = (*PGMessageRepository)(nil)
