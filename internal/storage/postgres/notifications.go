package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// NotificationRepo implements storage.NotificationRepository using PostgreSQL.
type NotificationRepo struct {
	db Querier
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: db}
}

var _ storage.NotificationRepository = (*NotificationRepo)(nil)

// Create saves an in-app notification.
func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (id, recipient_type, recipient_id, template_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		n.ID, n.RecipientType, n.RecipientID, n.TemplateID, n.Payload)
	if err != nil {
		log.Printf("Error creating notification %s: %v\n", n.TemplateID, err)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns notifications addressed to a recipient, newest
// first. A nil recipientID matches role-wide notifications (operators).
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientType string, recipientID *uuid.UUID) ([]models.Notification, error) {
	query := `
		SELECT id, recipient_type, recipient_id, template_id, payload, created_at, read_at
		FROM notifications
		WHERE recipient_type = $1`
	args := []any{recipientType}
	if recipientID != nil {
		query += ` AND recipient_id = $2`
		args = append(args, *recipientID)
	} else {
		query += ` AND recipient_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying notifications for %s: %v\n", recipientType, err)
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.RecipientType, &n.RecipientID, &n.TemplateID, &n.Payload, &n.CreatedAt, &n.ReadAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
