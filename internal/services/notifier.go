package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// Recipient types understood by the notifier. Operator notifications are
// role-wide (nil recipient id); client and contractor notifications address a
// user id.
const (
	RecipientClient     = "client"
	RecipientContractor = "contractor"
	RecipientOperator   = "operator"
)

// Notifier persists in-app notifications and sends best-effort email. Every
// failure is logged and swallowed: a notification must never abort the
// transition that emitted it.
type Notifier struct {
	notifications storage.NotificationRepository
	users         storage.UserRepository
	mailer        Mailer
}

// NewNotifier creates a new Notifier. A nil mailer disables email.
func NewNotifier(notifications storage.NotificationRepository, users storage.UserRepository, mailer Mailer) *Notifier {
	return &Notifier{notifications: notifications, users: users, mailer: mailer}
}

// Notify records one notification. recipientID is a user id, or nil for
// role-wide operator notifications.
func (n *Notifier) Notify(ctx context.Context, recipientType string, recipientID *uuid.UUID, templateID string, payload map[string]any) {
	err := n.notifications.Create(ctx, &models.Notification{
		ID:            uuid.New(),
		RecipientType: recipientType,
		RecipientID:   recipientID,
		TemplateID:    templateID,
		Payload:       payload,
	})
	if err != nil {
		log.Printf("Notifier: failed to persist %s notification: %v", templateID, err)
	}

	if n.mailer == nil || recipientID == nil {
		return
	}
	user, err := n.users.GetByID(ctx, *recipientID)
	if err != nil {
		log.Printf("Notifier: no email recipient for %s notification: %v", templateID, err)
		return
	}
	subject := fmt.Sprintf("Bridge Local: %s", templateID)
	body := fmt.Sprintf("Hi %s,\n\nThere is an update on your job: %s.\n", user.Name, templateID)
	if err := n.mailer.Send(ctx, user.Email, subject, body); err != nil {
		log.Printf("Notifier: email delivery failed for %s: %v", templateID, err)
	}
}

// NotifyOperator records a role-wide operator notification.
func (n *Notifier) NotifyOperator(ctx context.Context, templateID string, payload map[string]any) {
	n.Notify(ctx, RecipientOperator, nil, templateID, payload)
}
