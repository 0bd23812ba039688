package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// PaymentRepo implements storage.PaymentRepository in memory.
type PaymentRepo struct {
	s *Store
}

var _ storage.PaymentRepository = (*PaymentRepo)(nil)

func (r *PaymentRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *payment
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.s.payments[c.ID] = &c
	r.s.paymentOrder = append(r.s.paymentOrder, c.ID)
	out := c
	return &out, nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *PaymentRepo) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.StripeCheckoutSessionID != nil && *p.StripeCheckoutSessionID == sessionID {
			out := *p
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *PaymentRepo) GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// Insertion order stands in for created_at, which has second resolution.
	for i := len(r.s.paymentOrder) - 1; i >= 0; i-- {
		p := r.s.payments[r.s.paymentOrder[i]]
		if p != nil && p.JobID == jobID {
			out := *p
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.PaymentStatus, to models.PaymentStatus, paidAt *time.Time) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	matched := false
	for _, f := range from {
		if p.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return nil, storage.ErrConflict
	}
	p.Status = to
	if paidAt != nil {
		at := *paidAt
		p.PaidAt = &at
	}
	out := *p
	return &out, nil
}

// PayoutRepo implements storage.PayoutRepository in memory.
type PayoutRepo struct {
	s *Store
}

var _ storage.PayoutRepository = (*PayoutRepo)(nil)

func (r *PayoutRepo) CreateIfAbsent(ctx context.Context, payout *models.Payout) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.payoutByJob[payout.JobID]; exists {
		return false, nil
	}
	c := *payout
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.s.payouts[c.ID] = &c
	r.s.payoutByJob[c.JobID] = c.ID
	return true, nil
}

func (r *PayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payouts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *PayoutRepo) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.payoutByJob[jobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *r.s.payouts[id]
	return &out, nil
}

func (r *PayoutRepo) List(ctx context.Context, status *models.PayoutStatus) ([]models.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payouts := []models.Payout{}
	for _, p := range r.s.payouts {
		if status != nil && p.Status != *status {
			continue
		}
		payouts = append(payouts, *p)
	}
	sort.Slice(payouts, func(i, k int) bool { return payouts[i].CreatedAt.After(payouts[k].CreatedAt) })
	return payouts, nil
}

func (r *PayoutRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (*models.Payout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payouts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if p.Status != models.PayoutStatusPending {
		return nil, storage.ErrConflict
	}
	p.Status = models.PayoutStatusPaid
	p.PaidAt = &at
	out := *p
	return &out, nil
}

// NotificationRepo implements storage.NotificationRepository in memory.
type NotificationRepo struct {
	s *Store
}

var _ storage.NotificationRepository = (*NotificationRepo)(nil)

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *n
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.s.notifications = append(r.s.notifications, c)
	return nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientType string, recipientID *uuid.UUID) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Notification{}
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.RecipientType != recipientType {
			continue
		}
		if recipientID != nil {
			if n.RecipientID == nil || *n.RecipientID != *recipientID {
				continue
			}
		} else if n.RecipientID != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
