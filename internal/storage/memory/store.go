// Package memory provides a mutex-guarded in-memory implementation of the
// storage interfaces. It backs the service-layer tests, where guarded writes
// and claim races must behave exactly as the SQL layer does.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"bridge-local-platform/internal/models"
)

// Store holds all tables behind a single mutex, so every repository write is
// atomic the way a single SQL statement is.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*models.User
	cities        map[uuid.UUID]*models.City
	categories    map[uuid.UUID]*models.ServiceCategory
	jobs          map[uuid.UUID]*models.Job
	jobEvents     map[uuid.UUID][]models.JobEvent
	contractors   map[uuid.UUID]*models.ContractorProfile
	quotes        map[uuid.UUID]*models.Quote
	lineItems     map[uuid.UUID][]models.LineItem
	payments      map[uuid.UUID]*models.Payment
	paymentOrder  []uuid.UUID
	payouts       map[uuid.UUID]*models.Payout
	payoutByJob   map[uuid.UUID]uuid.UUID
	notifications []models.Notification
	expansions    []models.ExpansionRequest
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:       map[uuid.UUID]*models.User{},
		cities:      map[uuid.UUID]*models.City{},
		categories:  map[uuid.UUID]*models.ServiceCategory{},
		jobs:        map[uuid.UUID]*models.Job{},
		jobEvents:   map[uuid.UUID][]models.JobEvent{},
		contractors: map[uuid.UUID]*models.ContractorProfile{},
		quotes:      map[uuid.UUID]*models.Quote{},
		lineItems:   map[uuid.UUID][]models.LineItem{},
		payments:    map[uuid.UUID]*models.Payment{},
		payouts:     map[uuid.UUID]*models.Payout{},
		payoutByJob: map[uuid.UUID]uuid.UUID{},
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Cities returns the city repository view of the store.
func (s *Store) Cities() *CityRepo { return &CityRepo{s: s} }

// ServiceCategories returns the service-category repository view of the store.
func (s *Store) ServiceCategories() *ServiceCategoryRepo { return &ServiceCategoryRepo{s: s} }

// Jobs returns the job repository view of the store.
func (s *Store) Jobs() *JobRepo { return &JobRepo{s: s} }

// JobEvents returns the job-event repository view of the store.
func (s *Store) JobEvents() *JobEventRepo { return &JobEventRepo{s: s} }

// Contractors returns the contractor repository view of the store.
func (s *Store) Contractors() *ContractorRepo { return &ContractorRepo{s: s} }

// Quotes returns the quote repository view of the store.
func (s *Store) Quotes() *QuoteRepo { return &QuoteRepo{s: s} }

// Payments returns the payment repository view of the store.
func (s *Store) Payments() *PaymentRepo { return &PaymentRepo{s: s} }

// Payouts returns the payout repository view of the store.
func (s *Store) Payouts() *PayoutRepo { return &PayoutRepo{s: s} }

// Notifications returns the notification repository view of the store.
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s: s} }

func cloneJob(j *models.Job) *models.Job {
	c := *j
	if j.PricingSuggestion != nil {
		ps := *j.PricingSuggestion
		c.PricingSuggestion = &ps
	}
	return &c
}

func cloneContractor(p *models.ContractorProfile) *models.ContractorProfile {
	c := *p
	c.Services = append([]uuid.UUID(nil), p.Services...)
	return &c
}
