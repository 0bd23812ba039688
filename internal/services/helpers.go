package services

import (
	"errors"
	"fmt"
	"log"

	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/storage"
)

// allowedTransitions is the authoritative lifecycle table. Terminal statuses
// (completed, both cancelled statuses, no_contractor_found) have no entry and
// therefore no outgoing transitions.
var allowedTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusNew: {
		models.JobStatusOfferingContractors,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
		models.JobStatusNoContractorFound,
	},
	models.JobStatusOfferingContractors: {
		models.JobStatusAwaitingQuote,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
		models.JobStatusNoContractorFound,
	},
	models.JobStatusAwaitingQuote: {
		models.JobStatusQuoteSent,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusQuoteSent: {
		models.JobStatusAwaitingPayment,
		models.JobStatusConfirmed,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusAwaitingPayment: {
		models.JobStatusConfirmed,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusConfirmed: {
		models.JobStatusInProgress,
		models.JobStatusCompleted,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
	models.JobStatusInProgress: {
		models.JobStatusCompleted,
		models.JobStatusCancelledByClient,
		models.JobStatusCancelledInternal,
	},
}

// IsValidJobTransition reports whether the lifecycle table permits from → to.
func IsValidJobTransition(from, to models.JobStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether the status has no outgoing transitions.
func IsTerminalStatus(s models.JobStatus) bool {
	return len(allowedTransitions[s]) == 0
}

// MapRepoError maps storage errors to service errors
func MapRepoError(err error, operation string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, operation)
	}
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("%w: %s (%v)", ErrConflict, operation, err)
	}
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return fmt.Errorf("%w: %s (duplicate email)", ErrConflict, operation)
	}
	log.Printf("Unexpected repository error during %s: %v", operation, err)
	return fmt.Errorf("internal error during %s: %w", operation, err)
}
