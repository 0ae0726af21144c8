// Package store persists tickets and staff accounts. Identifier uniqueness is
// enforced by a unique index, so Insert is the only authoritative
// uniqueness check.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/farellandr/ticketgate/internal/models"
	"gorm.io/gorm"
)

// TicketStore is the ticket persistence contract used by the lifecycle
// service.
type TicketStore interface {
	Exists(ctx context.Context, ticketID string) (bool, error)
	Get(ctx context.Context, ticketID string) (*models.Ticket, error)
	Insert(ctx context.Context, ticket *models.Ticket) error
	UpdateFlags(ctx context.Context, ticketID string, update models.FlagUpdate) (*models.Ticket, error)
	// CheckIn marks a paid, unused ticket as used in a single conditional
	// write. It returns false with the current record when the ticket was
	// not admissible.
	CheckIn(ctx context.Context, ticketID string) (bool, *models.Ticket, error)
	List(ctx context.Context) ([]models.Ticket, error)
	Ping(ctx context.Context) error
}

// StaffStore persists operator accounts.
type StaffStore interface {
	FindStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
	CreateStaff(ctx context.Context, staff *models.Staff) error
}

// translate maps gorm and driver errors onto the model error kinds.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, models.ErrConflict)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrStoreUnavailable):
		// already classified by a nested call inside a transaction
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, models.ErrStoreUnavailable, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
