package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/farellandr/ticketgate/internal/models"
	"github.com/farellandr/ticketgate/internal/monitoring"
	"github.com/farellandr/ticketgate/internal/store"
)

// TicketService applies the ticket lifecycle rules on top of a TicketStore.
type TicketService struct {
	store    store.TicketStore
	notifier Notifier
	qr       *QRSigner
	log      *slog.Logger
	now      func() time.Time
}

func NewTicketService(ticketStore store.TicketStore, notifier Notifier, qr *QRSigner, log *slog.Logger) *TicketService {
	return &TicketService{
		store:    ticketStore,
		notifier: notifier,
		qr:       qr,
		log:      log,
		now:      time.Now,
	}
}

type UniquenessResult struct {
	IsUnique bool `json:"isUnique"`
	Exists   bool `json:"exists"`
}

type CreateInput struct {
	models.NewTicket
	SendEmail bool
	Perks     []string
}

// NotificationOutcome reports an email attempt independently of the store
// mutation that preceded it.
type NotificationOutcome struct {
	Attempted bool   `json:"attempted"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

type CreateResult struct {
	Ticket       *models.Ticket       `json:"ticket"`
	Notification *NotificationOutcome `json:"notification,omitempty"`
}

type ValidationResult struct {
	Valid   bool               `json:"valid"`
	Ticket  *models.TicketView `json:"ticket,omitempty"`
	Message string             `json:"message"`
}

type CheckInResult struct {
	Admitted bool               `json:"admitted"`
	Ticket   *models.TicketView `json:"ticket"`
	Message  string             `json:"message"`
}

type EmailInput struct {
	Description string
	Perks       []string
	ImageURL    string
}

// IsUnique is advisory: a concurrent Create may still claim the identifier.
func (s *TicketService) IsUnique(ctx context.Context, ticketID string) (*UniquenessResult, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, fmt.Errorf("%w: ticketId is required", models.ErrInvalidInput)
	}

	exists, err := s.store.Exists(ctx, ticketID)
	if err != nil {
		return nil, s.storeFailure(ctx, "check", ticketID, err)
	}
	monitoring.TrackOperation("check", monitoring.OutcomeSuccess)
	return &UniquenessResult{IsUnique: !exists, Exists: exists}, nil
}

// Create stores a new ticket. Uniqueness is decided by the store's insert,
// never by a prior lookup. An email requested in the input is attempted only
// after the insert committed, and its failure does not fail Create.
func (s *TicketService) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	ticket, err := in.NewTicket.Build(s.now())
	if err != nil {
		monitoring.TrackOperation("create", monitoring.OutcomeRejected)
		return nil, err
	}

	if err := s.store.Insert(ctx, ticket); err != nil {
		if errors.Is(err, models.ErrConflict) {
			monitoring.TrackOperation("create", monitoring.OutcomeRejected)
			return nil, err
		}
		return nil, s.storeFailure(ctx, "create", in.TicketID, err)
	}
	monitoring.TrackOperation("create", monitoring.OutcomeSuccess)
	s.log.InfoContext(ctx, "ticket stored", "ticket_id", ticket.TicketID, "category", ticket.Category)

	result := &CreateResult{Ticket: ticket}
	if in.SendEmail {
		result.Notification = s.notify(ctx, ticket, EmailInput{Perks: in.Perks})
	}
	return result, nil
}

func (s *TicketService) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.store.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			monitoring.TrackOperation("fetch", monitoring.OutcomeRejected)
			return nil, err
		}
		return nil, s.storeFailure(ctx, "fetch", ticketID, err)
	}
	monitoring.TrackOperation("fetch", monitoring.OutcomeSuccess)
	return ticket, nil
}

// Update applies the lifecycle flags in patch and nothing else. Either flag
// may be set on its own; gated admission goes through CheckIn.
func (s *TicketService) Update(ctx context.Context, ticketID string, patch models.TicketPatch) (*models.Ticket, error) {
	return s.updateFlags(ctx, "update", ticketID, models.FlagUpdate{
		IsPaid: patch.IsPaid,
		IsUsed: patch.IsUsed,
	})
}

// ConfirmPayment records an externally confirmed payment.
func (s *TicketService) ConfirmPayment(ctx context.Context, ticketID, reference string) (*models.Ticket, error) {
	paid := true
	update := models.FlagUpdate{IsPaid: &paid}
	if reference != "" {
		update.PaymentReference = &reference
	}
	return s.updateFlags(ctx, "confirm_payment", ticketID, update)
}

func (s *TicketService) updateFlags(ctx context.Context, op, ticketID string, update models.FlagUpdate) (*models.Ticket, error) {
	ticket, err := s.store.UpdateFlags(ctx, ticketID, update)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			monitoring.TrackOperation(op, monitoring.OutcomeRejected)
			return nil, err
		}
		return nil, s.storeFailure(ctx, op, ticketID, err)
	}
	monitoring.TrackOperation(op, monitoring.OutcomeSuccess)
	s.log.InfoContext(ctx, "ticket flags updated",
		"operation", op,
		"ticket_id", ticketID,
		"is_paid", ticket.IsPaid,
		"is_used", ticket.IsUsed,
	)
	return ticket, nil
}

// Validate always yields a structured result. An unknown ticket comes back
// as invalid together with models.ErrNotFound so transports can pick a
// status code; only store failures return a nil result.
func (s *TicketService) Validate(ctx context.Context, ticketID string) (*ValidationResult, error) {
	ticket, err := s.store.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			monitoring.TrackOperation("validate", monitoring.OutcomeRejected)
			return &ValidationResult{Valid: false, Message: models.MessageNotFound}, err
		}
		return nil, s.storeFailure(ctx, "validate", ticketID, err)
	}

	outcome := monitoring.OutcomeSuccess
	if !ticket.IsValidForEntry() {
		outcome = monitoring.OutcomeRejected
	}
	monitoring.TrackOperation("validate", outcome)

	return &ValidationResult{
		Valid:   ticket.IsValidForEntry(),
		Ticket:  ticket.View(),
		Message: ticket.ValidityMessage(),
	}, nil
}

// ValidateQR verifies a signed QR payload before validating the ticket it
// names.
func (s *TicketService) ValidateQR(ctx context.Context, payload string) (*ValidationResult, error) {
	ticketID, err := s.qr.Parse(payload)
	if err != nil {
		monitoring.TrackOperation("validate_qr", monitoring.OutcomeRejected)
		return nil, err
	}
	return s.Validate(ctx, ticketID)
}

// CheckIn admits a paid, unused ticket exactly once. Scanning a used or
// unpaid ticket is reported as not admitted rather than as an error.
func (s *TicketService) CheckIn(ctx context.Context, ticketID string) (*CheckInResult, error) {
	admitted, ticket, err := s.store.CheckIn(ctx, ticketID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			monitoring.TrackOperation("check_in", monitoring.OutcomeRejected)
			return nil, err
		}
		return nil, s.storeFailure(ctx, "check_in", ticketID, err)
	}

	if !admitted {
		monitoring.TrackOperation("check_in", monitoring.OutcomeRejected)
		s.log.WarnContext(ctx, "check-in refused", "ticket_id", ticketID, "state", ticket.State())
		return &CheckInResult{Admitted: false, Ticket: ticket.View(), Message: ticket.ValidityMessage()}, nil
	}

	monitoring.TrackOperation("check_in", monitoring.OutcomeSuccess)
	s.log.InfoContext(ctx, "ticket checked in", "ticket_id", ticketID)
	return &CheckInResult{Admitted: true, Ticket: ticket.View(), Message: models.MessageCheckedIn}, nil
}

// List returns every ticket, most recent purchase first.
func (s *TicketService) List(ctx context.Context) ([]models.Ticket, error) {
	tickets, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeFailure(ctx, "list", "", err)
	}
	monitoring.TrackOperation("list", monitoring.OutcomeSuccess)
	return tickets, nil
}

// QRCode renders the signed QR image for an existing ticket.
func (s *TicketService) QRCode(ctx context.Context, ticketID string) ([]byte, error) {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.qr.PNG(ticket.TicketID)
}

// SendTicketEmail delivers the ticket to its purchaser. A delivery failure is
// returned wrapped in models.ErrNotificationFailure.
func (s *TicketService) SendTicketEmail(ctx context.Context, ticketID string, in EmailInput) (*NotificationOutcome, error) {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	outcome := s.notify(ctx, ticket, in)
	if !outcome.Sent {
		return outcome, fmt.Errorf("%w: %s", models.ErrNotificationFailure, outcome.Error)
	}
	return outcome, nil
}

func (s *TicketService) notify(ctx context.Context, ticket *models.Ticket, in EmailInput) *NotificationOutcome {
	outcome := &NotificationOutcome{Attempted: true}

	msg := TicketMessage{
		To:          ticket.Email,
		TicketID:    ticket.TicketID,
		Category:    ticket.Category,
		Description: in.Description,
		Perks:       in.Perks,
		ImageURL:    in.ImageURL,
	}
	if msg.ImageURL == "" {
		png, err := s.qr.PNG(ticket.TicketID)
		if err != nil {
			s.log.WarnContext(ctx, "qr generation failed", "ticket_id", ticket.TicketID, "error", err)
		} else {
			msg.QRCode = png
		}
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		monitoring.TrackNotification(monitoring.OutcomeError)
		s.log.WarnContext(ctx, "ticket email failed", "ticket_id", ticket.TicketID, "to", ticket.Email, "error", err)
		outcome.Error = err.Error()
		return outcome
	}

	monitoring.TrackNotification(monitoring.OutcomeSuccess)
	outcome.Sent = true
	return outcome
}

func (s *TicketService) storeFailure(ctx context.Context, op, ticketID string, err error) error {
	monitoring.TrackOperation(op, monitoring.OutcomeError)
	s.log.ErrorContext(ctx, "ticket store failure", "operation", op, "ticket_id", ticketID, "error", err)
	if !errors.Is(err, models.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
	}
	return err
}
