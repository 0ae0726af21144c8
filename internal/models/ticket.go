package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	MessageValid     = "Valid ticket"
	MessageNotFound  = "Ticket not found"
	MessageUsed      = "Ticket has already been used"
	MessagePending   = "Ticket payment is pending"
	MessageCheckedIn = "Ticket checked in"

	DefaultQuantity = 1
	// AmountScale matches the numeric(12,2) amount column.
	AmountScale = 2
)

// Ticket is one purchased admission unit. TicketID is supplied by the caller
// and is unique across the store.
type Ticket struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TicketID         string          `gorm:"uniqueIndex;not null" json:"ticketId"`
	Email            string          `gorm:"not null" json:"email"`
	Category         string          `gorm:"not null" json:"category"`
	Quantity         int             `gorm:"not null;default:1" json:"quantity"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	IsPaid           bool            `gorm:"not null" json:"isPaid"`
	IsUsed           bool            `gorm:"not null" json:"isUsed"`
	PaymentReference *string         `json:"paymentReference,omitempty"`
	PurchaseDate     time.Time       `gorm:"not null;index" json:"purchaseDate"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}

// TicketState is derived from the two flags; it is never stored.
type TicketState string

const (
	StateUnpaidUnused TicketState = "unpaid-unused"
	StatePaidUnused   TicketState = "paid-unused"
	StateUnpaidUsed   TicketState = "unpaid-used"
	StatePaidUsed     TicketState = "paid-used"
)

func (ticket *Ticket) State() TicketState {
	switch {
	case ticket.IsPaid && ticket.IsUsed:
		return StatePaidUsed
	case ticket.IsPaid:
		return StatePaidUnused
	case ticket.IsUsed:
		return StateUnpaidUsed
	default:
		return StateUnpaidUnused
	}
}

// IsValidForEntry reports whether the ticket is paid and not yet used.
func (ticket *Ticket) IsValidForEntry() bool {
	return ticket.IsPaid && !ticket.IsUsed
}

// ValidityMessage picks the reason shown at the gate. Used takes priority
// over unpaid.
func (ticket *Ticket) ValidityMessage() string {
	switch {
	case ticket.IsValidForEntry():
		return MessageValid
	case ticket.IsUsed:
		return MessageUsed
	default:
		return MessagePending
	}
}

// TicketView is the redacted projection returned by validation and check-in.
type TicketView struct {
	TicketID     string    `json:"ticketId"`
	Email        string    `json:"email"`
	Category     string    `json:"category"`
	IsPaid       bool      `json:"isPaid"`
	IsUsed       bool      `json:"isUsed"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

func (ticket *Ticket) View() *TicketView {
	return &TicketView{
		TicketID:     ticket.TicketID,
		Email:        ticket.Email,
		Category:     ticket.Category,
		IsPaid:       ticket.IsPaid,
		IsUsed:       ticket.IsUsed,
		PurchaseDate: ticket.PurchaseDate,
	}
}

// NewTicket carries the fields accepted at creation. Pointer fields are
// optional and take their defaults when nil.
type NewTicket struct {
	TicketID         string
	Email            string
	Category         string
	Quantity         *int
	Amount           *decimal.Decimal
	IsPaid           *bool
	PaymentReference *string
	PurchaseDate     *time.Time
}

// TicketPatch is the caller-facing partial update. Only the two lifecycle
// flags can be expressed.
type TicketPatch struct {
	IsPaid *bool `json:"isPaid"`
	IsUsed *bool `json:"isUsed"`
}

func (p TicketPatch) Empty() bool {
	return p.IsPaid == nil && p.IsUsed == nil
}

// FlagUpdate is the store-level partial update: the lifecycle flags plus the
// payment fields that may change after creation.
type FlagUpdate struct {
	IsPaid           *bool
	IsUsed           *bool
	PaymentReference *string
}

func (u FlagUpdate) Empty() bool {
	return u.IsPaid == nil && u.IsUsed == nil && u.PaymentReference == nil
}

func (u FlagUpdate) Columns() map[string]interface{} {
	columns := make(map[string]interface{}, 3)
	if u.IsPaid != nil {
		columns["is_paid"] = *u.IsPaid
	}
	if u.IsUsed != nil {
		columns["is_used"] = *u.IsUsed
	}
	if u.PaymentReference != nil {
		columns["payment_reference"] = *u.PaymentReference
	}
	return columns
}

func (u FlagUpdate) Apply(ticket *Ticket) {
	if u.IsPaid != nil {
		ticket.IsPaid = *u.IsPaid
	}
	if u.IsUsed != nil {
		ticket.IsUsed = *u.IsUsed
	}
	if u.PaymentReference != nil {
		ref := *u.PaymentReference
		ticket.PaymentReference = &ref
	}
}

// Validate checks the mandatory fields and the numeric bounds.
func (n *NewTicket) Validate() error {
	if strings.TrimSpace(n.TicketID) == "" {
		return fmt.Errorf("%w: ticketId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(n.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(n.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if n.Quantity != nil && *n.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	if n.Amount != nil && n.Amount.IsNegative() {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidInput)
	}
	if n.Amount != nil && !n.Amount.Equal(n.Amount.Round(AmountScale)) {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidInput, AmountScale)
	}
	return nil
}

// Build applies the creation defaults. A zero quantity counts as unspecified.
// The ticket always starts unused.
func (n *NewTicket) Build(now time.Time) (*Ticket, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	ticket := &Ticket{
		TicketID:     n.TicketID,
		Email:        strings.TrimSpace(n.Email),
		Category:     strings.TrimSpace(n.Category),
		Quantity:     DefaultQuantity,
		Amount:       decimal.Zero,
		PurchaseDate: now.UTC(),
	}
	if n.Quantity != nil && *n.Quantity > 0 {
		ticket.Quantity = *n.Quantity
	}
	if n.Amount != nil {
		ticket.Amount = n.Amount.Round(AmountScale)
	}
	if n.IsPaid != nil {
		ticket.IsPaid = *n.IsPaid
	}
	if n.PaymentReference != nil && *n.PaymentReference != "" {
		ref := *n.PaymentReference
		ticket.PaymentReference = &ref
	}
	if n.PurchaseDate != nil && !n.PurchaseDate.IsZero() {
		ticket.PurchaseDate = n.PurchaseDate.UTC()
	}
	return ticket, nil
}
