package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/farellandr/ticketgate/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*TicketService, *mockNotifier) {
	t.Helper()
	notifier := &mockNotifier{}
	svc := NewTicketService(newTestStore(t), notifier, NewQRSigner(testQRSecret), discardLogger())
	return svc, notifier
}

func createInput(id string) CreateInput {
	return CreateInput{NewTicket: models.NewTicket{TicketID: id, Email: "fan@example.com", Category: "VIP"}}
}

func boolPtr(b bool) *bool { return &b }

func TestTicketService_IsUnique(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.IsUnique(ctx, "TKT-1")
	require.NoError(t, err)
	assert.True(t, result.IsUnique)
	assert.False(t, result.Exists)

	again, err := svc.IsUnique(ctx, "TKT-1")
	require.NoError(t, err)
	assert.Equal(t, result, again)

	_, err = svc.Create(ctx, createInput("TKT-1"))
	require.NoError(t, err)

	result, err = svc.IsUnique(ctx, "TKT-1")
	require.NoError(t, err)
	assert.False(t, result.IsUnique)
	assert.True(t, result.Exists)

	_, err = svc.IsUnique(ctx, "  ")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestTicketService_CreateDefaults(t *testing.T) {
	svc, notifier := newTestService(t)
	fixed := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	result, err := svc.Create(context.Background(), createInput("TKT-DEF"))
	require.NoError(t, err)
	assert.Nil(t, result.Notification)

	got, err := svc.Get(context.Background(), "TKT-DEF")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.True(t, got.Amount.Equal(decimal.Zero))
	assert.False(t, got.IsPaid)
	assert.False(t, got.IsUsed)
	assert.True(t, got.PurchaseDate.Equal(fixed))

	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestTicketService_CreateIgnoresSuppliedUsedState(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Create(context.Background(), createInput("TKT-NEW"))
	require.NoError(t, err)
	assert.False(t, result.Ticket.IsUsed)
}

func TestTicketService_CreateInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{NewTicket: models.NewTicket{TicketID: "T", Category: "VIP"}})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	exists, err := svc.IsUnique(context.Background(), "T")
	require.NoError(t, err)
	assert.True(t, exists.IsUnique)
}

func TestTicketService_CreateDuplicateConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("TKT-DUP"))
	require.NoError(t, err)

	second := createInput("TKT-DUP")
	second.Email = "other@example.com"
	_, err = svc.Create(ctx, second)
	assert.True(t, errors.Is(err, models.ErrConflict))

	got, err := svc.Get(ctx, "TKT-DUP")
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", got.Email)
}

func TestTicketService_ConcurrentCreateSameID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Create(ctx, createInput("RACE"))
		}(i)
	}
	close(start)
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestTicketService_UpdateFlags(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, createInput("TKT-UPD"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "TKT-UPD", models.TicketPatch{IsPaid: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
	assert.False(t, updated.IsUsed)
	assert.Equal(t, "fan@example.com", updated.Email)

	updated, err = svc.Update(ctx, "TKT-UPD", models.TicketPatch{IsUsed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
	assert.True(t, updated.IsUsed)

	_, err = svc.Update(ctx, "missing", models.TicketPatch{IsPaid: boolPtr(true)})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestTicketService_ConfirmPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, createInput("TKT-PAY"))
	require.NoError(t, err)

	ticket, err := svc.ConfirmPayment(ctx, "TKT-PAY", "INV-77")
	require.NoError(t, err)
	assert.True(t, ticket.IsPaid)
	require.NotNil(t, ticket.PaymentReference)
	assert.Equal(t, "INV-77", *ticket.PaymentReference)
}

func TestTicketService_Validate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		id      string
		patch   models.TicketPatch
		valid   bool
		message string
	}{
		{"UNPAID", models.TicketPatch{}, false, models.MessagePending},
		{"PAID", models.TicketPatch{IsPaid: boolPtr(true)}, true, models.MessageValid},
		{"USED", models.TicketPatch{IsPaid: boolPtr(true), IsUsed: boolPtr(true)}, false, models.MessageUsed},
		{"UNPAID-USED", models.TicketPatch{IsUsed: boolPtr(true)}, false, models.MessageUsed},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := svc.Create(ctx, createInput(tt.id))
			require.NoError(t, err)
			if !tt.patch.Empty() {
				_, err = svc.Update(ctx, tt.id, tt.patch)
				require.NoError(t, err)
			}

			result, err := svc.Validate(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, tt.message, result.Message)
			require.NotNil(t, result.Ticket)
			assert.Equal(t, tt.id, result.Ticket.TicketID)
		})
	}
}

func TestTicketService_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "ghost")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.Update(ctx, "ghost", models.TicketPatch{IsUsed: boolPtr(true)})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	result, err := svc.Validate(ctx, "ghost")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	require.NotNil(t, result)
	assert.False(t, result.Valid)
	assert.Equal(t, models.MessageNotFound, result.Message)
	assert.Nil(t, result.Ticket)

	_, err = svc.CheckIn(ctx, "ghost")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestTicketService_ListNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tickets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	a := createInput("A")
	a.PurchaseDate = &older
	b := createInput("B")
	b.PurchaseDate = &newer
	_, err = svc.Create(ctx, a)
	require.NoError(t, err)
	_, err = svc.Create(ctx, b)
	require.NoError(t, err)

	tickets, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "B", tickets[0].TicketID)
	assert.Equal(t, "A", tickets[1].TicketID)
}

func TestTicketService_CheckIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("GATE"))
	require.NoError(t, err)

	result, err := svc.CheckIn(ctx, "GATE")
	require.NoError(t, err)
	assert.False(t, result.Admitted)
	assert.Equal(t, models.MessagePending, result.Message)

	_, err = svc.ConfirmPayment(ctx, "GATE", "")
	require.NoError(t, err)

	result, err = svc.CheckIn(ctx, "GATE")
	require.NoError(t, err)
	assert.True(t, result.Admitted)
	assert.Equal(t, models.MessageCheckedIn, result.Message)
	assert.True(t, result.Ticket.IsUsed)

	result, err = svc.CheckIn(ctx, "GATE")
	require.NoError(t, err)
	assert.False(t, result.Admitted)
	assert.Equal(t, models.MessageUsed, result.Message)
}

func TestTicketService_ValidateQR(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("QR-1"))
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, "QR-1", "")
	require.NoError(t, err)

	result, err := svc.ValidateQR(ctx, NewQRSigner(testQRSecret).Payload("QR-1"))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = svc.ValidateQR(ctx, NewQRSigner("other-secret").Payload("QR-1"))
	assert.True(t, errors.Is(err, models.ErrInvalidSignature))
}

func TestTicketService_CreateNotificationFailureKeepsTicket(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	notifier.On("Send", mock.Anything, mock.MatchedBy(func(msg TicketMessage) bool {
		return msg.To == "fan@example.com" && msg.TicketID == "TKT-MAIL" && len(msg.QRCode) > 0
	})).Return(errors.New("smtp: connection refused")).Once()

	in := createInput("TKT-MAIL")
	in.SendEmail = true
	result, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, result.Notification)
	assert.True(t, result.Notification.Attempted)
	assert.False(t, result.Notification.Sent)
	assert.Contains(t, result.Notification.Error, "connection refused")

	_, err = svc.Get(ctx, "TKT-MAIL")
	assert.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestTicketService_SendTicketEmail(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, createInput("TKT-EMAIL"))
	require.NoError(t, err)

	notifier.On("Send", mock.Anything, mock.MatchedBy(func(msg TicketMessage) bool {
		return msg.ImageURL == "https://cdn.example.com/qr.png" && msg.QRCode == nil && len(msg.Perks) == 1
	})).Return(nil).Once()

	outcome, err := svc.SendTicketEmail(ctx, "TKT-EMAIL", EmailInput{
		Perks:    []string{"Free drink"},
		ImageURL: "https://cdn.example.com/qr.png",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Sent)

	notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("mailbox full")).Once()
	outcome, err = svc.SendTicketEmail(ctx, "TKT-EMAIL", EmailInput{})
	assert.True(t, errors.Is(err, models.ErrNotificationFailure))
	require.NotNil(t, outcome)
	assert.False(t, outcome.Sent)

	_, err = svc.SendTicketEmail(ctx, "ghost", EmailInput{})
	assert.True(t, errors.Is(err, models.ErrNotFound))
	notifier.AssertExpectations(t)
}

func TestTicketService_StoreUnavailable(t *testing.T) {
	ticketStore := &mockTicketStore{}
	svc := NewTicketService(ticketStore, &mockNotifier{}, NewQRSigner(testQRSecret), discardLogger())
	ctx := context.Background()
	outage := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

	ticketStore.On("Exists", mock.Anything, "T1").Return(false, outage)
	ticketStore.On("Insert", mock.Anything, mock.AnythingOfType("*models.Ticket")).Return(outage)
	ticketStore.On("Get", mock.Anything, "T1").Return(nil, outage)
	ticketStore.On("UpdateFlags", mock.Anything, "T1", mock.Anything).Return(nil, outage)
	ticketStore.On("List", mock.Anything).Return(nil, outage)

	_, err := svc.IsUnique(ctx, "T1")
	assert.True(t, errors.Is(err, models.ErrStoreUnavailable))

	_, err = svc.Create(ctx, createInput("T1"))
	assert.True(t, errors.Is(err, models.ErrStoreUnavailable))

	_, err = svc.Get(ctx, "T1")
	assert.True(t, errors.Is(err, models.ErrStoreUnavailable))

	_, err = svc.Update(ctx, "T1", models.TicketPatch{IsPaid: boolPtr(true)})
	assert.True(t, errors.Is(err, models.ErrStoreUnavailable))

	result, err := svc.Validate(ctx, "T1")
	assert.True(t, errors.Is(err, models.ErrStoreUnavailable))
	assert.Nil(t, result)

	_, err = svc.List(ctx)
	assert.True(t, errors.Is(err, models.ErrStoreUnavailable))

	ticketStore.AssertExpectations(t)
}
