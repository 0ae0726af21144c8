package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/farellandr/ticketgate/config"
	"github.com/farellandr/ticketgate/internal/models"
	"github.com/farellandr/ticketgate/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

const testQRSecret = "qr-test-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenDatabase(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := store.NewGormStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, msg TicketMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockTicketStore struct {
	mock.Mock
}

func (m *mockTicketStore) Exists(ctx context.Context, ticketID string) (bool, error) {
	args := m.Called(ctx, ticketID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTicketStore) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	ticket, _ := args.Get(0).(*models.Ticket)
	return ticket, args.Error(1)
}

func (m *mockTicketStore) Insert(ctx context.Context, ticket *models.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *mockTicketStore) UpdateFlags(ctx context.Context, ticketID string, update models.FlagUpdate) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID, update)
	ticket, _ := args.Get(0).(*models.Ticket)
	return ticket, args.Error(1)
}

func (m *mockTicketStore) CheckIn(ctx context.Context, ticketID string) (bool, *models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	ticket, _ := args.Get(1).(*models.Ticket)
	return args.Bool(0), ticket, args.Error(2)
}

func (m *mockTicketStore) List(ctx context.Context) ([]models.Ticket, error) {
	args := m.Called(ctx)
	tickets, _ := args.Get(0).([]models.Ticket)
	return tickets, args.Error(1)
}

func (m *mockTicketStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
