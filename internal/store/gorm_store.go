package store

import (
	"context"
	"time"

	"github.com/farellandr/ticketgate/internal/models"
	"gorm.io/gorm"
)

// GormStore implements TicketStore and StaffStore on a gorm handle. The
// handle is owned by the store and released by Close.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Exists(ctx context.Context, ticketID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("ticket_id = ?", ticketID).
		Count(&count).Error
	if err != nil {
		return false, translate("exists", err)
	}
	return count > 0, nil
}

func (s *GormStore) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.get(s.db.WithContext(ctx), ticketID)
}

func (s *GormStore) get(tx *gorm.DB, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := tx.Where("ticket_id = ?", ticketID).First(&ticket).Error; err != nil {
		return nil, translate("get", err)
	}
	return &ticket, nil
}

func (s *GormStore) Insert(ctx context.Context, ticket *models.Ticket) error {
	return translate("insert", s.db.WithContext(ctx).Create(ticket).Error)
}

func (s *GormStore) UpdateFlags(ctx context.Context, ticketID string, update models.FlagUpdate) (*models.Ticket, error) {
	if update.Empty() {
		return s.Get(ctx, ticketID)
	}

	var updated *models.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := update.Columns()
		columns["updated_at"] = time.Now()

		result := tx.Model(&models.Ticket{}).
			Where("ticket_id = ?", ticketID).
			Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		ticket, err := s.get(tx, ticketID)
		if err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, translate("update flags", err)
	}
	return updated, nil
}

func (s *GormStore) CheckIn(ctx context.Context, ticketID string) (bool, *models.Ticket, error) {
	var (
		admitted bool
		current  *models.Ticket
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Ticket{}).
			Where("ticket_id = ? AND is_paid = ? AND is_used = ?", ticketID, true, false).
			Updates(map[string]interface{}{
				"is_used":    true,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		admitted = result.RowsAffected == 1

		ticket, err := s.get(tx, ticketID)
		if err != nil {
			return err
		}
		current = ticket
		return nil
	})
	if err != nil {
		return false, nil, translate("check in", err)
	}
	return admitted, current, nil
}

func (s *GormStore) List(ctx context.Context) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := s.db.WithContext(ctx).
		Order("purchase_date DESC").
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, translate("list", err)
	}
	return tickets, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return translate("ping", err)
	}
	return translate("ping", sqlDB.PingContext(ctx))
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) FindStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error; err != nil {
		return nil, translate("find staff", err)
	}
	return &staff, nil
}

func (s *GormStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	return translate("create staff", s.db.WithContext(ctx).Create(staff).Error)
}
