package service

import (
	"context"

	"passmais-agenda/internal/domain/entity"
	"passmais-agenda/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditEntry describes one availability change. Old and New are any
// JSON-encodable snapshot; either may be nil.
type AuditEntry struct {
	Action   string
	Entity   string
	EntityID string
	Old      interface{}
	New      interface{}
}

type AuditService interface {
	Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, entry AuditEntry) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

const auditSavePoint = "audit_log"

// Record writes the entry through tx so it commits or rolls back with the
// change it describes. A failed insert is undone to a savepoint, leaving tx
// usable for the caller's commit.
func (s *auditService) Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, entry AuditEntry) error {
	auditLog := &entity.AuditLog{
		UserID: &userID,
		Action: entry.Action,
		Metadata: entity.JSON{
			"entity":    entry.Entity,
			"entity_id": entry.EntityID,
			"old_value": entry.Old,
			"new_value": entry.New,
		},
	}

	tx = tx.WithContext(ctx)
	if err := tx.SavePoint(auditSavePoint).Error; err != nil {
		s.log.Warnf("Failed to set audit savepoint: %+v", err)
		return err
	}

	if err := s.auditRepo.Create(tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log %s: %+v", entry.Action, err)
		if rbErr := tx.RollbackTo(auditSavePoint).Error; rbErr != nil {
			s.log.Warnf("Failed to roll back audit savepoint: %+v", rbErr)
		}
		return err
	}

	return nil
}
