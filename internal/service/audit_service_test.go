package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"passmais-agenda/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type execAuditRepo struct {
	created []entity.AuditLog
}

func (r *execAuditRepo) Create(db *gorm.DB, log *entity.AuditLog) error {
	if err := db.Exec("INSERT INTO audit_logs DEFAULT VALUES").Error; err != nil {
		return err
	}
	r.created = append(r.created, *log)
	return nil
}

func (r *execAuditRepo) FindByUser(db *gorm.DB, userID uuid.UUID, limit int) ([]entity.AuditLog, error) {
	return r.created, nil
}

func newAuditTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return db, mock
}

func newAuditTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestAuditService_RecordInsideTransaction(t *testing.T) {
	db, mock := newAuditTestDB(t)
	repo := &execAuditRepo{}
	svc := NewAuditService(newAuditTestLogger(), repo)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT audit_log").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO audit_logs DEFAULT VALUES").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx := db.Begin()
	err := svc.Record(context.Background(), tx, userID, AuditEntry{
		Action:   entity.AuditActionSpecificDaySave,
		Entity:   "specific_day",
		EntityID: "2026-10-21",
		New:      []string{"09:00-10:00"},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	require.Len(t, repo.created, 1)
	assert.Equal(t, &userID, repo.created[0].UserID)
	assert.Equal(t, "2026-10-21", repo.created[0].Metadata["entity_id"])
	assert.Nil(t, repo.created[0].Metadata["old_value"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_FailedInsertKeepsTransactionUsable(t *testing.T) {
	db, mock := newAuditTestDB(t)
	repo := &execAuditRepo{}
	svc := NewAuditService(newAuditTestLogger(), repo)
	insertErr := errors.New("relation \"audit_logs\" does not exist")

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT audit_log").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO audit_logs DEFAULT VALUES").WillReturnError(insertErr)
	mock.ExpectExec("ROLLBACK TO SAVEPOINT audit_log").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx := db.Begin()
	err := svc.Record(context.Background(), tx, uuid.New(), AuditEntry{
		Action:   entity.AuditActionRecurringToggle,
		Entity:   "recurring_day",
		EntityID: "sunday",
	})
	assert.ErrorIs(t, err, insertErr)
	assert.Empty(t, repo.created)

	// The savepoint rollback clears the failed insert, so the change the
	// entry described still commits.
	require.NoError(t, tx.Commit().Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
