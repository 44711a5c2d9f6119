package models

import (
	"context"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/utils"
	"gorm.io/gorm"
)

// GrievanceSubmission correlates a locally-initiated ledger write with its
// eventual finalization event. One row per write, keyed by the transaction
// hash the ledger returns at submit time — the only value both sides agree on
// before finalization. Rows are never deleted; once confirmed they form the
// grievance's permanent audit trail.
type GrievanceSubmission struct {
	ID             int             `gorm:"primary_key" json:"id"`
	TxHash         string          `gorm:"size:80;not null;unique" json:"tx_hash"`
	Kind           SubmissionKind  `gorm:"size:20;not null" json:"kind"`
	GrievanceId    *int            `gorm:"index" json:"grievance_id"`
	ExpectedStatus GrievanceStatus `gorm:"size:30;not null" json:"expected_status"`
	State          SubmissionState `gorm:"size:12;not null;index" json:"state"`
	ActorUserId    int             `gorm:"index" json:"actor_user_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	ConfirmedAt    *time.Time      `json:"confirmed_at"`
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// RecordPendingSubmission writes the correlation row. It must run inside the
// same transaction as the optimistic projection write so the two never
// diverge.
func RecordPendingSubmission(tx *gorm.DB, txHash string, kind SubmissionKind, grievanceId *int, expectedStatus GrievanceStatus, actorUserId int) error {
	if txHash == "" {
		return errors.New("submission tx hash is required")
	}
	sub := GrievanceSubmission{
		TxHash:         txHash,
		Kind:           kind,
		GrievanceId:    grievanceId,
		ExpectedStatus: expectedStatus,
		State:          SubmissionStatePending,
		ActorUserId:    actorUserId,
	}
	if err := tx.Create(&sub).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return errors.New("submission handle already recorded")
		}
		return err
	}
	return nil
}

// ResolveSubmission looks up the correlation row for a handle. An unknown
// handle means this instance did not initiate the write (or its optimistic
// state was lost); callers skip rather than fail.
func ResolveSubmission(tx *gorm.DB, txHash string) (*GrievanceSubmission, error) {
	var sub GrievanceSubmission
	err := tx.Where("tx_hash = ?", txHash).Take(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// MarkSubmissionConfirmed flips PENDING to CONFIRMED. Idempotent: the update
// is guarded on the current state, so a duplicate delivery matches zero rows
// and is a no-op, not an error. This is the property that makes at-least-once
// event delivery safe.
func MarkSubmissionConfirmed(tx *gorm.DB, txHash string) error {
	now := time.Now().UTC()
	return tx.Model(&GrievanceSubmission{}).
		Where("tx_hash = ? AND state = ?", txHash, SubmissionStatePending).
		Updates(map[string]interface{}{
			"state":        SubmissionStateConfirmed,
			"confirmed_at": &now,
		}).Error
}

// GetSubmissionsForGrievance returns the ordered audit trail for one
// grievance row.
func GetSubmissionsForGrievance(ctx context.Context, grievanceId int) ([]*GrievanceSubmission, error) {
	db := config.GetDB()
	var subs []*GrievanceSubmission
	err := db.WithContext(ctx).
		Where("grievance_id = ?", grievanceId).
		Order("created_at ASC, id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
