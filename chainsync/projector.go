package chainsync

import (
	"context"
	"errors"

	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/models"
	"github.com/grievancechain/grievance_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProcessRecordCreated applies one finalized creation event to the projection.
// All sub-steps (ledger id write, confirmation) run in one local transaction;
// an error rolls everything back and the event is redelivered. Unknown and
// already-confirmed handles produce zero mutations.
func ProcessRecordCreated(ctx context.Context, logger *logrus.Logger, ev RecordCreatedEvent) error {
	if ev.TxHash == "" {
		// Cannot correlate without a handle; drop rather than loop forever.
		logger.WithFields(logrus.Fields{
			"module":    "chainsync",
			"ledger_id": ev.LedgerId,
		}).Warn("record created event without tx hash; dropping")
		return nil
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := models.ResolveSubmission(tx, ev.TxHash)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				// A write this instance did not initiate, or an orphaned
				// optimistic write whose local transaction failed. Skip;
				// failing here would stall the whole feed.
				logProjectionInconsistency(logger, "ProcessRecordCreated", ev.TxHash, ev.LedgerId)
				return nil
			}
			return err
		}
		if sub.State == models.SubmissionStateConfirmed {
			// Duplicate delivery.
			return nil
		}
		if sub.Kind != models.SubmissionKindCreate || sub.GrievanceId == nil {
			logProjectionInconsistency(logger, "ProcessRecordCreated", ev.TxHash, ev.LedgerId)
			return nil
		}

		updates := map[string]interface{}{
			"ledger_id":        ev.LedgerId,
			"chain_created_at": ev.CreatedAt,
			"chain_updated_at": ev.CreatedAt,
		}
		if err := tx.Model(&models.Grievance{}).
			Where("id = ? AND ledger_id IS NULL", *sub.GrievanceId).
			Updates(updates).Error; err != nil {
			return err
		}

		return models.MarkSubmissionConfirmed(tx, ev.TxHash)
	})
}

// ProcessStatusChanged applies one finalized status-change event. A handle
// that resolves to nothing, or a ledger id with no projected row yet (a
// status event racing ahead of its creation event), is skipped as not-found,
// never applied to a nonexistent row.
func ProcessStatusChanged(ctx context.Context, logger *logrus.Logger, ev StatusChangedEvent) error {
	if ev.TxHash == "" {
		logger.WithFields(logrus.Fields{
			"module":    "chainsync",
			"ledger_id": ev.LedgerId,
		}).Warn("status changed event without tx hash; dropping")
		return nil
	}

	newStatus, err := models.GrievanceStatusFromChainCode(ev.StatusCode)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"module":      "chainsync",
			"ledger_id":   ev.LedgerId,
			"status_code": ev.StatusCode,
		}).Warn("status changed event with unknown status code; dropping")
		return nil
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := models.ResolveSubmission(tx, ev.TxHash)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				logProjectionInconsistency(logger, "ProcessStatusChanged", ev.TxHash, ev.LedgerId)
				return nil
			}
			return err
		}
		if sub.State == models.SubmissionStateConfirmed {
			return nil
		}

		grievance, err := models.GetGrievanceByLedgerId(tx, ev.LedgerId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				logProjectionInconsistency(logger, "ProcessStatusChanged", ev.TxHash, ev.LedgerId)
				return nil
			}
			return err
		}

		updates := map[string]interface{}{
			"status":           newStatus,
			"chain_updated_at": ev.UpdatedAt,
		}
		if newStatus.Terminal() && sub.ActorUserId > 0 {
			// The accepting actor becomes the resolving party on terminal
			// transitions. The projector is the sole writer of this field.
			updates["resolved_by_user_id"] = sub.ActorUserId
		}
		if err := tx.Model(&models.Grievance{}).
			Where("id = ?", grievance.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		return models.MarkSubmissionConfirmed(tx, ev.TxHash)
	})
}

func logProjectionInconsistency(logger *logrus.Logger, funcName, txHash string, ledgerId int64) {
	logger.WithFields(logrus.Fields{
		"module":    "chainsync",
		"funcName":  funcName,
		"tx_hash":   txHash,
		"ledger_id": ledgerId,
	}).Warn(utils.ErrProjectionInconsistency.Error() + ": no matching submission; skipping event")
}
