package models

import (
	"context"
	"errors"
	"time"

	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/ledger"
	"github.com/grievancechain/grievance_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Grievance is the relational projection of a ledger record. LedgerId is null
// exactly while the creating write is unconfirmed; once set it is immutable
// and unique. Ledger-confirmed fields (ledger id, status, chain timestamps,
// resolver) are written only by the event projector; the optimistic insert is
// the single exception.
type Grievance struct {
	ID               int             `gorm:"primary_key" json:"id"`
	LedgerId         *int64          `gorm:"uniqueIndex" json:"ledger_id"`
	UserId           int             `gorm:"index;not null" json:"user_id"`
	StudentId        string          `gorm:"size:20;not null" json:"student_id"`
	ResolvedByUserId *int            `gorm:"index" json:"resolved_by_user_id"`
	Title            string          `gorm:"size:255;not null" json:"title" binding:"required"`
	Category         string          `gorm:"size:100;not null" json:"category" binding:"required"`
	EvidenceRef      string          `gorm:"size:255;not null" json:"evidence_ref"`
	Status           GrievanceStatus `gorm:"size:30;not null;index" json:"status"`
	Sentiment        Sentiment       `gorm:"size:10;not null" json:"sentiment"`
	ChainCreatedAt   int64           `json:"chain_created_at"`
	ChainUpdatedAt   int64           `json:"chain_updated_at"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Joined on admin listings only.
	StudentName string `gorm:"->;-:migration" json:"student_name,omitempty"`
}

type NewGrievance struct {
	Title       string `json:"title" binding:"required"`
	Category    string `json:"category" binding:"required"`
	EvidenceRef string `json:"evidence_ref"`
}

type GrievanceFilter struct {
	Status    *GrievanceStatus
	Sentiment *Sentiment
	Category  *string
}

// CreateGrievance is the optimistic write path. The ledger submit happens
// first; on success one local transaction inserts the projection row with a
// null ledger id and records the pending CREATE submission. The caller sees
// the grievance before finalization. A ledger failure leaves nothing written
// locally. A local failure after a successful submit orphans the chain write:
// its eventual RecordCreated event resolves to an unknown handle and is
// skipped (accepted dual-write risk).
func CreateGrievance(ctx context.Context, input *NewGrievance) (*Grievance, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}
	studentId, ok := utils.GetStudentIdFromContext(ctx)
	if !ok || studentId == "" {
		user, err := GetUserById(ctx, userId)
		if err != nil {
			return nil, err
		}
		studentId = user.StudentId
	}
	if input.Title == "" || input.Category == "" || input.EvidenceRef == "" {
		return nil, utils.NewValidationError("title, category and evidence are required")
	}

	handle, err := ledger.GetClient().SubmitCreate(ctx, studentId, input.Title, input.EvidenceRef)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	grievance := Grievance{
		LedgerId:       nil,
		UserId:         userId,
		StudentId:      studentId,
		Title:          input.Title,
		Category:       input.Category,
		EvidenceRef:    input.EvidenceRef,
		Status:         GrievanceStatusNotProcessed,
		Sentiment:      GetSentiment(input.Title),
		ChainCreatedAt: now,
		ChainUpdatedAt: now,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&grievance).Error; err != nil {
			return err
		}
		return RecordPendingSubmission(tx, handle.String(), SubmissionKindCreate, &grievance.ID, GrievanceStatusNotProcessed, userId)
	})
	if err != nil {
		// The chain write is orphaned: its event will arrive for a handle we
		// never recorded and be discarded. Surface it loudly for ops.
		logger.WithFields(logrus.Fields{
			"module":  "models",
			"tx_hash": handle.String(),
			"user_id": userId,
		}).Error("optimistic insert failed after ledger accept; chain write orphaned: " + err.Error())
		return nil, err
	}
	return &grievance, nil
}

// GetGrievances lists the projection. Admins see every grievance joined with
// the submitter's name; students see only their own.
func GetGrievances(ctx context.Context, filter *GrievanceFilter) ([]*Grievance, error) {
	db := config.GetDB()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}
	role, _ := utils.GetUserRoleFromContext(ctx)

	var grievances []*Grievance
	dbCtx := db.WithContext(ctx).Model(&Grievance{})
	if role == string(UserRoleAdmin) {
		dbCtx = dbCtx.
			Select("grievances.*, users.name AS student_name").
			Joins("JOIN users ON users.id = grievances.user_id")
	} else {
		dbCtx = dbCtx.Where("grievances.user_id = ?", userId)
	}

	if filter != nil {
		if filter.Status != nil {
			dbCtx = dbCtx.Where("grievances.status = ?", *filter.Status)
		}
		if filter.Sentiment != nil {
			dbCtx = dbCtx.Where("grievances.sentiment = ?", *filter.Sentiment)
		}
		if filter.Category != nil {
			dbCtx = dbCtx.Where("grievances.category = ?", *filter.Category)
		}
	}

	if err := dbCtx.Order("grievances.id DESC").Find(&grievances).Error; err != nil {
		return nil, err
	}
	return grievances, nil
}

func GetGrievanceByLedgerId(tx *gorm.DB, ledgerId int64) (*Grievance, error) {
	var grievance Grievance
	err := tx.Where("ledger_id = ?", ledgerId).Take(&grievance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &grievance, nil
}

// RequestStatusChange validates the transition, submits it to the ledger,
// records the pending submission, then blocks until the ledger confirms
// finality. The event projector remains the sole writer of the confirmed
// status and resolver fields; this path writes only the local audit intent.
func RequestStatusChange(ctx context.Context, ledgerId int64, target GrievanceStatus) error {
	db := config.GetDB()

	if err := RequireAdmin(ctx); err != nil {
		return err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	grievance, err := GetGrievanceByLedgerId(db.WithContext(ctx), ledgerId)
	if err != nil {
		return err
	}
	if err := ValidateStatusTransition(grievance.Status, target); err != nil {
		return err
	}

	code, err := target.ChainCode()
	if err != nil {
		return utils.NewValidationError("invalid target status %q", target)
	}

	client := ledger.GetClient()
	handle, err := client.SubmitStatusUpdate(ctx, ledgerId, code)
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return RecordPendingSubmission(tx, handle.String(), SubmissionKindStatusUpdate, &grievance.ID, target, userId)
	})
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(config.IntFromEnv("LEDGER_FINALITY_TIMEOUT_SECONDS", 60))*time.Second)
	defer cancel()
	return client.WaitFinal(waitCtx, handle)
}

// GetGrievanceAuditTrail returns every submission attempted for the grievance
// with the given ledger id, oldest first.
func GetGrievanceAuditTrail(ctx context.Context, ledgerId int64) ([]*GrievanceSubmission, error) {
	db := config.GetDB()
	grievance, err := GetGrievanceByLedgerId(db.WithContext(ctx), ledgerId)
	if err != nil {
		return nil, err
	}
	return GetSubmissionsForGrievance(ctx, grievance.ID)
}
