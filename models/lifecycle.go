package models

import (
	"github.com/grievancechain/grievance_backend/utils"
)

// forwardStatus maps each status to its single legal forward successor.
// The forward chain is strictly sequential; skipping a step is rejected.
var forwardStatus = map[GrievanceStatus]GrievanceStatus{
	GrievanceStatusNotProcessed:           GrievanceStatusAcknowledged,
	GrievanceStatusAcknowledged:           GrievanceStatusUnderInvestigation,
	GrievanceStatusUnderInvestigation:     GrievanceStatusPendingCommitteeReview,
	GrievanceStatusPendingCommitteeReview: GrievanceStatusResolved,
}

// ValidateStatusTransition answers whether a grievance may move from current
// to requested. Pure decision function, no I/O. Legal moves are the single
// forward edge plus Rejected from any non-terminal status; everything else,
// including identity transitions and any move out of a terminal status, fails
// with a ValidationError.
func ValidateStatusTransition(current, requested GrievanceStatus) error {
	if !current.Valid() {
		return utils.NewValidationError("unknown current status %q", current)
	}
	if !requested.Valid() {
		return utils.NewValidationError("unknown requested status %q", requested)
	}
	if current.Terminal() {
		return utils.NewValidationError("grievance is already %s; no further transitions permitted", current)
	}
	if requested == GrievanceStatusRejected {
		return nil
	}
	if forwardStatus[current] == requested {
		return nil
	}
	return utils.NewValidationError("invalid status transition from %q to %q", current, requested)
}
