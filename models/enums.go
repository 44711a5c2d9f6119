package models

import "errors"

// GrievanceStatus is the lifecycle status of a grievance. The string values
// match what the ledger contract exposes; ChainCode carries the stable numeric
// encoding (0-5) used on the wire.
type GrievanceStatus string

const (
	GrievanceStatusNotProcessed           GrievanceStatus = "Not Processed"
	GrievanceStatusAcknowledged           GrievanceStatus = "Acknowledged"
	GrievanceStatusUnderInvestigation     GrievanceStatus = "Under Investigation"
	GrievanceStatusPendingCommitteeReview GrievanceStatus = "Pending Committee Review"
	GrievanceStatusResolved               GrievanceStatus = "Resolved"
	GrievanceStatusRejected               GrievanceStatus = "Rejected"
)

var statusChainCodes = map[GrievanceStatus]int{
	GrievanceStatusNotProcessed:           0,
	GrievanceStatusAcknowledged:           1,
	GrievanceStatusUnderInvestigation:     2,
	GrievanceStatusPendingCommitteeReview: 3,
	GrievanceStatusResolved:               4,
	GrievanceStatusRejected:               5,
}

var chainCodeStatuses = map[int]GrievanceStatus{
	0: GrievanceStatusNotProcessed,
	1: GrievanceStatusAcknowledged,
	2: GrievanceStatusUnderInvestigation,
	3: GrievanceStatusPendingCommitteeReview,
	4: GrievanceStatusResolved,
	5: GrievanceStatusRejected,
}

func (s GrievanceStatus) Valid() bool {
	_, ok := statusChainCodes[s]
	return ok
}

func (s GrievanceStatus) ChainCode() (int, error) {
	code, ok := statusChainCodes[s]
	if !ok {
		return 0, errors.New("invalid grievance status")
	}
	return code, nil
}

// Terminal statuses have no outgoing transitions.
func (s GrievanceStatus) Terminal() bool {
	return s == GrievanceStatusResolved || s == GrievanceStatusRejected
}

func GrievanceStatusFromChainCode(code int) (GrievanceStatus, error) {
	s, ok := chainCodeStatuses[code]
	if !ok {
		return "", errors.New("invalid grievance status code")
	}
	return s, nil
}

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

// SubmissionKind is the action a ledger submission carries.
type SubmissionKind string

const (
	SubmissionKindCreate       SubmissionKind = "CREATE"
	SubmissionKindStatusUpdate SubmissionKind = "STATUS_UPDATE"
)

// SubmissionState tracks confirmation of a ledger submission. The transition
// is monotonic: PENDING -> CONFIRMED, never reversed.
type SubmissionState string

const (
	SubmissionStatePending   SubmissionState = "PENDING"
	SubmissionStateConfirmed SubmissionState = "CONFIRMED"
)
