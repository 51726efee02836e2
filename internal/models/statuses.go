package models

// PropertyStatus is the listing's position in the verification pipeline.
type PropertyStatus string

const (
	StatusDraft                  PropertyStatus = "draft"
	StatusPendingMLValidation    PropertyStatus = "pending_ml_validation"
	StatusPendingVetting         PropertyStatus = "pending_vetting"
	StatusPendingDuplicateReview PropertyStatus = "pending_duplicate_review"
	StatusLive                   PropertyStatus = "live"
	StatusRejected               PropertyStatus = "rejected"
	StatusExpired                PropertyStatus = "expired"
	StatusSold                   PropertyStatus = "sold"
)

// VerificationAction identifies a requested transition on a listing.
type VerificationAction string

const (
	ActionSubmit           VerificationAction = "submit"
	ActionMLApprove        VerificationAction = "ml_approve"
	ActionMLReject         VerificationAction = "ml_reject"
	ActionMLFlagDuplicate  VerificationAction = "ml_flag_duplicate"
	ActionVetApprove       VerificationAction = "vet_approve"
	ActionVetReject        VerificationAction = "vet_reject"
	ActionDuplicateClear   VerificationAction = "duplicate_clear"
	ActionDuplicateReject  VerificationAction = "duplicate_reject"
	ActionExpire           VerificationAction = "expire"
	ActionMarkSold         VerificationAction = "mark_sold"
)

type transitionKey struct {
	From   PropertyStatus
	Action VerificationAction
}

// transitions is the authoritative (current status, action) -> next status
// table. A pair absent from the table is an invalid transition; there are no
// other status-change paths.
var transitions = map[transitionKey]PropertyStatus{
	{StatusDraft, ActionSubmit}:                            StatusPendingMLValidation,
	{StatusPendingMLValidation, ActionMLApprove}:           StatusPendingVetting,
	{StatusPendingMLValidation, ActionMLReject}:            StatusRejected,
	{StatusPendingMLValidation, ActionMLFlagDuplicate}:     StatusPendingDuplicateReview,
	{StatusPendingVetting, ActionVetApprove}:               StatusLive,
	{StatusPendingVetting, ActionVetReject}:                StatusRejected,
	{StatusPendingDuplicateReview, ActionDuplicateClear}:   StatusPendingVetting,
	{StatusPendingDuplicateReview, ActionDuplicateReject}:  StatusRejected,
	{StatusLive, ActionExpire}:                             StatusExpired,
	{StatusLive, ActionMarkSold}:                           StatusSold,
}

// NextStatus resolves the target status for an action applied to a listing in
// the given status. ok is false when the transition is not allowed.
func NextStatus(from PropertyStatus, action VerificationAction) (PropertyStatus, bool) {
	next, ok := transitions[transitionKey{From: from, Action: action}]
	return next, ok
}

// SourceStatus returns the only status an action may be applied from.
func SourceStatus(action VerificationAction) (PropertyStatus, bool) {
	for key := range transitions {
		if key.Action == action {
			return key.From, true
		}
	}
	return "", false
}
