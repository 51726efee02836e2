package models

import "testing"

func TestNextStatus(t *testing.T) {
	cases := []struct {
		from   PropertyStatus
		action VerificationAction
		want   PropertyStatus
		ok     bool
	}{
		{StatusDraft, ActionSubmit, StatusPendingMLValidation, true},
		{StatusPendingMLValidation, ActionMLApprove, StatusPendingVetting, true},
		{StatusPendingMLValidation, ActionMLReject, StatusRejected, true},
		{StatusPendingMLValidation, ActionMLFlagDuplicate, StatusPendingDuplicateReview, true},
		{StatusPendingVetting, ActionVetApprove, StatusLive, true},
		{StatusPendingVetting, ActionVetReject, StatusRejected, true},
		{StatusPendingDuplicateReview, ActionDuplicateClear, StatusPendingVetting, true},
		{StatusPendingDuplicateReview, ActionDuplicateReject, StatusRejected, true},
		{StatusLive, ActionExpire, StatusExpired, true},
		{StatusLive, ActionMarkSold, StatusSold, true},

		// No transition ever applies to a status other than its source.
		{StatusLive, ActionVetApprove, "", false},
		{StatusRejected, ActionSubmit, "", false},
		{StatusPendingVetting, ActionMLApprove, "", false},
		{StatusExpired, ActionExpire, "", false},
		{StatusSold, ActionMarkSold, "", false},
	}

	for _, tc := range cases {
		got, ok := NextStatus(tc.from, tc.action)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NextStatus(%s, %s) = (%s, %v), want (%s, %v)",
				tc.from, tc.action, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	for key := range transitions {
		if key.From == StatusRejected || key.From == StatusExpired || key.From == StatusSold {
			t.Errorf("terminal status %s has outgoing transition %s", key.From, key.Action)
		}
	}
}

func TestSourceStatus(t *testing.T) {
	from, ok := SourceStatus(ActionVetApprove)
	if !ok || from != StatusPendingVetting {
		t.Errorf("SourceStatus(vet_approve) = (%s, %v)", from, ok)
	}

	if _, ok := SourceStatus(VerificationAction("unknown")); ok {
		t.Error("unknown action must have no source status")
	}
}
