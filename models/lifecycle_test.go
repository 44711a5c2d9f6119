package models

import "testing"

var allStatuses = []GrievanceStatus{
	GrievanceStatusNotProcessed,
	GrievanceStatusAcknowledged,
	GrievanceStatusUnderInvestigation,
	GrievanceStatusPendingCommitteeReview,
	GrievanceStatusResolved,
	GrievanceStatusRejected,
}

func TestStatusTransitionFullForwardWalk(t *testing.T) {
	walk := []GrievanceStatus{
		GrievanceStatusNotProcessed,
		GrievanceStatusAcknowledged,
		GrievanceStatusUnderInvestigation,
		GrievanceStatusPendingCommitteeReview,
		GrievanceStatusResolved,
	}
	for i := 0; i < len(walk)-1; i++ {
		if err := ValidateStatusTransition(walk[i], walk[i+1]); err != nil {
			t.Fatalf("forward step %s -> %s rejected: %v", walk[i], walk[i+1], err)
		}
	}
}

func TestStatusTransitionRejectedFromAnyNonTerminal(t *testing.T) {
	for _, s := range allStatuses {
		err := ValidateStatusTransition(s, GrievanceStatusRejected)
		if s.Terminal() {
			if err == nil {
				t.Fatalf("%s -> Rejected should fail for terminal status", s)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s -> Rejected rejected: %v", s, err)
		}
	}
}

func TestStatusTransitionMatrix(t *testing.T) {
	legal := func(current, requested GrievanceStatus) bool {
		if current.Terminal() {
			return false
		}
		if requested == GrievanceStatusRejected {
			return true
		}
		return forwardStatus[current] == requested
	}

	for _, current := range allStatuses {
		for _, requested := range allStatuses {
			err := ValidateStatusTransition(current, requested)
			if legal(current, requested) {
				if err != nil {
					t.Errorf("%s -> %s should be allowed, got %v", current, requested, err)
				}
				continue
			}
			if err == nil {
				t.Errorf("%s -> %s should be rejected", current, requested)
			}
		}
	}
}

func TestStatusTransitionRejectsSkipsAndBackwardMoves(t *testing.T) {
	cases := []struct{ current, requested GrievanceStatus }{
		{GrievanceStatusNotProcessed, GrievanceStatusUnderInvestigation},
		{GrievanceStatusNotProcessed, GrievanceStatusResolved},
		{GrievanceStatusAcknowledged, GrievanceStatusResolved},
		{GrievanceStatusUnderInvestigation, GrievanceStatusAcknowledged},
		{GrievanceStatusPendingCommitteeReview, GrievanceStatusNotProcessed},
	}
	for _, c := range cases {
		if err := ValidateStatusTransition(c.current, c.requested); err == nil {
			t.Errorf("%s -> %s should be rejected", c.current, c.requested)
		}
	}
}

func TestStatusTransitionRejectsIdentity(t *testing.T) {
	for _, s := range allStatuses {
		if err := ValidateStatusTransition(s, s); err == nil {
			t.Errorf("%s -> %s (identity) should be rejected", s, s)
		}
	}
}

func TestStatusTransitionTerminalStatesAbsorbing(t *testing.T) {
	for _, terminal := range []GrievanceStatus{GrievanceStatusResolved, GrievanceStatusRejected} {
		for _, requested := range allStatuses {
			if err := ValidateStatusTransition(terminal, requested); err == nil {
				t.Errorf("%s -> %s should be rejected, terminal statuses have no exits", terminal, requested)
			}
		}
	}
}

func TestStatusTransitionUnknownStatus(t *testing.T) {
	if err := ValidateStatusTransition("Escalated", GrievanceStatusAcknowledged); err == nil {
		t.Fatal("unknown current status should be rejected")
	}
	if err := ValidateStatusTransition(GrievanceStatusNotProcessed, "Escalated"); err == nil {
		t.Fatal("unknown requested status should be rejected")
	}
}

func TestChainCodeRoundTrip(t *testing.T) {
	for _, s := range allStatuses {
		code, err := s.ChainCode()
		if err != nil {
			t.Fatalf("ChainCode(%s): %v", s, err)
		}
		back, err := GrievanceStatusFromChainCode(code)
		if err != nil {
			t.Fatalf("FromChainCode(%d): %v", code, err)
		}
		if back != s {
			t.Fatalf("round trip %s -> %d -> %s", s, code, back)
		}
	}
	if _, err := GrievanceStatusFromChainCode(6); err == nil {
		t.Fatal("chain code 6 should be rejected")
	}
	if _, err := GrievanceStatusFromChainCode(-1); err == nil {
		t.Fatal("chain code -1 should be rejected")
	}
}
