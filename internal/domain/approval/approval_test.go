package approval

import "testing"

func TestParseDecision(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Decision
		ok   bool
	}{
		{"APPROVE", DecisionApprove, true},
		{"REJECT", DecisionReject, true},
		{" APPROVE ", "", false},
		{"approve", "", false},
		{"Reject", "", false},
		{"MAYBE", "", false},
		{"", "", false},
	} {
		got, err := ParseDecision(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseDecision(%q): unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDecision(%q): expected error", tc.in)
		}
		if got != tc.want {
			t.Fatalf("ParseDecision(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor(DecisionApprove) != StatusApproved {
		t.Fatal("APPROVE must map to APPROVED")
	}
	if StatusFor(DecisionReject) != StatusRejected {
		t.Fatal("REJECT must map to REJECTED")
	}
}

func TestDefaultReason(t *testing.T) {
	if DefaultReason(DecisionApprove) != "Approved by admin" {
		t.Fatal("wrong default approve reason")
	}
	if DefaultReason(DecisionReject) != "Rejected by admin" {
		t.Fatal("wrong default reject reason")
	}
}

func TestResolved(t *testing.T) {
	r := &Record{Status: StatusPending}
	if r.Resolved() {
		t.Fatal("PENDING is not resolved")
	}
	r.Status = StatusApproved
	if !r.Resolved() {
		t.Fatal("APPROVED is resolved")
	}
}
