package model

import "testing"

func TestIDListRoundTripThroughDriver(t *testing.T) {
	v, err := IDList{3, 1, 2}.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "[3,1,2]" {
		t.Fatalf("expected [3,1,2], got %v", v)
	}

	var got IDList
	if err := got.Scan([]byte("[3,1,2]")); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(got) != 3 || got[0] != 3 {
		t.Fatalf("unexpected list %v", got)
	}
	if id, ok := (Request{Assignees: got}).PrimaryAssignee(); !ok || id != 3 {
		t.Fatalf("expected primary assignee 3, got %d (%t)", id, ok)
	}
}

func TestIDListScanNull(t *testing.T) {
	var got IDList
	if err := got.Scan(nil); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	if err := got.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityRank(PriorityHigh) < PriorityRank(PriorityMedium) && PriorityRank(PriorityMedium) < PriorityRank(PriorityLow)) {
		t.Fatal("expected high < medium < low")
	}
	if PriorityRank("urgent") <= PriorityRank(PriorityLow) {
		t.Fatal("unknown priorities must rank last")
	}
}

func TestValidEnums(t *testing.T) {
	for _, s := range Statuses {
		if !ValidStatus(s) {
			t.Errorf("status %q should be valid", s)
		}
	}
	if ValidStatus("done") {
		t.Error("done is not a valid status")
	}
	if ValidPriority("urgent") {
		t.Error("urgent is not a valid priority")
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
	}
	for _, c := range cases {
		if got := ProgressPercent(c.completed, c.total); got != c.want {
			t.Errorf("ProgressPercent(%d, %d) = %d, want %d", c.completed, c.total, got, c.want)
		}
	}
}
