package eclipse

import (
	"testing"
	"time"
)

func act(date string, typ Type) Activation {
	d, _ := time.Parse("2006-01-02", date)
	return Activation{Event: Event{Date: d, Type: typ, HasImpact: true}}
}

func TestSarosRelated(t *testing.T) {
	tests := []struct {
		delta float64
		want  bool
	}{
		{0, false},
		{SarosPeriodDays, true},
		{-SarosPeriodDays, true},
		{SarosPeriodDays + 4.9, true},
		{SarosPeriodDays - 4.9, true},
		{SarosPeriodDays + 5.5, false},
		{2*SarosPeriodDays + 3, true},
		{3 * SarosPeriodDays, true},
		{SarosPeriodDays / 2, false},
		{4, false},
		{177, false},
	}
	for _, tt := range tests {
		if got := SarosRelated(tt.delta); got != tt.want {
			t.Errorf("SarosRelated(%v) = %v, want %v", tt.delta, got, tt.want)
		}
	}
}

func TestGroupBySaros(t *testing.T) {
	acts := []Activation{
		act("2024-04-08", Solar),
		act("2023-10-14", Solar),
		act("2006-03-29", Solar), // 6585 days before 2024-04-08
		act("2027-08-02", Solar),
		act("2009-07-22", Solar), // 6585 days before 2027-08-02
	}

	groups := GroupBySaros(acts)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	want := [][]string{
		{"2006-03-29", "2024-04-08"},
		{"2009-07-22", "2027-08-02"},
		{"2023-10-14"},
	}
	for i, g := range groups {
		if len(g.Members) != len(want[i]) {
			t.Fatalf("group %d has %d members, want %d", i, len(g.Members), len(want[i]))
		}
		for j, m := range g.Members {
			if got := m.Event.Date.Format("2006-01-02"); got != want[i][j] {
				t.Errorf("group %d member %d = %s, want %s", i, j, got, want[i][j])
			}
			if m.SarosGroupID != g.ID || g.ID == "" {
				t.Errorf("group %d member %d id %q, group id %q", i, j, m.SarosGroupID, g.ID)
			}
		}
	}

	if acts[0].SarosGroupID != "" {
		t.Error("input activations were modified")
	}
}

func TestGroupBySaros_IDsDeterministic(t *testing.T) {
	a := GroupBySaros([]Activation{act("2024-04-08", Solar), act("2006-03-29", Solar)})
	b := GroupBySaros([]Activation{act("2006-03-29", Solar), act("2024-04-08", Solar)})

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one group each, got %d and %d", len(a), len(b))
	}
	if a[0].ID != b[0].ID {
		t.Errorf("IDs differ: %s vs %s", a[0].ID, b[0].ID)
	}

	other := GroupBySaros([]Activation{act("2006-03-29", Lunar)})
	if other[0].ID == a[0].ID {
		t.Error("lunar and solar groups on the same date share an ID")
	}
}

func TestGroupBySaros_GreedyFirstFit(t *testing.T) {
	// B is one period after A and C two periods after A, so both join A.
	base := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(days float64) Activation {
		return Activation{Event: Event{Date: base.Add(time.Duration(days * 24 * float64(time.Hour))), Type: Solar}}
	}

	groups := GroupBySaros([]Activation{at(0), at(SarosPeriodDays), at(2 * SarosPeriodDays)})
	if len(groups) != 1 || len(groups[0].Members) != 3 {
		t.Fatalf("expected one group of 3, got %+v", groups)
	}

	// Only the representative is compared: C is P+4 after B but 2P+8 after
	// A, so it starts its own group.
	groups = GroupBySaros([]Activation{at(0), at(SarosPeriodDays + 4), at(2*SarosPeriodDays + 8)})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 || len(groups[1].Members) != 1 {
		t.Errorf("group sizes = %d, %d", len(groups[0].Members), len(groups[1].Members))
	}
}

func TestGroupBySaros_OrderDependent(t *testing.T) {
	// Y and Z are both within tolerance of one period after X but 8 days
	// apart from each other. Z only joins when X represents the group.
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(days float64) Activation {
		return Activation{Event: Event{Date: base.Add(time.Duration(days * 24 * float64(time.Hour))), Type: Solar}}
	}
	x, y, z := at(0), at(SarosPeriodDays+4), at(SarosPeriodDays-4)

	if got := GroupBySaros([]Activation{x, y, z}); len(got) != 1 {
		t.Errorf("X first: %d groups, want 1", len(got))
	}
	if got := GroupBySaros([]Activation{y, z, x}); len(got) != 2 {
		t.Errorf("Y first: %d groups, want 2", len(got))
	}
}

func TestGroupBySaros_Empty(t *testing.T) {
	if groups := GroupBySaros(nil); len(groups) != 0 {
		t.Errorf("got %d groups", len(groups))
	}
}

func TestFlatten(t *testing.T) {
	groups := GroupBySaros([]Activation{act("2024-04-08", Solar), act("2023-10-14", Solar), act("2006-03-29", Solar)})
	flat := Flatten(groups)
	if len(flat) != 3 || flat[0].Event.Date.Year() != 2006 || flat[2].Event.Date.Year() != 2023 {
		t.Errorf("Flatten order wrong: %+v", flat)
	}
}
