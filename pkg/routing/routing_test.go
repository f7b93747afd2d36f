package routing

import "testing"

func TestRouteBoundary(t *testing.T) {
	table := Table{{UpperBound: 50, Tier: "low"}, {Tier: "high"}}

	d, err := table.Route(49)
	if err != nil {
		t.Fatal(err)
	}
	if d.Tier != "low" || d.Reason != ReasonBelowThreshold {
		t.Errorf("tokens=49: got %+v", d)
	}

	d, err = table.Route(50)
	if err != nil {
		t.Fatal(err)
	}
	if d.Tier != "high" || d.Reason != ReasonAboveThreshold {
		t.Errorf("tokens=50: got %+v", d)
	}
}

func TestRouteZeroTokens(t *testing.T) {
	table := Table{{UpperBound: 50, Tier: "low"}, {Tier: "high"}}
	d, err := table.Route(0)
	if err != nil {
		t.Fatal(err)
	}
	if d.Tier != "low" {
		t.Errorf("expected low tier for 0 tokens, got %s", d.Tier)
	}
}

func TestRouteMultiTier(t *testing.T) {
	table := Table{
		{UpperBound: 50, Tier: "low"},
		{UpperBound: 500, Tier: "mid"},
		{Tier: "high"},
	}
	cases := []struct {
		tokens int
		tier   string
	}{
		{0, "low"},
		{49, "low"},
		{50, "mid"},
		{499, "mid"},
		{500, "high"},
		{100000, "high"},
	}
	for _, c := range cases {
		d, err := table.Route(c.tokens)
		if err != nil {
			t.Fatal(err)
		}
		if d.Tier != c.tier {
			t.Errorf("tokens=%d: expected %s, got %s", c.tokens, c.tier, d.Tier)
		}
	}
}

func TestRouteEmptyTable(t *testing.T) {
	var table Table
	if _, err := table.Route(10); err == nil {
		t.Fatal("expected error for empty table")
	}
}

func TestHighest(t *testing.T) {
	table := Table{{UpperBound: 50, Tier: "low"}, {Tier: "high"}}
	if table.Highest() != "high" {
		t.Errorf("expected high, got %s", table.Highest())
	}
}
