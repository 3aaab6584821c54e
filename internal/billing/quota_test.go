package billing

import (
	"errors"
	"testing"
	"time"
)

func TestGetPlan_UnknownFallsBackToTrial(t *testing.T) {
	trial := GetPlan(PlanTrial)
	for _, code := range []string{"unknown-code", "", "  ", "PRO MAX"} {
		got := GetPlan(code)
		if got.Code != trial.Code || got.ScanLimit != trial.ScanLimit {
			t.Fatalf("GetPlan(%q) = %+v, want trial plan", code, got)
		}
	}
}

func TestGetPlan_CaseInsensitive(t *testing.T) {
	if got := GetPlan(" Starter "); got.Code != PlanStarter {
		t.Fatalf("expected starter, got %q", got.Code)
	}
}

func TestUsageWindow(t *testing.T) {
	if UsageWindow(PlanTrial) != WindowAllTime {
		t.Fatalf("trial must count all-time usage")
	}
	// Unknown codes resolve to trial, so they are all-time too.
	if UsageWindow("bogus") != WindowAllTime {
		t.Fatalf("unknown code must count all-time usage")
	}
	for _, code := range []string{PlanStarter, PlanProfessional, PlanEnterprise} {
		if UsageWindow(code) != WindowCurrentMonth {
			t.Fatalf("plan %q must count current-month usage", code)
		}
	}
}

func TestWindowStart_MonthBoundaryUTC(t *testing.T) {
	now := time.Date(2025, time.March, 15, 18, 30, 0, 0, time.FixedZone("EET", 2*3600))
	start, ok := WindowStart(WindowCurrentMonth, now)
	if !ok {
		t.Fatalf("expected a bounded window")
	}
	want := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("expected start=%s, got %s", want, start)
	}

	if _, ok := WindowStart(WindowAllTime, now); ok {
		t.Fatalf("all-time window must be unbounded")
	}
}

func TestEvaluate_LimitedPlans(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		used      int
		requested int
		allowed   bool
		remaining int
		reached   bool
	}{
		{"trial fresh", PlanTrial, 0, 1, true, 10, false},
		{"trial last scan", PlanTrial, 9, 1, true, 1, false},
		{"trial exhausted", PlanTrial, 10, 1, false, 0, true},
		{"trial over limit", PlanTrial, 25, 1, false, 0, true},
		{"starter batch fits", PlanStarter, 90, 10, true, 10, false},
		{"starter batch too big", PlanStarter, 95, 10, false, 5, false},
		{"professional exact", PlanProfessional, 499, 1, true, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Evaluate(tc.code, tc.used, tc.requested)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if d.Allowed != tc.allowed {
				t.Fatalf("allowed=%v, want %v", d.Allowed, tc.allowed)
			}
			if d.Remaining != tc.remaining {
				t.Fatalf("remaining=%d, want %d", d.Remaining, tc.remaining)
			}
			if d.LimitReached != tc.reached {
				t.Fatalf("limit_reached=%v, want %v", d.LimitReached, tc.reached)
			}
			if d.Used != tc.used {
				t.Fatalf("used=%d, want %d", d.Used, tc.used)
			}
		})
	}
}

func TestEvaluate_AllowedMonotonicInUsed(t *testing.T) {
	prev := true
	for used := 0; used <= 120; used++ {
		d, err := Evaluate(PlanStarter, used, 1)
		if err != nil {
			t.Fatalf("evaluate(used=%d): %v", used, err)
		}
		if d.Allowed && !prev {
			t.Fatalf("allowed became true again at used=%d", used)
		}
		prev = d.Allowed
	}
}

func TestEvaluate_UnlimitedPlan(t *testing.T) {
	for _, used := range []int{0, 1, 999999, 1 << 30} {
		d, err := Evaluate(PlanEnterprise, used, 1)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if !d.Allowed || d.LimitReached {
			t.Fatalf("enterprise must always allow (used=%d): %+v", used, d)
		}
		if !d.Unlimited || d.Remaining != ScanLimitUnlimited {
			t.Fatalf("enterprise must report unlimited remaining: %+v", d)
		}
	}
}

func TestEvaluate_RejectsNonPositiveUnits(t *testing.T) {
	for _, requested := range []int{0, -1, -100} {
		if _, err := Evaluate(PlanStarter, 0, requested); !errors.Is(err, ErrInvalidUnits) {
			t.Fatalf("requested=%d: expected ErrInvalidUnits, got %v", requested, err)
		}
	}
}

func TestUpgrade(t *testing.T) {
	plan, err := Upgrade(PlanTrial, PlanStarter)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if plan.Code != PlanStarter {
		t.Fatalf("expected starter, got %q", plan.Code)
	}
	// The new plan governs checks made after the status change.
	if got := GetPlan(plan.Code); got.ScanLimit != 100 {
		t.Fatalf("expected starter limit 100, got %d", got.ScanLimit)
	}

	if _, err := Upgrade(PlanTrial, "bogus"); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestListPlans_Order(t *testing.T) {
	got := ListPlans()
	want := []string{PlanTrial, PlanStarter, PlanProfessional, PlanEnterprise}
	if len(got) != len(want) {
		t.Fatalf("expected %d plans, got %d", len(want), len(got))
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Fatalf("plan %d: expected %q, got %q", i, code, got[i].Code)
		}
	}
}
