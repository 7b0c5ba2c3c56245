package economy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuningValidates(t *testing.T) {
	if err := DefaultTuning().Validate(); err != nil {
		t.Fatalf("default tuning invalid: %v", err)
	}
}

func TestChanceTables(t *testing.T) {
	tuning := DefaultTuning()
	tests := []struct {
		level   int
		success float64
		destroy float64
	}{
		{level: 0, success: 0.98, destroy: 0},
		{level: 4, success: 0.98, destroy: 0},
		{level: 5, success: 0.90, destroy: 0},
		{level: 39, success: 0.25, destroy: 0},
		{level: 40, success: 0.15, destroy: 0.01},
		{level: 79, success: 0.02, destroy: 0.13},
		{level: 80, success: 0.01, destroy: 0.18},
		{level: 90, success: 0.01, destroy: 0.25},
		{level: 500, success: 0.01, destroy: 0.25},
	}
	for _, tc := range tests {
		if got := tuning.SuccessChance(tc.level); got != tc.success {
			t.Fatalf("success(%d)=%v want=%v", tc.level, got, tc.success)
		}
		if got := tuning.DestroyChance(tc.level); got != tc.destroy {
			t.Fatalf("destroy(%d)=%v want=%v", tc.level, got, tc.destroy)
		}
	}
}

func TestEnhanceCostSteps(t *testing.T) {
	tuning := DefaultTuning()
	tests := []struct {
		level int
		want  int64
	}{
		{level: 0, want: 215},
		{level: 9, want: 215},
		{level: 10, want: 405},
		{level: 19, want: 405},
		{level: 20, want: 595},
		{level: 87, want: 215 + 8*190},
	}
	for _, tc := range tests {
		if got := tuning.EnhanceCost(tc.level); got != tc.want {
			t.Fatalf("cost(%d)=%d want=%d", tc.level, got, tc.want)
		}
	}
}

func TestSellerPayout(t *testing.T) {
	tuning := DefaultTuning()
	tests := []struct {
		price int64
		want  int64
	}{
		{price: 1000, want: 1000}, // 900 share + 100 bonus
		{price: 777, want: 799},
		{price: 1, want: 100}, // bonus exceeds the price
	}
	for _, tc := range tests {
		if got := tuning.SellerPayout(tc.price); got != tc.want {
			t.Fatalf("payout(%d)=%d want=%d", tc.price, got, tc.want)
		}
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"no grades", func(c *Tuning) { c.Grades = nil }},
		{"zero max level", func(c *Tuning) { c.MaxLevel = 0 }},
		{"seller share full", func(c *Tuning) { c.SellerShare = 1 }},
		{"negative fee", func(c *Tuning) { c.ListingFee = -1 }},
		{"no open step", func(c *Tuning) {
			c.SuccessSteps = []ChanceStep{{Below: 10, Chance: 0.5}}
		}},
		{"success rises", func(c *Tuning) {
			c.SuccessSteps = []ChanceStep{{Below: 10, Chance: 0.5}, {Below: 0, Chance: 0.9}}
		}},
		{"destroy falls", func(c *Tuning) {
			c.DestroySteps = []ChanceStep{{Below: 10, Chance: 0.5}, {Below: 0, Chance: 0.1}}
		}},
		{"unsorted thresholds", func(c *Tuning) {
			c.DestroySteps = []ChanceStep{{Below: 20, Chance: 0.1}, {Below: 10, Chance: 0.2}, {Below: 0, Chance: 0.3}}
		}},
		{"chance out of range", func(c *Tuning) {
			c.DestroySteps = []ChanceStep{{Below: 0, Chance: 1.5}}
		}},
	}
	for _, tc := range tests {
		cfg := DefaultTuning()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadTuningOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	doc := "craft_cost: 500\ndaily_reward: 1234\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}

	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tuning.CraftCost != 500 {
		t.Fatalf("craft_cost=%d want=500", tuning.CraftCost)
	}
	if tuning.DailyReward != 1234 {
		t.Fatalf("daily_reward=%d want=1234", tuning.DailyReward)
	}
	// Untouched fields keep their defaults.
	if tuning.MaxLevel != 88 {
		t.Fatalf("max_level=%d want=88", tuning.MaxLevel)
	}
}

func TestLoadTuningRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("seller_share: 2.0\n"), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Fatalf("expected invalid tuning to fail")
	}
}

func TestGradeNameClamps(t *testing.T) {
	tuning := DefaultTuning()
	if got := tuning.GradeName(-3); got != "scrap" {
		t.Fatalf("GradeName(-3)=%q", got)
	}
	if got := tuning.GradeName(99); got != "mythic" {
		t.Fatalf("GradeName(99)=%q", got)
	}
}
