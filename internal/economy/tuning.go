package economy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ChanceStep maps levels strictly below Below to Chance. The last step of a
// table uses Below = 0 meaning "everything above the previous step".
type ChanceStep struct {
	Below  int     `yaml:"below"`
	Chance float64 `yaml:"chance"`
}

// Tuning holds every economy parameter. Values are configuration, not code:
// operators override them with a YAML file, the zero config falls back to
// DefaultTuning.
type Tuning struct {
	Grades []string `yaml:"grades"`

	MaxLevel           int `yaml:"max_level"`
	MaxItemsPerAccount int `yaml:"max_items_per_account"`

	CraftCost      int64   `yaml:"craft_cost"`
	DailyReward    int64   `yaml:"daily_reward"`
	AdminGrant     int64   `yaml:"admin_grant"`
	ListingFee     int64   `yaml:"listing_fee"`
	SellerBonus    int64   `yaml:"seller_flat_bonus"`
	EnhanceBase    int64   `yaml:"enhance_cost_base"`
	EnhanceStep    int64   `yaml:"enhance_cost_step"`
	SellerShare    float64 `yaml:"seller_share"`
	GradeUpRate    float64 `yaml:"grade_up_chance"`
	InitialReserve int64   `yaml:"initial_reserve"`

	SuccessSteps []ChanceStep `yaml:"success_steps"`
	DestroySteps []ChanceStep `yaml:"destroy_steps"`
}

// DefaultTuning mirrors the numbers the bot has always shipped with.
func DefaultTuning() Tuning {
	return Tuning{
		Grades: []string{"scrap", "common", "fine", "rare", "heroic", "legendary", "mythic"},

		MaxLevel:           88,
		MaxItemsPerAccount: 5,

		CraftCost:      250,
		DailyReward:    2000,
		AdminGrant:     10000,
		ListingFee:     100,
		SellerBonus:    100,
		EnhanceBase:    215,
		EnhanceStep:    190,
		SellerShare:    0.9,
		GradeUpRate:    0.05,
		InitialReserve: 3_983_896_076,

		SuccessSteps: []ChanceStep{
			{Below: 5, Chance: 0.98},
			{Below: 10, Chance: 0.90},
			{Below: 15, Chance: 0.80},
			{Below: 20, Chance: 0.65},
			{Below: 25, Chance: 0.50},
			{Below: 30, Chance: 0.35},
			{Below: 40, Chance: 0.25},
			{Below: 50, Chance: 0.15},
			{Below: 60, Chance: 0.08},
			{Below: 70, Chance: 0.04},
			{Below: 80, Chance: 0.02},
			{Below: 0, Chance: 0.01},
		},
		DestroySteps: []ChanceStep{
			{Below: 40, Chance: 0},
			{Below: 50, Chance: 0.01},
			{Below: 60, Chance: 0.03},
			{Below: 70, Chance: 0.07},
			{Below: 80, Chance: 0.13},
			{Below: 90, Chance: 0.18},
			{Below: 0, Chance: 0.25},
		},
	}
}

// LoadTuning reads a YAML override file. An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, t.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if len(t.Grades) == 0 {
		return fmt.Errorf("at least one grade is required")
	}
	if t.MaxLevel <= 0 {
		return fmt.Errorf("max_level must be > 0")
	}
	if t.MaxItemsPerAccount <= 0 {
		return fmt.Errorf("max_items_per_account must be > 0")
	}
	if t.CraftCost < 0 || t.DailyReward < 0 || t.AdminGrant < 0 || t.ListingFee < 0 || t.SellerBonus < 0 {
		return fmt.Errorf("costs and rewards must not be negative")
	}
	if t.SellerShare < 0 || t.SellerShare >= 1 {
		return fmt.Errorf("seller_share must be in [0, 1)")
	}
	if t.GradeUpRate < 0 || t.GradeUpRate > 1 {
		return fmt.Errorf("grade_up_chance must be in [0, 1]")
	}
	if err := validateSteps("success_steps", t.SuccessSteps, false); err != nil {
		return err
	}
	if err := validateSteps("destroy_steps", t.DestroySteps, true); err != nil {
		return err
	}
	return nil
}

// validateSteps checks each table is sorted, open-ended, and monotonic:
// destroy chances may only rise with level, success chances only fall.
func validateSteps(name string, steps []ChanceStep, increasing bool) error {
	if len(steps) == 0 {
		return fmt.Errorf("%s must not be empty", name)
	}
	bounded := steps[:len(steps)-1]
	if steps[len(steps)-1].Below != 0 {
		return fmt.Errorf("%s must end with an open step (below: 0)", name)
	}
	if !sort.SliceIsSorted(bounded, func(i, j int) bool { return bounded[i].Below < bounded[j].Below }) {
		return fmt.Errorf("%s thresholds must be ascending", name)
	}
	for i, s := range steps {
		if s.Chance < 0 || s.Chance > 1 {
			return fmt.Errorf("%s chance out of [0,1]", name)
		}
		if i == 0 {
			continue
		}
		if increasing && s.Chance < steps[i-1].Chance {
			return fmt.Errorf("%s must be non-decreasing", name)
		}
		if !increasing && s.Chance > steps[i-1].Chance {
			return fmt.Errorf("%s must be non-increasing", name)
		}
	}
	return nil
}

func lookupStep(steps []ChanceStep, level int) float64 {
	for _, s := range steps[:len(steps)-1] {
		if level < s.Below {
			return s.Chance
		}
	}
	return steps[len(steps)-1].Chance
}

// SuccessChance returns the enhancement success probability at a level.
func (t Tuning) SuccessChance(level int) float64 {
	return lookupStep(t.SuccessSteps, level)
}

// DestroyChance returns the destruction probability at a level.
func (t Tuning) DestroyChance(level int) float64 {
	return lookupStep(t.DestroySteps, level)
}

// EnhanceCost rises stepwise: every ten levels add one cost step.
func (t Tuning) EnhanceCost(level int) int64 {
	return t.EnhanceBase + int64(level/10)*t.EnhanceStep
}

// SellerPayout is what the seller receives when a listing sells.
func (t Tuning) SellerPayout(price int64) int64 {
	return int64(float64(price)*t.SellerShare) + t.SellerBonus
}

// TopGrade is the index of the highest grade on the ladder.
func (t Tuning) TopGrade() int {
	return len(t.Grades) - 1
}

// GradeName is tolerant of out-of-range indexes from hand-edited records.
func (t Tuning) GradeName(grade int) string {
	if grade < 0 {
		grade = 0
	}
	if grade > t.TopGrade() {
		grade = t.TopGrade()
	}
	return t.Grades[grade]
}
