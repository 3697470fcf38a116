package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed ratesheet.yaml
var defaultRateSheet []byte

// TierCount is the number of headcounts priced by explicit table entries.
const TierCount = 4

type ExtraMilesTier struct {
	Miles int             `yaml:"miles"`
	Price decimal.Decimal `yaml:"price"`
}

type TieredRate struct {
	Tiers            []decimal.Decimal `yaml:"tiers"`
	PerUnitOverTable decimal.Decimal   `yaml:"per_unit_over_table"`
}

type PerformanceRate struct {
	TieredRate   `yaml:",inline"`
	PerPassenger decimal.Decimal `yaml:"per_passenger"`
}

// RateSheet holds the flat rates that are not stored per vehicle.
type RateSheet struct {
	MilitaryDiscountPct   decimal.Decimal  `yaml:"military_discount_pct"`
	ExtraMiles            []ExtraMilesTier `yaml:"extra_miles"`
	JoyRide               TieredRate       `yaml:"joy_ride"`
	PerformanceExperience PerformanceRate  `yaml:"performance_experience"`
}

// LoadRateSheet reads the YAML sheet at path, or the embedded default when
// path is empty.
func LoadRateSheet(path string) (RateSheet, error) {
	data := defaultRateSheet
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return RateSheet{}, fmt.Errorf("config: read rate sheet: %w", err)
		}
		data = b
	}
	return ParseRateSheet(data)
}

func ParseRateSheet(data []byte) (RateSheet, error) {
	var rs RateSheet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RateSheet{}, fmt.Errorf("config: parse rate sheet: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RateSheet{}, err
	}
	return rs, nil
}

func (rs RateSheet) Validate() error {
	if rs.MilitaryDiscountPct.IsNegative() || rs.MilitaryDiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("config: military_discount_pct out of range: %s", rs.MilitaryDiscountPct)
	}
	seen := make(map[int]bool, len(rs.ExtraMiles))
	for _, t := range rs.ExtraMiles {
		if t.Miles <= 0 {
			return fmt.Errorf("config: extra_miles tier must be positive, got %d", t.Miles)
		}
		if seen[t.Miles] {
			return fmt.Errorf("config: duplicate extra_miles tier %d", t.Miles)
		}
		if t.Price.IsNegative() {
			return fmt.Errorf("config: extra_miles tier %d has negative price", t.Miles)
		}
		seen[t.Miles] = true
	}
	if err := rs.JoyRide.validate("joy_ride"); err != nil {
		return err
	}
	if err := rs.PerformanceExperience.validate("performance_experience"); err != nil {
		return err
	}
	if rs.PerformanceExperience.PerPassenger.IsNegative() {
		return fmt.Errorf("config: performance_experience.per_passenger is negative")
	}
	return nil
}

func (t TieredRate) validate(name string) error {
	if len(t.Tiers) != TierCount {
		return fmt.Errorf("config: %s needs %d tiers, got %d", name, TierCount, len(t.Tiers))
	}
	for i, p := range t.Tiers {
		if p.IsNegative() {
			return fmt.Errorf("config: %s has a negative tier", name)
		}
		if i > 0 && p.LessThan(t.Tiers[i-1]) {
			return fmt.Errorf("config: %s tier %d is cheaper than tier %d", name, i+1, i)
		}
	}
	if t.PerUnitOverTable.IsNegative() {
		return fmt.Errorf("config: %s.per_unit_over_table is negative", name)
	}
	over := t.PerUnitOverTable.Mul(decimal.NewFromInt(TierCount + 1))
	if over.LessThan(t.Tiers[TierCount-1]) {
		return fmt.Errorf("config: %s prices %d units at %s, below the %d-unit tier %s",
			name, TierCount+1, over, TierCount, t.Tiers[TierCount-1])
	}
	return nil
}

// ExtraMilesPrice returns the surcharge for a package of extra miles. Zero
// miles and unknown packages cost nothing.
func (rs RateSheet) ExtraMilesPrice(miles int) decimal.Decimal {
	for _, t := range rs.ExtraMiles {
		if t.Miles == miles {
			return t.Price
		}
	}
	return decimal.Zero
}
