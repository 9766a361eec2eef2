package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidWeight = errors.New("model: weight must be positive")
	ErrInvalidHeight = errors.New("model: height must not be negative")
)

type Profile struct {
	HeightCm      float64 `json:"heightCm" yaml:"height_cm"`
	WeightKg      float64 `json:"weightKg" yaml:"weight_kg"`
	DailyTargetMl int     `json:"dailyTargetMl" yaml:"daily_target_ml"`
}

// NewProfile is the only constructor that sets DailyTargetMl.
func NewProfile(heightCm, weightKg float64) Profile {
	return Profile{
		HeightCm:      heightCm,
		WeightKg:      weightKg,
		DailyTargetMl: DailyTargetMl(weightKg),
	}
}

// ValidateBody rejects non-positive or non-finite weights and negative or
// non-finite heights.
func ValidateBody(heightCm, weightKg float64) error {
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, weightKg)
	}
	if math.IsNaN(heightCm) || math.IsInf(heightCm, 0) || heightCm < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidHeight, heightCm)
	}
	return nil
}

func (p Profile) Validate() error {
	if err := ValidateBody(p.HeightCm, p.WeightKg); err != nil {
		return err
	}
	if p.DailyTargetMl != DailyTargetMl(p.WeightKg) {
		return errors.New("model: daily target does not match weight")
	}
	return nil
}
