package model

import "math"

const (
	MlPerKg          = 30
	MinDailyTargetMl = 1500
	MaxDailyTargetMl = 4000
)

// DailyTargetMl maps body weight to the daily intake goal: weight*30 ml,
// rounded half up and clamped to [1500, 4000]. The clamp runs on the float
// so huge and infinite weights land on the ceiling; NaN lands on the floor.
func DailyTargetMl(weightKg float64) int {
	raw := math.Floor(weightKg*MlPerKg + 0.5)
	switch {
	case math.IsNaN(raw) || raw < MinDailyTargetMl:
		return MinDailyTargetMl
	case raw > MaxDailyTargetMl:
		return MaxDailyTargetMl
	default:
		return int(raw)
	}
}
