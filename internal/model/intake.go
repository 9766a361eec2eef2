package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidAmount = errors.New("model: amount must be positive")

// DefaultBeverage is recorded when a log is added without a beverage label.
const DefaultBeverage = "water"

type IntakeLog struct {
	ID        string    `yaml:"id"`
	Beverage  string    `yaml:"beverage"`
	AmountMl  int       `yaml:"amount_ml"`
	CreatedAt time.Time `yaml:"created_at"`
}

// intakeLogJSON keeps createdAt as Unix milliseconds on disk.
type intakeLogJSON struct {
	ID        string `json:"id"`
	Beverage  string `json:"beverage"`
	AmountMl  int    `json:"amount"`
	CreatedAt int64  `json:"createdAt"`
}

func (l IntakeLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(intakeLogJSON{
		ID:        l.ID,
		Beverage:  l.Beverage,
		AmountMl:  l.AmountMl,
		CreatedAt: l.CreatedAt.UnixMilli(),
	})
}

func (l *IntakeLog) UnmarshalJSON(data []byte) error {
	var raw intakeLogJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = IntakeLog{
		ID:        raw.ID,
		Beverage:  raw.Beverage,
		AmountMl:  raw.AmountMl,
		CreatedAt: time.UnixMilli(raw.CreatedAt),
	}
	return nil
}

func (l IntakeLog) DayKey() string {
	return DayKey(l.CreatedAt)
}

func (l IntakeLog) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("model: log id is required")
	}
	if l.AmountMl <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, l.AmountMl)
	}
	if l.CreatedAt.IsZero() {
		return errors.New("model: log created_at is required")
	}
	return nil
}
