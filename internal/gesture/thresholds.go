package gesture

import (
	"errors"
	"fmt"
)

// ErrInvalidThresholds is returned by Thresholds.Validate.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Default threshold values. They were tuned by hand against a webcam at arm's length.
const (
	DefaultFingerExtension = 0.08
	DefaultHighBelow       = 0.5
	DefaultLowFrom         = 0.7
	DefaultStrumDeadZone   = 0.05
)

// Thresholds is the whole tunable surface of the classifier, in normalized image units.
type Thresholds struct {
	// FingerExtension is the tip-to-base distance a finger must exceed to count as extended.
	FingerExtension float64 `json:"finger_extension" mapstructure:"finger_extension" yaml:"finger_extension"`

	// HighBelow is the vertical center below which a hand is in the high band.
	HighBelow float64 `json:"high_below" mapstructure:"high_below" yaml:"high_below"`

	// LowFrom is the vertical center from which a hand is in the low band.
	LowFrom float64 `json:"low_from" mapstructure:"low_from" yaml:"low_from"`

	// StrumDeadZone is the per-frame y_min movement that must be exceeded to strum.
	StrumDeadZone float64 `json:"strum_dead_zone" mapstructure:"strum_dead_zone" yaml:"strum_dead_zone"`
}

// DefaultThresholds returns the thresholds the classifier ships with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FingerExtension: DefaultFingerExtension,
		HighBelow:       DefaultHighBelow,
		LowFrom:         DefaultLowFrom,
		StrumDeadZone:   DefaultStrumDeadZone,
	}
}

// Validate checks that the thresholds describe a usable classifier.
func (t Thresholds) Validate() error {
	switch {
	case t.FingerExtension <= 0:
		return fmt.Errorf("%w: finger_extension must be positive, got %g", ErrInvalidThresholds, t.FingerExtension)
	case t.HighBelow <= 0 || t.HighBelow > 1:
		return fmt.Errorf("%w: high_below must be in (0,1], got %g", ErrInvalidThresholds, t.HighBelow)
	case t.LowFrom < t.HighBelow || t.LowFrom > 1:
		return fmt.Errorf("%w: low_from must be in [high_below,1], got %g", ErrInvalidThresholds, t.LowFrom)
	case t.StrumDeadZone < 0:
		return fmt.Errorf("%w: strum_dead_zone must not be negative, got %g", ErrInvalidThresholds, t.StrumDeadZone)
	}
	return nil
}
