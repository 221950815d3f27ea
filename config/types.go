package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Decimal wraps decimal.Decimal for yaml: prices and ratios in config files
// must never round-trip through float64.
type Decimal struct {
	decimal.Decimal
}

func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{d}
}

func (d *Decimal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("decimal: expected a scalar, got %v", value.Kind)
	}
	// The raw scalar text is parsed directly, so both quoted and unquoted
	// numbers keep their exact decimal representation.
	res, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("decimal: %w", err)
	}
	d.Decimal = res
	return nil
}

func (d Decimal) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Duration wraps time.Duration for yaml, accepting values like "150m", "8h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected a scalar, got %v", value.Kind)
	}
	res, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(res)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
