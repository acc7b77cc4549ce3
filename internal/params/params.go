package params

import (
	"fmt"
	"strings"
)

// Mode selects which accumulation strategy the replay assumes.
type Mode string

const (
	ModeLong     Mode = "LONG"
	ModeShortDCA Mode = "SHORT_DCA"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ModeLong), "LONG_DCA":
		return ModeLong, nil
	case string(ModeShortDCA), "SHORT":
		return ModeShortDCA, nil
	default:
		return "", fmt.Errorf("unknown strategy mode %q", s)
	}
}

// Strategy holds the fixed knobs of one strategy instance. Percent fields
// are fractions (0.05 = 5%). The entry fields govern BUY orders in LONG
// mode and SHORT orders in SHORT_DCA mode; the exit fields govern SELL and
// COVER respectively.
type Strategy struct {
	LotSizeUSD   float64 `mapstructure:"lot_size_usd" yaml:"lot_size_usd" json:"lot_size_usd"`
	MaxPositions int     `mapstructure:"max_positions" yaml:"max_positions" json:"max_positions"`
	Mode         Mode    `mapstructure:"mode" yaml:"mode" json:"mode"`

	EntryActivationPct float64 `mapstructure:"entry_activation_pct" yaml:"entry_activation_pct" json:"entry_activation_pct"`
	EntryPullbackPct   float64 `mapstructure:"entry_pullback_pct" yaml:"entry_pullback_pct" json:"entry_pullback_pct"`
	ExitActivationPct  float64 `mapstructure:"exit_activation_pct" yaml:"exit_activation_pct" json:"exit_activation_pct"`
	ExitPullbackPct    float64 `mapstructure:"exit_pullback_pct" yaml:"exit_pullback_pct" json:"exit_pullback_pct"`
}

// Short reports whether the instance accumulates short positions.
func (s Strategy) Short() bool {
	return s.Mode == ModeShortDCA
}

func (s Strategy) Validate() error {
	if s.LotSizeUSD <= 0 {
		return fmt.Errorf("lot_size_usd must be positive, got %v", s.LotSizeUSD)
	}
	if s.MaxPositions < 0 {
		return fmt.Errorf("max_positions cannot be negative, got %d", s.MaxPositions)
	}
	if _, err := ParseMode(string(s.Mode)); err != nil {
		return err
	}
	for name, pct := range map[string]float64{
		"entry_activation_pct": s.EntryActivationPct,
		"entry_pullback_pct":   s.EntryPullbackPct,
		"exit_activation_pct":  s.ExitActivationPct,
		"exit_pullback_pct":    s.ExitPullbackPct,
	} {
		if pct < 0 || pct >= 1 {
			return fmt.Errorf("%s must be in [0,1), got %v", name, pct)
		}
	}
	return nil
}

// Normalized returns a copy with the mode canonicalized.
func (s Strategy) Normalized() (Strategy, error) {
	mode, err := ParseMode(string(s.Mode))
	if err != nil {
		return Strategy{}, err
	}
	s.Mode = mode
	if err := s.Validate(); err != nil {
		return Strategy{}, err
	}
	return s, nil
}
