package flows

import (
	"fmt"

	"github.com/pelletier/go-toml"
)

const (
	DefaultDustFloor    int64 = 10_000
	DefaultStatecoinMin int64 = 10_000
	DefaultStatecoinFee int64 = 10_000
	DefaultBaseTxFee    int64 = 2_600
)

// FeeSchedule holds the client-side amount limits and fees, in satoshis, used by pre-flight
// validation.
type FeeSchedule struct {
	DustFloor    int64 `toml:"dust_floor"`
	StatecoinMin int64 `toml:"statecoin_min"`
	StatecoinFee int64 `toml:"statecoin_fee"`
	BaseTxFee    int64 `toml:"base_tx_fee"`
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		DustFloor:    DefaultDustFloor,
		StatecoinMin: DefaultStatecoinMin,
		StatecoinFee: DefaultStatecoinFee,
		BaseTxFee:    DefaultBaseTxFee,
	}
}

// LoadFeeSchedule reads a fee schedule from a TOML file. Keys missing from the file keep their
// default value.
func LoadFeeSchedule(path string) (FeeSchedule, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return FeeSchedule{}, fmt.Errorf("loading fee schedule file %s: %w", path, err)
	}

	var fees FeeSchedule
	if err = tree.Unmarshal(&fees); err != nil {
		return FeeSchedule{}, fmt.Errorf("unmarshalling fee schedule: %w", err)
	}

	fees = fees.withDefaults()
	if err = fees.Validate(); err != nil {
		return FeeSchedule{}, fmt.Errorf("validating fee schedule: %w", err)
	}
	return fees, nil
}

func (f FeeSchedule) withDefaults() FeeSchedule {
	defaults := DefaultFeeSchedule()
	if f.DustFloor == 0 {
		f.DustFloor = defaults.DustFloor
	}
	if f.StatecoinMin == 0 {
		f.StatecoinMin = defaults.StatecoinMin
	}
	if f.StatecoinFee == 0 {
		f.StatecoinFee = defaults.StatecoinFee
	}
	if f.BaseTxFee == 0 {
		f.BaseTxFee = defaults.BaseTxFee
	}
	return f
}

func (f FeeSchedule) Validate() error {
	for name, value := range map[string]int64{
		"dust_floor":    f.DustFloor,
		"statecoin_min": f.StatecoinMin,
		"statecoin_fee": f.StatecoinFee,
		"base_tx_fee":   f.BaseTxFee,
	} {
		if value < 0 {
			return fmt.Errorf("%s cannot be negative, got %d", name, value)
		}
	}
	return nil
}
