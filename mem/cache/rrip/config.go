package rrip

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which insertion policy followers use.
type Mode int

// SRRIP and BRRIP apply one rule everywhere. DRRIP duels the two.
const (
	ModeSRRIP Mode = iota
	ModeBRRIP
	ModeDRRIP
)

func (m Mode) String() string {
	switch m {
	case ModeSRRIP:
		return "SRRIP"
	case ModeBRRIP:
		return "BRRIP"
	case ModeDRRIP:
		return "DRRIP"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MaxRRPVMax is the widest RRPV counter supported, 3 bits.
const MaxRRPVMax = 7

var (
	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = errors.New("invalid RRIP configuration")

	// ErrUnknownPolicy is returned for an unknown preset name.
	ErrUnknownPolicy = errors.New("unknown replacement policy")
)

// Config holds every parameter of a replacement engine.
type Config struct {
	Name string
	Mode Mode

	NumSets int
	NumWays int
	RRPVMax int

	// SRRIPInsert is the RRPV given to lines filled under the SRRIP rule.
	SRRIPInsert int

	// BimodalCommon and BimodalRare are the two RRPVs of the bimodal rule.
	BimodalCommon int
	BimodalRare   int

	Insertion     InsertionKind
	MaxBIP        int
	Epsilon       float64
	InsertionSeed uint32

	PSELMax       int
	LeaderSetSize int
	Seed          uint32

	BIPMissStep   int
	SRRIPMissStep int

	RewardLeaderHits bool
	HitRewardStep    int

	// PhaseLength is the number of accesses between PSEL decays; zero
	// disables decay.
	PhaseLength uint64
	DecayShift  uint
}

// SRRIPConfig returns a static RRIP configuration with 2-bit RRPVs.
func SRRIPConfig() Config {
	return Config{
		Name:        "SRRIP",
		Mode:        ModeSRRIP,
		NumSets:     2048,
		NumWays:     16,
		RRPVMax:     3,
		SRRIPInsert: 2,
	}
}

// BRRIPConfig returns a bimodal RRIP configuration that inserts at
// RRPVMax-1 and, with probability 0.1, at RRPVMax-2.
func BRRIPConfig() Config {
	return Config{
		Name:          "BRRIP",
		Mode:          ModeBRRIP,
		NumSets:       2048,
		NumWays:       16,
		RRPVMax:       3,
		SRRIPInsert:   2,
		BimodalCommon: 2,
		BimodalRare:   1,
		Insertion:     Epsilon,
		Epsilon:       0.1,
		InsertionSeed: 3,
	}
}

// DRRIPConfig returns the set-dueling configuration with a 10-bit PSEL,
// 32 leader sets per policy and a 1-in-32 duty cycle for bimodal
// insertion. Misses in SRRIP leaders move PSEL by 10, misses in BIP leaders
// by 1, and PSEL decays toward the midpoint every 100000 accesses.
func DRRIPConfig() Config {
	return Config{
		Name:          "DRRIP",
		Mode:          ModeDRRIP,
		NumSets:       2048,
		NumWays:       16,
		RRPVMax:       3,
		SRRIPInsert:   2,
		BimodalCommon: 3,
		BimodalRare:   2,
		Insertion:     DutyCycle,
		MaxBIP:        32,
		PSELMax:       1023,
		LeaderSetSize: 32,
		Seed:          42,
		BIPMissStep:   1,
		SRRIPMissStep: 10,
		PhaseLength:   100000,
		DecayShift:    2,
	}
}

// DRRIPAltConfig returns the 3-bit RRPV dueling variant. It uses a 7-bit
// PSEL, random bimodal insertion and rewards hits in leader sets.
func DRRIPAltConfig() Config {
	return Config{
		Name:             "DRRIP-alt",
		Mode:             ModeDRRIP,
		NumSets:          2048,
		NumWays:          16,
		RRPVMax:          7,
		SRRIPInsert:      5,
		BimodalCommon:    6,
		BimodalRare:      5,
		Insertion:        Epsilon,
		Epsilon:          0.1,
		InsertionSeed:    6,
		PSELMax:          127,
		LeaderSetSize:    32,
		Seed:             5,
		BIPMissStep:      1,
		SRRIPMissStep:    1,
		RewardLeaderHits: true,
		HitRewardStep:    1,
	}
}

// PresetNames lists the names accepted by PresetByName.
func PresetNames() []string {
	return []string{"srrip", "brrip", "drrip", "drrip-alt"}
}

// PresetByName returns the preset with the given case-insensitive name.
func PresetByName(name string) (Config, error) {
	switch strings.ToLower(name) {
	case "srrip":
		return SRRIPConfig(), nil
	case "brrip", "bip":
		return BRRIPConfig(), nil
	case "drrip":
		return DRRIPConfig(), nil
	case "drrip-alt", "drrip_alt":
		return DRRIPAltConfig(), nil
	}

	return Config{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Validate checks that the configuration describes a usable engine.
func (c Config) Validate() error {
	if c.NumSets < 1 || c.NumWays < 1 {
		return c.invalid("geometry %dx%d must be positive",
			c.NumSets, c.NumWays)
	}

	if c.RRPVMax < 1 || c.RRPVMax > MaxRRPVMax {
		return c.invalid("RRPVMax %d outside [1, %d]", c.RRPVMax, MaxRRPVMax)
	}

	if c.Mode != ModeBRRIP {
		if err := c.rrpvInRange("SRRIPInsert", c.SRRIPInsert); err != nil {
			return err
		}
	}

	if c.Mode != ModeSRRIP {
		if err := c.validateBimodal(); err != nil {
			return err
		}
	}

	if c.Mode == ModeDRRIP {
		return c.validateDueling()
	}

	return nil
}

func (c Config) validateBimodal() error {
	if err := c.rrpvInRange("BimodalCommon", c.BimodalCommon); err != nil {
		return err
	}

	if err := c.rrpvInRange("BimodalRare", c.BimodalRare); err != nil {
		return err
	}

	switch c.Insertion {
	case DutyCycle:
		if c.MaxBIP < 1 {
			return c.invalid("MaxBIP %d must be positive", c.MaxBIP)
		}
	case Epsilon:
		if c.Epsilon < 0 || c.Epsilon > 1 {
			return c.invalid("Epsilon %g outside [0, 1]", c.Epsilon)
		}
	default:
		return c.invalid("unknown insertion kind %d", int(c.Insertion))
	}

	return nil
}

func (c Config) validateDueling() error {
	if c.PSELMax < 1 {
		return c.invalid("PSELMax %d must be positive", c.PSELMax)
	}

	if c.LeaderSetSize < 1 || 2*c.LeaderSetSize > c.NumSets {
		return c.invalid("cannot draw 2x%d leader sets from %d sets",
			c.LeaderSetSize, c.NumSets)
	}

	if c.BIPMissStep < 0 || c.SRRIPMissStep < 0 || c.HitRewardStep < 0 {
		return c.invalid("PSEL steps must not be negative")
	}

	if c.PhaseLength > 0 && (c.DecayShift < 1 || c.DecayShift > 31) {
		return c.invalid("DecayShift %d outside [1, 31]", c.DecayShift)
	}

	return nil
}

func (c Config) rrpvInRange(field string, v int) error {
	if v < 0 || v > c.RRPVMax {
		return c.invalid("%s %d outside [0, %d]", field, v, c.RRPVMax)
	}

	return nil
}

func (c Config) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s",
		ErrInvalidConfig, c.Name, fmt.Sprintf(format, args...))
}
