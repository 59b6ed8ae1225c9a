// Package rcss holds the physical parameters of the RoboCup 2D soccer
// simulator (rcssserver) that the rest of the module normalizes against.
package rcss

import "math"

// ServerParams は rcssserver の server.conf の既定値の一部
type ServerParams struct {
	PitchLength     float64
	PitchWidth      float64
	BallSpeedMax    float64
	PlayerSpeedMax  float64
	BallDecay       float64
	PlayerDecay     float64
	BallRand        float64
	PlayerRand      float64
	StaminaMax      float64
	StaminaCapacity float64
	StaminaIncMax   float64
	KickableMargin  float64
	KickRand        float64
	InertiaMoment   float64
	DashPowerRate   float64
	EffortInit      float64 // also used as the default effort max
	EffortMin       float64
	ExtraStamina    float64
}

// ServerParamsV16 are the defaults of rcssserver v16.
// Many params are missing, see server.conf for the complete list.
var ServerParamsV16 = ServerParams{
	PitchLength:     105,
	PitchWidth:      68,
	BallSpeedMax:    3,
	PlayerSpeedMax:  1.05,
	BallDecay:       0.97,
	PlayerDecay:     0.4,
	BallRand:        0.05,
	PlayerRand:      0.1,
	StaminaMax:      8000,
	StaminaCapacity: 130600,
	StaminaIncMax:   45,
	KickableMargin:  0.7,
	KickRand:        0.1,
	InertiaMoment:   5.0,
	DashPowerRate:   0.006,
	EffortInit:      1.0,
	EffortMin:       0.6,
	ExtraStamina:    50,
}

// DeltaRange is the [Min, Max] offset a heterogeneous parameter may be
// drawn from, relative to the server default.
type DeltaRange struct {
	Min float64
	Max float64
}

// Mid returns the midpoint of the range.
func (r DeltaRange) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Width returns the absolute span of the range.
func (r DeltaRange) Width() float64 {
	return math.Abs(r.Max - r.Min)
}

// Scale multiplies both bounds by f. A negative f swaps the orientation of
// the range, which Width and Mid tolerate.
func (r DeltaRange) Scale(f float64) DeltaRange {
	return DeltaRange{Min: f * r.Min, Max: f * r.Max}
}

// PlayerParams は player.conf の異種プレイヤーパラメータ
type PlayerParams struct {
	DashPowerRateDelta  DeltaRange
	PlayerDecayDelta    DeltaRange
	KickableMarginDelta DeltaRange
	ExtraStaminaDelta   DeltaRange

	InertiaMomentDeltaFactor float64
	KickRandDeltaFactor      float64
	EffortMinDeltaFactor     float64
	EffortMaxDeltaFactor     float64
	StaminaIncMaxDeltaFactor float64
}

// PlayerParamsV16 are the heterogeneous player defaults of rcssserver v16.
var PlayerParamsV16 = PlayerParams{
	DashPowerRateDelta:  DeltaRange{Min: -0.0012, Max: 0.0008},
	PlayerDecayDelta:    DeltaRange{Min: -0.1, Max: 0.1},
	KickableMarginDelta: DeltaRange{Min: -0.1, Max: 0.1},
	ExtraStaminaDelta:   DeltaRange{Min: 0.0, Max: 50.0},

	InertiaMomentDeltaFactor: 25.0,
	KickRandDeltaFactor:      1.0,
	EffortMinDeltaFactor:     -0.004,
	EffortMaxDeltaFactor:     -0.004,
	StaminaIncMaxDeltaFactor: -6000.0,
}
