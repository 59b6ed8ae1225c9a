package rcss

// HeteroParam identifies one heterogeneous player attribute.
type HeteroParam int

const (
	DashPowerRate HeteroParam = iota
	PlayerDecay
	InertiaMoment
	KickableMargin
	KickRand
	ExtraStamina
	EffortMin
	EffortMax
	StaminaIncMax
)

var heteroNames = [...]string{
	DashPowerRate:  "dash_power_rate",
	PlayerDecay:    "player_decay",
	InertiaMoment:  "inertia_moment",
	KickableMargin: "kickable_margin",
	KickRand:       "kick_rand",
	ExtraStamina:   "extra_stamina",
	EffortMin:      "effort_min",
	EffortMax:      "effort_max",
	StaminaIncMax:  "stamina_inc_max",
}

// HeteroParams returns every heterogeneous attribute in declaration order.
func HeteroParams() []HeteroParam {
	return []HeteroParam{
		DashPowerRate, PlayerDecay, InertiaMoment, KickableMargin, KickRand,
		ExtraStamina, EffortMin, EffortMax, StaminaIncMax,
	}
}

func (h HeteroParam) String() string {
	if h < 0 || int(h) >= len(heteroNames) {
		return "unknown"
	}
	return heteroNames[h]
}

// Base returns the attribute whose random delta drives h, and whether h is
// derived at all.
func (h HeteroParam) Base() (HeteroParam, bool) {
	switch h {
	case InertiaMoment:
		return PlayerDecay, true
	case KickRand:
		return KickableMargin, true
	case EffortMin, EffortMax:
		return ExtraStamina, true
	case StaminaIncMax:
		return DashPowerRate, true
	}
	return h, false
}

// Default returns the server default the delta is applied to.
// EffortMax is centered on EffortInit: both are 1.0 in the default set.
func (h HeteroParam) Default(sp ServerParams) float64 {
	switch h {
	case DashPowerRate:
		return sp.DashPowerRate
	case PlayerDecay:
		return sp.PlayerDecay
	case InertiaMoment:
		return sp.InertiaMoment
	case KickableMargin:
		return sp.KickableMargin
	case KickRand:
		return sp.KickRand
	case ExtraStamina:
		return sp.ExtraStamina
	case EffortMin:
		return sp.EffortMin
	case EffortMax:
		return sp.EffortInit
	case StaminaIncMax:
		return sp.StaminaIncMax
	}
	return 0
}

// Delta returns the delta range of h. Derived attributes are always computed
// as factor * base range.
func (h HeteroParam) Delta(pp PlayerParams) DeltaRange {
	switch h {
	case DashPowerRate:
		return pp.DashPowerRateDelta
	case PlayerDecay:
		return pp.PlayerDecayDelta
	case KickableMargin:
		return pp.KickableMarginDelta
	case ExtraStamina:
		return pp.ExtraStaminaDelta
	}
	base, _ := h.Base()
	return base.Delta(pp).Scale(h.factor(pp))
}

func (h HeteroParam) factor(pp PlayerParams) float64 {
	switch h {
	case InertiaMoment:
		return pp.InertiaMomentDeltaFactor
	case KickRand:
		return pp.KickRandDeltaFactor
	case EffortMin:
		return pp.EffortMinDeltaFactor
	case EffortMax:
		return pp.EffortMaxDeltaFactor
	case StaminaIncMax:
		return pp.StaminaIncMaxDeltaFactor
	}
	return 1
}
