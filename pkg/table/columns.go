package table

import (
	"errors"
	"fmt"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
)

var ErrUnknownColumn = errors.New("unknown column")

// Column is the identity of a table column. The set of implementations is
// closed: CommandColumn, DashColumn, TurnColumn, KickColumn, TackleColumn,
// PlayerTypesColumn, MatchColumn and PlayerColumn.
type Column interface {
	fmt.Stringer
	column()
}

// CommandColumn is a column shared by the dash, turn, kick and tackle tables.
type CommandColumn string

const (
	RunningTime        CommandColumn = "running_time"
	StoppedTime        CommandColumn = "stopped_time"
	GlobalCommandOrder CommandColumn = "global_command_order"
	TeamName           CommandColumn = "teamname"
	UniformNum         CommandColumn = "unum"
)

// DashColumn is a column of the dash table.
type DashColumn string

const (
	DashPower     DashColumn = "dash_power"
	DashDirection DashColumn = "dash_direction"
)

// TurnColumn is a column of the turn table.
type TurnColumn string

const (
	TurnMoment TurnColumn = "turn_moment"
)

// KickColumn is a column of the kick table.
type KickColumn string

const (
	KickPower     KickColumn = "kick_power"
	KickDirection KickColumn = "kick_direction"
)

// TackleColumn is a column of the tackle table.
type TackleColumn string

const (
	TackleDirection TackleColumn = "tackle_direction"
	FoulIntention   TackleColumn = "foul_intention"
)

// PlayerTypesColumn is a column of the player types table.
type PlayerTypesColumn string

const (
	TypeID                    PlayerTypesColumn = "id"
	TypePlayerSpeedMax        PlayerTypesColumn = "player_speed_max"
	TypeStaminaIncMax         PlayerTypesColumn = "stamina_inc_max"
	TypePlayerDecay           PlayerTypesColumn = "player_decay"
	TypeInertiaMoment         PlayerTypesColumn = "inertia_moment"
	TypeDashPowerRate         PlayerTypesColumn = "dash_power_rate"
	TypePlayerSize            PlayerTypesColumn = "player_size"
	TypeKickableMargin        PlayerTypesColumn = "kickable_margin"
	TypeKickRand              PlayerTypesColumn = "kick_rand"
	TypeExtraStamina          PlayerTypesColumn = "extra_stamina"
	TypeEffortMax             PlayerTypesColumn = "effort_max"
	TypeEffortMin             PlayerTypesColumn = "effort_min"
	TypeKickPowerRate         PlayerTypesColumn = "kick_power_rate"
	TypeFoulDetectProbability PlayerTypesColumn = "foul_detect_probability"
	TypeCatchableAreaLStretch PlayerTypesColumn = "catchable_area_l_stretch"
)

// MatchColumn is a match table column not tied to a player. The converter
// prefixes these names with a space.
type MatchColumn string

const (
	Cycle             MatchColumn = " cycle"
	Stopped           MatchColumn = " stopped"
	PlayMode          MatchColumn = " playmode"
	LeftName          MatchColumn = " l_name"
	LeftScore         MatchColumn = " l_score"
	LeftPenaltyScore  MatchColumn = " l_pen_score"
	RightName         MatchColumn = " r_name"
	RightScore        MatchColumn = " r_score"
	RightPenaltyScore MatchColumn = " r_pen_score"
	BallX             MatchColumn = " b_x"
	BallY             MatchColumn = " b_y"
	BallVX            MatchColumn = " b_vx"
	BallVY            MatchColumn = " b_vy"
)

func (c CommandColumn) String() string     { return string(c) }
func (c DashColumn) String() string        { return string(c) }
func (c TurnColumn) String() string        { return string(c) }
func (c KickColumn) String() string        { return string(c) }
func (c TackleColumn) String() string      { return string(c) }
func (c PlayerTypesColumn) String() string { return string(c) }
func (c MatchColumn) String() string       { return string(c) }

func (CommandColumn) column()     {}
func (DashColumn) column()        {}
func (TurnColumn) column()        {}
func (KickColumn) column()        {}
func (TackleColumn) column()      {}
func (PlayerTypesColumn) column() {}
func (MatchColumn) column()       {}

// CommandColumns returns the columns common to every command table.
func CommandColumns() []CommandColumn {
	return []CommandColumn{RunningTime, StoppedTime, GlobalCommandOrder, TeamName, UniformNum}
}

// PlayerTypesColumns returns every player types column.
func PlayerTypesColumns() []PlayerTypesColumn {
	return []PlayerTypesColumn{
		TypeID, TypePlayerSpeedMax, TypeStaminaIncMax, TypePlayerDecay, TypeInertiaMoment,
		TypeDashPowerRate, TypePlayerSize, TypeKickableMargin, TypeKickRand, TypeExtraStamina,
		TypeEffortMax, TypeEffortMin, TypeKickPowerRate, TypeFoulDetectProbability,
		TypeCatchableAreaLStretch,
	}
}

// MatchColumns returns the general (non player) match columns.
func MatchColumns() []MatchColumn {
	return []MatchColumn{
		Cycle, Stopped, PlayMode, LeftName, LeftScore, LeftPenaltyScore,
		RightName, RightScore, RightPenaltyScore, BallX, BallY, BallVX, BallVY,
	}
}

// HeteroColumn returns the player types column holding h.
func HeteroColumn(h rcss.HeteroParam) PlayerTypesColumn {
	return PlayerTypesColumn(h.String())
}

// Hetero returns the heterogeneous parameter stored in c, if any.
func (c PlayerTypesColumn) Hetero() (rcss.HeteroParam, bool) {
	for _, h := range rcss.HeteroParams() {
		if h.String() == string(c) {
			return h, true
		}
	}
	return 0, false
}

// ColumnsOf returns every standard column of a table type, in upstream order.
// Match tables also carry the 22 player blocks, see PlayerColumns.
func ColumnsOf(t Type) []Column {
	var out []Column
	if t.IsCommand() {
		for _, c := range CommandColumns() {
			out = append(out, c)
		}
	}
	switch t {
	case Dash:
		out = append(out, DashPower, DashDirection)
	case Turn:
		out = append(out, TurnMoment)
	case Kick:
		out = append(out, KickPower, KickDirection)
	case Tackle:
		out = append(out, TackleDirection, FoulIntention)
	case PlayerTypes:
		for _, c := range PlayerTypesColumns() {
			out = append(out, c)
		}
	case Match:
		for _, c := range MatchColumns() {
			out = append(out, c)
		}
	}
	return out
}

// ColumnByName resolves a raw CSV header of a table of type t.
func ColumnByName(t Type, name string) (Column, error) {
	for _, c := range ColumnsOf(t) {
		if c.String() == name {
			return c, nil
		}
	}
	if t == Match {
		if pc, err := ParsePlayerColumn(name); err == nil {
			return pc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s table", ErrUnknownColumn, name, t)
}
