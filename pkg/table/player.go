package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
)

var ErrInvalidPlayerColumn = errors.New("invalid player column")

// PlayerAttr is one attribute of a player block in the match table.
type PlayerAttr string

const (
	AttrType               PlayerAttr = "t"
	AttrKickTried          PlayerAttr = "kick_tried"
	AttrKickFailed         PlayerAttr = "kick_failed"
	AttrGoalie             PlayerAttr = "goalie"
	AttrCatchTried         PlayerAttr = "catch_tried"
	AttrCatchFailed        PlayerAttr = "catch_failed"
	AttrDiscarded          PlayerAttr = "discarded"
	AttrCollidedWithBall   PlayerAttr = "collided_with_ball"
	AttrCollidedWithPlayer PlayerAttr = "collided_with_player"
	AttrTackleTried        PlayerAttr = "tackle_tried"
	AttrTackleFailed       PlayerAttr = "tackle_failed"
	AttrBackpassed         PlayerAttr = "backpassed"
	AttrFreekickedWrong    PlayerAttr = "freekicked_wrong"
	AttrCollidedWithPost   PlayerAttr = "collided_with_post"
	AttrFoulFrozen         PlayerAttr = "foul_frozen"
	AttrYellowCard         PlayerAttr = "yellow_card"
	AttrRedCard            PlayerAttr = "red_card"
	AttrDefendedIllegaly   PlayerAttr = "defended_illegaly"
	AttrX                  PlayerAttr = "x"
	AttrY                  PlayerAttr = "y"
	AttrVX                 PlayerAttr = "vx"
	AttrVY                 PlayerAttr = "vy"
	AttrBody               PlayerAttr = "body"
	AttrNeck               PlayerAttr = "neck"
	AttrArmPointX          PlayerAttr = "arm_point_x"
	AttrArmPointY          PlayerAttr = "arm_point_y"
	AttrViewQuality        PlayerAttr = "view_quality"
	AttrViewWidth          PlayerAttr = "view_width"
	AttrStamina            PlayerAttr = "stamina"
	AttrEffort             PlayerAttr = "effort"
	AttrStaminaRecovery    PlayerAttr = "stamina_rec"
	AttrStaminaReserve     PlayerAttr = "stamina_cap"
	AttrFocusSide          PlayerAttr = "focus_side"
	AttrFocusUniform       PlayerAttr = "focus_unum"
	AttrKickCount          PlayerAttr = "kick_count"
	AttrDashCount          PlayerAttr = "dash_count"
	AttrTurnCount          PlayerAttr = "turn_count"
	AttrCatchCount         PlayerAttr = "catch_count"
	AttrMoveCount          PlayerAttr = "move_count"
	AttrTurnNeckCount      PlayerAttr = "turnneck_count"
	AttrChangeViewCount    PlayerAttr = "changeview_count"
	AttrSayCount           PlayerAttr = "say_count"
	AttrTackleCount        PlayerAttr = "tackle_count"
	AttrPointToCount       PlayerAttr = "arm_count"
	AttrFocusCount         PlayerAttr = "focus_count"
)

// PlayerAttrs returns every per-player attribute in upstream order.
func PlayerAttrs() []PlayerAttr {
	return []PlayerAttr{
		AttrType, AttrKickTried, AttrKickFailed, AttrGoalie, AttrCatchTried, AttrCatchFailed,
		AttrDiscarded, AttrCollidedWithBall, AttrCollidedWithPlayer, AttrTackleTried,
		AttrTackleFailed, AttrBackpassed, AttrFreekickedWrong, AttrCollidedWithPost,
		AttrFoulFrozen, AttrYellowCard, AttrRedCard, AttrDefendedIllegaly, AttrX, AttrY,
		AttrVX, AttrVY, AttrBody, AttrNeck, AttrArmPointX, AttrArmPointY, AttrViewQuality,
		AttrViewWidth, AttrStamina, AttrEffort, AttrStaminaRecovery, AttrStaminaReserve,
		AttrFocusSide, AttrFocusUniform, AttrKickCount, AttrDashCount, AttrTurnCount,
		AttrCatchCount, AttrMoveCount, AttrTurnNeckCount, AttrChangeViewCount, AttrSayCount,
		AttrTackleCount, AttrPointToCount, AttrFocusCount,
	}
}

func (a PlayerAttr) String() string { return string(a) }

// Valid reports whether a is a known attribute.
func (a PlayerAttr) Valid() bool {
	for _, known := range PlayerAttrs() {
		if a == known {
			return true
		}
	}
	return false
}

// PlayerColumn addresses one attribute of one player in the match table.
type PlayerColumn struct {
	Side    rcss.FieldSide
	Uniform rcss.UniformNumber
	Attr    PlayerAttr
}

func (PlayerColumn) column() {}

// NewPlayerColumn validates side, uniform and attr.
func NewPlayerColumn(side rcss.FieldSide, uniform rcss.UniformNumber, attr PlayerAttr) (PlayerColumn, error) {
	if side != rcss.Left && side != rcss.Right {
		return PlayerColumn{}, fmt.Errorf("%w: %w", ErrInvalidPlayerColumn, rcss.ErrInvalidSide)
	}
	if !uniform.Valid() {
		return PlayerColumn{}, fmt.Errorf("%w: %w", ErrInvalidPlayerColumn, rcss.ErrInvalidUniform)
	}
	if !attr.Valid() {
		return PlayerColumn{}, fmt.Errorf("%w: unknown attribute %q", ErrInvalidPlayerColumn, attr)
	}
	return PlayerColumn{Side: side, Uniform: uniform, Attr: attr}, nil
}

func (c PlayerColumn) String() string {
	return PlayerColumnName(c.Side, c.Uniform, c.Attr)
}

// PlayerTag renders the side+uniform prefix of a player, e.g. "l7".
func PlayerTag(side rcss.FieldSide, uniform rcss.UniformNumber) string {
	return side.String() + uniform.String()
}

// PlayerColumnName renders a player column header. The leading space is
// what the upstream converter writes and must be kept for compatibility.
func PlayerColumnName(side rcss.FieldSide, uniform rcss.UniformNumber, attr PlayerAttr) string {
	return " " + PlayerTag(side, uniform) + "_" + string(attr)
}

// ParsePlayerColumn is the inverse of PlayerColumnName.
func ParsePlayerColumn(name string) (PlayerColumn, error) {
	rest, ok := strings.CutPrefix(name, " ")
	if !ok {
		return PlayerColumn{}, fmt.Errorf("%w: %q", ErrInvalidPlayerColumn, name)
	}
	tag, attr, ok := strings.Cut(rest, "_")
	if !ok || len(tag) < 2 {
		return PlayerColumn{}, fmt.Errorf("%w: %q", ErrInvalidPlayerColumn, name)
	}
	side, err := rcss.ParseFieldSide(tag[:1])
	if err != nil || (tag[0] != 'l' && tag[0] != 'r') {
		return PlayerColumn{}, fmt.Errorf("%w: %q", ErrInvalidPlayerColumn, name)
	}
	uniform, err := rcss.ParseUniformNumber(tag[1:])
	if err != nil || tag[1] == '0' || tag[1] == '+' {
		return PlayerColumn{}, fmt.Errorf("%w: %q", ErrInvalidPlayerColumn, name)
	}
	return NewPlayerColumn(side, uniform, PlayerAttr(attr))
}

// PlayerColumns enumerates the attrs of all 22 players, ordered by side,
// then uniform number, then the given attribute order.
func PlayerColumns(attrs ...PlayerAttr) []PlayerColumn {
	out := make([]PlayerColumn, 0, 2*int(rcss.MaxUniform)*len(attrs))
	for _, side := range rcss.Sides() {
		for _, u := range rcss.UniformNumbers() {
			for _, a := range attrs {
				out = append(out, PlayerColumn{Side: side, Uniform: u, Attr: a})
			}
		}
	}
	return out
}
