package normalize

import (
	"errors"
	"fmt"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

var ErrUnsupportedColumn = errors.New("unsupported column")

// Resolver picks the normalizer of a column for one simulator version.
type Resolver struct {
	Server rcss.ServerParams
	Player rcss.PlayerParams
}

// Default resolves against the rcssserver v16 parameters.
var Default = Resolver{Server: rcss.ServerParamsV16, Player: rcss.PlayerParamsV16}

// Resolve is Default.Resolve.
func Resolve(t table.Type, c table.Column) (Normalizer, error) {
	return Default.Resolve(t, c)
}

// Resolve returns the normalizer registered for column c of a table of type
// t. A column that exists but is not normalized, or that belongs to another
// table type, yields ErrUnsupportedColumn.
func (r Resolver) Resolve(t table.Type, c table.Column) (Normalizer, error) {
	var n Normalizer
	switch c := c.(type) {
	case table.MatchColumn:
		if t == table.Match {
			n = r.matchColumn(c)
		}
	case table.PlayerColumn:
		if t == table.Match {
			n = r.playerColumn(c.Attr)
		}
	case table.DashColumn:
		if t == table.Dash {
			switch c {
			case table.DashPower:
				n = Power{}
			case table.DashDirection:
				n = Angle()
			}
		}
	case table.TurnColumn:
		if t == table.Turn && c == table.TurnMoment {
			n = Angle()
		}
	case table.KickColumn:
		if t == table.Kick {
			switch c {
			case table.KickPower:
				n = Power{}
			case table.KickDirection:
				n = Angle()
			}
		}
	case table.TackleColumn:
		if t == table.Tackle && c == table.TackleDirection {
			n = Angle()
		}
	case table.PlayerTypesColumn:
		if h, ok := c.Hetero(); ok && t == table.PlayerTypes {
			n = NewHetero(h, r.Server, r.Player)
		}
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %v in %s table", ErrUnsupportedColumn, c, t)
	}
	return n, nil
}

func (r Resolver) matchColumn(c table.MatchColumn) Normalizer {
	switch c {
	case table.BallX:
		return X(r.Server)
	case table.BallY:
		return Y(r.Server)
	case table.BallVX, table.BallVY:
		return BallSpeed(r.Server)
	}
	return nil
}

func (r Resolver) playerColumn(a table.PlayerAttr) Normalizer {
	switch a {
	case table.AttrX:
		return X(r.Server)
	case table.AttrY:
		return Y(r.Server)
	case table.AttrVX, table.AttrVY:
		return PlayerSpeed(r.Server)
	case table.AttrBody:
		return Angle()
	case table.AttrStamina:
		return Stamina(r.Server)
	case table.AttrStaminaReserve:
		return StaminaReserve(r.Server)
	}
	return nil
}

// PlayerAttrs are the per-player match attributes that get normalized.
func PlayerAttrs() []table.PlayerAttr {
	return []table.PlayerAttr{
		table.AttrX, table.AttrY, table.AttrVX, table.AttrVY,
		table.AttrBody, table.AttrStamina, table.AttrStaminaReserve,
	}
}

// Columns returns the columns normalized for a table of type t, in the order
// they are processed. Every returned column resolves.
func Columns(t table.Type) []table.Column {
	switch t {
	case table.Dash:
		return []table.Column{table.DashPower, table.DashDirection}
	case table.Turn:
		return []table.Column{table.TurnMoment}
	case table.Kick:
		return []table.Column{table.KickPower, table.KickDirection}
	case table.Tackle:
		return []table.Column{table.TackleDirection}
	case table.Match:
		out := []table.Column{table.BallX, table.BallY, table.BallVX, table.BallVY}
		for _, c := range table.PlayerColumns(PlayerAttrs()...) {
			out = append(out, c)
		}
		return out
	case table.PlayerTypes:
		// stamina_inc_max is not part of the extracted player types table
		var out []table.Column
		for _, h := range rcss.HeteroParams() {
			if h != rcss.StaminaIncMax {
				out = append(out, table.HeteroColumn(h))
			}
		}
		return out
	}
	return nil
}
