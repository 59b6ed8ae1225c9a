package dataset

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/montplusa/rcss2d-imitation/pkg/normalize"
	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

// ErrSkip marks a table that the operation does not handle.
var ErrSkip = errors.New("table skipped")

// extractedPlayerAttrs are the per-player match columns kept for training.
// t links a player to its heterogeneous type, goalie and discarded are used
// to clean frames.
var extractedPlayerAttrs = []table.PlayerAttr{
	table.AttrType,
	table.AttrGoalie,
	table.AttrDiscarded,
	table.AttrX,
	table.AttrY,
	table.AttrVX,
	table.AttrVY,
	table.AttrBody,
	table.AttrStamina,
	table.AttrStaminaReserve,
}

// ExtractColumns returns the raw columns kept from a table of type t, or nil
// when the table is not extracted.
func ExtractColumns(t table.Type) []string {
	var cols []table.Column
	if t.IsCommand() {
		cols = append(cols, table.RunningTime, table.StoppedTime, table.TeamName, table.UniformNum)
	}
	switch t {
	case table.Dash:
		cols = append(cols, table.DashPower, table.DashDirection)
	case table.Kick:
		cols = append(cols, table.KickPower, table.KickDirection)
	case table.Turn:
		cols = append(cols, table.TurnMoment)
	case table.Tackle:
		cols = append(cols, table.TackleDirection)
	case table.Match:
		cols = append(cols,
			table.Cycle, table.Stopped, table.PlayMode, table.LeftName, table.RightName,
			table.BallX, table.BallY, table.BallVX, table.BallVY,
		)
		for _, c := range table.PlayerColumns(extractedPlayerAttrs...) {
			cols = append(cols, c)
		}
	case table.PlayerTypes:
		cols = append(cols, table.TypeID)
		for _, h := range rcss.HeteroParams() {
			if h != rcss.StaminaIncMax {
				cols = append(cols, table.HeteroColumn(h))
			}
		}
	default:
		return nil
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.String()
	}
	return out
}

// OutputPath is where the processed version of src is written.
func OutputPath(outDir, src string, t table.Type, compress bool) string {
	return filepath.Join(outDir, MatchStem(src)+t.Suffix(compress))
}

// ExtractFile keeps the training columns of one table and writes them to
// outDir. It returns the written path.
func ExtractFile(src, outDir string, compress bool) (string, error) {
	t, err := table.Classify(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSkip, err)
	}
	cols := ExtractColumns(t)
	if cols == nil {
		return "", fmt.Errorf("%w: %s table", ErrSkip, t)
	}
	f, err := ReadFrame(src)
	if err != nil {
		return "", err
	}
	f, err = f.Project(cols)
	if err != nil {
		return "", fmt.Errorf("%s: %w", src, err)
	}
	dst := OutputPath(outDir, src, t, compress)
	if err := WriteFrame(dst, f, compress); err != nil {
		return "", err
	}
	return dst, nil
}

// NormalizeFile normalizes every supported column of one table and writes it
// to outDir. Columns and rows are kept as they are.
func NormalizeFile(src, outDir string, compress bool, r normalize.Resolver) (string, error) {
	t, err := table.Classify(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSkip, err)
	}
	cols := normalize.Columns(t)
	if len(cols) == 0 {
		return "", fmt.Errorf("%w: %s table", ErrSkip, t)
	}
	f, err := ReadFrame(src)
	if err != nil {
		return "", err
	}
	if err := NormalizeFrame(f, t, cols, r); err != nil {
		return "", fmt.Errorf("%s: %w", src, err)
	}
	dst := OutputPath(outDir, src, t, compress)
	if err := WriteFrame(dst, f, compress); err != nil {
		return "", err
	}
	return dst, nil
}

// NormalizeFrame applies the normalizer of each column in cols to f.
func NormalizeFrame(f *Frame, t table.Type, cols []table.Column, r normalize.Resolver) error {
	for _, c := range cols {
		n, err := r.Resolve(t, c)
		if err != nil {
			return err
		}
		values, err := f.Float64s(c.String())
		if err != nil {
			return err
		}
		n.Inplace(values)
		if err := f.SetFloat64s(c.String(), values); err != nil {
			return err
		}
	}
	return nil
}
