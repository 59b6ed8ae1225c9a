package dataset

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/montplusa/rcss2d-imitation/pkg/features"
	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

var (
	ErrIncompleteMatch   = errors.New("incomplete match group")
	ErrDuplicateTable    = errors.New("duplicated table in match group")
	ErrUnknownPlayerType = errors.New("unknown player type")
)

// Key columns lead every training row so a sample can be traced back to
// its match and cycle. The loader ignores them.
const (
	MatchKeyColumn   = "match"
	CycleKeyColumn   = "cycle"
	StoppedKeyColumn = "stopped_cycle"
	TeamKeyColumn    = "teamname"
	UniformKeyColumn = "unum"
)

// commandPriority is the order command tables are linked in. The converter
// lost the issue order of commands sent by one player in the same cycle, so
// the rarer command wins.
var commandPriority = []table.Type{table.Tackle, table.Kick, table.Turn, table.Dash}

// skippedCycles have no logged match state.
var skippedCycles = []int{0, 3000}

// TrainingHeader is the header of an assembled training table.
func TrainingHeader() []string {
	return slices.Concat(
		[]string{MatchKeyColumn, CycleKeyColumn, StoppedKeyColumn, TeamKeyColumn, UniformKeyColumn},
		features.InputFeatures(),
		features.OutputColumns(),
	)
}

// AssembleStats counts what happened to the command rows of a match.
type AssembleStats struct {
	Commands   int
	Kept       int
	Skipped    int // cycles 0 and 3000
	Duplicates int // player already linked in that cycle
	Unmatched  int // no state for the cycle or unknown team
}

func (s AssembleStats) String() string {
	return fmt.Sprintf("commands=%d kept=%d skipped=%d duplicates=%d unmatched=%d",
		s.Commands, s.Kept, s.Skipped, s.Duplicates, s.Unmatched)
}

func (s *AssembleStats) add(o AssembleStats) {
	s.Commands += o.Commands
	s.Kept += o.Kept
	s.Skipped += o.Skipped
	s.Duplicates += o.Duplicates
	s.Unmatched += o.Unmatched
}

type cycleKey struct {
	cycle, stopped int
}

type playerKey struct {
	cycleKey
	team    string
	uniform rcss.UniformNumber
}

func parseInt(cell string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("not an integer: %q", cell)
	}
	return int(v), nil
}

// matchGroup holds the tables of one match, keyed by type.
type matchGroup map[table.Type]*Frame

func readMatchGroup(paths []string) (matchGroup, error) {
	g := matchGroup{}
	for _, path := range paths {
		t, err := table.Classify(path)
		if err != nil {
			continue
		}
		if t != table.Match && t != table.PlayerTypes && !t.IsCommand() {
			continue
		}
		if _, ok := g[t]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, t)
		}
		f, err := ReadFrame(path)
		if err != nil {
			return nil, err
		}
		g[t] = f
	}
	for _, t := range append([]table.Type{table.Match, table.PlayerTypes}, commandPriority...) {
		if _, ok := g[t]; !ok {
			return nil, fmt.Errorf("%w: no %s table", ErrIncompleteMatch, t)
		}
	}
	return g, nil
}

// playerTypes maps a type id to its heterogeneous values in
// features.HeteroFeatures order.
func playerTypes(f *Frame) (map[int][]string, error) {
	id, err := f.mustIndex(table.TypeID.String())
	if err != nil {
		return nil, err
	}
	hetero := features.HeteroFeatures()
	cols := make([]int, len(hetero))
	for i, h := range hetero {
		if cols[i], err = f.mustIndex(table.HeteroColumn(h).String()); err != nil {
			return nil, err
		}
	}
	out := make(map[int][]string, len(f.Rows))
	for r, row := range f.Rows {
		typeID, err := parseInt(row[id])
		if err != nil {
			return nil, fmt.Errorf("playertypes row %d: %w", r+1, err)
		}
		values := make([]string, len(cols))
		for i, c := range cols {
			values[i] = row[c]
		}
		out[typeID] = values
	}
	return out, nil
}

// stateColumns indexes the match table columns a training row is built
// from.
type stateColumns struct {
	cycle      int
	stopped    int
	leftName   int
	rightName  int
	ball       []int
	players    map[string][]int // tag -> state attrs
	types      map[string]int   // tag -> type column
	typeValues map[int][]string
}

func newStateColumns(match, types *Frame) (*stateColumns, error) {
	s := &stateColumns{players: map[string][]int{}, types: map[string]int{}}
	var err error
	for _, c := range []struct {
		dst  *int
		name table.MatchColumn
	}{
		{&s.cycle, table.Cycle},
		{&s.stopped, table.Stopped},
		{&s.leftName, table.LeftName},
		{&s.rightName, table.RightName},
	} {
		if *c.dst, err = match.mustIndex(c.name.String()); err != nil {
			return nil, err
		}
	}
	for _, c := range []table.MatchColumn{table.BallX, table.BallY, table.BallVX, table.BallVY} {
		i, err := match.mustIndex(c.String())
		if err != nil {
			return nil, err
		}
		s.ball = append(s.ball, i)
	}
	for _, side := range rcss.Sides() {
		for _, u := range rcss.UniformNumbers() {
			tag := table.PlayerTag(side, u)
			for _, a := range features.StateAttrs() {
				i, err := match.mustIndex(table.PlayerColumnName(side, u, a))
				if err != nil {
					return nil, err
				}
				s.players[tag] = append(s.players[tag], i)
			}
			if s.types[tag], err = match.mustIndex(table.PlayerColumnName(side, u, table.AttrType)); err != nil {
				return nil, err
			}
		}
	}
	if s.typeValues, err = playerTypes(types); err != nil {
		return nil, err
	}
	return s, nil
}

// appendPlayer appends the PlayerFeatures of one player in a match row.
func (s *stateColumns) appendPlayer(out, row []string, tag string) ([]string, error) {
	for _, i := range s.players[tag] {
		out = append(out, row[i])
	}
	id, err := parseInt(row[s.types[tag]])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownPlayerType, tag, err)
	}
	values, ok := s.typeValues[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s has type %d", ErrUnknownPlayerType, tag, id)
	}
	return append(out, values...), nil
}

// BuildTrainingTable joins the tables of one match into one training row
// per player command: the ball, every player and the issuing player, each
// with the heterogeneous parameters of its type, then the command type and
// its parameters. The tables are expected to be extracted and normalized.
//
// A command is linked to the match state of its (running_time, stopped_time)
// cycle. A player keeps at most one command per cycle, chosen in the order
// tackle, kick, turn, dash. Commands in cycles 0 and 3000 are dropped.
func BuildTrainingTable(match string, paths []string) (*Frame, AssembleStats, error) {
	var stats AssembleStats
	g, err := readMatchGroup(paths)
	if err != nil {
		return nil, stats, err
	}
	s, err := newStateColumns(g[table.Match], g[table.PlayerTypes])
	if err != nil {
		return nil, stats, err
	}
	states := make(map[cycleKey]int, len(g[table.Match].Rows))
	for r, row := range g[table.Match].Rows {
		cycle, err := parseInt(row[s.cycle])
		if err != nil {
			return nil, stats, fmt.Errorf("match row %d: %w", r+1, err)
		}
		stopped, err := parseInt(row[s.stopped])
		if err != nil {
			return nil, stats, fmt.Errorf("match row %d: %w", r+1, err)
		}
		states[cycleKey{cycle, stopped}] = r
	}

	type sample struct {
		key cycleKey
		rec []string
	}
	var samples []sample
	targets := features.RegressionColumns()
	width := len(TrainingHeader())
	linked := map[playerKey]bool{}
	for _, t := range commandPriority {
		cmd := g[t]
		var keys [4]int
		for i, c := range []table.CommandColumn{table.RunningTime, table.StoppedTime, table.TeamName, table.UniformNum} {
			if keys[i], err = cmd.mustIndex(c.String()); err != nil {
				return nil, stats, fmt.Errorf("%s table: %w", t, err)
			}
		}
		// position of each regression target in this command table
		params := make([]int, len(targets))
		for i, name := range targets {
			params[i] = cmd.Index(name)
		}

		for r, row := range cmd.Rows {
			stats.Commands++
			cycle, err := parseInt(row[keys[0]])
			if err != nil {
				return nil, stats, fmt.Errorf("%s row %d: %w", t, r+1, err)
			}
			stopped, err := parseInt(row[keys[1]])
			if err != nil {
				return nil, stats, fmt.Errorf("%s row %d: %w", t, r+1, err)
			}
			if slices.Contains(skippedCycles, cycle) {
				stats.Skipped++
				continue
			}
			unum, err := parseInt(row[keys[3]])
			if err != nil {
				return nil, stats, fmt.Errorf("%s row %d: %w", t, r+1, err)
			}
			team := strings.TrimSpace(row[keys[2]])
			key := playerKey{cycleKey{cycle, stopped}, team, rcss.UniformNumber(unum)}

			state, ok := states[key.cycleKey]
			if !ok || !key.uniform.Valid() {
				stats.Unmatched++
				continue
			}
			mrow := g[table.Match].Rows[state]
			var side rcss.FieldSide
			switch team {
			case strings.TrimSpace(mrow[s.leftName]):
				side = rcss.Left
			case strings.TrimSpace(mrow[s.rightName]):
				side = rcss.Right
			default:
				stats.Unmatched++
				continue
			}
			if linked[key] {
				stats.Duplicates++
				continue
			}
			linked[key] = true

			rec := make([]string, 0, width)
			rec = append(rec, match, strconv.Itoa(cycle), strconv.Itoa(stopped), team, key.uniform.String())
			for _, i := range s.ball {
				rec = append(rec, mrow[i])
			}
			for _, tag := range features.PlayerPrefixes() {
				if rec, err = s.appendPlayer(rec, mrow, tag); err != nil {
					return nil, stats, fmt.Errorf("cycle %d: %w", cycle, err)
				}
			}
			if rec, err = s.appendPlayer(rec, mrow, table.PlayerTag(side, key.uniform)); err != nil {
				return nil, stats, fmt.Errorf("cycle %d: %w", cycle, err)
			}
			rec = append(rec, t.String())
			for _, i := range params {
				if i < 0 {
					rec = append(rec, "")
					continue
				}
				rec = append(rec, row[i])
			}
			samples = append(samples, sample{key.cycleKey, rec})
			stats.Kept++
		}
	}

	slices.SortStableFunc(samples, func(a, b sample) int {
		return cmp.Or(cmp.Compare(a.key.cycle, b.key.cycle), cmp.Compare(a.key.stopped, b.key.stopped))
	})
	out := &Frame{Header: TrainingHeader(), Rows: make([][]string, len(samples))}
	for i, smp := range samples {
		out.Rows[i] = smp.rec
	}
	return out, stats, nil
}

// Assemble builds the training table of every complete match group among
// paths and writes them, ordered by match, to dst. Groups missing a table
// are skipped; other failures are reported in the summary and their rows are
// left out.
func (p *Pipeline) Assemble(ctx context.Context, paths []string, dst string) (Summary, AssembleStats, error) {
	var mu sync.Mutex
	var total AssembleStats
	frames := map[string]*Frame{}
	groups := GroupByMatch(paths)
	stems := make([]string, 0, len(groups))
	for stem := range groups {
		stems = append(stems, stem)
	}
	slices.Sort(stems)

	logger := p.logger()
	sum, err := p.Run(ctx, stems, func(_ context.Context, stem string) (string, error) {
		f, stats, err := BuildTrainingTable(stem, groups[stem])
		if errors.Is(err, ErrIncompleteMatch) {
			return "", fmt.Errorf("%w: %w", ErrSkip, err)
		}
		if err != nil {
			return "", err
		}
		logger.Debug("assembled match",
			zap.String("match", stem),
			zap.Int("commands", stats.Commands),
			zap.Int("kept", stats.Kept),
			zap.Int("duplicates", stats.Duplicates),
			zap.Int("unmatched", stats.Unmatched),
		)
		mu.Lock()
		defer mu.Unlock()
		frames[stem] = f
		total.add(stats)
		return stem, nil
	})
	if err != nil {
		return sum, total, err
	}

	out := &Frame{Header: TrainingHeader()}
	for _, stem := range stems {
		if f, ok := frames[stem]; ok {
			out.Rows = append(out.Rows, f.Rows...)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return sum, total, err
	}
	if err := WriteFrame(dst, out, IsGzip(dst)); err != nil {
		return sum, total, err
	}
	logger.Info("training table written",
		zap.String("file", dst),
		zap.Int("matches", len(frames)),
		zap.Int("rows", len(out.Rows)),
	)
	return sum, total, nil
}
