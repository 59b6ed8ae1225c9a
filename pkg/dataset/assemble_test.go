package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/montplusa/rcss2d-imitation/pkg/dataset"
	"github.com/montplusa/rcss2d-imitation/pkg/features"
	"github.com/montplusa/rcss2d-imitation/pkg/imitation"
	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

func writeTable(t *testing.T, path string, header []string, rows ...[]string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, dataset.WriteFrame(path, &dataset.Frame{Header: header, Rows: rows}, dataset.IsGzip(path)))
	return path
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// playerX places left players at unum/100 and right players at -unum/100.
func playerX(side rcss.FieldSide, u rcss.UniformNumber) float64 {
	if side == rcss.Right {
		return -float64(u) / 100
	}
	return float64(u) / 100
}

// matchRow is the state of one cycle. Left players have type 0, right
// players type 1.
func matchRow(cycle int) []string {
	row := []string{strconv.Itoa(cycle), "0", "A", "B", "0.1", "0.2", "0", "0"}
	for _, side := range rcss.Sides() {
		typeID := "0"
		if side == rcss.Right {
			typeID = "1"
		}
		for _, u := range rcss.UniformNumbers() {
			row = append(row, typeID, formatFloat(playerX(side, u)), formatFloat(float64(cycle)/1000), "0", "0", "0.5")
		}
	}
	return row
}

func matchHeader() []string {
	header := []string{" cycle", " stopped", " l_name", " r_name", " b_x", " b_y", " b_vx", " b_vy"}
	for _, c := range table.PlayerColumns(table.AttrType, table.AttrX, table.AttrY, table.AttrVX, table.AttrVY, table.AttrBody) {
		header = append(header, c.String())
	}
	return header
}

func playerTypesTable(t *testing.T, path string) string {
	t.Helper()
	header := []string{"id"}
	for _, h := range features.HeteroFeatures() {
		header = append(header, table.HeteroColumn(h).String())
	}
	rows := [][]string{{"0"}, {"1"}}
	for range features.HeteroFeatures() {
		rows[0] = append(rows[0], "0")
		rows[1] = append(rows[1], "0.5")
	}
	return writeTable(t, path, header, rows...)
}

var commandKeys = []string{"running_time", "stopped_time", "teamname", "unum"}

// writeMatchGroup writes the tables of match m to dir. Player 7 of A kicks
// twice and dashes in cycle 1, 9 of A tackles and 3 of B turns in cycle 2.
// The remaining commands are dropped.
func writeMatchGroup(t *testing.T, dir, m string) []string {
	t.Helper()
	path := func(tt table.Type) string { return filepath.Join(dir, m+tt.Suffix(false)) }
	return []string{
		writeTable(t, path(table.Match), matchHeader(), matchRow(1), matchRow(2)),
		playerTypesTable(t, path(table.PlayerTypes)),
		writeTable(t, path(table.Tackle), append(commandKeys, "tackle_direction"),
			[]string{"2", "0", "A", "9", "0.75"},
			[]string{"3000", "0", "B", "2", "0.1"},
		),
		writeTable(t, path(table.Kick), append(commandKeys, "kick_power", "kick_direction"),
			[]string{"1", "0", "A", "7", "0.5", "-0.5"},
			[]string{"1", "0", "A", "7", "0.9", "0.9"},
		),
		writeTable(t, path(table.Turn), append(commandKeys, "turn_moment"),
			[]string{"2", "0", "B", "3", "0.25"},
		),
		writeTable(t, path(table.Dash), append(commandKeys, "dash_power", "dash_direction"),
			[]string{"1", "0", "A", "7", "0.2", "0"},
			[]string{"0", "0", "A", "1", "0.2", "0"},
			[]string{"5", "0", "A", "2", "0.2", "0"},
			[]string{"1", "0", "C", "4", "0.2", "0"},
		),
	}
}

func TestBuildTrainingTable(t *testing.T) {
	paths := writeMatchGroup(t, t.TempDir(), "m")
	f, stats, err := dataset.BuildTrainingTable("m", paths)
	require.NoError(t, err)

	assert.Equal(t, dataset.AssembleStats{Commands: 9, Kept: 3, Skipped: 2, Duplicates: 2, Unmatched: 2}, stats)
	assert.Equal(t, dataset.TrainingHeader(), f.Header)
	require.Len(t, f.Rows, 3)

	cell := func(row int, name string) string {
		i := f.Index(name)
		require.GreaterOrEqual(t, i, 0, name)
		return f.Rows[row][i]
	}
	// sorted by cycle, priority order within a cycle
	for i, want := range [][]string{
		{"m", "1", "0", "A", "7", "kick"},
		{"m", "2", "0", "A", "9", "tackle"},
		{"m", "2", "0", "B", "3", "turn"},
	} {
		got := append(f.Rows[i][:5:5], cell(i, features.ClassificationColumn))
		assert.Equal(t, want, got)
	}

	assert.Equal(t, "0.5", cell(0, "kick_power"), "first kick of the cycle wins")
	assert.Equal(t, "-0.5", cell(0, "kick_direction"))
	assert.Equal(t, "", cell(0, "dash_power"))
	assert.Equal(t, "0.75", cell(1, "tackle_direction"))
	assert.Equal(t, "0.25", cell(2, "turn_moment"))

	assert.Equal(t, "0.07", cell(0, "self_x"))
	assert.Equal(t, "0", cell(0, "self_player_decay"))
	assert.Equal(t, "-0.03", cell(2, "self_x"))
	assert.Equal(t, "0.5", cell(2, "self_player_decay"))
	assert.Equal(t, "0.5", cell(0, "r11_kick_rand"))
	assert.Equal(t, "0.002", cell(2, "l1_y"))
	assert.Equal(t, "0.1", cell(1, "ball_x"))
}

func TestBuildTrainingTableFeedsLoader(t *testing.T) {
	dir := t.TempDir()
	f, _, err := dataset.BuildTrainingTable("m", writeMatchGroup(t, dir, "m"))
	require.NoError(t, err)
	path := writeTable(t, filepath.Join(dir, "out", "training.csv.gz"), f.Header, f.Rows...)

	var commands []string
	var selfX, power []float64
	err = imitation.LoadBatches(path, 2, func(b *imitation.Batch) error {
		commands = append(commands, b.Commands...)
		selfX = append(selfX, b.Inputs["self_x"]...)
		power = append(power, b.Targets["kick_power"]...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"kick", "tackle", "turn"}, commands)
	assert.Equal(t, []float64{0.07, 0.09, -0.03}, selfX)
	assert.Equal(t, []float64{0.5, 0, 0}, power)
}

func TestBuildTrainingTableErrors(t *testing.T) {
	t.Run("incomplete", func(t *testing.T) {
		paths := writeMatchGroup(t, t.TempDir(), "m")
		_, _, err := dataset.BuildTrainingTable("m", paths[:len(paths)-1])
		assert.ErrorIs(t, err, dataset.ErrIncompleteMatch)
	})
	t.Run("duplicated", func(t *testing.T) {
		dir := t.TempDir()
		paths := writeMatchGroup(t, dir, "m")
		extra := writeTable(t, filepath.Join(dir, "m.turn.csv.gz"), append(commandKeys, "turn_moment"))
		_, _, err := dataset.BuildTrainingTable("m", append(paths, extra))
		assert.ErrorIs(t, err, dataset.ErrDuplicateTable)
	})
	t.Run("unknown type", func(t *testing.T) {
		dir := t.TempDir()
		paths := writeMatchGroup(t, dir, "m")
		row := matchRow(1)
		row[len(matchHeader())-6] = "7" // r11_t
		writeTable(t, paths[0], matchHeader(), row)
		_, _, err := dataset.BuildTrainingTable("m", paths)
		assert.ErrorIs(t, err, dataset.ErrUnknownPlayerType)
	})
}

func TestPipelineAssemble(t *testing.T) {
	defer goleak.VerifyNone(t)

	in := t.TempDir()
	paths := writeMatchGroup(t, in, "m1")
	paths = append(paths, writeMatchGroup(t, in, "m0")...)
	paths = append(paths, writeTable(t, filepath.Join(in, "m2.match.csv"), matchHeader(), matchRow(1)))
	dst := filepath.Join(t.TempDir(), "sets", "training.csv")

	p := &dataset.Pipeline{Workers: 2}
	sum, stats, err := p.Assemble(context.Background(), paths, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"m0", "m1"}, sum.Written)
	assert.Equal(t, []string{"m2"}, sum.Skipped)
	assert.Empty(t, sum.Failures)
	assert.Equal(t, 6, stats.Kept)

	f, err := dataset.ReadFrame(dst)
	require.NoError(t, err)
	require.Len(t, f.Rows, 6)
	assert.Equal(t, "m0", f.Rows[0][0])
	assert.Equal(t, "m1", f.Rows[5][0])
}
