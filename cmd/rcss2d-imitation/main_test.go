package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/montplusa/rcss2d-imitation/pkg/config"
	"github.com/montplusa/rcss2d-imitation/pkg/dataset"
	"github.com/montplusa/rcss2d-imitation/pkg/features"
	"github.com/montplusa/rcss2d-imitation/pkg/imitation"
	"github.com/montplusa/rcss2d-imitation/pkg/store"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

// execute runs the root command with a config file in a fresh directory.
func execute(t *testing.T, cfgYAML string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RCSS2D_WORKERS", "")
	t.Setenv("RCSS2D_STORE_PATH", "")
	t.Setenv("RCSS2D_LOG_LEVEL", "error")

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfgYAML), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTable(t *testing.T, path string, header []string, rows ...[]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, dataset.WriteFrame(path, &dataset.Frame{Header: header, Rows: rows}, dataset.IsGzip(path)))
}

func TestDataExtractAndNormalize(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTable(t, filepath.Join(in, "m1", "20230101-A_1-vs-B_0.kick.csv"),
		[]string{"running_time", "stopped_time", "global_command_order", "teamname", "unum", "kick_power", "kick_direction"},
		[]string{"1", "0", "3", "A", "9", "50", "90"},
	)
	writeTable(t, filepath.Join(in, "20230101-A_1-vs-B_0.serverparams.csv"), []string{"x"}, []string{"1"})

	stdout, err := execute(t, "", "data", "extract", "-i", in, "-o", out, "-c")
	require.NoError(t, err)
	assert.Contains(t, stdout, "written=1 skipped=1 failed=0")

	extracted := filepath.Join(out, "20230101-A_1-vs-B_0.kick.csv.gz")
	f, err := dataset.ReadFrame(extracted)
	require.NoError(t, err)
	assert.NotContains(t, f.Header, "global_command_order")

	normalized := t.TempDir()
	stdout, err = execute(t, "", "data", "normalize", "-i", out, "-o", normalized, "-c=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "written=1")

	f, err = dataset.ReadFrame(filepath.Join(normalized, "20230101-A_1-vs-B_0.kick.csv"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "0", "A", "9", "0.5", "0.5"}}, f.Rows)
}

func TestDataNormalizeReportsFailures(t *testing.T) {
	in := t.TempDir()
	writeTable(t, filepath.Join(in, "x.turn.csv"), []string{"running_time"}, []string{"1"})

	_, err := execute(t, "", "data", "normalize", "-i", in, "-o", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestDataIndex(t *testing.T) {
	in := t.TempDir()
	db := filepath.Join(t.TempDir(), "matches.db")
	header := []string{"id", "dash_power_rate", "player_decay", "inertia_moment", "kickable_margin", "kick_rand", "extra_stamina", "effort_min", "effort_max"}
	writeTable(t, filepath.Join(in, "20230101-A_1-vs-B_0.playertypes.csv"), header,
		[]string{"0", "0.006", "0.4", "5", "0.7", "0.1", "50", "0.6", "1"},
	)
	writeTable(t, filepath.Join(in, "20230101-A_1-vs-B_0.dash.csv"), []string{"dash_power"}, []string{"1"})

	stdout, err := execute(t, "", "data", "index", "-i", in, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "written=1 skipped=1 failed=0 matches=1")

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()
	rows, err := s.PlayerTypes(context.Background(), "20230101")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

// writeRawMatch writes the converter tables of one match with every column
// the extract step keeps. Player 7 of A kicks and player 3 of B turns in
// each of the given cycles; dash and tackle tables are empty.
func writeRawMatch(t *testing.T, dir, stem string, cycles int) {
	t.Helper()
	rawTable := func(tt table.Type, fill func(col string) string, n int) {
		header := append(dataset.ExtractColumns(tt), "global_command_order")
		var rows [][]string
		for i := 1; i <= n; i++ {
			row := make([]string, len(header))
			for j, col := range header {
				switch col {
				case "running_time", table.Cycle.String():
					row[j] = strconv.Itoa(i)
				case "stopped_time", table.Stopped.String():
					row[j] = "0"
				default:
					row[j] = fill(col)
				}
			}
			rows = append(rows, row)
		}
		writeTable(t, filepath.Join(dir, stem+tt.Suffix(true)), header, rows...)
	}
	rawTable(table.Match, func(col string) string {
		switch col {
		case table.LeftName.String():
			return "A"
		case table.RightName.String():
			return "B"
		}
		return "0"
	}, cycles)
	rawTable(table.PlayerTypes, func(string) string { return "0" }, 1)
	rawTable(table.Kick, func(col string) string {
		switch col {
		case "teamname":
			return "A"
		case "unum":
			return "7"
		}
		return "50"
	}, cycles)
	rawTable(table.Turn, func(col string) string {
		switch col {
		case "teamname":
			return "B"
		case "unum":
			return "3"
		}
		return "0"
	}, cycles)
	rawTable(table.Dash, nil, 0)
	rawTable(table.Tackle, nil, 0)
}

func TestDataAssembleAndTrain(t *testing.T) {
	raw, extracted, normalized := t.TempDir(), t.TempDir(), t.TempDir()
	writeRawMatch(t, raw, "20230101-A_1-vs-B_0", 6)

	_, err := execute(t, "", "data", "extract", "-i", raw, "-o", extracted, "-c")
	require.NoError(t, err)
	_, err = execute(t, "", "data", "normalize", "-i", extracted, "-o", normalized, "-c")
	require.NoError(t, err)

	data := filepath.Join(t.TempDir(), "training.csv.gz")
	stdout, err := execute(t, "", "data", "assemble", "-i", normalized, "-o", data)
	require.NoError(t, err)
	assert.Contains(t, stdout, "written=1 skipped=0 failed=0")
	assert.Contains(t, stdout, "kept=12")

	f, err := dataset.ReadFrame(data)
	require.NoError(t, err)
	require.Len(t, f.Rows, 12)
	assert.Equal(t, "kick", f.Rows[0][f.Index(features.ClassificationColumn)])
	assert.Equal(t, "0.5", f.Rows[0][f.Index("kick_power")])

	cfgYAML := "train:\n  hidden_layers: [4]\n  epochs: 1\n  batch_size: 4\n"
	stdout, err = execute(t, cfgYAML, "train", "--training", data, "-o", t.TempDir(), "--sessions", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "accuracy=")
}

func TestTrainOptionsMatchDefaults(t *testing.T) {
	assert.Equal(t, imitation.DefaultOptions(), trainOptions(config.DefaultConfig().Train))
}

func TestSchema(t *testing.T) {
	stdout, err := execute(t, "", "schema", "--normalized")
	require.NoError(t, err)
	assert.Contains(t, stdout, "inputs (303):")
	assert.Contains(t, stdout, "self_player_decay")
	assert.Contains(t, stdout, "playercommand_type: dash, turn, kick, tackle")
	assert.Contains(t, stdout, "normalized columns:")
}

func TestConfigWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	_, err := execute(t, "train:\n  epochs: 4\n", "config", "--write", path)
	require.NoError(t, err)

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Train.Epochs)
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "train:\n  optimizer: rmsprop\n", "schema")
	assert.ErrorContains(t, err, "invalid config")
}

func TestTrainSessions(t *testing.T) {
	header := slices.Concat(features.InputFeatures(), features.OutputColumns())
	var rows [][]string
	for i := range 8 {
		row := make([]string, 0, len(header))
		for range features.InputFeatures() {
			row = append(row, []string{"0.1", "-0.2"}[i%2])
		}
		row = append(row, features.CommandTypes()[i%4], "0.5", "", "", "", "", "")
		rows = append(rows, row)
	}
	data := filepath.Join(t.TempDir(), "train.csv.gz")
	writeTable(t, data, header, rows...)

	out := t.TempDir()
	cfgYAML := "train:\n  hidden_layers: [4]\n  epochs: 1\n  batch_size: 4\n  validation_split: 0.25\n"
	stdout, err := execute(t, cfgYAML, "train", "--training", data, "-o", out, "--sessions", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(stdout, "accuracy="))

	for _, s := range []string{"session-00", "session-01"} {
		dir := filepath.Join(out, s)
		assert.FileExists(t, filepath.Join(dir, "model", "classifier.json"))
		assert.FileExists(t, filepath.Join(dir, "model", "regressor.json"))
		assert.FileExists(t, filepath.Join(dir, "metrics.yaml"))
		log, err := os.ReadFile(filepath.Join(dir, "execution.log"))
		require.NoError(t, err)
		assert.Contains(t, string(log), "session done")
	}
	metrics, err := os.ReadFile(filepath.Join(out, "session-01", "metrics.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "seed: 2")
}

func TestSessionLogger(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()
	l, closeLog, err := sessionLogger(dir, 3)
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(filepath.Join(dir, "execution.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session":3`)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
