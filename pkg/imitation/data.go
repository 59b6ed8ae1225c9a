package imitation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/patrikeh/go-deep/training"

	"github.com/montplusa/rcss2d-imitation/pkg/dataset"
	"github.com/montplusa/rcss2d-imitation/pkg/features"
	"github.com/montplusa/rcss2d-imitation/pkg/normalize"
)

var (
	ErrMissingColumn = errors.New("missing training column")
	ErrEmptyFeature  = errors.New("empty feature value")
)

// Batch is a mini batch of training samples, column by column.
type Batch struct {
	Inputs   features.Batch
	Commands []string
	Targets  features.Batch
}

func newBatch(capacity int) *Batch {
	b := &Batch{
		Inputs:   features.Batch{},
		Commands: make([]string, 0, capacity),
		Targets:  features.Batch{},
	}
	for _, name := range features.InputFeatures() {
		b.Inputs[name] = make([]float64, 0, capacity)
	}
	for _, name := range features.RegressionColumns() {
		b.Targets[name] = make([]float64, 0, capacity)
	}
	return b
}

// Len returns the number of samples.
func (b *Batch) Len() int { return len(b.Commands) }

// Input returns sample i laid out as features.InputFeatures.
func (b *Batch) Input(i int) []float64 {
	names := features.InputFeatures()
	out := make([]float64, len(names))
	for j, name := range names {
		out[j] = b.Inputs[name][i]
	}
	return out
}

// Target returns the regression targets of sample i.
func (b *Batch) Target(i int) []float64 {
	names := features.RegressionColumns()
	out := make([]float64, len(names))
	for j, name := range names {
		out[j] = b.Targets[name][i]
	}
	return out
}

// OneHot encodes a command over features.CommandTypes. Commands outside the
// list, such as features.NoCommand, encode as all zeros.
func OneHot(command string) []float64 {
	out := make([]float64, len(features.CommandTypes()))
	if i := features.CommandIndex(command); i >= 0 {
		out[i] = 1
	}
	return out
}

// Examples converts the first n samples of b into classifier and regressor
// examples. n larger than b.Len() is clamped.
func Examples(b *Batch, n int) (classes, targets training.Examples) {
	n = min(n, b.Len())
	classes = make(training.Examples, n)
	targets = make(training.Examples, n)
	for i := range n {
		in := b.Input(i)
		classes[i] = training.Example{Input: in, Response: OneHot(b.Commands[i])}
		targets[i] = training.Example{Input: in, Response: b.Target(i)}
	}
	return classes, targets
}

// Loader streams a training table in batches.
type Loader struct {
	BatchSize int
	// Params supplies the server and player parameters of the velocity
	// correction. The zero value means normalize.Default.
	Params normalize.Resolver
}

// LoadBatches streams path in batches of batchSize using the v16 parameters.
func LoadBatches(path string, batchSize int, fn func(*Batch) error) error {
	return Loader{BatchSize: batchSize, Params: normalize.Default}.Load(path, fn)
}

type columnIndex struct {
	inputs  []int
	class   int
	targets []int
}

func indexColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	lookup := func(names []string) ([]int, error) {
		out := make([]int, len(names))
		for i, name := range names {
			j, ok := pos[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
			}
			out[i] = j
		}
		return out, nil
	}

	var idx columnIndex
	var err error
	if idx.inputs, err = lookup(features.InputFeatures()); err != nil {
		return idx, err
	}
	if idx.targets, err = lookup(features.RegressionColumns()); err != nil {
		return idx, err
	}
	class, err := lookup([]string{features.ClassificationColumn})
	if err != nil {
		return idx, err
	}
	idx.class = class[0]
	return idx, nil
}

// Load reads path and calls fn once per batch. Empty feature cells are an
// error, an empty class is features.NoCommand and an empty regression target
// is 0. Velocities are corrected once per batch before fn sees it.
func (l Loader) Load(path string, fn func(*Batch) error) error {
	if l.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive: %d", l.BatchSize)
	}
	rc, err := dataset.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	idx, err := indexColumns(header)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	inputs := features.InputFeatures()
	targets := features.RegressionColumns()
	params := l.Params
	if params == (normalize.Resolver{}) {
		params = normalize.Default
	}
	flush := func(b *Batch) error {
		if err := features.CorrectVelocities(b.Inputs, params.Server, params.Player); err != nil {
			return err
		}
		return fn(b)
	}

	b := newBatch(l.BatchSize)
	for row := 1; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		for i, name := range inputs {
			cell := strings.TrimSpace(rec[idx.inputs[i]])
			if cell == "" {
				return fmt.Errorf("%s row %d: %w: %s", path, row, ErrEmptyFeature, name)
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return fmt.Errorf("%s row %d: %s: %w", path, row, name, err)
			}
			b.Inputs[name] = append(b.Inputs[name], v)
		}
		for i, name := range targets {
			v := 0.0
			if cell := strings.TrimSpace(rec[idx.targets[i]]); cell != "" {
				if v, err = strconv.ParseFloat(cell, 64); err != nil {
					return fmt.Errorf("%s row %d: %s: %w", path, row, name, err)
				}
			}
			b.Targets[name] = append(b.Targets[name], v)
		}
		class := strings.TrimSpace(rec[idx.class])
		if class == "" {
			class = features.NoCommand
		}
		b.Commands = append(b.Commands, class)

		if b.Len() == l.BatchSize {
			if err := flush(b); err != nil {
				return err
			}
			b = newBatch(l.BatchSize)
		}
	}
	if b.Len() > 0 {
		return flush(b)
	}
	return nil
}

// Samples are whole tables held as go-deep examples. Classes, Targets and
// Commands are index aligned.
type Samples struct {
	Classes  training.Examples
	Targets  training.Examples
	Commands []string
}

// Len returns the number of samples.
func (s Samples) Len() int { return len(s.Commands) }

// Append adds the samples of b.
func (s *Samples) Append(b *Batch) {
	c, t := Examples(b, b.Len())
	s.Classes = append(s.Classes, c...)
	s.Targets = append(s.Targets, t...)
	s.Commands = append(s.Commands, b.Commands...)
}

// Split keeps the first samples for training and holds out the last
// fraction p for validation. The order is kept so that a split replays.
func (s Samples) Split(p float64) (train, validation Samples) {
	cut := s.Len() - int(float64(s.Len())*p)
	cut = max(0, min(cut, s.Len()))
	train = Samples{Classes: s.Classes[:cut], Targets: s.Targets[:cut], Commands: s.Commands[:cut]}
	validation = Samples{Classes: s.Classes[cut:], Targets: s.Targets[cut:], Commands: s.Commands[cut:]}
	return train, validation
}

// LoadSamples reads a whole training table.
func (l Loader) LoadSamples(path string) (Samples, error) {
	var s Samples
	err := l.Load(path, func(b *Batch) error {
		s.Append(b)
		return nil
	})
	return s, err
}
