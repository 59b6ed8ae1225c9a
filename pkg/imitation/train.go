package imitation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
	"go.uber.org/zap"

	"github.com/montplusa/rcss2d-imitation/pkg/features"
)

// TrainingStats tracks metrics during training.
type TrainingStats struct {
	Epochs    int            `yaml:"epochs"`
	Examples  int            `yaml:"examples"`
	Accuracy  float64        `yaml:"accuracy"`
	TargetMSE float64        `yaml:"target_mse"`
	Commands  CommandMetrics `yaml:"commands"`
	StartTime time.Time      `yaml:"start_time"`
	Elapsed   time.Duration  `yaml:"elapsed"`
}

// Evaluation is the validation result of a model.
type Evaluation struct {
	Accuracy  float64
	TargetMSE float64
	Commands  CommandMetrics
}

// Evaluate runs p over s.
func Evaluate(p Policy, s Samples) (Evaluation, error) {
	ev := Evaluation{Commands: NewCommandMetrics(), Accuracy: math.NaN(), TargetMSE: math.NaN()}
	if s.Len() == 0 {
		return ev, nil
	}
	got := make([]string, s.Len())
	var se float64
	var n int
	for i := range s.Len() {
		a, err := p.Act(s.Classes[i].Input)
		if err != nil {
			return ev, err
		}
		got[i] = a.Command
		ev.Commands.Add(s.Commands[i], a.Command)
		for j, want := range s.Targets[i].Response {
			d := a.Params[j] - want
			se += d * d
			n++
		}
	}
	ev.Accuracy = Accuracy(s.Commands, got)
	ev.TargetMSE = se / float64(n)
	return ev, nil
}

// Trainer fits a Model on in-memory samples.
type Trainer struct {
	Options Options
	Logger  *zap.Logger
	// ReportInterval is how many epochs pass between progress reports.
	ReportInterval int
}

func (t *Trainer) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

// Train runs Options.Epochs epochs over train. When validation is not empty
// the weights of the best validation epoch are kept: accuracy for the
// classifier, mean squared error for the regressor.
func (t *Trainer) Train(ctx context.Context, m *Model, train, validation Samples) (TrainingStats, error) {
	o := t.Options
	if o.Epochs <= 0 {
		return TrainingStats{}, fmt.Errorf("epochs must be positive: %d", o.Epochs)
	}
	if train.Len() == 0 {
		return TrainingStats{}, errors.New("no training samples")
	}
	report := t.ReportInterval
	if report <= 0 {
		report = 1
	}
	logger := t.logger()

	logger.Info("starting training",
		zap.Int("examples", train.Len()),
		zap.Int("validation", validation.Len()),
		zap.Ints("hidden_layers", o.HiddenLayers),
		zap.String("activation", o.Activation),
		zap.String("optimizer", o.Optimizer),
		zap.Float64("learning_rate", o.LearningRate),
		zap.Int("epochs", o.Epochs),
	)

	stats := TrainingStats{
		Examples:  train.Len(),
		StartTime: time.Now(),
		Accuracy:  math.NaN(),
		TargetMSE: math.NaN(),
	}
	bestAcc, bestMSE := math.Inf(-1), math.Inf(1)
	var bestCls, bestReg [][][]float64
	lastTime := time.Now()

	for epoch := 0; epoch < o.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := t.epoch(m, train); err != nil {
			return stats, err
		}
		stats.Epochs = epoch + 1

		ev, err := Evaluate(m, validation)
		if err != nil {
			return stats, err
		}
		if ev.Accuracy > bestAcc {
			bestAcc = ev.Accuracy
			bestCls = m.Classifier.Dump().Weights
		}
		if ev.TargetMSE < bestMSE {
			bestMSE = ev.TargetMSE
			bestReg = m.Regressor.Dump().Weights
		}

		// Report progress at specified intervals
		if (epoch+1)%report == 0 || epoch == o.Epochs-1 {
			now := time.Now()
			perEpoch := now.Sub(lastTime) / time.Duration(min(report, epoch+1))
			eta := perEpoch * time.Duration(o.Epochs-epoch-1)
			logger.Info("epoch done",
				zap.Int("epoch", epoch+1),
				zap.Int("epochs", o.Epochs),
				zap.Float64("accuracy", ev.Accuracy),
				zap.Float64("target_mse", ev.TargetMSE),
				zap.String("elapsed", formatDuration(now.Sub(stats.StartTime))),
				zap.String("eta", formatDuration(eta)),
			)
			lastTime = now
		}
	}

	if bestCls != nil {
		m.Classifier.ApplyWeights(bestCls)
	}
	if bestReg != nil {
		m.Regressor.ApplyWeights(bestReg)
	}
	final, err := Evaluate(m, validation)
	if err != nil {
		return stats, err
	}
	stats.Accuracy = final.Accuracy
	stats.TargetMSE = final.TargetMSE
	stats.Commands = final.Commands
	stats.Elapsed = time.Since(stats.StartTime)

	logger.Info("training completed",
		zap.String("total", formatDuration(stats.Elapsed)),
		zap.Float64("accuracy", stats.Accuracy),
		zap.Float64("target_mse", stats.TargetMSE),
	)
	for _, cmd := range features.CommandTypes() {
		c := stats.Commands[cmd]
		logger.Debug("command metrics",
			zap.String("command", cmd),
			zap.Float64("accuracy", c.Accuracy()),
			zap.Float64("precision", c.Precision()),
			zap.Float64("recall", c.Recall()),
		)
	}
	return stats, nil
}

func (t *Trainer) epoch(m *Model, s Samples) error {
	for _, step := range []struct {
		net      *deep.Neural
		examples training.Examples
	}{
		{m.Classifier, s.Classes},
		{m.Regressor, s.Targets},
	} {
		solver, err := t.Options.solver()
		if err != nil {
			return err
		}
		// the trainer shuffles in place
		examples := slices.Clone(step.examples)
		// progress goes through zap, not the stdout stats printer
		trainer := training.NewTrainer(solver, 0)
		trainer.Train(step.net, examples, nil, 1)
	}
	return nil
}

// formatDuration returns a human-readable string for a duration
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
