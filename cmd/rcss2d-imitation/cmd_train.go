package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/montplusa/rcss2d-imitation/pkg/config"
	"github.com/montplusa/rcss2d-imitation/pkg/imitation"
)

var (
	trainingPath   string
	validationPath string
	sessionsDir    string
	sessions       int
	epochs         int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the command classifier and parameter regressor",
	Long: `Trains one model per session on a normalized training table. Each session
gets its own directory holding the model, its metrics and execution.log, and
its own seed (train.seed + session index).

Without --validation the last train.validation_split of the training table is
held out.`,
	RunE: runTrain,
}

func trainOptions(t config.TrainConfig) imitation.Options {
	return imitation.Options{
		HiddenLayers: t.HiddenLayers,
		Activation:   t.HiddenActivation,
		Optimizer:    t.Optimizer,
		LearningRate: t.LearningRate,
		Momentum:     t.Momentum,
		Beta1:        t.Beta1,
		Beta2:        t.Beta2,
		Epsilon:      t.Epsilon,
		Epochs:       t.Epochs,
		Seed:         t.Seed,
	}
}

// sessionLogger tees logger into <dir>/execution.log.
func sessionLogger(dir string, index int) (*zap.Logger, func() error, error) {
	f, err := os.OpenFile(filepath.Join(dir, "execution.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(f),
		zapcore.DebugLevel,
	)
	l := zap.New(zapcore.NewTee(logger.Core(), fileCore)).With(zap.Int("session", index))
	closeFn := func() error {
		_ = l.Sync()
		return f.Close()
	}
	return l, closeFn, nil
}

// sessionReport is written to <session>/metrics.yaml.
type sessionReport struct {
	Seed     int64                   `yaml:"seed"`
	Training imitation.TrainingStats `yaml:"training"`
	Baseline float64                 `yaml:"baseline_accuracy"`
}

func runTrain(cmd *cobra.Command, args []string) error {
	t := cfg.Train
	if cmd.Flags().Changed("sessions") {
		t.Sessions = sessions
	}
	if cmd.Flags().Changed("epochs") {
		t.Epochs = epochs
	}
	if t.Sessions <= 0 || t.Epochs <= 0 {
		return fmt.Errorf("sessions and epochs must be positive")
	}

	loader := imitation.Loader{BatchSize: t.BatchSize}
	samples, err := loader.LoadSamples(trainingPath)
	if err != nil {
		return fmt.Errorf("failed to load training data: %w", err)
	}
	var train, validation imitation.Samples
	if validationPath != "" {
		train = samples
		if validation, err = loader.LoadSamples(validationPath); err != nil {
			return fmt.Errorf("failed to load validation data: %w", err)
		}
	} else {
		train, validation = samples.Split(t.ValidationSplit)
	}
	logger.Info("loaded samples", zap.Int("training", train.Len()), zap.Int("validation", validation.Len()))

	for i := range t.Sessions {
		if err := runSession(cmd, t, i, train, validation); err != nil {
			return fmt.Errorf("session %d: %w", i, err)
		}
	}
	return nil
}

func runSession(cmd *cobra.Command, t config.TrainConfig, index int, train, validation imitation.Samples) error {
	dir := filepath.Join(sessionsDir, fmt.Sprintf("session-%02d", index))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	l, closeLog, err := sessionLogger(dir, index)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := trainOptions(t)
	opts.Seed = t.Seed + int64(index)
	l.Info("starting session", zap.String("dir", dir), zap.Int64("seed", opts.Seed))

	model, err := imitation.NewModel(opts)
	if err != nil {
		return err
	}
	trainer := &imitation.Trainer{Options: opts, Logger: l}
	stats, err := trainer.Train(cmd.Context(), model, train, validation)
	if err != nil {
		return err
	}
	if err := model.Save(filepath.Join(dir, "model")); err != nil {
		return err
	}

	prior := imitation.NewPriorPolicy(opts.Seed)
	prior.Fit(train)
	baseline, err := imitation.Evaluate(prior, validation)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(sessionReport{Seed: opts.Seed, Training: stats, Baseline: baseline.Accuracy})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "metrics.yaml"), data, 0o644); err != nil {
		return err
	}
	l.Info("session done",
		zap.Float64("accuracy", stats.Accuracy),
		zap.Float64("baseline_accuracy", baseline.Accuracy),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "%s accuracy=%.4f baseline=%.4f\n", dir, stats.Accuracy, baseline.Accuracy)
	return nil
}

func init() {
	trainCmd.Flags().StringVar(&trainingPath, "training", "", "Training table (required)")
	trainCmd.Flags().StringVar(&validationPath, "validation", "", "Validation table")
	trainCmd.Flags().StringVarP(&sessionsDir, "output", "o", "", "Sessions directory (required)")
	trainCmd.Flags().IntVar(&sessions, "sessions", 1, "Number of sessions (default: train.sessions)")
	trainCmd.Flags().IntVar(&epochs, "epochs", 0, "Epochs per session (default: train.epochs)")
	trainCmd.MarkFlagRequired("training")
	trainCmd.MarkFlagRequired("output")
}
