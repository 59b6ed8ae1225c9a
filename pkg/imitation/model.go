// Package imitation trains and runs the behavior cloning networks: a
// classifier choosing the command type and a regressor predicting the
// normalized command parameters.
package imitation

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"github.com/patrikeh/go-deep"
	"github.com/patrikeh/go-deep/training"
	"gopkg.in/yaml.v3"

	"github.com/montplusa/rcss2d-imitation/pkg/features"
)

var (
	ErrInputSize      = errors.New("input size does not match the feature schema")
	ErrSchemaMismatch = errors.New("saved model was trained on another feature schema")
)

// Options configures the networks and the trainer. Batching and the
// validation split belong to Loader and Samples.Split.
type Options struct {
	HiddenLayers []int
	Activation   string // relu, tanh, sigmoid, linear
	Optimizer    string // adam, sgd
	LearningRate float64
	Momentum     float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	Epochs       int
	Seed         int64
}

func DefaultOptions() Options {
	return Options{
		HiddenLayers: []int{512, 256, 128},
		Activation:   "relu",
		Optimizer:    "adam",
		LearningRate: 0.001,
		Momentum:     0.9,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		Epochs:       10,
		Seed:         1,
	}
}

func (o Options) activation() (deep.ActivationType, error) {
	switch o.Activation {
	case "relu":
		return deep.ActivationReLU, nil
	case "tanh":
		return deep.ActivationTanh, nil
	case "sigmoid":
		return deep.ActivationSigmoid, nil
	case "linear":
		return deep.ActivationLinear, nil
	}
	return 0, fmt.Errorf("unknown activation: %s", o.Activation)
}

func (o Options) solver() (training.Solver, error) {
	switch o.Optimizer {
	case "adam":
		return training.NewAdam(o.LearningRate, o.Beta1, o.Beta2, o.Epsilon), nil
	case "sgd":
		return training.NewSGD(o.LearningRate, o.Momentum, 0.0, false), nil
	}
	return nil, fmt.Errorf("unknown optimizer: %s", o.Optimizer)
}

// NetworkConfig defines the architecture of one network.
type NetworkConfig struct {
	Name         string
	InputSize    int
	HiddenLayers []int
	Outputs      int
	Activation   deep.ActivationType
	Mode         deep.Mode
}

func newNetwork(c NetworkConfig, rng *rand.Rand) *deep.Neural {
	return deep.NewNeural(&deep.Config{
		Inputs:     c.InputSize,
		Layout:     append(slices.Clone(c.HiddenLayers), c.Outputs),
		Activation: c.Activation,
		Mode:       c.Mode,
		Weight:     func() float64 { return rng.NormFloat64() * 0.1 },
		Bias:       true,
	})
}

// Action is the decision of a policy for one sample.
type Action struct {
	Command    string
	Confidence float64
	// Params holds the normalized regression targets in
	// features.RegressionColumns order.
	Params []float64
}

// Param returns the predicted value of a regression column.
func (a Action) Param(column string) (float64, bool) {
	i := slices.Index(features.RegressionColumns(), column)
	if i < 0 || i >= len(a.Params) {
		return 0, false
	}
	return a.Params[i], true
}

// Model pairs the command classifier with the parameter regressor.
type Model struct {
	Classifier *deep.Neural
	Regressor  *deep.Neural
}

// NewModel builds untrained networks shaped by o. Initial weights are drawn
// from o.Seed.
func NewModel(o Options) (*Model, error) {
	act, err := o.activation()
	if err != nil {
		return nil, err
	}
	if len(o.HiddenLayers) == 0 {
		return nil, errors.New("at least one hidden layer is required")
	}
	rng := rand.New(rand.NewSource(o.Seed))
	base := NetworkConfig{
		InputSize:    features.InputDimension(),
		HiddenLayers: o.HiddenLayers,
		Activation:   act,
	}

	cls := base
	cls.Name = "classifier"
	cls.Outputs = len(features.CommandTypes())
	cls.Mode = deep.ModeMultiClass

	reg := base
	reg.Name = "regressor"
	reg.Outputs = len(features.RegressionColumns())
	reg.Mode = deep.ModeRegression

	return &Model{
		Classifier: newNetwork(cls, rng),
		Regressor:  newNetwork(reg, rng),
	}, nil
}

// Predict runs both networks on one input vector laid out as
// features.InputFeatures.
func (m *Model) Predict(input []float64) (Action, error) {
	if len(input) != features.InputDimension() {
		return Action{}, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(input), features.InputDimension())
	}
	probs := m.Classifier.Predict(input)
	best := argmax(probs)

	params := m.Regressor.Predict(input)
	for i, v := range params {
		params[i] = max(min(v, 1), -1)
	}
	return Action{
		Command:    features.CommandTypes()[best],
		Confidence: probs[best],
		Params:     params,
	}, nil
}

// Act implements Policy.
func (m *Model) Act(input []float64) (Action, error) { return m.Predict(input) }

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

const (
	classifierFile = "classifier.json"
	regressorFile  = "regressor.json"
	schemaFile     = "schema.yaml"
)

// schema records the column layout a model was trained on.
type schema struct {
	Inputs   []string `yaml:"inputs"`
	Commands []string `yaml:"commands"`
	Targets  []string `yaml:"targets"`
}

func currentSchema() schema {
	return schema{
		Inputs:   features.InputFeatures(),
		Commands: features.CommandTypes(),
		Targets:  features.RegressionColumns(),
	}
}

// Save writes both networks and the feature schema to dir.
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	for name, n := range map[string]*deep.Neural{classifierFile: m.Classifier, regressorFile: m.Regressor} {
		data, err := n.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(currentSchema())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, schemaFile), data, 0o644)
}

// Load reads a model written by Save. It fails when the model was trained
// on a different feature layout.
func Load(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, schemaFile))
	if err != nil {
		return nil, err
	}
	var s schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	want := currentSchema()
	if !slices.Equal(s.Inputs, want.Inputs) || !slices.Equal(s.Commands, want.Commands) || !slices.Equal(s.Targets, want.Targets) {
		return nil, ErrSchemaMismatch
	}

	load := func(name string) (*deep.Neural, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		n, err := deep.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}
		return n, nil
	}
	cls, err := load(classifierFile)
	if err != nil {
		return nil, err
	}
	reg, err := load(regressorFile)
	if err != nil {
		return nil, err
	}
	return &Model{Classifier: cls, Regressor: reg}, nil
}
