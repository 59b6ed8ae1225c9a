package imitation

import (
	"math"

	"github.com/montplusa/rcss2d-imitation/pkg/features"
)

// Confusion counts one-vs-rest outcomes for a single command.
type Confusion struct {
	TP int `yaml:"tp"`
	FP int `yaml:"fp"`
	TN int `yaml:"tn"`
	FN int `yaml:"fn"`
}

func (c Confusion) total() int { return c.TP + c.FP + c.TN + c.FN }

// Accuracy is NaN before any sample was added.
func (c Confusion) Accuracy() float64 {
	return ratio(c.TP+c.TN, c.total())
}

// Precision is NaN when the command was never predicted.
func (c Confusion) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP)
}

// Recall is NaN when the command never occurred.
func (c Confusion) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return math.NaN()
	}
	return float64(a) / float64(b)
}

// CommandMetrics holds a confusion count per command type.
type CommandMetrics map[string]*Confusion

func NewCommandMetrics() CommandMetrics {
	m := CommandMetrics{}
	for _, c := range features.CommandTypes() {
		m[c] = &Confusion{}
	}
	return m
}

// Add records one sample labelled want and predicted got.
func (m CommandMetrics) Add(want, got string) {
	for cmd, c := range m {
		switch {
		case want == cmd && got == cmd:
			c.TP++
		case got == cmd:
			c.FP++
		case want == cmd:
			c.FN++
		default:
			c.TN++
		}
	}
}

// Accuracy is the share of samples whose command was predicted exactly.
// features.NoCommand samples are never matched since the classifier has no
// output for them.
func Accuracy(want, got []string) float64 {
	hits := 0
	for i := range want {
		if want[i] == got[i] {
			hits++
		}
	}
	return ratio(hits, len(want))
}
