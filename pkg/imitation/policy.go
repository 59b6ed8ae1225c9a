package imitation

import (
	"math/rand"
	"sync"

	"github.com/montplusa/rcss2d-imitation/pkg/features"
)

// Policy chooses an action for one input vector laid out as
// features.InputFeatures.
type Policy interface {
	Act(input []float64) (Action, error)
}

var (
	_ Policy = (*Model)(nil)
	_ Policy = (*PriorPolicy)(nil)
)

// PriorPolicy ignores its input: it samples a command from the class
// frequencies seen in Fit and answers with the mean parameters of that
// command. It is the baseline a trained model has to beat.
type PriorPolicy struct {
	mu     sync.Mutex
	rng    *rand.Rand
	counts map[string]int
	sums   map[string][]float64
	total  int
}

func NewPriorPolicy(seed int64) *PriorPolicy {
	return &PriorPolicy{
		rng:    rand.New(rand.NewSource(seed)),
		counts: map[string]int{},
		sums:   map[string][]float64{},
	}
}

// Fit accumulates the command frequencies and parameter sums of s. Commands
// other than features.CommandTypes and features.NoCommand are ignored.
func (p *PriorPolicy) Fit(s Samples) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, cmd := range s.Commands {
		if cmd != features.NoCommand && features.CommandIndex(cmd) < 0 {
			continue
		}
		p.counts[cmd]++
		p.total++
		sum, ok := p.sums[cmd]
		if !ok {
			sum = make([]float64, len(features.RegressionColumns()))
			p.sums[cmd] = sum
		}
		for j, v := range s.Targets[i].Response {
			sum[j] += v
		}
	}
}

// Act samples a command. Without any fitted sample it answers
// features.NoCommand.
func (p *PriorPolicy) Act([]float64) (Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	params := make([]float64, len(features.RegressionColumns()))
	if p.total == 0 {
		return Action{Command: features.NoCommand, Params: params}, nil
	}

	// walk the commands in a fixed order so a seed replays the same actions
	r := p.rng.Intn(p.total)
	for _, cmd := range append(features.CommandTypes(), features.NoCommand) {
		n := p.counts[cmd]
		if r >= n {
			r -= n
			continue
		}
		for j, s := range p.sums[cmd] {
			params[j] = s / float64(n)
		}
		return Action{
			Command:    cmd,
			Confidence: float64(n) / float64(p.total),
			Params:     params,
		}, nil
	}
	return Action{Command: features.NoCommand, Params: params}, nil
}
