package features

import (
	"errors"
	"fmt"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
)

var ErrRaggedBatch = errors.New("batch columns differ in length")

// Batch holds the values of one mini batch, column by column.
type Batch map[string][]float64

// Len returns the row count shared by every column.
func (b Batch) Len() (int, error) {
	n := -1
	for name, v := range b {
		if n == -1 {
			n = len(v)
			continue
		}
		if len(v) != n {
			return 0, fmt.Errorf("%w: %s has %d rows, want %d", ErrRaggedBatch, name, len(v), n)
		}
	}
	return max(n, 0), nil
}

// CorrectVelocities rescales the velocity columns of b in place.
//
// The dataset velocities were scaled by the maximum speed only, but the server
// also applies decay and noise every cycle. Each velocity is divided by
// (1+rand)*decay, where decay is the ball decay for the ball and, for players,
// the denormalized player_decay feature of the same entity when the batch has
// it or the server default when it does not. Missing columns are skipped.
func CorrectVelocities(b Batch, sp rcss.ServerParams, pp rcss.PlayerParams) error {
	if _, err := b.Len(); err != nil {
		return err
	}

	ballDiv := (1 + sp.BallRand) * sp.BallDecay
	for _, f := range velocityFeatures {
		if v, ok := b[Name(BallPrefix, f)]; ok {
			for i := range v {
				v[i] /= ballDiv
			}
		}
	}

	for _, prefix := range append(PlayerPrefixes(), SelfPrefix) {
		correctPlayer(b, prefix, sp, pp)
	}
	return nil
}

func correctPlayer(b Batch, prefix string, sp rcss.ServerParams, pp rcss.PlayerParams) {
	var vels [][]float64
	for _, f := range velocityFeatures {
		if v, ok := b[Name(prefix, f)]; ok {
			vels = append(vels, v)
		}
	}
	if len(vels) == 0 {
		return
	}

	// one decay per entity, shared by both axes
	decays, perRow := b[Name(prefix, rcss.PlayerDecay.String())]
	halfWidth := (pp.PlayerDecayDelta.Max - pp.PlayerDecayDelta.Min) / 2
	for _, v := range vels {
		for i := range v {
			// without a decay column the raw server default is used, not
			// the denormalized one (0.44 for v16)
			decay := sp.PlayerDecay
			if perRow {
				decay += halfWidth * decays[i]
			}
			v[i] /= (1 + sp.PlayerRand) * decay
		}
	}
}

