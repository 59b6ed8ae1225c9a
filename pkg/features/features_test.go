package features

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
)

func TestInputFeaturesLayout(t *testing.T) {
	got := InputFeatures()
	require.Len(t, got, 4+22*13+13)
	assert.Equal(t, len(got), InputDimension())

	want := []string{"ball_x", "ball_y", "ball_vx", "ball_vy",
		"l1_x", "l1_y", "l1_body", "l1_vx", "l1_vy",
		"l1_dash_power_rate", "l1_effort_min", "l1_effort_max", "l1_extra_stamina",
		"l1_inertia_moment", "l1_kick_rand", "l1_kickable_margin", "l1_player_decay",
		"l2_x",
	}
	if diff := cmp.Diff(want, got[:len(want)]); diff != "" {
		t.Errorf("InputFeatures() prefix mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "r1_x", got[4+11*13])
	assert.Equal(t, "r11_player_decay", got[4+22*13-1])
	assert.Equal(t, "self_x", got[4+22*13])
	assert.Equal(t, "self_player_decay", got[len(got)-1])
}

func TestInputFeaturesStable(t *testing.T) {
	first := InputFeatures()
	first[0] = "mutated"
	for range 3 {
		if diff := cmp.Diff(InputFeatures()[1:], first[1:]); diff != "" {
			t.Fatalf("InputFeatures() changed between calls:\n%s", diff)
		}
	}
	assert.Equal(t, "ball_x", InputFeatures()[0])
}

func TestOutputColumns(t *testing.T) {
	want := []string{
		"playercommand_type", "dash_power", "dash_direction", "turn_moment",
		"kick_power", "kick_direction", "tackle_direction",
	}
	if diff := cmp.Diff(want, OutputColumns()); diff != "" {
		t.Errorf("OutputColumns() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want[1:], RegressionColumns())
	assert.Equal(t, []string{"dash", "turn", "kick", "tackle"}, CommandTypes())
	assert.Equal(t, 2, CommandIndex("kick"))
	assert.Equal(t, -1, CommandIndex(NoCommand))
}

func TestCorrectVelocities(t *testing.T) {
	sp, pp := rcss.ServerParamsV16, rcss.PlayerParamsV16
	ballDiv := (1 + sp.BallRand) * sp.BallDecay
	playerDiv := (1 + sp.PlayerRand) * sp.PlayerDecay

	b := Batch{
		"ball_vx":           {ballDiv, 2 * ballDiv},
		"ball_vy":           {0, -ballDiv},
		"l3_vx":             {playerDiv, playerDiv},
		"l3_vy":             {-playerDiv, 0},
		"r5_vx":             {1, 1},
		"r5_player_decay":   {0, 1},
		"self_vy":           {1, 1},
		"self_player_decay": {-1, 1},
		"ball_x":            {0.5, 0.5},
	}
	require.NoError(t, CorrectVelocities(b, sp, pp))

	// l3 has no decay feature and uses the server default. A normalized
	// decay of 0 is the default and 1 is the default plus half the delta
	// width. self_vy is corrected even though self_vx is absent.
	want := Batch{
		"ball_vx":           {1, 2},
		"ball_vy":           {0, -1},
		"l3_vx":             {1, 1},
		"l3_vy":             {-1, 0},
		"r5_vx":             {1 / playerDiv, 1 / ((1 + sp.PlayerRand) * 0.5)},
		"r5_player_decay":   {0, 1},
		"self_vy":           {1 / ((1 + sp.PlayerRand) * 0.3), 1 / ((1 + sp.PlayerRand) * 0.5)},
		"self_player_decay": {-1, 1},
		"ball_x":            {0.5, 0.5},
	}
	if diff := cmp.Diff(want, b, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("CorrectVelocities() mismatch (-want +got):\n%s", diff)
	}
}

func TestCorrectVelocitiesRagged(t *testing.T) {
	b := Batch{"ball_vx": {1, 2}, "ball_vy": {1}}
	err := CorrectVelocities(b, rcss.ServerParamsV16, rcss.PlayerParamsV16)
	assert.ErrorIs(t, err, ErrRaggedBatch)
	assert.Equal(t, []float64{1, 2}, b["ball_vx"], "nothing is touched on error")

	n, err := Batch{}.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}
