// Package features defines the fixed training schema: the ordered input
// features of a sample, the ordered outputs, and the velocity correction
// applied to every batch before it reaches the network.
package features

import (
	"slices"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

const (
	// BallPrefix tags the ball features.
	BallPrefix = "ball"
	// SelfPrefix tags the features of the player issuing the command.
	SelfPrefix = "self"
)

// ClassificationColumn holds the command type of a sample.
const ClassificationColumn = "playercommand_type"

// NoCommand is the class of a row without any command.
const NoCommand = "nop"

var (
	positionFeatures = []string{"x", "y"}
	poseFeatures     = append(slices.Clone(positionFeatures), "body")
	velocityFeatures = []string{"vx", "vy"}

	heteroFeatures = []rcss.HeteroParam{
		rcss.DashPowerRate,
		rcss.EffortMin,
		rcss.EffortMax,
		rcss.ExtraStamina,
		rcss.InertiaMoment,
		rcss.KickRand,
		rcss.KickableMargin,
		rcss.PlayerDecay,
	}

	regressionColumns = []string{
		table.DashPower.String(),
		table.DashDirection.String(),
		table.TurnMoment.String(),
		table.KickPower.String(),
		table.KickDirection.String(),
		table.TackleDirection.String(),
	}

	commandTypes  = []string{"dash", "turn", "kick", "tackle"}
	inputFeatures = buildInputFeatures()
)

// Name joins an entity prefix and a feature, e.g. "l7_vx" or "self_body".
func Name(prefix, feature string) string {
	return prefix + "_" + feature
}

// PlayerFeatures returns the per-entity features in order: pose, velocity,
// then the heterogeneous parameters.
func PlayerFeatures() []string {
	out := slices.Concat(poseFeatures, velocityFeatures)
	for _, h := range heteroFeatures {
		out = append(out, h.String())
	}
	return out
}

// StateAttrs returns the match table attributes behind the leading entries of
// PlayerFeatures, in the same order.
func StateAttrs() []table.PlayerAttr {
	names := slices.Concat(poseFeatures, velocityFeatures)
	out := make([]table.PlayerAttr, len(names))
	for i, n := range names {
		out[i] = table.PlayerAttr(n)
	}
	return out
}

// HeteroFeatures returns the heterogeneous parameters closing PlayerFeatures.
func HeteroFeatures() []rcss.HeteroParam { return slices.Clone(heteroFeatures) }

// PlayerPrefixes returns the 22 player tags, l1..l11 then r1..r11.
func PlayerPrefixes() []string {
	out := make([]string, 0, 2*len(rcss.UniformNumbers()))
	for _, side := range rcss.Sides() {
		for _, u := range rcss.UniformNumbers() {
			out = append(out, table.PlayerTag(side, u))
		}
	}
	return out
}

func buildInputFeatures() []string {
	var out []string
	for _, f := range slices.Concat(positionFeatures, velocityFeatures) {
		out = append(out, Name(BallPrefix, f))
	}
	perPlayer := PlayerFeatures()
	for _, p := range PlayerPrefixes() {
		for _, f := range perPlayer {
			out = append(out, Name(p, f))
		}
	}
	for _, f := range perPlayer {
		out = append(out, Name(SelfPrefix, f))
	}
	return out
}

// InputFeatures returns the ordered input columns of the network. Tensors are
// built by position, so the order is part of the model format.
func InputFeatures() []string { return slices.Clone(inputFeatures) }

// InputDimension is len(InputFeatures()).
func InputDimension() int { return len(inputFeatures) }

// RegressionColumns returns the six command parameter targets.
func RegressionColumns() []string { return slices.Clone(regressionColumns) }

// OutputColumns returns the classification column followed by the
// regression targets.
func OutputColumns() []string {
	return append([]string{ClassificationColumn}, regressionColumns...)
}

// CommandTypes returns the command classes in one-hot index order.
func CommandTypes() []string { return slices.Clone(commandTypes) }

// CommandIndex returns the one-hot index of a command type, or -1.
func CommandIndex(command string) int {
	return slices.Index(commandTypes, command)
}
