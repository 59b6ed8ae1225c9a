package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"20230101-A_1-vs-B_2.dash.csv.gz", Dash},
		{"20230101-A_1-vs-B_2.dash.csv", Dash},
		{"/data/logs/20230101-A_1-vs-B_2.kick.csv", Kick},
		{"x.turn.csv.gz", Turn},
		{"x.tackle.csv", Tackle},
		{"x.match.csv.gz", Match},
		{"x.playertypes.csv", PlayerTypes},
		{"x.playerparams.csv", PlayerParams},
		{"x.serverparams.csv.gz", ServerParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyUnrecognized(t *testing.T) {
	for _, name := range []string{"x.csv", "x.dash.tsv", "x.dash.csv.bz2", "dash"} {
		_, err := Classify(name)
		assert.ErrorIs(t, err, ErrUnrecognizedTableType, name)
	}
}

func TestTypeSuffix(t *testing.T) {
	assert.Equal(t, ".match.csv", Match.Suffix(false))
	assert.Equal(t, ".playertypes.csv.gz", PlayerTypes.Suffix(true))
	assert.Equal(t, "Type(42)", Type(42).String())
}

func TestPlayerColumnName(t *testing.T) {
	assert.Equal(t, " l7_vx", PlayerColumnName(rcss.Left, 7, AttrVX))
	assert.Equal(t, " r11_stamina_cap", PlayerColumnName(rcss.Right, 11, AttrStaminaReserve))
	assert.Equal(t, "l7", PlayerTag(rcss.Left, 7))

	c, err := NewPlayerColumn(rcss.Right, 3, AttrBody)
	require.NoError(t, err)
	assert.Equal(t, " r3_body", c.String())
}

func TestParsePlayerColumnRoundTrip(t *testing.T) {
	for _, c := range PlayerColumns(PlayerAttrs()...) {
		got, err := ParsePlayerColumn(c.String())
		require.NoError(t, err, c.String())
		assert.Equal(t, c, got)
	}
}

func TestParsePlayerColumnInvalid(t *testing.T) {
	for _, name := range []string{
		"l7_vx",     // missing leading space
		" l7vx",     // missing separator
		" x7_vx",    // bad side
		" l0_vx",    // uniform too small
		" l12_vx",   // uniform too large
		" l07_vx",   // not canonical
		" l+7_vx",   // not canonical
		" l7_speed", // unknown attribute
		" l_vx",     // missing uniform
		" _vx",      // empty tag
		" b_x",      // general match column
		"",          // empty
	} {
		_, err := ParsePlayerColumn(name)
		assert.ErrorIs(t, err, ErrInvalidPlayerColumn, "%q", name)
	}
}

func TestNewPlayerColumnInvalid(t *testing.T) {
	_, err := NewPlayerColumn("x", 1, AttrX)
	assert.ErrorIs(t, err, rcss.ErrInvalidSide)
	_, err = NewPlayerColumn(rcss.Left, 12, AttrX)
	assert.ErrorIs(t, err, rcss.ErrInvalidUniform)
	_, err = NewPlayerColumn(rcss.Left, 1, "nope")
	assert.ErrorIs(t, err, ErrInvalidPlayerColumn)
}

func TestPlayerColumnsOrder(t *testing.T) {
	cols := PlayerColumns(AttrX, AttrY)
	require.Len(t, cols, 44)
	assert.Equal(t, " l1_x", cols[0].String())
	assert.Equal(t, " l1_y", cols[1].String())
	assert.Equal(t, " l2_x", cols[2].String())
	assert.Equal(t, " r1_x", cols[22].String())
	assert.Equal(t, " r11_y", cols[43].String())
	assert.Len(t, PlayerAttrs(), 45)
}

func TestColumnByName(t *testing.T) {
	tests := []struct {
		typ  Type
		name string
		want Column
	}{
		{Dash, "dash_power", DashPower},
		{Dash, "unum", UniformNum},
		{Kick, "kick_direction", KickDirection},
		{Turn, "turn_moment", TurnMoment},
		{Tackle, "foul_intention", FoulIntention},
		{PlayerTypes, "effort_max", TypeEffortMax},
		{Match, " b_vx", BallVX},
		{Match, " l10_stamina", PlayerColumn{Side: rcss.Left, Uniform: 10, Attr: AttrStamina}},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+tt.name, func(t *testing.T) {
			got, err := ColumnByName(tt.typ, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ColumnByName(Dash, "kick_power")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = ColumnByName(Dash, " l1_x")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	// the converter writes a leading space, "b_x" alone is not a column
	_, err = ColumnByName(Match, "b_x")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestPlayerTypesHetero(t *testing.T) {
	for _, h := range rcss.HeteroParams() {
		got, ok := HeteroColumn(h).Hetero()
		require.True(t, ok)
		assert.Equal(t, h, got)
	}
	_, ok := TypePlayerSize.Hetero()
	assert.False(t, ok)
}

func TestParseMatchInfo(t *testing.T) {
	got, err := ParseMatchInfo("/logs/20230704123456-HELIOS2023_3-vs-cyrus-2023+_0.match.csv.gz")
	require.NoError(t, err)
	assert.Equal(t, MatchInfo{
		Timestamp:  "20230704123456",
		LeftTeam:   "HELIOS2023",
		LeftScore:  3,
		RightTeam:  "cyrus-2023+",
		RightScore: 0,
	}, got)

	for _, bad := range []string{"match.csv", "2023-A_x-vs-B_1.match.csv", "2023-A_1-B_2.dash.csv"} {
		_, err := ParseMatchInfo(bad)
		assert.ErrorIs(t, err, ErrMalformedFilename, bad)
	}
}
