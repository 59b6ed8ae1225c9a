// Package store keeps match metadata and the heterogeneous player types of
// every indexed log in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/montplusa/rcss2d-imitation/pkg/dataset"
	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
	"github.com/montplusa/rcss2d-imitation/pkg/table"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotPlayerTypes = errors.New("not a player types table")
)

// PlayerType is one heterogeneous player type of a match.
type PlayerType struct {
	ID             int
	DashPowerRate  float64
	PlayerDecay    float64
	InertiaMoment  float64
	KickableMargin float64
	KickRand       float64
	ExtraStamina   float64
	EffortMin      float64
	EffortMax      float64
}

func (p *PlayerType) field(h rcss.HeteroParam) *float64 {
	switch h {
	case rcss.DashPowerRate:
		return &p.DashPowerRate
	case rcss.PlayerDecay:
		return &p.PlayerDecay
	case rcss.InertiaMoment:
		return &p.InertiaMoment
	case rcss.KickableMargin:
		return &p.KickableMargin
	case rcss.KickRand:
		return &p.KickRand
	case rcss.ExtraStamina:
		return &p.ExtraStamina
	case rcss.EffortMin:
		return &p.EffortMin
	case rcss.EffortMax:
		return &p.EffortMax
	}
	return nil
}

// Store is a SQLite backed match index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		match_timestamp TEXT PRIMARY KEY,
		left_teamname TEXT NOT NULL,
		left_finalscore INTEGER NOT NULL,
		right_teamname TEXT NOT NULL,
		right_finalscore INTEGER NOT NULL,
		indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS playertypes (
		match_timestamp TEXT NOT NULL REFERENCES matches(match_timestamp),
		id INTEGER NOT NULL,
		dash_power_rate REAL NOT NULL,
		player_decay REAL NOT NULL,
		inertia_moment REAL NOT NULL,
		kickable_margin REAL NOT NULL,
		kick_rand REAL NOT NULL,
		extra_stamina REAL NOT NULL,
		effort_min REAL NOT NULL,
		effort_max REAL NOT NULL,
		PRIMARY KEY (match_timestamp, id)
	);
	CREATE INDEX IF NOT EXISTS idx_matches_teams ON matches(left_teamname, right_teamname);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMatch(ctx context.Context, e execer, m table.MatchInfo) error {
	_, err := e.ExecContext(ctx, `
		INSERT OR IGNORE INTO matches (match_timestamp, left_teamname, left_finalscore, right_teamname, right_finalscore)
		VALUES (?, ?, ?, ?, ?)
	`, m.Timestamp, m.LeftTeam, m.LeftScore, m.RightTeam, m.RightScore)
	return err
}

func upsertPlayerTypes(ctx context.Context, e execer, timestamp string, rows []PlayerType) error {
	for _, r := range rows {
		_, err := e.ExecContext(ctx, `
			INSERT INTO playertypes (match_timestamp, id, dash_power_rate, player_decay, inertia_moment,
				kickable_margin, kick_rand, extra_stamina, effort_min, effort_max)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(match_timestamp, id) DO UPDATE SET
				dash_power_rate = excluded.dash_power_rate,
				player_decay = excluded.player_decay,
				inertia_moment = excluded.inertia_moment,
				kickable_margin = excluded.kickable_margin,
				kick_rand = excluded.kick_rand,
				extra_stamina = excluded.extra_stamina,
				effort_min = excluded.effort_min,
				effort_max = excluded.effort_max
		`, timestamp, r.ID, r.DashPowerRate, r.PlayerDecay, r.InertiaMoment,
			r.KickableMargin, r.KickRand, r.ExtraStamina, r.EffortMin, r.EffortMax)
		if err != nil {
			return fmt.Errorf("player type %d: %w", r.ID, err)
		}
	}
	return nil
}

// InsertMatch records a match. Inserting the same timestamp again is a no-op.
func (s *Store) InsertMatch(ctx context.Context, m table.MatchInfo) error {
	if err := insertMatch(ctx, s.db, m); err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.Timestamp, err)
	}
	return nil
}

// UpsertPlayerTypes writes the player types of a match in one transaction.
// Either every row is stored or none is.
func (s *Store) UpsertPlayerTypes(ctx context.Context, timestamp string, rows []PlayerType) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return upsertPlayerTypes(ctx, tx, timestamp, rows)
	})
}

// Index records a match and its player types atomically.
func (s *Store) Index(ctx context.Context, m table.MatchInfo, rows []PlayerType) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertMatch(ctx, tx, m); err != nil {
			return err
		}
		return upsertPlayerTypes(ctx, tx, m.Timestamp, rows)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Match returns the match recorded under timestamp.
func (s *Store) Match(ctx context.Context, timestamp string) (table.MatchInfo, error) {
	m := table.MatchInfo{Timestamp: timestamp}
	err := s.db.QueryRowContext(ctx, `
		SELECT left_teamname, left_finalscore, right_teamname, right_finalscore
		FROM matches WHERE match_timestamp = ?
	`, timestamp).Scan(&m.LeftTeam, &m.LeftScore, &m.RightTeam, &m.RightScore)
	if errors.Is(err, sql.ErrNoRows) {
		return table.MatchInfo{}, fmt.Errorf("match %s: %w", timestamp, ErrNotFound)
	}
	if err != nil {
		return table.MatchInfo{}, err
	}
	return m, nil
}

// Matches returns every recorded match ordered by timestamp.
func (s *Store) Matches(ctx context.Context) ([]table.MatchInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_timestamp, left_teamname, left_finalscore, right_teamname, right_finalscore
		FROM matches ORDER BY match_timestamp
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []table.MatchInfo
	for rows.Next() {
		var m table.MatchInfo
		if err := rows.Scan(&m.Timestamp, &m.LeftTeam, &m.LeftScore, &m.RightTeam, &m.RightScore); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PlayerTypes returns the player types of a match ordered by id.
func (s *Store) PlayerTypes(ctx context.Context, timestamp string) ([]PlayerType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dash_power_rate, player_decay, inertia_moment, kickable_margin,
			kick_rand, extra_stamina, effort_min, effort_max
		FROM playertypes WHERE match_timestamp = ? ORDER BY id
	`, timestamp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerType
	for rows.Next() {
		var p PlayerType
		if err := rows.Scan(&p.ID, &p.DashPowerRate, &p.PlayerDecay, &p.InertiaMoment, &p.KickableMargin,
			&p.KickRand, &p.ExtraStamina, &p.EffortMin, &p.EffortMax); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PlayerTypesFromFrame reads the player type rows of a raw or extracted
// player types table.
func PlayerTypesFromFrame(f *dataset.Frame) ([]PlayerType, error) {
	ids, err := f.Float64s(table.TypeID.String())
	if err != nil {
		return nil, err
	}
	out := make([]PlayerType, len(ids))
	for i, id := range ids {
		if math.IsNaN(id) || id != math.Trunc(id) {
			return nil, fmt.Errorf("row %d: invalid player type id", i)
		}
		out[i].ID = int(id)
	}
	for _, h := range rcss.HeteroParams() {
		if (&PlayerType{}).field(h) == nil {
			continue
		}
		values, err := f.Float64s(table.HeteroColumn(h).String())
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("row %d: empty %s", i, h)
			}
			*out[i].field(h) = v
		}
	}
	return out, nil
}

// IndexFile records the match and the player types of one player types
// table. The match is identified by the file name.
func (s *Store) IndexFile(ctx context.Context, path string) (table.MatchInfo, error) {
	t, err := table.Classify(path)
	if err != nil {
		return table.MatchInfo{}, err
	}
	if t != table.PlayerTypes {
		return table.MatchInfo{}, fmt.Errorf("%w: %s", ErrNotPlayerTypes, path)
	}
	info, err := table.ParseMatchInfo(path)
	if err != nil {
		return table.MatchInfo{}, err
	}
	f, err := dataset.ReadFrame(path)
	if err != nil {
		return table.MatchInfo{}, err
	}
	rows, err := PlayerTypesFromFrame(f)
	if err != nil {
		return table.MatchInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Index(ctx, info, rows); err != nil {
		return table.MatchInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}
