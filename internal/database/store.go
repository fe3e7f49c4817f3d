// Package database provides the storage layer for cubespin.
//
// It implements the Store interface on SQLite in WAL mode. The journal
// keeps every spin a cube ran, the laps of repeating spins, the last
// orientation per selector and a log of control commands. DBService is
// the entry point for all database operations.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the interface for journal persistence.
type Store interface {
	// InsertSpin persists a spin, or updates status and final angles of
	// an existing one.
	InsertSpin(spin *SpinRecord) error
	// BatchInsertSpins upserts multiple spins in a single transaction.
	BatchInsertSpins(spins []*SpinRecord) error
	// BatchInsertLaps inserts multiple laps in a single transaction.
	BatchInsertLaps(laps []*LapRecord) error

	// QuerySpins returns spins matching the filter, newest first.
	QuerySpins(filter SpinFilter) ([]*SpinRecord, error)
	// QueryLaps returns the laps of a spin ordered by axis and lap number.
	QueryLaps(spinID string) ([]*LapRecord, error)
	// GetSpinStats returns aggregated statistics over all spins.
	GetSpinStats() (*SpinStats, error)

	// SaveOrientation stores the last angles of a selector.
	SaveOrientation(o *SavedOrientation) error
	// LoadOrientation returns the saved angles of a selector or ErrNotFound.
	LoadOrientation(selector string) (*SavedOrientation, error)

	// WritePendingCommand logs a control command before it is applied.
	WritePendingCommand(kind string, payload []byte) (int64, error)
	// CommitCommand marks a command applied, or failed when errMsg is set.
	CommitCommand(commandID int64, errMsg *string) error
	// GetPendingCommands returns commands that were never committed.
	GetPendingCommands() ([]PendingCommand, error)

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// SpinRecord is one spin as the engine ran it.
type SpinRecord struct {
	SpinID     string      `json:"spin_id"`
	Selector   string      `json:"selector"`
	Slot       string      `json:"slot"`
	Easing     string      `json:"easing"`
	Repeat     bool        `json:"repeat"`
	Start      [3]float64  `json:"start"`
	Target     [3]float64  `json:"target"`
	Budget     float64     `json:"budget"`
	Frames     int         `json:"frames"`
	Status     string      `json:"status"`
	StartedAt  int64       `json:"started_at"`
	FinishedAt *int64      `json:"finished_at,omitempty"`
	Final      *[3]float64 `json:"final,omitempty"`
}

// LapRecord is one completed lap on one axis.
type LapRecord struct {
	LapID      int64   `json:"lap_id"`
	SpinID     string  `json:"spin_id"`
	Axis       string  `json:"axis"`
	Lap        int     `json:"lap"`
	StartDeg   float64 `json:"start_deg"`
	EndDeg     float64 `json:"end_deg"`
	RecordedAt int64   `json:"recorded_at"`
}

// SavedOrientation is the last known angles of a cube.
type SavedOrientation struct {
	Selector  string     `json:"selector"`
	Angles    [3]float64 `json:"angles"`
	UpdatedAt int64      `json:"updated_at"`
}

// SpinFilter defines query parameters for spin listing.
type SpinFilter struct {
	Selector *string `json:"selector,omitempty"`
	Status   *string `json:"status,omitempty"`
	Repeat   *bool   `json:"repeat,omitempty"`
	Since    *int64  `json:"since,omitempty"` // Unix nanoseconds
	Until    *int64  `json:"until,omitempty"` // Unix nanoseconds
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}

// SpinStats holds aggregated statistics over the journal.
type SpinStats struct {
	TotalSpins      int            `json:"total_spins"`
	Completed       int            `json:"completed"`
	Cancelled       int            `json:"cancelled"`
	Running         int            `json:"running"`
	Repeating       int            `json:"repeating"`
	TotalLaps       int            `json:"total_laps"`
	TotalFrames     int64          `json:"total_frames"`
	SpinsBySlot     map[string]int `json:"spins_by_slot"`
	PendingCommands int            `json:"pending_commands"`
}

// PendingCommand is a control command that was logged but not committed.
type PendingCommand struct {
	CommandID int64  `json:"command_id"`
	Kind      string `json:"kind"`
	Payload   []byte `json:"payload"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
// Access is serialized through a read-write mutex.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	stmtInsertSpin      *sql.Stmt
	stmtInsertLap       *sql.Stmt
	stmtSaveOrientation *sql.Stmt
	stmtInsertCommand   *sql.Stmt
	stmtCommitCommand   *sql.Stmt
}

// NewDBService opens the database at path, initializes the schema and
// prepares the hot-path statements. Use ":memory:" in tests.
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_cache_size=-16000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite only supports one writer at a time; a single connection
	// also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
	}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtInsertSpin, err = s.db.Prepare(`
		INSERT INTO spins (spin_id, selector, slot, easing, repeat,
			start_x, start_y, start_z, target_x, target_y, target_z,
			budget, frames, status, started_at, finished_at, final_x, final_y, final_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spin_id) DO UPDATE SET
			status = CASE WHEN spins.finished_at IS NULL THEN excluded.status ELSE spins.status END,
			finished_at = COALESCE(excluded.finished_at, spins.finished_at),
			final_x = COALESCE(excluded.final_x, spins.final_x),
			final_y = COALESCE(excluded.final_y, spins.final_y),
			final_z = COALESCE(excluded.final_z, spins.final_z)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertSpin: %w", err)
	}

	s.stmtInsertLap, err = s.db.Prepare(`
		INSERT INTO laps (spin_id, axis, lap, start_deg, end_deg, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertLap: %w", err)
	}

	s.stmtSaveOrientation, err = s.db.Prepare(`
		INSERT INTO orientations (selector, x, y, z, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(selector) DO UPDATE SET
			x = excluded.x, y = excluded.y, z = excluded.z,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing SaveOrientation: %w", err)
	}

	s.stmtInsertCommand, err = s.db.Prepare(`
		INSERT INTO commands (kind, payload, status, created_at) VALUES (?, ?, 'pending', ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertCommand: %w", err)
	}

	s.stmtCommitCommand, err = s.db.Prepare(`
		UPDATE commands SET status = ?, error = ?, committed_at = ? WHERE command_id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing CommitCommand: %w", err)
	}

	return nil
}

func spinArgs(sp *SpinRecord) []interface{} {
	var fx, fy, fz *float64
	if sp.Final != nil {
		fx, fy, fz = &sp.Final[0], &sp.Final[1], &sp.Final[2]
	}
	return []interface{}{
		sp.SpinID, sp.Selector, sp.Slot, sp.Easing, sp.Repeat,
		sp.Start[0], sp.Start[1], sp.Start[2],
		sp.Target[0], sp.Target[1], sp.Target[2],
		sp.Budget, sp.Frames, sp.Status, sp.StartedAt, sp.FinishedAt,
		fx, fy, fz,
	}
}

// InsertSpin persists a spin. If it already exists only status,
// finished_at and the final angles are updated, and the status only
// while the spin has not finished.
func (s *DBService) InsertSpin(spin *SpinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stmtInsertSpin.Exec(spinArgs(spin)...); err != nil {
		return fmt.Errorf("inserting spin %s: %w", spin.SpinID, err)
	}
	return nil
}

// BatchInsertSpins upserts multiple spins within a single transaction.
// Records for the same spin are applied in order.
func (s *DBService) BatchInsertSpins(spins []*SpinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch spin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt := tx.Stmt(s.stmtInsertSpin)
	for _, sp := range spins {
		if _, err := stmt.Exec(spinArgs(sp)...); err != nil {
			return fmt.Errorf("batch inserting spin %s: %w", sp.SpinID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch spin transaction: %w", err)
	}
	return nil
}

// BatchInsertLaps inserts multiple laps within a single transaction.
func (s *DBService) BatchInsertLaps(laps []*LapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch lap transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.Stmt(s.stmtInsertLap)
	for _, lap := range laps {
		_, err := stmt.Exec(lap.SpinID, lap.Axis, lap.Lap, lap.StartDeg, lap.EndDeg, lap.RecordedAt)
		if err != nil {
			return fmt.Errorf("batch inserting lap %d of spin %s: %w", lap.Lap, lap.SpinID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch lap transaction: %w", err)
	}
	return nil
}

// QuerySpins returns spins matching the given filter criteria.
// Results are ordered by started_at descending (most recent first).
func (s *DBService) QuerySpins(filter SpinFilter) ([]*SpinRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT spin_id, selector, slot, easing, repeat,
		start_x, start_y, start_z, target_x, target_y, target_z,
		budget, frames, status, started_at, finished_at, final_x, final_y, final_z
		FROM spins WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.Selector != nil {
		query += ` AND selector = ?`
		args = append(args, *filter.Selector)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, *filter.Status)
	}
	if filter.Repeat != nil {
		query += ` AND repeat = ?`
		args = append(args, *filter.Repeat)
	}
	if filter.Since != nil {
		query += ` AND started_at >= ?`
		args = append(args, *filter.Since)
	}
	if filter.Until != nil {
		query += ` AND started_at <= ?`
		args = append(args, *filter.Until)
	}

	query += ` ORDER BY started_at DESC, rowid DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else {
		query += ` LIMIT 100`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying spins: %w", err)
	}
	defer rows.Close()

	return scanSpins(rows)
}

// QueryLaps returns every lap of a spin ordered by axis, then lap number.
func (s *DBService) QueryLaps(spinID string) ([]*LapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT lap_id, spin_id, axis, lap, start_deg, end_deg, recorded_at
		FROM laps
		WHERE spin_id = ?
		ORDER BY axis ASC, lap ASC
	`, spinID)
	if err != nil {
		return nil, fmt.Errorf("querying laps for spin %s: %w", spinID, err)
	}
	defer rows.Close()

	var laps []*LapRecord
	for rows.Next() {
		l := &LapRecord{}
		if err := rows.Scan(&l.LapID, &l.SpinID, &l.Axis, &l.Lap, &l.StartDeg, &l.EndDeg, &l.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning lap row: %w", err)
		}
		laps = append(laps, l)
	}
	return laps, rows.Err()
}

// GetSpinStats returns aggregated statistics over the whole journal.
func (s *DBService) GetSpinStats() (*SpinStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &SpinStats{SpinsBySlot: make(map[string]int)}

	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'running' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN repeat = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(frames), 0)
		FROM spins
	`).Scan(&stats.TotalSpins, &stats.Completed, &stats.Cancelled, &stats.Running,
		&stats.Repeating, &stats.TotalFrames)
	if err != nil {
		return nil, fmt.Errorf("querying spin stats: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM laps`).Scan(&stats.TotalLaps); err != nil {
		return nil, fmt.Errorf("counting laps: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM commands WHERE status = 'pending'`).Scan(&stats.PendingCommands); err != nil {
		return nil, fmt.Errorf("counting pending commands: %w", err)
	}

	rows, err := s.db.Query(`SELECT slot, COUNT(*) FROM spins GROUP BY slot`)
	if err != nil {
		return nil, fmt.Errorf("grouping spins by slot: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var slot string
		var n int
		if err := rows.Scan(&slot, &n); err != nil {
			return nil, fmt.Errorf("scanning slot count: %w", err)
		}
		stats.SpinsBySlot[slot] = n
	}

	return stats, rows.Err()
}

// SaveOrientation stores the last angles of a selector, replacing any
// earlier value.
func (s *DBService) SaveOrientation(o *SavedOrientation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.UpdatedAt == 0 {
		o.UpdatedAt = time.Now().UnixNano()
	}
	_, err := s.stmtSaveOrientation.Exec(o.Selector, o.Angles[0], o.Angles[1], o.Angles[2], o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving orientation of %s: %w", o.Selector, err)
	}
	return nil
}

// LoadOrientation returns the saved angles of selector.
func (s *DBService) LoadOrientation(selector string) (*SavedOrientation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := &SavedOrientation{Selector: selector}
	err := s.db.QueryRow(`
		SELECT x, y, z, updated_at FROM orientations WHERE selector = ?
	`, selector).Scan(&o.Angles[0], &o.Angles[1], &o.Angles[2], &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("orientation of %s: %w", selector, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading orientation of %s: %w", selector, err)
	}
	return o, nil
}

// WritePendingCommand logs a raw command payload and returns its id for
// CommitCommand.
func (s *DBService) WritePendingCommand(kind string, payload []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.stmtInsertCommand.Exec(kind, payload, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("writing pending command: %w", err)
	}
	return result.LastInsertId()
}

// CommitCommand marks a command as applied, or as failed with errMsg.
func (s *DBService) CommitCommand(commandID int64, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := "applied"
	if errMsg != nil {
		status = "failed"
	}
	_, err := s.stmtCommitCommand.Exec(status, errMsg, time.Now().UnixNano(), commandID)
	if err != nil {
		return fmt.Errorf("committing command %d: %w", commandID, err)
	}
	return nil
}

// GetPendingCommands returns all uncommitted commands in arrival order.
func (s *DBService) GetPendingCommands() ([]PendingCommand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT command_id, kind, payload, status, created_at
		FROM commands
		WHERE status = 'pending'
		ORDER BY command_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying pending commands: %w", err)
	}
	defer rows.Close()

	var cmds []PendingCommand
	for rows.Next() {
		var c PendingCommand
		if err := rows.Scan(&c.CommandID, &c.Kind, &c.Payload, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning pending command: %w", err)
		}
		cmds = append(cmds, c)
	}
	return cmds, rows.Err()
}

// Close closes all prepared statements and the connection pool.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []*sql.Stmt{
		s.stmtInsertSpin, s.stmtInsertLap, s.stmtSaveOrientation,
		s.stmtInsertCommand, s.stmtCommitCommand,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}

// ============================================================
// Scan Helpers
// ============================================================

func scanSpins(rows *sql.Rows) ([]*SpinRecord, error) {
	var spins []*SpinRecord
	for rows.Next() {
		sp := &SpinRecord{}
		var fx, fy, fz *float64
		if err := rows.Scan(
			&sp.SpinID, &sp.Selector, &sp.Slot, &sp.Easing, &sp.Repeat,
			&sp.Start[0], &sp.Start[1], &sp.Start[2],
			&sp.Target[0], &sp.Target[1], &sp.Target[2],
			&sp.Budget, &sp.Frames, &sp.Status, &sp.StartedAt, &sp.FinishedAt,
			&fx, &fy, &fz,
		); err != nil {
			return nil, fmt.Errorf("scanning spin row: %w", err)
		}
		if fx != nil && fy != nil && fz != nil {
			sp.Final = &[3]float64{*fx, *fy, *fz}
		}
		spins = append(spins, sp)
	}
	return spins, rows.Err()
}
