package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"incidencias-cli/internal/model"
)

// Local is the bundled Backend implementation: a workspace directory with a
// SQLite database, a blob tree and a session token file.
type Local struct {
	dir  string
	db   *sql.DB
	hub  *hub
	auth *sessionAuth
}

var _ Backend = (*Local)(nil)

// Open prepares the workspace directory and opens the database. The
// returned Local must be closed when done.
func Open(ctx context.Context, dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("backend: empty workspace dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", filepath.Join(dir, "incidencias.sqlite"))
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness when the CLI and TUI overlap.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	l := &Local{dir: dir, db: db, hub: newHub()}
	l.auth, err = newSessionAuth(l)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Local) Close() error {
	l.hub.closeAll()
	return l.db.Close()
}

// Dir returns the workspace directory.
func (l *Local) Dir() string { return l.dir }

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			pass_salt TEXT NOT NULL,
			pass_hash TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			building_id TEXT NOT NULL,
			contractor_id TEXT NOT NULL,
			is_claim INTEGER NOT NULL,
			due_date TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents(status);`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_building ON incidents(building_id);`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_due ON incidents(due_date);`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_created ON incidents(created_at_unixms);`,
		`CREATE TABLE IF NOT EXISTS buildings (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS contractors (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS policies (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS saved_filters (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saved_filters_user ON saved_filters(user_id);`,
		`CREATE TABLE IF NOT EXISTS communications (
			id TEXT PRIMARY KEY,
			incident_id TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_communications_incident ON communications(incident_id, created_at_unixms);`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			ts_unixms INTEGER NOT NULL,
			actor_id TEXT NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers fn for incident snapshots. The current collection is
// delivered immediately to fn alone so new subscribers never start empty
// and existing ones do not see a duplicate push.
func (l *Local) Subscribe(fn func(Snapshot)) (cancel func()) {
	cancel = l.hub.subscribe(fn)
	if ins, err := l.Incidents(context.Background()); err == nil {
		l.hub.prime(fn, ins)
	}
	return cancel
}

func (l *Local) push(ctx context.Context) {
	ins, err := l.Incidents(ctx)
	if err != nil {
		return
	}
	l.hub.publish(ins)
}

// Incidents returns the whole collection ordered by creation time
// descending, which is the order snapshots carry.
func (l *Local) Incidents(ctx context.Context) ([]model.Incident, error) {
	return readJSONRows[model.Incident](ctx, l.db,
		`SELECT json FROM incidents ORDER BY created_at_unixms DESC, id`)
}

func (l *Local) getIncident(ctx context.Context, id string) (model.Incident, error) {
	var js string
	err := l.db.QueryRowContext(ctx, `SELECT json FROM incidents WHERE id = ?`, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Incident{}, NotFoundError{Kind: "incident", ID: id}
	}
	if err != nil {
		return model.Incident{}, err
	}
	var in model.Incident
	if err := json.Unmarshal([]byte(js), &in); err != nil {
		return model.Incident{}, err
	}
	return in, nil
}

// SaveIncident creates or replaces an incident. New records get an id and a
// creation timestamp; every save stamps the update timestamp and keeps the
// closed date consistent with the status.
func (l *Local) SaveIncident(ctx context.Context, in model.Incident) (model.Incident, error) {
	now := time.Now().UTC()
	eventType := "incident.updated"
	if strings.TrimSpace(in.ID) == "" {
		id, err := newRandomID("inc")
		if err != nil {
			return model.Incident{}, err
		}
		in.ID = id
		eventType = "incident.created"
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	enforceClosedAt(&in, now)

	if err := l.writeIncident(ctx, in, eventType); err != nil {
		return model.Incident{}, err
	}
	l.push(ctx)
	return in, nil
}

// SetIncidentStatus moves an incident between workflow states. Closing sets
// the closed date; leaving the closed state clears it.
func (l *Local) SetIncidentStatus(ctx context.Context, id string, st model.Status) error {
	in, err := l.getIncident(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	in.Status = st
	in.UpdatedAt = now
	enforceClosedAt(&in, now)
	if err := l.writeIncident(ctx, in, "incident.status"); err != nil {
		return err
	}
	l.push(ctx)
	return nil
}

func (l *Local) SetIncidentChecklist(ctx context.Context, id string, state map[string]bool) error {
	in, err := l.getIncident(ctx, id)
	if err != nil {
		return err
	}
	in.ChecklistState = state
	in.UpdatedAt = time.Now().UTC()
	if err := l.writeIncident(ctx, in, "incident.checklist"); err != nil {
		return err
	}
	l.push(ctx)
	return nil
}

func (l *Local) SetIncidentFiles(ctx context.Context, id string, files []model.FileRef) error {
	in, err := l.getIncident(ctx, id)
	if err != nil {
		return err
	}
	in.Files = files
	in.UpdatedAt = time.Now().UTC()
	if err := l.writeIncident(ctx, in, "incident.files"); err != nil {
		return err
	}
	l.push(ctx)
	return nil
}

// DeleteIncident removes the record, its communications and its blobs.
func (l *Local) DeleteIncident(ctx context.Context, id string) error {
	if _, err := l.getIncident(ctx, id); err != nil {
		return err
	}
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM communications WHERE incident_id = ?`, id); err != nil {
		return err
	}
	if err := l.appendEvent(ctx, tx, "incident.deleted", id, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	l.sweepBlobs(id)
	l.push(ctx)
	return nil
}

func (l *Local) writeIncident(ctx context.Context, in model.Incident, eventType string) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO incidents(
		id, status, priority, building_id, contractor_id, is_claim,
		due_date, created_at_unixms, json, updated_at_unixms
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, string(in.Status), string(in.Priority),
		strings.TrimSpace(in.BuildingID), strings.TrimSpace(in.ContractorID),
		boolToInt(in.IsClaim),
		strings.TrimSpace(in.DueDate), in.CreatedAt.UTC().UnixMilli(),
		string(raw), in.UpdatedAt.UTC().UnixMilli(),
	); err != nil {
		return err
	}
	if err := l.appendEvent(ctx, tx, eventType, in.ID, raw); err != nil {
		return err
	}
	return tx.Commit()
}

// enforceClosedAt keeps the closed date non-nil exactly while the status is
// closed. An already-set closed date on a closed incident is preserved.
func enforceClosedAt(in *model.Incident, now time.Time) {
	if in.Status == model.StatusClosed {
		if in.ClosedAt == nil {
			t := now
			in.ClosedAt = &t
		}
		return
	}
	in.ClosedAt = nil
}

func (l *Local) Buildings(ctx context.Context) ([]model.Building, error) {
	return readJSONRows[model.Building](ctx, l.db, `SELECT json FROM buildings ORDER BY id`)
}

func (l *Local) SaveBuilding(ctx context.Context, b model.Building) (model.Building, error) {
	if strings.TrimSpace(b.ID) == "" {
		id, err := newRandomID("edi")
		if err != nil {
			return model.Building{}, err
		}
		b.ID = id
	}
	if err := saveCatalogRow(ctx, l, "buildings", b.ID, b); err != nil {
		return model.Building{}, err
	}
	return b, nil
}

func (l *Local) DeleteBuilding(ctx context.Context, id string) error {
	return deleteCatalogRow(ctx, l, "buildings", "building", id)
}

func (l *Local) Contractors(ctx context.Context) ([]model.Contractor, error) {
	return readJSONRows[model.Contractor](ctx, l.db, `SELECT json FROM contractors ORDER BY id`)
}

func (l *Local) SaveContractor(ctx context.Context, c model.Contractor) (model.Contractor, error) {
	if strings.TrimSpace(c.ID) == "" {
		id, err := newRandomID("rep")
		if err != nil {
			return model.Contractor{}, err
		}
		c.ID = id
	}
	if err := saveCatalogRow(ctx, l, "contractors", c.ID, c); err != nil {
		return model.Contractor{}, err
	}
	return c, nil
}

func (l *Local) DeleteContractor(ctx context.Context, id string) error {
	return deleteCatalogRow(ctx, l, "contractors", "contractor", id)
}

func (l *Local) Policies(ctx context.Context) ([]model.Policy, error) {
	return readJSONRows[model.Policy](ctx, l.db, `SELECT json FROM policies ORDER BY id`)
}

func (l *Local) SavePolicy(ctx context.Context, p model.Policy) (model.Policy, error) {
	if strings.TrimSpace(p.ID) == "" {
		id, err := newRandomID("pol")
		if err != nil {
			return model.Policy{}, err
		}
		p.ID = id
	}
	if err := saveCatalogRow(ctx, l, "policies", p.ID, p); err != nil {
		return model.Policy{}, err
	}
	return p, nil
}

func (l *Local) DeletePolicy(ctx context.Context, id string) error {
	return deleteCatalogRow(ctx, l, "policies", "policy", id)
}

func saveCatalogRow(ctx context.Context, l *Local, table, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	nowMs := time.Now().UTC().UnixMilli()
	_, err = l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO `+table+`(id, json, updated_at_unixms) VALUES(?, ?, ?)`,
		id, string(raw), nowMs)
	return err
}

func deleteCatalogRow(ctx context.Context, l *Local, table, kind, id string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// SavedFilters returns the user's saved searches.
func (l *Local) SavedFilters(ctx context.Context, userID string) ([]model.SavedFilter, error) {
	return readJSONRowsArgs[model.SavedFilter](ctx, l.db,
		`SELECT json FROM saved_filters WHERE user_id = ? ORDER BY updated_at_unixms DESC`, userID)
}

func (l *Local) SaveFilter(ctx context.Context, f model.SavedFilter) (model.SavedFilter, error) {
	if strings.TrimSpace(f.UserID) == "" {
		return model.SavedFilter{}, errors.New("backend: saved filter without user")
	}
	if strings.TrimSpace(f.ID) == "" {
		id, err := newRandomID("flt")
		if err != nil {
			return model.SavedFilter{}, err
		}
		f.ID = id
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return model.SavedFilter{}, err
	}
	nowMs := time.Now().UTC().UnixMilli()
	if _, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO saved_filters(id, user_id, json, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		f.ID, f.UserID, string(raw), nowMs); err != nil {
		return model.SavedFilter{}, err
	}
	return f, nil
}

func (l *Local) DeleteFilter(ctx context.Context, userID, filterID string) error {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM saved_filters WHERE id = ? AND user_id = ?`, filterID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Kind: "saved filter", ID: filterID}
	}
	return nil
}

// Communications returns the incident's thread, newest first.
func (l *Local) Communications(ctx context.Context, incidentID string) ([]model.Communication, error) {
	return readJSONRowsArgs[model.Communication](ctx, l.db,
		`SELECT json FROM communications WHERE incident_id = ? ORDER BY created_at_unixms DESC, id`,
		incidentID)
}

func (l *Local) AddCommunication(ctx context.Context, c model.Communication) (model.Communication, error) {
	if strings.TrimSpace(c.IncidentID) == "" {
		return model.Communication{}, errors.New("backend: communication without incident")
	}
	if _, err := l.getIncident(ctx, c.IncidentID); err != nil {
		return model.Communication{}, err
	}
	if strings.TrimSpace(c.ID) == "" {
		id, err := newRandomID("com")
		if err != nil {
			return model.Communication{}, err
		}
		c.ID = id
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return model.Communication{}, err
	}
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return model.Communication{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO communications(id, incident_id, created_at_unixms, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		c.ID, c.IncidentID, c.CreatedAt.UTC().UnixMilli(), string(raw), now.UnixMilli()); err != nil {
		return model.Communication{}, err
	}
	if err := l.appendEvent(ctx, tx, "communication.added", c.IncidentID, raw); err != nil {
		return model.Communication{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Communication{}, err
	}
	return c, nil
}

func (l *Local) appendEvent(ctx context.Context, tx *sql.Tx, typ, entityID string, payload []byte) error {
	actor := ""
	if u, ok := l.auth.current(); ok {
		actor = u.ID
	}
	if payload == nil {
		payload = []byte("{}")
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO events(event_id, ts_unixms, actor_id, type, entity_id, payload_json) VALUES(?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC().UnixMilli(), actor, typ, entityID, string(payload))
	return err
}

// Events returns the audit trail, oldest first. limit == 0 means all.
func (l *Local) Events(ctx context.Context, limit int) ([]model.Event, error) {
	q := `SELECT event_id, ts_unixms, actor_id, type, entity_id, payload_json FROM events ORDER BY ts_unixms, event_id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = l.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = l.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		var ev model.Event
		var tsMs int64
		var payload string
		if err := rows.Scan(&ev.ID, &tsMs, &ev.UserID, &ev.Type, &ev.EntityID, &payload); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(tsMs).UTC()
		_ = json.Unmarshal([]byte(payload), &ev.Payload)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	return readJSONRowsArgs[T](ctx, db, query)
}

func readJSONRowsArgs[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
