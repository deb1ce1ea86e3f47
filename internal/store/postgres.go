// Package store writes point and tag rows to PostgreSQL/PostGIS.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wegman-software/osmpoi/internal/logger"
	"github.com/wegman-software/osmpoi/internal/poi"
)

// Prepared statement names
const (
	stmtInsertPoint = "insert_point"
	stmtInsertTag   = "insert_tag"
)

const insertPointSQL = `INSERT INTO points (id, location, type, subtype, name, email, phone, website, opening_hours, operator) ` +
	`VALUES ($1, ST_GeomFromEWKB($2), $3::text::point_type, $4, $5, $6, $7, $8, $9, $10)`

const insertTagSQL = `INSERT INTO tags (point_id, key, value) VALUES ($1, $2, $3)`

// preparedStatements are registered once at startup; a failure here means the
// target database is unusable and no record is processed.
var preparedStatements = []struct {
	name string
	sql  string
}{
	{stmtInsertPoint, insertPointSQL},
	{stmtInsertTag, insertTagSQL},
}

// Conn is the subset of *pgx.Conn used by Postgres
type Conn interface {
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Options tunes the sink
type Options struct {
	// WriteTimeout bounds each insert; zero waits indefinitely
	WriteTimeout time.Duration
}

// Postgres is a single-connection sink. It is not safe for concurrent use:
// the loader is its only writer.
type Postgres struct {
	conn Conn
	tx   pgx.Tx
	opts Options
}

// Open connects to the database and registers the insert statements
func Open(ctx context.Context, databaseURL string, opts Options) (*Postgres, error) {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse database url")
	}

	c, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect")
	}

	p, err := New(ctx, c, opts)
	if err != nil {
		if cerr := c.Close(context.Background()); cerr != nil {
			logger.Get().Warn("Failed to close connection", zap.Error(cerr))
		}
		return nil, err
	}

	logger.Get().Debug("Connected to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Uint16("port", cfg.Port),
		zap.String("database", cfg.Database))
	return p, nil
}

// New wraps an established connection, verifying it and registering the
// insert statements
func New(ctx context.Context, c Conn, opts Options) (*Postgres, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, eris.Wrap(err, "store: ping")
	}
	for _, s := range preparedStatements {
		if _, err := c.Prepare(ctx, s.name, s.sql); err != nil {
			return nil, eris.Wrapf(err, "store: prepare %s", s.name)
		}
	}
	return &Postgres{conn: c, opts: opts}, nil
}

// Close releases the connection, rolling back an open transaction first
func (p *Postgres) Close(ctx context.Context) error {
	if p.tx != nil {
		if err := p.tx.Rollback(ctx); err != nil {
			logger.Get().Error("Rollback failed", zap.Error(err))
		}
		p.tx = nil
	}
	return p.conn.Close(ctx)
}

// Begin starts a transaction that wraps every following insert until Commit or Rollback
func (p *Postgres) Begin(ctx context.Context) error {
	if p.tx != nil {
		return eris.New("store: transaction already open")
	}
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "store: begin")
	}
	p.tx = tx
	return nil
}

// Commit commits the open transaction
func (p *Postgres) Commit(ctx context.Context) error {
	if p.tx == nil {
		return eris.New("store: no open transaction")
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "store: commit")
	}
	return nil
}

// Rollback aborts the open transaction; it is a no-op without one
func (p *Postgres) Rollback(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	tx := p.tx
	p.tx = nil
	if err := tx.Rollback(ctx); err != nil {
		return eris.Wrap(err, "store: rollback")
	}
	return nil
}

// InsertPoint writes one points row
func (p *Postgres) InsertPoint(ctx context.Context, rec poi.PointRecord) error {
	err := p.exec(ctx, stmtInsertPoint,
		rec.ID,
		rec.Location,
		rec.Category.String(),
		rec.Subtype,
		optionalText(rec.Name),
		optionalText(rec.Email),
		optionalText(rec.Phone),
		optionalText(rec.Website),
		optionalText(rec.OpeningHours),
		optionalText(rec.Operator),
	)
	if err != nil {
		return classify(err, "points", rec.ID)
	}
	return nil
}

// InsertTag writes one tags row
func (p *Postgres) InsertTag(ctx context.Context, tag poi.Tag) error {
	if err := p.exec(ctx, stmtInsertTag, tag.PointID, tag.Key, tag.Value); err != nil {
		return classify(err, "tags", tag.PointID)
	}
	return nil
}

func (p *Postgres) exec(ctx context.Context, stmt string, args ...any) error {
	if p.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.WriteTimeout)
		defer cancel()
	}

	var ex execer = p.conn
	if p.tx != nil {
		ex = p.tx
	}
	_, err := ex.Exec(ctx, stmt, args...)
	return err
}

func optionalText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
