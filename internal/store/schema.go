package store

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wegman-software/osmpoi/internal/logger"
)

// schemaStatements create the target tables if they are missing.
// Existing tables are left untouched, so a second load into the same
// database still fails on the points primary key.
var schemaStatements = []struct {
	name string
	sql  string
}{
	{"postgis", `CREATE EXTENSION IF NOT EXISTS postgis`},
	{"point_type", `
		DO $$ BEGIN
			CREATE TYPE point_type AS ENUM ('amenity', 'shop');
		EXCEPTION
			WHEN duplicate_object THEN NULL;
		END $$`},
	{"points", `
		CREATE TABLE IF NOT EXISTS points (
			id BIGINT PRIMARY KEY,
			location GEOMETRY(Point, %d) NOT NULL,
			type point_type NOT NULL,
			subtype TEXT NOT NULL,
			name TEXT,
			email TEXT,
			phone TEXT,
			website TEXT,
			opening_hours TEXT,
			operator TEXT
		)`},
	{"tags", `
		CREATE TABLE IF NOT EXISTS tags (
			point_id BIGINT NOT NULL REFERENCES points (id),
			key TEXT NOT NULL,
			value TEXT NOT NULL
		)`},
	{"tags_point_id_idx", `CREATE INDEX IF NOT EXISTS tags_point_id_idx ON tags (point_id)`},
}

// EnsureSchema creates the PostGIS extension, the point_type enum and the
// points/tags tables. The location column is typed with srid.
func (p *Postgres) EnsureSchema(ctx context.Context, srid int) error {
	log := logger.Get()

	for _, s := range schemaStatements {
		sql := s.sql
		if s.name == "points" {
			sql = fmt.Sprintf(sql, srid)
		}
		log.Debug("Ensuring schema object", zap.String("object", s.name))
		if _, err := p.conn.Exec(ctx, sql); err != nil {
			return eris.Wrapf(err, "store: create %s", s.name)
		}
	}

	log.Info("Schema ready", zap.Int("srid", srid))
	return nil
}
