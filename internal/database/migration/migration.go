package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// NotifyChannelPrefix prefixes the per-owner LISTEN/NOTIFY channel. The change
// feed listens on NotifyChannelPrefix + user_id so filtering happens server-side.
const NotifyChannelPrefix = "changes_"

// ChangeTables lists every table whose row changes are published on the feed.
var ChangeTables = []string{
	"files", "projects", "fields", "folders", "folder_files", "note_entries",
	"templates", "template_fields", "template_folders", "activities",
	"shares", "view_shares", "upload_requests", "form_submissions",
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_files",
		SQL: `CREATE TABLE IF NOT EXISTS files (
  id         TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id    TEXT        NOT NULL,
  name       TEXT        NOT NULL,
  kind       TEXT        NOT NULL CHECK (kind IN ('Business', 'Individual')),
  phone      TEXT,
  email      TEXT,
  id_number  TEXT,
  reference  TEXT,
  shared     BOOLEAN     NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (user_id, reference)
);`,
	},
	{
		Name: "create_table_projects",
		SQL: `CREATE TABLE IF NOT EXISTS projects (
  id             TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id        TEXT        NOT NULL,
  file_id        TEXT        NOT NULL REFERENCES files (id) ON DELETE CASCADE,
  project_number TEXT,
  name           TEXT        NOT NULL,
  status         TEXT        NOT NULL CHECK (status IN ('Live', 'Pending', 'Completed')),
  date_created   TIMESTAMPTZ NOT NULL DEFAULT now(),
  completed_date TIMESTAMPTZ,
  notes          TEXT        NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_table_fields",
		SQL: `CREATE TABLE IF NOT EXISTS fields (
  id         TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id    TEXT        NOT NULL,
  project_id TEXT        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  name       TEXT        NOT NULL,
  value      TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_folders",
		SQL: `CREATE TABLE IF NOT EXISTS folders (
  id         TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id    TEXT        NOT NULL,
  project_id TEXT        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  name       TEXT        NOT NULL,
  type       TEXT        NOT NULL DEFAULT 'general',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_folder_files",
		SQL: `CREATE TABLE IF NOT EXISTS folder_files (
  id            TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id       TEXT        NOT NULL,
  folder_id     TEXT        NOT NULL REFERENCES folders (id) ON DELETE CASCADE,
  name          TEXT        NOT NULL,
  file_type     TEXT        NOT NULL DEFAULT 'other',
  size          TEXT        NOT NULL DEFAULT '',
  size_in_bytes BIGINT      CHECK (size_in_bytes >= 0),
  upload_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
  storage_path  TEXT,
  url           TEXT
);`,
	},
	{
		Name: "create_table_note_entries",
		SQL: `CREATE TABLE IF NOT EXISTS note_entries (
  id         TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id    TEXT        NOT NULL,
  project_id TEXT        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  date       TIMESTAMPTZ NOT NULL DEFAULT now(),
  heading    TEXT        NOT NULL DEFAULT '',
  subheading TEXT        NOT NULL DEFAULT '',
  content    TEXT        NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_table_templates",
		SQL: `CREATE TABLE IF NOT EXISTS templates (
  id          TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id     TEXT        NOT NULL,
  name        TEXT        NOT NULL,
  shareable   BOOLEAN     NOT NULL DEFAULT false,
  share_token TEXT        UNIQUE,
  share_code  TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_template_fields",
		SQL: `CREATE TABLE IF NOT EXISTS template_fields (
  id            TEXT    PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id       TEXT    NOT NULL,
  template_id   TEXT    NOT NULL REFERENCES templates (id) ON DELETE CASCADE,
  name          TEXT    NOT NULL,
  display_order INTEGER NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_table_template_folders",
		SQL: `CREATE TABLE IF NOT EXISTS template_folders (
  id          TEXT PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id     TEXT NOT NULL,
  template_id TEXT NOT NULL REFERENCES templates (id) ON DELETE CASCADE,
  name        TEXT NOT NULL,
  type        TEXT NOT NULL DEFAULT 'general'
);`,
	},
	{
		Name: "create_table_activities",
		SQL: `CREATE TABLE IF NOT EXISTS activities (
  id         TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id    TEXT        NOT NULL,
  file_id    TEXT,
  action     TEXT        NOT NULL,
  target     TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_shares",
		SQL: `CREATE TABLE IF NOT EXISTS shares (
  token       TEXT        PRIMARY KEY,
  user_id     TEXT        NOT NULL,
  template_id TEXT        NOT NULL REFERENCES templates (id) ON DELETE CASCADE,
  code        TEXT        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_view_shares",
		SQL: `CREATE TABLE IF NOT EXISTS view_shares (
  token      TEXT        PRIMARY KEY,
  user_id    TEXT        NOT NULL,
  file_id    TEXT        NOT NULL REFERENCES files (id) ON DELETE CASCADE,
  code       TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_upload_requests",
		SQL: `CREATE TABLE IF NOT EXISTS upload_requests (
  token      TEXT        PRIMARY KEY,
  user_id    TEXT        NOT NULL,
  file_id    TEXT        NOT NULL REFERENCES files (id) ON DELETE CASCADE,
  project_id TEXT        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  folder_id  TEXT        NOT NULL REFERENCES folders (id) ON DELETE CASCADE,
  code       TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_form_submissions",
		SQL: `CREATE TABLE IF NOT EXISTS form_submissions (
  id           TEXT        PRIMARY KEY DEFAULT uuid_generate_v4()::text,
  user_id      TEXT        NOT NULL,
  template_id  TEXT        NOT NULL REFERENCES templates (id) ON DELETE CASCADE,
  client_name  TEXT        NOT NULL DEFAULT '',
  data         JSONB       NOT NULL DEFAULT '{}'::jsonb,
  status       TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'imported', 'rejected')),
  submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_projects_file_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_projects_file_id ON projects (file_id);`,
	},
	{
		Name: "create_index_folder_files_folder_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_folder_files_folder_id ON folder_files (folder_id);`,
	},
	{
		Name: "create_index_activities_user_created",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_activities_user_created ON activities (user_id, created_at DESC);`,
	},
	{
		Name: "create_function_notify_row_change",
		SQL: `CREATE OR REPLACE FUNCTION notify_row_change() RETURNS trigger AS $$
DECLARE
  rec JSONB;
BEGIN
  IF TG_OP = 'DELETE' THEN
    rec := to_jsonb(OLD);
  ELSE
    rec := to_jsonb(NEW);
  END IF;
  PERFORM pg_notify(
    '` + NotifyChannelPrefix + `' || (rec->>'user_id'),
    json_build_object(
      'table', TG_TABLE_NAME,
      'op', TG_OP,
      'id', COALESCE(rec->>'id', rec->>'token')
    )::text
  );
  RETURN NULL;
END;
$$ LANGUAGE plpgsql;`,
	},
}

func init() {
	for _, table := range ChangeTables {
		steps = append(steps, migrationStep{
			Name: "create_trigger_notify_" + table,
			SQL: fmt.Sprintf(`DROP TRIGGER IF EXISTS %[1]s_notify ON %[1]s;
CREATE TRIGGER %[1]s_notify AFTER INSERT OR UPDATE OR DELETE ON %[1]s
  FOR EACH ROW EXECUTE FUNCTION notify_row_change();`, table),
		})
	}
}

// EnsureMigrated checks if the 'files' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Msg("starting")

	var exists bool
	query := "SELECT to_regclass('public.files') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Msg("in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).
				Str("event", "db_migration_failed").
				Str("migration_step", step.Name).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug().
			Str("event", "db_migration_step").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("success")
	}

	log.Info().
		Str("event", "db_migration_success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("success")

	return nil
}
