package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Uniqueness of email and username ignores empty values so placeholder rows can omit them.
const schema = `
CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    joined_at INTEGER NOT NULL,
    total_solar TEXT NOT NULL DEFAULT '0',
    total_dollars TEXT NOT NULL DEFAULT '0',
    is_anonymous INTEGER NOT NULL DEFAULT 0,
    is_reserve INTEGER NOT NULL DEFAULT 0,
    is_placeholder INTEGER NOT NULL DEFAULT 0,
    last_distribution_date TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_members_email ON members(lower(email)) WHERE email <> '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_members_username ON members(username) WHERE username <> '';
CREATE INDEX IF NOT EXISTS idx_members_joined_at ON members(joined_at, id);

CREATE TABLE IF NOT EXISTS admins (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_admins_email ON admins(lower(email));

CREATE TABLE IF NOT EXISTS distribution_runs (
    id TEXT PRIMARY KEY,
    run_date TEXT NOT NULL,
    trigger_source TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    members_credited INTEGER NOT NULL,
    solar_credited TEXT NOT NULL,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_distribution_runs_started_at ON distribution_runs(started_at);

CREATE TABLE IF NOT EXISTS artifacts (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title TEXT NOT NULL,
    file_name TEXT NOT NULL,
    content_type TEXT NOT NULL,
    size INTEGER NOT NULL,
    sha256 TEXT NOT NULL,
    price_solar TEXT NOT NULL,
    has_preview INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_owner_id ON artifacts(owner_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
