package sqlite

// Schema contains the SQL statements that create the careerctx tables for
// SQLite. It mirrors the postgres schema with SQLite-native types: UUIDs as
// TEXT, timestamps as TEXT (RFC 3339, handled by the driver), metric bundles
// as JSON TEXT, and embeddings as little-endian float32 BLOBs.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    name_en TEXT,
    industry TEXT NOT NULL DEFAULT '[]',
    tags TEXT NOT NULL DEFAULT '[]',
    stage TEXT,
    description TEXT,
    founded_date TIMESTAMP,
    ipo_date TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entity_aliases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    alias TEXT NOT NULL,
    alias_kind TEXT NOT NULL DEFAULT 'name'
);

CREATE INDEX IF NOT EXISTS idx_entity_aliases_normalized
    ON entity_aliases (lower(trim(alias)));

CREATE INDEX IF NOT EXISTS idx_entity_aliases_entity
    ON entity_aliases (entity_id);

CREATE TABLE IF NOT EXISTS entity_metric_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    reference_date TIMESTAMP NOT NULL,
    metrics TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_entity_date
    ON entity_metric_snapshots (entity_id, reference_date DESC);

CREATE TABLE IF NOT EXISTS content_chunks (
    id TEXT PRIMARY KEY,
    entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    embedding BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_chunks_created_entity
    ON content_chunks (created_at, entity_id);
`
