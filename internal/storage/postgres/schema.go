package postgres

// Schema contains the SQL statements that create the careerctx tables.
// Every statement is idempotent (IF NOT EXISTS) so the schema can be
// re-applied on each open. The engine reads these tables; only the seeding
// path writes them.
const Schema = `
-- Canonical organization entities.
CREATE TABLE IF NOT EXISTS entities (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    name_en TEXT,
    industry TEXT[] NOT NULL DEFAULT '{}',
    tags TEXT[] NOT NULL DEFAULT '{}',
    stage TEXT,
    description TEXT,
    founded_date DATE,
    ipo_date DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Alternative names an entity can be resolved by (company names, product
-- names). Matching is exact after lowercase+trim, backed by the expression
-- index below.
CREATE TABLE IF NOT EXISTS entity_aliases (
    id BIGSERIAL PRIMARY KEY,
    entity_id UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    alias TEXT NOT NULL,
    alias_kind TEXT NOT NULL DEFAULT 'name'
);

CREATE INDEX IF NOT EXISTS idx_entity_aliases_normalized
    ON entity_aliases (lower(btrim(alias)));

CREATE INDEX IF NOT EXISTS idx_entity_aliases_entity
    ON entity_aliases (entity_id);

-- Monthly metric snapshots. The metrics bundle is stored as a JSONB document
-- and decoded into the typed Metrics value object at this boundary only.
CREATE TABLE IF NOT EXISTS entity_metric_snapshots (
    id BIGSERIAL PRIMARY KEY,
    entity_id UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    reference_date DATE NOT NULL,
    metrics JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_entity_date
    ON entity_metric_snapshots (entity_id, reference_date DESC);

-- Entity-related content (news chunks) with their embeddings.
CREATE TABLE IF NOT EXISTS content_chunks (
    id UUID PRIMARY KEY,
    entity_id UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    embedding VECTOR(1536) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_chunks_created_entity
    ON content_chunks (created_at, entity_id);

-- Approximate-nearest-neighbor index for cosine distance. ivfflat only
-- builds a useful index once the table has data; creation on an empty table
-- still succeeds.
CREATE INDEX IF NOT EXISTS idx_content_chunks_embedding
    ON content_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`
