package sqlite

// SchemaVersion is recorded in the metadata table of every image.
const SchemaVersion = "1"

// Schema DDL for the items, settings and metadata tables.
const (
	createItems = `CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    data TEXT NOT NULL,
    position INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createMetadata = `CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	idxItemsCreated = `CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at);`
	idxItemsType    = `CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);`

	seedSchemaVersion = `INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '` + SchemaVersion + `');`
)

// Metadata keys.
const (
	metaSchemaVersion = "schema_version"
	metaSkipHistory   = "skip_history"
)

// schemaDDL lists the statements applied to every opened image, in order.
var schemaDDL = []string{
	createItems,
	createSettings,
	createMetadata,
	idxItemsCreated,
	idxItemsType,
	seedSchemaVersion,
}
