package database

const schema = `
-- Local durable key-value store (namespaced JSON documents)
CREATE TABLE kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- Named response stores owned by the cache router
CREATE TABLE stores (
	name TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);

CREATE TABLE responses (
	store TEXT NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	header TEXT NOT NULL DEFAULT '{}',
	body BLOB,
	stored_at TEXT NOT NULL,
	PRIMARY KEY (store, url),
	FOREIGN KEY (store) REFERENCES stores(name) ON DELETE CASCADE
);

CREATE INDEX idx_responses_store ON responses(store);
`

// migrations contains incremental schema changes
// Each migration is applied in order based on the current user_version
// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
}
