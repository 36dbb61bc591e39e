package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	mailbox    TEXT NOT NULL,
	uid        INTEGER NOT NULL,
	header     TEXT NOT NULL,
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (mailbox, uid)
);

CREATE INDEX IF NOT EXISTS idx_messages_fetched_at ON messages(fetched_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
