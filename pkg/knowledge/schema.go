package knowledge

import (
	"database/sql"
	"fmt"
)

// schemaDDL is the FTS5 DOT-graph store schema (nodes/edges/full-text
// index plus the indexing metadata table), extracted from the table
// definitions the package's own tests build inline. Exported as InitSchema
// so a real composition root can open a fresh database and get a
// Retriever-ready schema without duplicating this DDL.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	type TEXT NOT NULL,
	level TEXT NOT NULL,
	status TEXT NOT NULL,
	description TEXT NOT NULL,
	tag TEXT,
	component TEXT,
	path TEXT,
	example TEXT,
	priority TEXT,
	raw_dot TEXT,
	indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session_id, id)
);

CREATE TABLE IF NOT EXISTS edges (
	session_id TEXT NOT NULL,
	from_id TEXT NOT NULL,
	to_id TEXT NOT NULL,
	relation TEXT,
	note TEXT,
	indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session_id, from_id, to_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
	id UNINDEXED,
	session_id UNINDEXED,
	type,
	description,
	tag,
	component,
	example,
	content=nodes,
	content_rowid=rowid
);

CREATE TABLE IF NOT EXISTS knowledge_metadata (
	session_id TEXT NOT NULL,
	graph_path TEXT NOT NULL,
	last_mtime INTEGER NOT NULL,
	last_indexed TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session_id, graph_path)
);

CREATE TRIGGER IF NOT EXISTS nodes_fts_insert AFTER INSERT ON nodes BEGIN
	INSERT INTO nodes_fts(rowid, id, session_id, type, description, tag, component, example)
	VALUES (new.rowid, new.id, new.session_id, new.type, new.description, new.tag, new.component, new.example);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_update AFTER UPDATE ON nodes BEGIN
	UPDATE nodes_fts SET
		type = new.type,
		description = new.description,
		tag = new.tag,
		component = new.component,
		example = new.example
	WHERE rowid = new.rowid;
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_delete AFTER DELETE ON nodes BEGIN
	DELETE FROM nodes_fts WHERE rowid = old.rowid;
END;
`

// InitSchema applies the knowledge store's DDL to db, creating the
// nodes/edges/full-text tables (and the knowledge_metadata indexing
// table) if they don't already exist. Safe to call on every startup.
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("apply knowledge schema: %w", err)
	}
	return nil
}
