package sqlite

const schemaDocuments = `
CREATE TABLE IF NOT EXISTS documents (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    rev INTEGER NOT NULL DEFAULT 1,
    body TEXT NOT NULL,
    UNIQUE(collection, id)
)`

const indexDocumentsCollection = `CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq)`

func allSchemaStatements() []string {
	return []string{
		schemaDocuments,
		indexDocumentsCollection,
	}
}

func allPragmas() []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
}
