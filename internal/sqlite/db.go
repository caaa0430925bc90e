package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the schema. The project aggregate spans four
// tables; members, tasks, and requests carry an ord column because the
// aggregate's sequences are ordered and save rewrites them wholesale.
func (db *DB) RunMigrations() error {
	migration := `
-- Identity directory
CREATE TABLE users (
    email TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Projects table (aggregate root)
CREATE TABLE projects (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    company TEXT NOT NULL,
    deadline TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('planning', 'in-progress', 'submitted', 'completed')),
    progress REAL NOT NULL DEFAULT 0,
    report_ref TEXT,
    created_by TEXT NOT NULL,
    revision INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Members (owned by a project, identified by email within it)
CREATE TABLE members (
    project_id TEXT NOT NULL,
    ord INTEGER NOT NULL,
    email TEXT NOT NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('admin', 'lead', 'designer', 'developer', 'tester', 'analyst', 'architect')),
    progress INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (project_id, email),
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX idx_members_email ON members(email);

-- Tasks (owned by exactly one member)
CREATE TABLE tasks (
    project_id TEXT NOT NULL,
    member_email TEXT NOT NULL,
    ord INTEGER NOT NULL,
    id TEXT NOT NULL,
    title TEXT NOT NULL,
    weight INTEGER NOT NULL DEFAULT 0,
    deadline TEXT,
    proof_ref TEXT,
    status TEXT NOT NULL CHECK(status IN ('unsubmitted', 'submitted', 'approved', 'rejected')),
    PRIMARY KEY (project_id, id),
    FOREIGN KEY (project_id, member_email) REFERENCES members(project_id, email) ON DELETE CASCADE
);

-- Request ledger (append-only; task_id is the ledger id within a project)
CREATE TABLE requests (
    project_id TEXT NOT NULL,
    ord INTEGER NOT NULL,
    task_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK(kind IN ('task-proof', 'final-report')),
    author_email TEXT NOT NULL,
    task_title TEXT NOT NULL,
    proof_ref TEXT,
    description TEXT,
    status TEXT NOT NULL CHECK(status IN ('pending', 'approved', 'rejected')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (project_id, task_id),
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX idx_requests_status ON requests(status);
CREATE INDEX idx_requests_kind ON requests(kind, status);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
