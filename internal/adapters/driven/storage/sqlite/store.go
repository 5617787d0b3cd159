package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content/wire"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
	"github.com/custodia-labs/handbook-search/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Store is a SQLite-backed snapshot of handbook content.
type Store struct {
	db   *sql.DB
	path string
}

// SectionInfo summarises an imported section.
type SectionInfo struct {
	Section    domain.SectionID
	Documents  int
	ImportedAt time.Time
}

// ImportResult reports how one section import went.
type ImportResult struct {
	Section   domain.SectionID
	Documents int
	Skipped   int
	Err       error
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.handbook/data/content.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".handbook", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "content.db")

	// WAL lets searches read while an import writes.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_content.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// FetchTableOfContents implements driven.ContentStore.
func (s *Store) FetchTableOfContents(ctx context.Context, section domain.SectionID) ([]domain.TocNode, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT toc FROM sections WHERE id = ?", section.String()).Scan(&body)
	if err != nil {
		return nil, s.wrap(ctx, section, "", err)
	}

	nodes, err := wire.DecodeTOC([]byte(body))
	if err != nil {
		return nil, &domain.FetchError{Section: section, Err: err}
	}
	return nodes, nil
}

// FetchDocument implements driven.ContentStore.
func (s *Store) FetchDocument(ctx context.Context, section domain.SectionID, path string) (*domain.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE section = ? AND path = ?",
		section.String(), path,
	).Scan(&body)
	if err != nil {
		return nil, s.wrap(ctx, section, path, err)
	}

	doc, err := wire.DecodeDocument([]byte(body))
	if err != nil {
		return nil, &domain.FetchError{Section: section, Path: path, Err: err}
	}
	return doc, nil
}

// SaveSection replaces a section's table of contents and documents
// in one transaction.
func (s *Store) SaveSection(
	ctx context.Context, section domain.SectionID, toc []domain.TocNode, docs map[string]*domain.Document,
) error {
	tocJSON, err := wire.EncodeTOC(toc)
	if err != nil {
		return fmt.Errorf("encoding table of contents: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE section = ?", section.String()); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sections (id, toc, imported_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET toc = excluded.toc, imported_at = excluded.imported_at
	`, section.String(), string(tocJSON), now)
	if err != nil {
		return fmt.Errorf("saving section: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (section, path, body, updated_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()

	for path, doc := range docs {
		body, err := wire.EncodeDocument(doc)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		if _, err := stmt.ExecContext(ctx, section.String(), path, string(body), now); err != nil {
			return fmt.Errorf("saving document %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteSection removes a section and its documents.
func (s *Store) DeleteSection(ctx context.Context, section domain.SectionID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sections WHERE id = ?", section.String()); err != nil {
		return fmt.Errorf("deleting section: %w", err)
	}
	return nil
}

// Sections lists imported sections in display order.
func (s *Store) Sections(ctx context.Context) ([]SectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.imported_at, COUNT(d.path)
		FROM sections s LEFT JOIN documents d ON d.section = s.id
		GROUP BY s.id, s.imported_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	defer rows.Close()

	found := make(map[domain.SectionID]SectionInfo)
	for rows.Next() {
		var info SectionInfo
		var id string
		if err := rows.Scan(&id, &info.ImportedAt, &info.Documents); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		info.Section = domain.SectionID(id)
		found[info.Section] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}

	var infos []SectionInfo
	for _, section := range domain.AllSections() {
		if info, ok := found[section]; ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// Import copies sections from src into the store. Documents that fail
// to load are skipped; a section whose table of contents fails keeps
// its previous snapshot. Only cancellation aborts the whole import.
func (s *Store) Import(ctx context.Context, src driven.ContentStore, sections []domain.SectionID) ([]ImportResult, error) {
	results := make([]ImportResult, 0, len(sections))

	for _, section := range sections {
		result := ImportResult{Section: section}

		toc, err := src.FetchTableOfContents(ctx, section)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			logger.Warn("import %s: %v", section, err)
			result.Err = err
			results = append(results, result)
			continue
		}

		refs := domain.CollectReferences(section, toc)
		docs := make(map[string]*domain.Document, len(refs))
		for _, ref := range refs {
			doc, err := src.FetchDocument(ctx, section, ref.Path)
			if err != nil {
				if ctx.Err() != nil {
					return results, ctx.Err()
				}
				logger.Debug("import %s: skipping %s: %v", section, ref.Path, err)
				result.Skipped++
				continue
			}
			docs[ref.Path] = doc
		}

		if err := s.SaveSection(ctx, section, toc, docs); err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			result.Err = err
		} else {
			result.Documents = len(docs)
			logger.Info("imported %s: %d documents, %d skipped", section, result.Documents, result.Skipped)
		}
		results = append(results, result)
	}

	return results, nil
}

// wrap maps database errors onto fetch errors.
func (s *Store) wrap(ctx context.Context, section domain.SectionID, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		err = domain.ErrNotFound
	} else {
		err = fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return &domain.FetchError{Section: section, Path: path, Err: err}
}
