package taxonomy

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/check_cycle.sql
var checkCycleSQL string

//go:embed sql/descendants.sql
var descendantsSQL string

// sqliteStore implements Store over a SQLite database. Sibling display order
// is the position column scoped per parent.
type sqliteStore struct {
	db       *sql.DB
	releaser ThumbnailReleaser
}

// NewSQLiteStore opens (or creates) a SQLite-backed store at dbPath. The
// releaser may be nil, in which case cascade deletion skips thumbnail
// cleanup.
func NewSQLiteStore(dbPath string, releaser ThumbnailReleaser) (Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// Secondary connections can see "database is locked" while the
			// first connection switches journal modes.
			if pragma == "PRAGMA journal_mode = WAL" && strings.Contains(err.Error(), "database is locked") {
				continue
			}
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	// Single writer connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteStore{db: db, releaser: releaser}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

// resolve maps an ID or UUID to the node's UUID.
func (s *sqliteStore) resolve(q queryer, id string) (string, error) {
	var u string
	err := q.QueryRow("SELECT uuid FROM nodes WHERE uuid = ? OR id = ?", id, id).Scan(&u)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve node id: %w", err)
	}
	return u, nil
}

func (s *sqliteStore) hasSiblingNamed(q queryer, parentUUID, name, excludeUUID string) (bool, error) {
	var count int
	err := q.QueryRow(
		"SELECT COUNT(*) FROM nodes WHERE parent_uuid = ? AND uuid != ? AND name = ? COLLATE NOCASE",
		parentUUID, excludeUUID, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sibling names: %w", err)
	}
	return count > 0, nil
}

func (s *sqliteStore) CreateNode(req CreateRequest) (*Node, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("node name cannot be empty")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	parentUUID := ""
	parentID := ""
	if req.ParentID != "" {
		parentUUID, err = s.resolve(tx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if err := tx.QueryRow("SELECT id FROM nodes WHERE uuid = ?", parentUUID).Scan(&parentID); err != nil {
			return nil, fmt.Errorf("failed to read parent: %w", err)
		}
	}

	dup, err := s.hasSiblingNamed(tx, parentUUID, req.Name, "")
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%q under %q: %w", req.Name, req.ParentID, ErrDuplicateName)
	}

	id := pathID(parentID, req.Name)
	var clash int
	if err := tx.QueryRow("SELECT COUNT(*) FROM nodes WHERE id = ?", id).Scan(&clash); err != nil {
		return nil, fmt.Errorf("failed to check id: %w", err)
	}
	if clash > 0 {
		id = id + "-" + uuid.New().String()[:8]
	}

	var position int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(position)+1, 0) FROM nodes WHERE parent_uuid = ?", parentUUID,
	).Scan(&position); err != nil {
		return nil, fmt.Errorf("failed to compute position: %w", err)
	}

	now := time.Now().Unix()
	node := Node{
		UUID:        uuid.New().String(),
		ID:          id,
		Name:        req.Name,
		ParentUUID:  parentUUID,
		Priority:    req.Priority,
		Thumbnail:   req.Thumbnail,
		Description: req.Description,
	}
	query, args, err := squirrel.Insert("nodes").
		Columns("uuid", "id", "name", "parent_uuid", "position", "priority", "thumbnail", "description", "created_at", "updated_at").
		Values(node.UUID, node.ID, node.Name, node.ParentUUID, position, node.Priority, node.Thumbnail, node.Description, now, now).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &node, nil
}

func (s *sqliteStore) RenameNode(id, newName string) (*Node, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("node name cannot be empty")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	u, err := s.resolve(tx, id)
	if err != nil {
		return nil, err
	}
	var parentUUID string
	if err := tx.QueryRow("SELECT parent_uuid FROM nodes WHERE uuid = ?", u).Scan(&parentUUID); err != nil {
		return nil, fmt.Errorf("failed to read node: %w", err)
	}
	dup, err := s.hasSiblingNamed(tx, parentUUID, newName, u)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%q: %w", newName, ErrDuplicateName)
	}

	query, args, err := squirrel.Update("nodes").
		Set("name", newName).
		Set("updated_at", time.Now().Unix()).
		Where(squirrel.Eq{"uuid": u}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("failed to rename node: %w", err)
	}

	node, err := s.scanNode(tx, u)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return node, nil
}

func (s *sqliteStore) SetNodePriority(id string, priority int) (*Node, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	u, err := s.resolve(tx, id)
	if err != nil {
		return nil, err
	}
	query, args, err := squirrel.Update("nodes").
		Set("priority", priority).
		Set("updated_at", time.Now().Unix()).
		Where(squirrel.Eq{"uuid": u}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("failed to update priority: %w", err)
	}

	node, err := s.scanNode(tx, u)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return node, nil
}

func (s *sqliteStore) scanNode(q queryer, u string) (*Node, error) {
	var n Node
	err := q.QueryRow(
		"SELECT uuid, id, name, parent_uuid, priority, thumbnail, description FROM nodes WHERE uuid = ?", u,
	).Scan(&n.UUID, &n.ID, &n.Name, &n.ParentUUID, &n.Priority, &n.Thumbnail, &n.Description)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("node %q: %w", u, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}
	return &n, nil
}

func (s *sqliteStore) DeleteNode(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rootUUID, err := s.resolve(tx, id)
	if err != nil {
		return err
	}

	// Children-before-parents order from the recursive CTE, so a halt never
	// strands a child whose parent is already gone.
	rows, err := tx.Query(descendantsSQL, rootUUID)
	if err != nil {
		return fmt.Errorf("failed to list descendants: %w", err)
	}
	var doomed []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan descendant: %w", err)
		}
		doomed = append(doomed, u)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("error iterating descendants: %w", err)
	}
	_ = rows.Close()

	doomedSet := make(map[string]bool, len(doomed))
	for _, u := range doomed {
		doomedSet[u] = true
	}

	var haltErr error
	for _, u := range doomed {
		var name, thumb string
		if err := tx.QueryRow("SELECT name, thumbnail FROM nodes WHERE uuid = ?", u).Scan(&name, &thumb); err != nil {
			return fmt.Errorf("failed to read node: %w", err)
		}
		if s.releaser != nil && thumb != "" {
			shared, err := s.thumbnailShared(tx, thumb, doomedSet)
			if err != nil {
				return err
			}
			if !shared {
				if err := s.releaser.Release(thumb); err != nil {
					haltErr = fmt.Errorf("deleting %q: %w", name, err)
					break
				}
			}
		}
		if _, err := tx.Exec("DELETE FROM nodes WHERE uuid = ?", u); err != nil {
			return fmt.Errorf("failed to delete node: %w", err)
		}
		delete(doomedSet, u)
	}

	// Commit even on halt: nodes removed before the failure stay removed,
	// matching the file store.
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return haltErr
}

func (s *sqliteStore) thumbnailShared(q queryer, ref string, excluded map[string]bool) (bool, error) {
	rows, err := q.Query("SELECT uuid FROM nodes WHERE thumbnail = ?", ref)
	if err != nil {
		return false, fmt.Errorf("failed to check thumbnail sharing: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return false, fmt.Errorf("failed to scan: %w", err)
		}
		if !excluded[u] {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (s *sqliteStore) MoveNode(nodeID, newParentID string, insertIndex int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	srcUUID, err := s.resolve(tx, nodeID)
	if err != nil {
		return err
	}
	parentUUID := ""
	if newParentID != "" {
		parentUUID, err = s.resolve(tx, newParentID)
		if err != nil {
			return err
		}
	}

	if parentUUID == srcUUID {
		return fmt.Errorf("node %q: %w", nodeID, ErrCycle)
	}
	if parentUUID != "" {
		var cycle int
		if err := tx.QueryRow(checkCycleSQL, parentUUID, srcUUID).Scan(&cycle); err != nil {
			return fmt.Errorf("failed to check for cycle: %w", err)
		}
		if cycle > 0 {
			return fmt.Errorf("node %q: %w", nodeID, ErrCycle)
		}
	}

	var name string
	if err := tx.QueryRow("SELECT name FROM nodes WHERE uuid = ?", srcUUID).Scan(&name); err != nil {
		return fmt.Errorf("failed to read node: %w", err)
	}
	dup, err := s.hasSiblingNamed(tx, parentUUID, name, srcUUID)
	if err != nil {
		return err
	}
	if dup {
		return fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}

	// Renumber siblings with the moved node spliced in at insertIndex.
	rows, err := tx.Query(
		"SELECT uuid FROM nodes WHERE parent_uuid = ? AND uuid != ? ORDER BY position", parentUUID, srcUUID,
	)
	if err != nil {
		return fmt.Errorf("failed to list siblings: %w", err)
	}
	var siblings []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan sibling: %w", err)
		}
		siblings = append(siblings, u)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("error iterating siblings: %w", err)
	}
	_ = rows.Close()

	if insertIndex < 0 {
		insertIndex = 0
	}
	if insertIndex > len(siblings) {
		insertIndex = len(siblings)
	}
	ordered := make([]string, 0, len(siblings)+1)
	ordered = append(ordered, siblings[:insertIndex]...)
	ordered = append(ordered, srcUUID)
	ordered = append(ordered, siblings[insertIndex:]...)

	now := time.Now().Unix()
	if _, err := tx.Exec(
		"UPDATE nodes SET parent_uuid = ?, updated_at = ? WHERE uuid = ?", parentUUID, now, srcUUID,
	); err != nil {
		return fmt.Errorf("failed to relink node: %w", err)
	}
	for pos, u := range ordered {
		if _, err := tx.Exec("UPDATE nodes SET position = ? WHERE uuid = ?", pos, u); err != nil {
			return fmt.Errorf("failed to renumber siblings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *sqliteStore) FetchTree() (Forest, error) {
	query, args, err := squirrel.Select("uuid", "id", "name", "parent_uuid", "priority", "thumbnail", "description").
		From("nodes").
		OrderBy("parent_uuid", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var nodes []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.UUID, &n.ID, &n.Name, &n.ParentUUID, &n.Priority, &n.Thumbnail, &n.Description); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	return buildForest(nodes, items), nil
}

func (s *sqliteStore) AssignItemCategory(sha, name, nodeID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if nodeID != "" {
		u, err := s.resolve(tx, nodeID)
		if err != nil {
			return err
		}
		// Store the node's path ID so counts aggregate regardless of
		// which identifier the caller used.
		if err := tx.QueryRow("SELECT id FROM nodes WHERE uuid = ?", u).Scan(&nodeID); err != nil {
			return fmt.Errorf("failed to read node id: %w", err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO items (sha, name, category) VALUES (?, ?, ?)
		 ON CONFLICT(sha) DO UPDATE SET category = excluded.category,
		 name = CASE WHEN excluded.name != '' THEN excluded.name ELSE items.name END`,
		sha, name, nodeID,
	); err != nil {
		return fmt.Errorf("failed to assign category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *sqliteStore) Items() ([]Item, error) {
	rows, err := s.db.Query("SELECT sha, name, category FROM items")
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.SHA, &it.Name, &it.Category); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}
