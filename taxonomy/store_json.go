package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// jsonFileStore implements Store over a single JSON file. Sibling display
// order is the relative order of records in the flat Nodes slice; moves
// reposition records within the slice.
type jsonFileStore struct {
	filePath    string
	lockManager *lockManager
	fileLock    *flock.Flock // cross-process locking, separate .lock file
	releaser    ThumbnailReleaser
	data        *storeData
	// timeFunc defaults to time.Now, overridable for tests
	timeFunc func() time.Time
}

// storeData is the on-disk shape of the taxonomy file.
type storeData struct {
	Nodes    []Node        `json:"nodes"`
	Items    []Item        `json:"items"`
	Metadata storeMetadata `json:"metadata"`
}

// NewJSONStore opens (or creates) a JSON file store at filePath. The
// releaser may be nil, in which case cascade deletion skips thumbnail
// cleanup.
func NewJSONStore(filePath string, releaser ThumbnailReleaser) (Store, error) {
	// Separate lock file so the data file can be replaced during save.
	s := &jsonFileStore{
		filePath:    filePath,
		lockManager: newLockManager(),
		fileLock:    flock.New(filePath + ".lock"),
		releaser:    releaser,
		timeFunc:    time.Now,
		data: &storeData{
			Nodes: []Node{},
			Items: []Item{},
			Metadata: storeMetadata{
				Version:   "1.0",
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
		},
	}

	if err := s.loadWithLock(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return s, nil
}

const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

func (s *jsonFileStore) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (s *jsonFileStore) loadWithLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return s.load()
}

// load reads the JSON file into memory. Caller must handle locking.
func (s *jsonFileStore) load() error {
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil
	}
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var sd storeData
	if err := json.Unmarshal(data, &sd); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	s.data = &sd
	return nil
}

func (s *jsonFileStore) saveWithLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return s.save()
}

// save writes the in-memory data atomically (temp file, then rename).
// Caller must handle locking.
func (s *jsonFileStore) save() error {
	s.data.Metadata.UpdatedAt = s.timeFunc()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func (s *jsonFileStore) Close() error {
	return s.lockManager.execute(writeOperation, s.saveWithLock)
}

// Reload re-reads the data file, discarding in-memory state. Used after a
// watch tick signals that another process rewrote the file.
func (s *jsonFileStore) Reload() error {
	return s.lockManager.execute(writeOperation, s.loadWithLock)
}

// indexOf resolves a node by ID or UUID to its index in the flat slice.
func (s *jsonFileStore) indexOf(id string) int {
	for i := range s.data.Nodes {
		if s.data.Nodes[i].ID == id || s.data.Nodes[i].UUID == id {
			return i
		}
	}
	return -1
}

// siblingIndexes returns the flat-slice indexes of all children of
// parentUUID, in display order.
func (s *jsonFileStore) siblingIndexes(parentUUID string) []int {
	var idxs []int
	for i := range s.data.Nodes {
		if s.data.Nodes[i].ParentUUID == parentUUID {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// hasSiblingNamed reports whether parentUUID already has a child with the
// given name. Names compare case-insensitively: mod folders routinely live
// on case-insensitive filesystems.
func (s *jsonFileStore) hasSiblingNamed(parentUUID, name, excludeUUID string) bool {
	for i := range s.data.Nodes {
		n := &s.data.Nodes[i]
		if n.ParentUUID != parentUUID || n.UUID == excludeUUID {
			continue
		}
		if strings.EqualFold(n.Name, name) {
			return true
		}
	}
	return false
}

// pathID composes the stable user-facing ID for a new node from its
// ancestors' names.
func pathID(parentID, name string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "/", "-"))
	if parentID == "" {
		return slug
	}
	return parentID + "/" + slug
}

func (s *jsonFileStore) CreateNode(req CreateRequest) (*Node, error) {
	var created Node
	err := s.lockManager.execute(writeOperation, func() error {
		if strings.TrimSpace(req.Name) == "" {
			return fmt.Errorf("node name cannot be empty")
		}

		parentUUID := ""
		parentID := ""
		if req.ParentID != "" {
			pi := s.indexOf(req.ParentID)
			if pi < 0 {
				return fmt.Errorf("parent %q: %w", req.ParentID, ErrNotFound)
			}
			parentUUID = s.data.Nodes[pi].UUID
			parentID = s.data.Nodes[pi].ID
		}

		// Duplicate check happens before anything is committed.
		if s.hasSiblingNamed(parentUUID, req.Name, "") {
			return fmt.Errorf("%q under %q: %w", req.Name, req.ParentID, ErrDuplicateName)
		}

		id := pathID(parentID, req.Name)
		if s.indexOf(id) >= 0 {
			// A sibling created, moved away and recreated can collide on
			// the path ID even with distinct names; disambiguate.
			id = id + "-" + uuid.New().String()[:8]
		}

		created = Node{
			UUID:        uuid.New().String(),
			ID:          id,
			Name:        req.Name,
			ParentUUID:  parentUUID,
			Priority:    req.Priority,
			Thumbnail:   req.Thumbnail,
			Description: req.Description,
		}
		s.data.Nodes = append(s.data.Nodes, created)
		return s.saveWithLock()
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *jsonFileStore) RenameNode(id, newName string) (*Node, error) {
	var renamed Node
	err := s.lockManager.execute(writeOperation, func() error {
		if strings.TrimSpace(newName) == "" {
			return fmt.Errorf("node name cannot be empty")
		}
		i := s.indexOf(id)
		if i < 0 {
			return fmt.Errorf("node %q: %w", id, ErrNotFound)
		}
		n := &s.data.Nodes[i]
		if s.hasSiblingNamed(n.ParentUUID, newName, n.UUID) {
			return fmt.Errorf("%q: %w", newName, ErrDuplicateName)
		}
		n.Name = newName
		renamed = *n
		return s.saveWithLock()
	})
	if err != nil {
		return nil, err
	}
	return &renamed, nil
}

func (s *jsonFileStore) SetNodePriority(id string, priority int) (*Node, error) {
	var updated Node
	err := s.lockManager.execute(writeOperation, func() error {
		i := s.indexOf(id)
		if i < 0 {
			return fmt.Errorf("node %q: %w", id, ErrNotFound)
		}
		s.data.Nodes[i].Priority = priority
		updated = s.data.Nodes[i]
		return s.saveWithLock()
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// descendantsPostOrder returns the UUIDs of the subtree rooted at rootUUID
// in depth-first post-order (children before parents), using an explicit
// stack.
func (s *jsonFileStore) descendantsPostOrder(rootUUID string) []string {
	children := make(map[string][]string)
	for i := range s.data.Nodes {
		n := &s.data.Nodes[i]
		children[n.ParentUUID] = append(children[n.ParentUUID], n.UUID)
	}

	var order []string
	type frame struct {
		id       string
		expanded bool
	}
	stack := []frame{{id: rootUUID}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if !top.expanded {
			top.expanded = true
			kids := children[top.id]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: kids[i]})
			}
			continue
		}
		order = append(order, top.id)
		stack = stack[:len(stack)-1]
	}
	return order
}

// thumbnailShared reports whether any node outside the excluded set
// references ref. Thumbnails are content-addressed, so distinct nodes can
// legitimately share one file.
func (s *jsonFileStore) thumbnailShared(ref string, excluded map[string]bool) bool {
	for i := range s.data.Nodes {
		n := &s.data.Nodes[i]
		if n.Thumbnail == ref && !excluded[n.UUID] {
			return true
		}
	}
	return false
}

func (s *jsonFileStore) DeleteNode(id string) error {
	return s.lockManager.execute(writeOperation, func() error {
		rootIdx := s.indexOf(id)
		if rootIdx < 0 {
			return fmt.Errorf("node %q: %w", id, ErrNotFound)
		}
		rootUUID := s.data.Nodes[rootIdx].UUID

		doomed := s.descendantsPostOrder(rootUUID)
		doomedSet := make(map[string]bool, len(doomed))
		for _, u := range doomed {
			doomedSet[u] = true
		}

		// Children are removed before their parents, so halting mid-way
		// never leaves a link across the deleted boundary.
		var haltErr error
		for _, u := range doomed {
			i := s.indexOf(u)
			n := s.data.Nodes[i]
			if s.releaser != nil && n.Thumbnail != "" && !s.thumbnailShared(n.Thumbnail, doomedSet) {
				if err := s.releaser.Release(n.Thumbnail); err != nil {
					haltErr = fmt.Errorf("deleting %q: %w", n.Name, err)
					break
				}
			}
			s.data.Nodes = append(s.data.Nodes[:i], s.data.Nodes[i+1:]...)
			// Nodes already removed no longer pin shared thumbnails.
			delete(doomedSet, u)
		}

		if err := s.saveWithLock(); err != nil {
			return err
		}
		return haltErr
	})
}

func (s *jsonFileStore) MoveNode(nodeID, newParentID string, insertIndex int) error {
	return s.lockManager.execute(writeOperation, func() error {
		srcIdx := s.indexOf(nodeID)
		if srcIdx < 0 {
			return fmt.Errorf("node %q: %w", nodeID, ErrNotFound)
		}
		srcUUID := s.data.Nodes[srcIdx].UUID

		parentUUID := ""
		if newParentID != "" {
			pi := s.indexOf(newParentID)
			if pi < 0 {
				return fmt.Errorf("parent %q: %w", newParentID, ErrNotFound)
			}
			parentUUID = s.data.Nodes[pi].UUID
		}

		if parentUUID == srcUUID {
			return fmt.Errorf("node %q: %w", nodeID, ErrCycle)
		}
		// Walk up from the new parent; hitting the moved node means the
		// target lies inside its own subtree.
		byUUID := make(map[string]*Node, len(s.data.Nodes))
		for i := range s.data.Nodes {
			byUUID[s.data.Nodes[i].UUID] = &s.data.Nodes[i]
		}
		for cur := parentUUID; cur != ""; {
			anc, ok := byUUID[cur]
			if !ok {
				break
			}
			if anc.UUID == srcUUID {
				return fmt.Errorf("node %q: %w", nodeID, ErrCycle)
			}
			cur = anc.ParentUUID
		}

		node := s.data.Nodes[srcIdx]
		if s.hasSiblingNamed(parentUUID, node.Name, node.UUID) {
			return fmt.Errorf("%q: %w", node.Name, ErrDuplicateName)
		}

		// One atomic relink: remove the record, then splice it back in at
		// the requested sibling position under the new parent.
		s.data.Nodes = append(s.data.Nodes[:srcIdx], s.data.Nodes[srcIdx+1:]...)
		node.ParentUUID = parentUUID

		if insertIndex < 0 {
			insertIndex = 0
		}
		siblings := s.siblingIndexes(parentUUID)
		var at int
		if insertIndex < len(siblings) {
			at = siblings[insertIndex]
		} else {
			at = len(s.data.Nodes)
		}
		s.data.Nodes = append(s.data.Nodes, Node{})
		copy(s.data.Nodes[at+1:], s.data.Nodes[at:])
		s.data.Nodes[at] = node

		return s.saveWithLock()
	})
}

func (s *jsonFileStore) FetchTree() (Forest, error) {
	var forest Forest
	err := s.lockManager.execute(readOperation, func() error {
		forest = buildForest(s.data.Nodes, s.data.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return forest, nil
}

// buildForest assembles a forest of copies from flat node records (sibling
// order is record order) and aggregates item counts onto it.
func buildForest(nodes []Node, items []Item) Forest {
	copies := make([]*Node, len(nodes))
	byUUID := make(map[string]*Node, len(nodes))
	for i := range nodes {
		n := nodes[i] // copy; callers own the returned forest
		n.Children = nil
		copies[i] = &n
		byUUID[n.UUID] = &n
	}

	var forest Forest
	for _, n := range copies {
		if n.ParentUUID == "" {
			forest = append(forest, n)
			continue
		}
		if p, ok := byUUID[n.ParentUUID]; ok {
			p.Children = append(p.Children, n)
		} else {
			// Orphaned record; surface it at root rather than hide it.
			forest = append(forest, n)
		}
	}

	Aggregate(forest, GroupByCategory(items))
	return forest
}

func (s *jsonFileStore) AssignItemCategory(sha, name, nodeID string) error {
	return s.lockManager.execute(writeOperation, func() error {
		if nodeID != "" {
			i := s.indexOf(nodeID)
			if i < 0 {
				return fmt.Errorf("node %q: %w", nodeID, ErrNotFound)
			}
			// Categories are stored as the node's path ID so counts
			// aggregate regardless of which identifier the caller used.
			nodeID = s.data.Nodes[i].ID
		}
		for i := range s.data.Items {
			if s.data.Items[i].SHA == sha {
				s.data.Items[i].Category = nodeID
				if name != "" {
					s.data.Items[i].Name = name
				}
				return s.saveWithLock()
			}
		}
		s.data.Items = append(s.data.Items, Item{SHA: sha, Name: name, Category: nodeID})
		return s.saveWithLock()
	})
}

func (s *jsonFileStore) Items() ([]Item, error) {
	var items []Item
	err := s.lockManager.execute(readOperation, func() error {
		items = make([]Item, len(s.data.Items))
		copy(items, s.data.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
