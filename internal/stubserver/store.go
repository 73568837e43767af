package stubserver

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/utils"
)

// Store errors, mapped to HTTP statuses by the handlers
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid request")
	ErrTooLarge = errors.New("too large")
)

// node is one file or directory held in memory
type node struct {
	id        types.ItemID
	parent    types.FolderID
	name      string
	itemType  types.ItemType
	data      []byte
	status    types.ChecksumStatus
	createdAt time.Time
	expiresAt *time.Time
}

// partial collects the chunks of an upload in progress, keyed by dzuuid
type partial struct {
	name      string
	parent    types.FolderID
	total     int
	totalSize int64
	expires   int64
	next      int
	data      []byte
}

// Store is the in-memory item tree behind the stub server
type Store struct {
	mu       sync.RWMutex
	policy   types.UploadPolicy
	nodes    map[types.ItemID]*node
	children map[types.FolderID]map[types.ItemID]struct{}
	uploads  map[string]*partial
	now      func() time.Time
}

// NewStore creates an empty tree enforcing policy
func NewStore(policy types.UploadPolicy) *Store {
	return &Store{
		policy:   policy,
		nodes:    make(map[types.ItemID]*node),
		children: map[types.FolderID]map[types.ItemID]struct{}{types.Root: {}},
		uploads:  make(map[string]*partial),
		now:      time.Now,
	}
}

// Policy returns the enforced upload policy
func (s *Store) Policy() types.UploadPolicy { return s.policy }

// List returns the children of parent and the trail from the root to it
func (s *Store) List(parent types.FolderID) (*types.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.children[parent]; !ok {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, parent)
	}

	items := make([]types.Item, 0, len(s.children[parent]))
	for id := range s.children[parent] {
		items = append(items, s.nodes[id].item())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].IsDir() != items[j].IsDir() {
			return items[i].IsDir()
		}
		return items[i].Name < items[j].Name
	})

	return &types.Listing{Items: items, Breadcrumbs: s.trail(parent)}, nil
}

// trail walks parent pointers up to the root. Caller holds s.mu.
func (s *Store) trail(folder types.FolderID) []types.Breadcrumb {
	var crumbs []types.Breadcrumb
	for id := folder; !id.IsRoot(); {
		n := s.nodes[types.ItemID(id)]
		crumbs = append(crumbs, types.Breadcrumb{ID: n.id, Name: n.name})
		id = n.parent
	}
	for i, j := 0, len(crumbs)-1; i < j; i, j = i+1, j-1 {
		crumbs[i], crumbs[j] = crumbs[j], crumbs[i]
	}
	if crumbs == nil {
		crumbs = []types.Breadcrumb{}
	}
	return crumbs
}

// CreateDirectory adds an empty directory under parent
func (s *Store) CreateDirectory(parent types.FolderID, name string) (types.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Item{}, fmt.Errorf("%w: directory name must not be empty", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFree(parent, name); err != nil {
		return types.Item{}, err
	}

	n := &node{
		id:        types.ItemID(uuid.NewString()),
		parent:    parent,
		name:      name,
		itemType:  types.ItemTypeDirectory,
		createdAt: s.now().UTC(),
	}
	s.insert(n)
	s.children[types.FolderID(n.id)] = make(map[types.ItemID]struct{})
	return n.item(), nil
}

// Rename changes the name of id. A file keeps its extension when the new
// name has none.
func (s *Store) Rename(id types.ItemID, name string) (types.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Item{}, fmt.Errorf("%w: new name must not be empty", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return types.Item{}, fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	if n.itemType == types.ItemTypeFile && path.Ext(name) == "" {
		name += path.Ext(n.name)
	}
	if name == n.name {
		return n.item(), nil
	}
	if err := s.checkFree(n.parent, name); err != nil {
		return types.Item{}, err
	}
	n.name = name
	return n.item(), nil
}

// Delete removes id and, for a directory, everything below it
func (s *Store) Delete(id types.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("%w: item %s", ErrNotFound, id)
	}
	delete(s.children[n.parent], id)
	s.remove(n)
	return nil
}

func (s *Store) remove(n *node) {
	if n.itemType == types.ItemTypeDirectory {
		for child := range s.children[types.FolderID(n.id)] {
			s.remove(s.nodes[child])
		}
		delete(s.children, types.FolderID(n.id))
	}
	delete(s.nodes, n.id)
}

// Chunk is one received upload chunk
type Chunk struct {
	UploadID          string
	Name              string
	Index             int
	Total             int
	TotalSize         int64
	Offset            int64
	Parent            types.FolderID
	ExpirationMinutes int64
	Data              []byte
}

// PutChunk appends c to its upload. Chunks must arrive in order; resending
// the last acknowledged chunk is accepted and ignored. The completed file is
// returned with its checksum pending once the final chunk is in.
func (s *Store) PutChunk(c Chunk) (*types.Item, error) {
	if c.UploadID == "" || c.Name == "" {
		return nil, fmt.Errorf("%w: missing file name or upload id", ErrInvalid)
	}
	if c.Total <= 0 || c.Index < 0 || c.Index >= c.Total {
		return nil, fmt.Errorf("%w: chunk %d of %d", ErrInvalid, c.Index, c.Total)
	}
	if c.TotalSize > s.policy.MaxFileBytes() {
		return nil, fmt.Errorf("%w: file exceeds %d MB", ErrTooLarge, s.policy.MaxFilesizeMB)
	}
	if int64(len(c.Data)) > s.policy.ChunkBytes() {
		return nil, fmt.Errorf("%w: chunk exceeds %d MB", ErrTooLarge, s.policy.ChunkSizeMB)
	}
	if c.ExpirationMinutes < 0 || c.ExpirationMinutes > s.policy.MaxExpirationMinutes {
		return nil, fmt.Errorf("%w: expiration must be between 0 and %d minutes", ErrInvalid, s.policy.MaxExpirationMinutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.children[c.Parent]; !ok {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, c.Parent)
	}

	p, ok := s.uploads[c.UploadID]
	if !ok {
		if c.Index != 0 {
			return nil, fmt.Errorf("%w: upload %s starts at chunk %d", ErrInvalid, c.UploadID, c.Index)
		}
		if err := s.checkFree(c.Parent, c.Name); err != nil {
			return nil, err
		}
		p = &partial{name: c.Name, parent: c.Parent, total: c.Total, totalSize: c.TotalSize, expires: c.ExpirationMinutes}
		s.uploads[c.UploadID] = p
	}

	switch {
	case c.Index == p.next-1:
		return nil, nil
	case c.Index != p.next:
		return nil, fmt.Errorf("%w: expected chunk %d, got %d", ErrInvalid, p.next, c.Index)
	case c.Offset != int64(len(p.data)):
		return nil, fmt.Errorf("%w: chunk offset %d, have %d bytes", ErrInvalid, c.Offset, len(p.data))
	}
	p.data = append(p.data, c.Data...)
	p.next++

	if p.next < p.total {
		return nil, nil
	}
	delete(s.uploads, c.UploadID)
	if int64(len(p.data)) != p.totalSize {
		return nil, fmt.Errorf("%w: received %d bytes, expected %d", ErrInvalid, len(p.data), p.totalSize)
	}
	if err := s.checkFree(p.parent, p.name); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	n := &node{
		id:        types.ItemID(uuid.NewString()),
		parent:    p.parent,
		name:      p.name,
		itemType:  types.ItemTypeFile,
		data:      p.data,
		status:    types.ChecksumStatus{State: types.ChecksumPending},
		createdAt: now,
	}
	if p.expires > 0 {
		exp := now.Add(time.Duration(p.expires) * time.Minute)
		n.expiresAt = &exp
	}
	s.insert(n)
	item := n.item()
	return &item, nil
}

// SetChecksum records the outcome of checksum processing for id
func (s *Store) SetChecksum(id types.ItemID, status types.ChecksumStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[id]; ok && n.itemType == types.ItemTypeFile {
		n.status = status
	}
}

// Content returns the name and bytes of file id
func (s *Store) Content(id types.ItemID) (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok || n.itemType != types.ItemTypeFile {
		return "", nil, fmt.Errorf("%w: file %s", ErrNotFound, id)
	}
	return n.name, n.data, nil
}

// checkFree fails when parent already holds name. Caller holds s.mu.
func (s *Store) checkFree(parent types.FolderID, name string) error {
	kids, ok := s.children[parent]
	if !ok {
		return fmt.Errorf("%w: folder %s", ErrNotFound, parent)
	}
	for id := range kids {
		if s.nodes[id].name == name {
			return fmt.Errorf("%w: an item named %q already exists", ErrConflict, name)
		}
	}
	return nil
}

// insert links n under its parent. Caller holds s.mu.
func (s *Store) insert(n *node) {
	s.nodes[n.id] = n
	s.children[n.parent][n.id] = struct{}{}
}

func (n *node) item() types.Item {
	it := types.Item{
		ID:        n.id,
		Name:      n.name,
		Type:      n.itemType,
		CreatedAt: n.createdAt,
		ExpiresAt: n.expiresAt,
	}
	if !n.parent.IsRoot() {
		pid := types.ItemID(n.parent)
		it.ParentID = &pid
	}
	if n.itemType == types.ItemTypeFile {
		size := int64(len(n.data))
		it.SizeBytes = &size
		it.SizeHuman = utils.HumanSize(size)
		it.Checksum = n.status
	}
	return it
}
