package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/riscv-toolkit/rvasm/catalog"
)

var (
	// ErrWorkspaceNotFound is returned when a workspace is not found
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrWorkspaceAlreadyExists is returned when trying to create a workspace with an existing ID
	ErrWorkspaceAlreadyExists = errors.New("workspace already exists")
)

// Workspace holds the most recently assembled source for one client,
// so a sequence of edit/assemble calls can be correlated and
// broadcast to other viewers over the WebSocket endpoint.
type Workspace struct {
	ID        string
	XLEN      int
	CreatedAt time.Time

	mu         sync.Mutex
	lastResult *AssembleResponse
}

// SetLastResult records the outcome of the most recent assemble call.
func (w *Workspace) SetLastResult(resp *AssembleResponse) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastResult = resp
}

// LastResult returns the most recently recorded assemble outcome, if any.
func (w *Workspace) LastResult() (*AssembleResponse, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastResult, w.lastResult != nil
}

// WorkspaceManager tracks active workspaces and the shared instruction
// catalog they assemble against.
type WorkspaceManager struct {
	workspaces  map[string]*Workspace
	broadcaster *Broadcaster
	catalogs    *catalog.Catalogs
	mu          sync.RWMutex
}

// NewWorkspaceManager creates a new workspace manager
func NewWorkspaceManager(broadcaster *Broadcaster, catalogs *catalog.Catalogs) *WorkspaceManager {
	return &WorkspaceManager{
		workspaces:  make(map[string]*Workspace),
		broadcaster: broadcaster,
		catalogs:    catalogs,
	}
}

// CreateWorkspace creates a new workspace with a unique ID
func (wm *WorkspaceManager) CreateWorkspace(opts WorkspaceCreateRequest) (*Workspace, error) {
	id, err := generateWorkspaceID()
	if err != nil {
		return nil, err
	}

	xlen := opts.XLEN
	if xlen != 32 && xlen != 64 {
		xlen = 32
	}

	ws := &Workspace{
		ID:        id,
		XLEN:      xlen,
		CreatedAt: time.Now(),
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.workspaces[id]; exists {
		return nil, ErrWorkspaceAlreadyExists
	}

	wm.workspaces[id] = ws
	return ws, nil
}

// GetWorkspace retrieves a workspace by ID
func (wm *WorkspaceManager) GetWorkspace(id string) (*Workspace, error) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	ws, exists := wm.workspaces[id]
	if !exists {
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

// DestroyWorkspace removes a workspace by ID
func (wm *WorkspaceManager) DestroyWorkspace(id string) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.workspaces[id]; !exists {
		return ErrWorkspaceNotFound
	}
	delete(wm.workspaces, id)
	return nil
}

// ListWorkspaces returns a list of all workspace IDs
func (wm *WorkspaceManager) ListWorkspaces() []string {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	ids := make([]string, 0, len(wm.workspaces))
	for id := range wm.workspaces {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active workspaces
func (wm *WorkspaceManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.workspaces)
}

// generateWorkspaceID generates a unique workspace ID
func generateWorkspaceID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
