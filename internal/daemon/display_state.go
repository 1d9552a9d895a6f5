package daemon

import (
	"sync"
	"time"

	"github.com/jmylchreest/snackbar/internal/model"
)

// DisplayStatus is where a bridged notification is in the snack lifecycle.
type DisplayStatus int

const (
	// DisplayStatusShowing covers pending and visible snacks.
	DisplayStatusShowing DisplayStatus = iota
	// DisplayStatusClosing means the snack is playing its exit transition.
	DisplayStatusClosing
)

// String returns the string representation of DisplayStatus.
func (s DisplayStatus) String() string {
	switch s {
	case DisplayStatusShowing:
		return "showing"
	case DisplayStatusClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// DisplayState links a snack to the D-Bus notification it came from.
type DisplayState struct {
	SnackID   model.ID
	DBusID    uint32
	Status    DisplayStatus
	ActionKey string // Key reported in ActionInvoked
	CreatedAt time.Time
}

// DisplayStateManager maps snack ids and D-Bus ids both ways.
type DisplayStateManager struct {
	mu        sync.RWMutex
	bySnackID map[model.ID]*DisplayState
	byDBusID  map[uint32]model.ID
}

// NewDisplayStateManager creates a new DisplayStateManager.
func NewDisplayStateManager() *DisplayStateManager {
	return &DisplayStateManager{
		bySnackID: make(map[model.ID]*DisplayState),
		byDBusID:  make(map[uint32]model.ID),
	}
}

// Register links snackID and dbusID, replacing any earlier link of either.
func (m *DisplayStateManager) Register(snackID model.ID, dbusID uint32, actionKey string) DisplayState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.bySnackID[snackID]; ok {
		delete(m.byDBusID, old.DBusID)
	}
	if oldSnack, ok := m.byDBusID[dbusID]; ok {
		delete(m.bySnackID, oldSnack)
	}

	state := &DisplayState{
		SnackID:   snackID,
		DBusID:    dbusID,
		Status:    DisplayStatusShowing,
		ActionKey: actionKey,
		CreatedAt: time.Now(),
	}
	m.bySnackID[snackID] = state
	m.byDBusID[dbusID] = snackID
	return *state
}

// GetBySnackID returns the state for a snack.
func (m *DisplayStateManager) GetBySnackID(snackID model.ID) (DisplayState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.bySnackID[snackID]
	if !ok {
		return DisplayState{}, false
	}
	return *state, true
}

// GetByDBusID returns the state for a D-Bus notification.
func (m *DisplayStateManager) GetByDBusID(dbusID uint32) (DisplayState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snackID, ok := m.byDBusID[dbusID]
	if !ok {
		return DisplayState{}, false
	}
	return *m.bySnackID[snackID], true
}

// SetActionKey changes the action key reported for a snack.
func (m *DisplayStateManager) SetActionKey(snackID model.ID, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.bySnackID[snackID]; ok {
		state.ActionKey = key
	}
}

// MarkClosing flags a snack as closing. Returns false if it was unknown
// or already closing.
func (m *DisplayStateManager) MarkClosing(snackID model.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.bySnackID[snackID]
	if !ok || state.Status == DisplayStatusClosing {
		return false
	}
	state.Status = DisplayStatusClosing
	return true
}

// RemoveBySnackID drops the link for a snack.
func (m *DisplayStateManager) RemoveBySnackID(snackID model.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.bySnackID[snackID]; ok {
		delete(m.byDBusID, state.DBusID)
		delete(m.bySnackID, snackID)
	}
}

// RemoveByDBusID drops the link for a D-Bus notification.
func (m *DisplayStateManager) RemoveByDBusID(dbusID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snackID, ok := m.byDBusID[dbusID]; ok {
		delete(m.bySnackID, snackID)
		delete(m.byDBusID, dbusID)
	}
}

// Count returns the number of linked notifications.
func (m *DisplayStateManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bySnackID)
}
