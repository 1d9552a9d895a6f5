// Package queue implements the admission and visibility policy of a snack queue.
package queue

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/store"
)

// Rejection errors returned by Enqueue.
var (
	ErrDuplicateID      = errors.New("snack with same id is already enqueued")
	ErrDuplicateMessage = errors.New("snack with same message is already enqueued")
	ErrEmptyMessage     = model.ErrEmptyMessage
)

// EvictFunc is invoked by Dequeue when every active slot is pinned by a
// persistent snack. It is expected to close id with the given reason.
type EvictFunc func(id model.ID, reason model.CloseReason)

// Options configures a Controller.
type Options struct {
	MaxSnacks         int
	PreventDuplicates bool
}

// Controller tracks which snacks are active (displayable) and which are
// pending, on top of an ordered keyed store.
type Controller struct {
	mu     sync.RWMutex
	store  *store.Store[model.ID, model.Item]
	logger *slog.Logger

	maxSnacks         int
	preventDuplicates bool
	activeIDs         []model.ID

	onEvict EvictFunc
}

// NewController creates a Controller that owns a fresh store.
func NewController(opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxSnacks < 1 {
		opts.MaxSnacks = 1
	}
	return &Controller{
		store:             store.New[model.ID, model.Item](logger),
		logger:            logger,
		maxSnacks:         opts.MaxSnacks,
		preventDuplicates: opts.PreventDuplicates,
		activeIDs:         make([]model.ID, 0, opts.MaxSnacks),
	}
}

// SetEvictCallback sets the hook used for forced eviction.
func (c *Controller) SetEvictCallback(cb EvictFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = cb
}

// Store exposes the underlying store for read access and subscriptions.
func (c *Controller) Store() *store.Store[model.ID, model.Item] {
	return c.store
}

// Enqueue admits item into the store. It becomes active on the next Dequeue
// if capacity allows, otherwise it stays pending.
func (c *Controller) Enqueue(item model.Item) (model.ID, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.preventDuplicates && c.hasMessageLocked(item.Message) {
		c.logger.Debug("snack rejected: duplicate message", "id", item.ID)
		return "", ErrDuplicateMessage
	}

	if !c.store.Insert(item.ID, item) {
		c.logger.Warn("snack with same id has already been enqueued", "id", item.ID)
		return "", ErrDuplicateID
	}

	c.logger.Debug("snack enqueued", "id", item.ID, "queue_size", c.store.Len())
	return item.ID, nil
}

// hasMessageLocked reports whether any stored snack (active or pending)
// carries message. Caller must hold the lock.
func (c *Controller) hasMessageLocked(message string) bool {
	found := false
	c.store.Each(func(_ model.ID, it model.Item) bool {
		if it.Message == message {
			found = true
			return false
		}
		return true
	})
	return found
}

// Dequeue recomputes the active set as the first MaxSnacks stored ids.
// When more snacks are waiting than fit and every active slot is taken by a
// persistent snack, the oldest active snack is force-closed first.
func (c *Controller) Dequeue() {
	c.mu.Lock()
	ids := c.store.IDs()

	var evictID model.ID
	if len(ids) > c.maxSnacks && c.pinnedCountLocked() >= c.maxSnacks && len(c.activeIDs) > 0 {
		evictID = c.activeIDs[0]
	}
	onEvict := c.onEvict

	if len(ids) > c.maxSnacks {
		ids = ids[:c.maxSnacks]
	}
	previous := c.activeIDs
	c.activeIDs = ids
	c.mu.Unlock()

	if evictID != "" {
		c.logger.Debug("queue full of persistent snacks, forcing oldest closed", "id", evictID)
		if onEvict != nil {
			onEvict(evictID, model.CloseReasonForced)
		} else {
			c.Close(evictID, model.CloseReasonForced)
		}
	}

	if !slices.Equal(previous, ids) {
		c.logger.Debug("active snacks changed", "active", len(ids), "pending", c.store.Len()-len(ids))
	}
}

// pinnedCountLocked counts active, still-open snacks that never expire.
// Caller must hold the lock.
func (c *Controller) pinnedCountLocked() int {
	count := 0
	for _, id := range c.activeIDs {
		it, ok := c.store.Get(id)
		if ok && it.Open && it.Persistent() {
			count++
		}
	}
	return count
}

// Close starts the exit of a snack by marking it not open. It does not
// remove it. A clickaway reason is ignored. Returns true if the snack
// transitioned from open to closing.
func (c *Controller) Close(id model.ID, reason model.CloseReason) bool {
	if reason == model.CloseReasonClickaway {
		return false
	}

	transitioned := false
	c.store.Update(id, func(it *model.Item) {
		if it.Open {
			it.Open = false
			transitioned = true
		}
	})

	if transitioned {
		c.logger.Debug("snack closing", "id", id, "reason", reason)
	}
	return transitioned
}

// Update applies a patch to a stored snack. Returns false for unknown ids.
func (c *Controller) Update(id model.ID, patch model.Patch) bool {
	return c.store.Update(id, patch.Apply)
}

// Remove deletes a snack from the store and drops it from the active set.
// Pending snacks are not promoted until the next Dequeue.
func (c *Controller) Remove(id model.ID) bool {
	if !c.store.Remove(id) {
		return false
	}

	c.mu.Lock()
	if idx := slices.Index(c.activeIDs, id); idx >= 0 {
		c.activeIDs = slices.Delete(c.activeIDs, idx, idx+1)
	}
	c.mu.Unlock()

	c.logger.Debug("snack removed", "id", id, "queue_size", c.store.Len())
	return true
}

// SetMaxSnacks changes the capacity. Takes effect on the next Dequeue.
func (c *Controller) SetMaxSnacks(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSnacks = n
}

// MaxSnacks returns the capacity.
func (c *Controller) MaxSnacks() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxSnacks
}

// SetPreventDuplicates toggles message-based de-duplication.
func (c *Controller) SetPreventDuplicates(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preventDuplicates = enabled
}

// ActiveIDs returns a copy of the active ids in display order.
func (c *Controller) ActiveIDs() []model.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.activeIDs)
}

// PendingIDs returns the stored ids that are not active, in FIFO order.
func (c *Controller) PendingIDs() []model.ID {
	c.mu.RLock()
	active := make(map[model.ID]bool, len(c.activeIDs))
	for _, id := range c.activeIDs {
		active[id] = true
	}
	c.mu.RUnlock()

	var pending []model.ID
	for _, id := range c.store.IDs() {
		if !active[id] {
			pending = append(pending, id)
		}
	}
	return pending
}

// Get returns a copy of a stored snack.
func (c *Controller) Get(id model.ID) (model.Item, bool) {
	it, ok := c.store.Get(id)
	if !ok {
		return model.Item{}, false
	}
	return it.Clone(), true
}

// Snapshot is a point-in-time view of the queue.
type Snapshot struct {
	Active  []model.Item `json:"active" yaml:"active"`
	Pending []model.Item `json:"pending" yaml:"pending"`
}

// Len returns the number of stored snacks in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Active) + len(s.Pending)
}

// Snapshot returns copies of the active and pending snacks.
func (c *Controller) Snapshot() Snapshot {
	var snap Snapshot
	for _, id := range c.ActiveIDs() {
		if it, ok := c.Get(id); ok {
			snap.Active = append(snap.Active, it)
		}
	}
	for _, id := range c.PendingIDs() {
		if it, ok := c.Get(id); ok {
			snap.Pending = append(snap.Pending, it)
		}
	}
	return snap
}

// Len returns the number of stored snacks (active and pending).
func (c *Controller) Len() int {
	return c.store.Len()
}

// Shutdown releases the underlying store.
func (c *Controller) Shutdown() error {
	return c.store.Close()
}
