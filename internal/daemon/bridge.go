package daemon

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/jmylchreest/snackbar/internal/dbus"
	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// Snacks is the provider surface the daemon drives.
type Snacks interface {
	provider.Snacks
	Options() provider.Options
}

// Signaler emits D-Bus notification signals.
type Signaler interface {
	CloseWithReason(id uint32, reason dbus.CloseReason) error
	EmitActionInvoked(id uint32, actionKey string) error
}

// Bridge turns D-Bus notifications into snacks and reports snack closes
// back as NotificationClosed and ActionInvoked signals.
type Bridge struct {
	snacks  Snacks
	signals Signaler
	states  *DisplayStateManager
	logger  *slog.Logger

	mu               sync.RWMutex
	criticalPersists bool
}

// NewBridge creates a bridge. Register Hooks() on the provider so closes
// are reported.
func NewBridge(snacks Snacks, signals Signaler, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		snacks:  snacks,
		signals: signals,
		states:  NewDisplayStateManager(),
		logger:  logger,
	}
}

// SetCriticalPersists controls whether critical notifications without an
// explicit timeout stay until dismissed.
func (b *Bridge) SetCriticalPersists(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criticalPersists = v
}

// States exposes the snack/D-Bus id mapping.
func (b *Bridge) States() *DisplayStateManager {
	return b.states
}

// HandleNotify shows a notification. A replacement updates the snack in
// place while it is still showing; otherwise a new snack is enqueued.
// Rejected notifications are closed straight away with reason undefined.
func (b *Bridge) HandleNotify(n *dbus.DBusNotification, id uint32, replaced bool) {
	b.mu.RLock()
	snack := n.Snack(b.criticalPersists)
	b.mu.RUnlock()
	snack.Meta[dbus.MetaDBusID] = strconv.FormatUint(uint64(id), 10)

	actionKey := ""
	if snack.Action != nil {
		actionKey = snack.Action.Key
	}

	if replaced {
		if state, ok := b.states.GetByDBusID(id); ok && state.Status == DisplayStatusShowing {
			if b.snacks.Update(state.SnackID, b.replacement(snack)) {
				b.states.SetActionKey(state.SnackID, actionKey)
				b.logger.Debug("replaced snack", "dbus_id", id, "id", state.SnackID)
				return
			}
		}
	}

	snackID, ok := b.snacks.Enqueue(snack)
	if !ok {
		b.logger.Debug("notification rejected", "dbus_id", id, "summary", n.Summary)
		if err := b.signals.CloseWithReason(id, dbus.CloseReasonUndefined); err != nil {
			b.logger.Warn("failed to emit close signal", "dbus_id", id, "error", err)
		}
		return
	}
	b.states.Register(snackID, id, actionKey)
	b.logger.Debug("notification shown", "dbus_id", id, "id", snackID)
}

func (b *Bridge) replacement(s model.Snack) model.Patch {
	duration := b.snacks.Options().EffectiveDuration(s)
	return model.Patch{
		Message:          &s.Message,
		Variant:          &s.Variant,
		AutoHideDuration: &duration,
		Action:           &s.Action,
		Meta:             s.Meta,
	}
}

// HandleCloseRequest closes the snack behind a CloseNotification call. The
// D-Bus server emits the "closed" signal itself.
func (b *Bridge) HandleCloseRequest(id uint32) {
	state, ok := b.states.GetByDBusID(id)
	if !ok {
		return
	}
	b.states.MarkClosing(state.SnackID)
	b.snacks.Close(state.SnackID)
}

// Hooks returns the provider hooks that report closes over D-Bus.
func (b *Bridge) Hooks() provider.Hooks {
	return provider.Hooks{
		OnClose:  b.onClose,
		OnExited: b.states.RemoveBySnackID,
	}
}

func (b *Bridge) onClose(id model.ID, reason model.CloseReason) {
	state, ok := b.states.GetBySnackID(id)
	if !ok || !b.states.MarkClosing(id) {
		return
	}

	if reason == model.CloseReasonAction && state.ActionKey != "" {
		if err := b.signals.EmitActionInvoked(state.DBusID, state.ActionKey); err != nil {
			b.logger.Warn("failed to emit action signal", "dbus_id", state.DBusID, "error", err)
		}
	}
	if err := b.signals.CloseWithReason(state.DBusID, dbus.CloseReasonFor(reason)); err != nil {
		b.logger.Warn("failed to emit close signal", "dbus_id", state.DBusID, "error", err)
	}
}
