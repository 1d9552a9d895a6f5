package daemon

import (
	"sync"
	"testing"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/snackbar/internal/dbus"
	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

type signal struct {
	id     uint32
	reason dbus.CloseReason
	action string
}

type fakeSignaler struct {
	mu      sync.Mutex
	signals []signal
}

func (f *fakeSignaler) CloseWithReason(id uint32, reason dbus.CloseReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, signal{id: id, reason: reason})
	return nil
}

func (f *fakeSignaler) EmitActionInvoked(id uint32, actionKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, signal{id: id, action: actionKey})
	return nil
}

func (f *fakeSignaler) all() []signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]signal(nil), f.signals...)
}

type bridgeFixture struct {
	clock    *clockwork.FakeClock
	provider *provider.Provider
	signals  *fakeSignaler
	bridge   *Bridge
}

func newBridgeFixture(t *testing.T, mutate func(*provider.Options)) *bridgeFixture {
	t.Helper()
	opts := provider.DefaultOptions()
	opts.TransitionDelay = 0
	if mutate != nil {
		mutate(&opts)
	}
	clock := clockwork.NewFakeClockAt(time.Unix(1700000000, 0))
	p := provider.New(provider.Config{
		Options: opts,
		Clock:   clock,
		IDs:     model.NewSequenceGenerator("snack"),
	})
	signals := &fakeSignaler{}
	b := NewBridge(p, signals, nil)
	p.AddHooks(b.Hooks())
	t.Cleanup(p.Shutdown)
	return &bridgeFixture{clock: clock, provider: p, signals: signals, bridge: b}
}

func (f *bridgeFixture) item(t *testing.T, id model.ID) model.Item {
	t.Helper()
	snap := f.provider.Snapshot()
	for _, it := range append(snap.Active, snap.Pending...) {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("snack %s not stored", id)
	return model.Item{}
}

func TestBridge_NotifyEnqueues(t *testing.T) {
	f := newBridgeFixture(t, nil)

	f.bridge.HandleNotify(&dbus.DBusNotification{
		AppName:       "make",
		Summary:       "Build finished",
		ExpireTimeout: -1,
		Actions:       []string{"default", "Open log"},
	}, 7, false)

	state, ok := f.bridge.States().GetByDBusID(7)
	require.True(t, ok)
	assert.Equal(t, model.ID("snack-1"), state.SnackID)
	assert.Equal(t, "default", state.ActionKey)

	it := f.item(t, state.SnackID)
	assert.Equal(t, "Build finished", it.Message)
	assert.Equal(t, "7", it.Meta[dbus.MetaDBusID])
	assert.Equal(t, "make", it.Meta[dbus.MetaAppName])
	require.NotNil(t, it.AutoHideDuration)
	assert.Equal(t, provider.DefaultAutoHideDuration, *it.AutoHideDuration)
}

func TestBridge_TimeoutEmitsExpired(t *testing.T) {
	f := newBridgeFixture(t, nil)

	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "brief", ExpireTimeout: 1000}, 3, false)
	f.clock.Advance(time.Second)

	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]signal{{id: 3, reason: dbus.CloseReasonExpired}}, f.signals.all())
	}, time.Second, time.Millisecond)

	state, ok := f.bridge.States().GetByDBusID(3)
	require.True(t, ok)
	assert.Equal(t, DisplayStatusClosing, state.Status)

	f.provider.HandleExited(state.SnackID)
	assert.Equal(t, 0, f.bridge.States().Count())
}

func TestBridge_ActionEmitsActionThenDismissed(t *testing.T) {
	f := newBridgeFixture(t, nil)

	f.bridge.HandleNotify(&dbus.DBusNotification{
		Summary:       "New mail",
		Actions:       []string{"open", "Open"},
		ExpireTimeout: 0,
	}, 9, false)
	state, _ := f.bridge.States().GetByDBusID(9)

	f.provider.HandleClose(state.SnackID, model.CloseReasonAction)

	assert.Equal(t, []signal{
		{id: 9, action: "open"},
		{id: 9, reason: dbus.CloseReasonDismissed},
	}, f.signals.all())
}

func TestBridge_CloseRequestDoesNotEmit(t *testing.T) {
	f := newBridgeFixture(t, nil)

	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "sticky", ExpireTimeout: 0}, 4, false)
	state, _ := f.bridge.States().GetByDBusID(4)

	f.bridge.HandleCloseRequest(4)
	f.bridge.HandleCloseRequest(99)

	assert.False(t, f.item(t, state.SnackID).Open)
	assert.Empty(t, f.signals.all(), "the server emits the closed signal itself")
}

func TestBridge_ReplaceUpdatesInPlace(t *testing.T) {
	f := newBridgeFixture(t, nil)

	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "Volume 40%", ExpireTimeout: -1}, 5, false)
	state, _ := f.bridge.States().GetByDBusID(5)

	f.bridge.HandleNotify(&dbus.DBusNotification{
		Summary:       "Volume 50%",
		ExpireTimeout: 0,
		Hints:         map[string]godbus.Variant{dbus.HintVariant: godbus.MakeVariant("success")},
	}, 5, true)

	assert.Equal(t, 1, f.provider.Snapshot().Len())
	it := f.item(t, state.SnackID)
	assert.Equal(t, "Volume 50%", it.Message)
	assert.Equal(t, model.VariantSuccess, it.Variant)
	assert.True(t, it.Persistent())
}

func TestBridge_ReplaceAfterCloseEnqueuesNew(t *testing.T) {
	f := newBridgeFixture(t, nil)

	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "first", ExpireTimeout: 0}, 5, false)
	first, _ := f.bridge.States().GetByDBusID(5)
	f.provider.Close(first.SnackID)

	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "second", ExpireTimeout: 0}, 5, true)

	second, ok := f.bridge.States().GetByDBusID(5)
	require.True(t, ok)
	assert.NotEqual(t, first.SnackID, second.SnackID)
	assert.Equal(t, DisplayStatusShowing, second.Status)

	// The old snack exiting must not drop the new link
	f.provider.HandleExited(first.SnackID)
	_, ok = f.bridge.States().GetByDBusID(5)
	assert.True(t, ok)
}

func TestBridge_RejectedIsClosed(t *testing.T) {
	f := newBridgeFixture(t, func(o *provider.Options) { o.PreventDuplicates = true })

	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "same"}, 1, false)
	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "same"}, 2, false)

	assert.Equal(t, []signal{{id: 2, reason: dbus.CloseReasonUndefined}}, f.signals.all())
	_, ok := f.bridge.States().GetByDBusID(2)
	assert.False(t, ok)
}

func TestBridge_CriticalPersists(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.bridge.SetCriticalPersists(true)

	f.bridge.HandleNotify(&dbus.DBusNotification{
		Summary:       "Battery low",
		ExpireTimeout: -1,
		Hints:         map[string]godbus.Variant{"urgency": godbus.MakeVariant(byte(2))},
	}, 1, false)

	state, _ := f.bridge.States().GetByDBusID(1)
	it := f.item(t, state.SnackID)
	assert.True(t, it.Persistent())
	assert.Equal(t, model.VariantError, it.Variant)
}

func TestBridge_ForcedEvictionEmitsExpired(t *testing.T) {
	f := newBridgeFixture(t, func(o *provider.Options) { o.MaxSnacks = 1 })

	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "one", ExpireTimeout: 0}, 1, false)
	f.bridge.HandleNotify(&dbus.DBusNotification{Summary: "two", ExpireTimeout: 0}, 2, false)

	assert.Equal(t, []signal{{id: 1, reason: dbus.CloseReasonExpired}}, f.signals.all())
}
