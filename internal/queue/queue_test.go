package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/snackbar/internal/model"
)

func timedItem(id, message string) model.Item {
	d := 2500 * time.Millisecond
	return model.Item{
		ID:               model.ID(id),
		Message:          message,
		Open:             true,
		AutoHideDuration: &d,
		Height:           model.DefaultHeight,
	}
}

func persistentItem(id, message string) model.Item {
	it := timedItem(id, message)
	it.AutoHideDuration = nil
	return it
}

func newTestController(max int, preventDuplicates bool) *Controller {
	return NewController(Options{MaxSnacks: max, PreventDuplicates: preventDuplicates}, nil)
}

func TestController_EnqueueAndDequeue(t *testing.T) {
	c := newTestController(3, false)

	for i := 1; i <= 5; i++ {
		id, err := c.Enqueue(timedItem(fmt.Sprintf("s%d", i), fmt.Sprintf("msg %d", i)))
		require.NoError(t, err)
		assert.Equal(t, model.ID(fmt.Sprintf("s%d", i)), id)
	}

	assert.Empty(t, c.ActiveIDs(), "nothing is active before the first dequeue")

	c.Dequeue()
	assert.Equal(t, []model.ID{"s1", "s2", "s3"}, c.ActiveIDs())
	assert.Equal(t, []model.ID{"s4", "s5"}, c.PendingIDs())
}

func TestController_ActiveNeverExceedsMax(t *testing.T) {
	for max := 1; max <= 4; max++ {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			c := newTestController(max, false)
			for i := range 10 {
				id, msg := fmt.Sprintf("s%d", i), fmt.Sprintf("m%d", i)
				item := timedItem(id, msg)
				if i%3 == 0 {
					item = persistentItem(id, msg)
				}
				_, err := c.Enqueue(item)
				require.NoError(t, err)
				c.Dequeue()
				assert.LessOrEqual(t, len(c.ActiveIDs()), max)

				if i%2 == 0 {
					active := c.ActiveIDs()
					c.Close(active[0], model.CloseReasonManually)
					c.Remove(active[0])
					c.Dequeue()
					assert.LessOrEqual(t, len(c.ActiveIDs()), max)
				}
			}
		})
	}
}

func TestController_RejectsDuplicateID(t *testing.T) {
	c := newTestController(3, false)

	_, err := c.Enqueue(timedItem("a", "first"))
	require.NoError(t, err)

	id, err := c.Enqueue(timedItem("a", "second"))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Empty(t, id)
	assert.Equal(t, 1, c.Len())

	it, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", it.Message)
}

func TestController_PreventDuplicates(t *testing.T) {
	c := newTestController(1, true)

	_, err := c.Enqueue(timedItem("a", "Saved"))
	require.NoError(t, err)
	_, err = c.Enqueue(timedItem("b", "Other"))
	require.NoError(t, err)
	c.Dequeue()

	// Duplicate of an active snack
	_, err = c.Enqueue(timedItem("c", "Saved"))
	assert.ErrorIs(t, err, ErrDuplicateMessage)

	// Duplicate of a pending snack
	_, err = c.Enqueue(timedItem("d", "Other"))
	assert.ErrorIs(t, err, ErrDuplicateMessage)

	assert.Equal(t, 2, c.Len())
}

func TestController_AllowsDuplicateMessagesByDefault(t *testing.T) {
	c := newTestController(3, false)

	_, err := c.Enqueue(timedItem("a", "Saved"))
	require.NoError(t, err)
	_, err = c.Enqueue(timedItem("b", "Saved"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestController_RejectsEmptyMessage(t *testing.T) {
	c := newTestController(3, false)

	_, err := c.Enqueue(timedItem("a", ""))
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, c.Len())
}

func TestController_Close(t *testing.T) {
	c := newTestController(3, false)
	_, _ = c.Enqueue(timedItem("a", "hello"))
	c.Dequeue()

	assert.False(t, c.Close("a", model.CloseReasonClickaway), "clickaway is ignored")
	it, _ := c.Get("a")
	assert.True(t, it.Open)

	assert.True(t, c.Close("a", model.CloseReasonTimeout))
	it, _ = c.Get("a")
	assert.False(t, it.Open)
	assert.Equal(t, 1, c.Len(), "closing does not remove")

	assert.False(t, c.Close("a", model.CloseReasonManually), "already closing")
	assert.False(t, c.Close("missing", model.CloseReasonManually))
}

func TestController_ForcedEviction(t *testing.T) {
	c := newTestController(3, false)

	var evicted []model.ID
	c.SetEvictCallback(func(id model.ID, reason model.CloseReason) {
		assert.Equal(t, model.CloseReasonForced, reason)
		evicted = append(evicted, id)
		c.Close(id, reason)
	})

	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := c.Enqueue(persistentItem(id, "pinned "+id))
		require.NoError(t, err)
		c.Dequeue()
	}
	assert.Empty(t, evicted)

	_, err := c.Enqueue(timedItem("t4", "waiting"))
	require.NoError(t, err)
	c.Dequeue()

	assert.Equal(t, []model.ID{"p1"}, evicted)
	p1, _ := c.Get("p1")
	assert.False(t, p1.Open, "oldest persistent snack is closing")
	assert.Equal(t, []model.ID{"p1", "p2", "p3"}, c.ActiveIDs(), "t4 waits for the exit")

	// A second dequeue while p1 is still closing must not evict p2.
	c.Dequeue()
	assert.Equal(t, []model.ID{"p1"}, evicted)

	// Exit completes -> removal -> promotion.
	c.Remove("p1")
	c.Dequeue()
	assert.Equal(t, []model.ID{"p2", "p3", "t4"}, c.ActiveIDs())
	assert.Empty(t, c.PendingIDs())
}

func TestController_NoEvictionWithoutPending(t *testing.T) {
	c := newTestController(2, false)
	evictions := 0
	c.SetEvictCallback(func(model.ID, model.CloseReason) { evictions++ })

	_, _ = c.Enqueue(persistentItem("p1", "a"))
	_, _ = c.Enqueue(persistentItem("p2", "b"))
	c.Dequeue()
	c.Dequeue()

	assert.Equal(t, 0, evictions)
}

func TestController_NoEvictionWhenSlotsExpire(t *testing.T) {
	c := newTestController(2, false)
	evictions := 0
	c.SetEvictCallback(func(model.ID, model.CloseReason) { evictions++ })

	_, _ = c.Enqueue(persistentItem("p1", "a"))
	_, _ = c.Enqueue(timedItem("t2", "b"))
	c.Dequeue()
	_, _ = c.Enqueue(timedItem("t3", "c"))
	c.Dequeue()

	assert.Equal(t, 0, evictions)
	assert.Equal(t, []model.ID{"t3"}, c.PendingIDs())
}

func TestController_EvictionWithoutCallbackClosesDirectly(t *testing.T) {
	c := newTestController(1, false)

	_, _ = c.Enqueue(persistentItem("p1", "a"))
	c.Dequeue()
	_, _ = c.Enqueue(timedItem("t2", "b"))
	c.Dequeue()

	p1, _ := c.Get("p1")
	assert.False(t, p1.Open)
}

func TestController_RemovePromotesEarliestPending(t *testing.T) {
	c := newTestController(2, false)
	for _, id := range []string{"a", "b", "c", "d"} {
		_, _ = c.Enqueue(timedItem(id, id))
	}
	c.Dequeue()

	c.Close("b", model.CloseReasonTimeout)
	c.Remove("b")
	assert.Equal(t, []model.ID{"a"}, c.ActiveIDs(), "no promotion until dequeue")
	assert.Equal(t, []model.ID{"c", "d"}, c.PendingIDs())

	c.Dequeue()
	assert.Equal(t, []model.ID{"a", "c"}, c.ActiveIDs())
	assert.Equal(t, []model.ID{"d"}, c.PendingIDs())
}

func TestController_Update(t *testing.T) {
	c := newTestController(3, false)
	_, _ = c.Enqueue(timedItem("a", "hello"))

	assert.True(t, c.Update("a", model.Patch{Height: model.Ptr(80)}))
	it, _ := c.Get("a")
	assert.Equal(t, 80, it.Height)

	assert.False(t, c.Update("missing", model.Patch{Height: model.Ptr(80)}))
}

func TestController_SetMaxSnacks(t *testing.T) {
	c := newTestController(1, false)
	for _, id := range []string{"a", "b", "c"} {
		_, _ = c.Enqueue(timedItem(id, id))
	}
	c.Dequeue()
	assert.Len(t, c.ActiveIDs(), 1)

	c.SetMaxSnacks(3)
	c.Dequeue()
	assert.Len(t, c.ActiveIDs(), 3)
	assert.Equal(t, 3, c.MaxSnacks())

	c.SetMaxSnacks(0)
	assert.Equal(t, 1, c.MaxSnacks(), "capacity is at least one")
}

func TestController_Snapshot(t *testing.T) {
	c := newTestController(1, false)
	_, _ = c.Enqueue(timedItem("a", "one"))
	_, _ = c.Enqueue(timedItem("b", "two"))
	c.Dequeue()

	snap := c.Snapshot()
	require.Len(t, snap.Active, 1)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, model.ID("a"), snap.Active[0].ID)
	assert.Equal(t, model.ID("b"), snap.Pending[0].ID)
}
