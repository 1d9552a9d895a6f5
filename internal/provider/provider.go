// Package provider is the composition root of a snack queue. It owns the
// queue controller, merges per-snack options with provider defaults, runs
// auto-hide timers and hands the computed layout to a Renderer.
package provider

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jmylchreest/snackbar/internal/layout"
	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/queue"
)

// Snacks is the handle passed to code that wants to show snacks.
type Snacks interface {
	Enqueue(s model.Snack) (model.ID, bool)
	Close(id model.ID)
	Update(id model.ID, patch model.Patch) bool
	UpdateOptions(fn func(*Options))
}

// Callbacks are the lifecycle events a Renderer reports back.
type Callbacks interface {
	HandleClose(id model.ID, reason model.CloseReason)
	HandleExited(id model.ID)
	HandleSetHeight(id model.ID, height int)
	HandleHover(id model.ID, hovering bool)
}

// RenderItem is everything a renderer needs to draw one active snack.
type RenderItem struct {
	ID        model.ID
	Index     int
	Offset    int
	Content   string
	Variant   model.Variant
	Action    *model.Action
	Anchor    model.Anchor
	Direction layout.Direction

	// AutoHide is nil while the snack must stay on screen.
	AutoHide *time.Duration

	// Open false means the renderer should play the exit transition and
	// then call HandleExited.
	Open bool

	Height        int
	DynamicHeight bool
	HideIcon      bool
	EnqueuedAt    time.Time
	Meta          map[string]string
}

// Renderer draws the active snacks. Render receives the full active set in
// display order every time it changes. Implementations must not call back
// into the Provider synchronously from Render.
type Renderer interface {
	Render(items []RenderItem)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(items []RenderItem)

// Render calls f(items).
func (f RendererFunc) Render(items []RenderItem) { f(items) }

// Hooks observe snack lifecycle transitions. Any field may be nil.
type Hooks struct {
	// OnEnter fires the first time a snack is rendered as active.
	OnEnter func(item model.Item)
	// OnClose fires when a snack starts closing.
	OnClose func(id model.ID, reason model.CloseReason)
	// OnExited fires once a snack has been removed after its exit transition.
	OnExited func(id model.ID)
}

// Observer receives queue statistics.
type Observer interface {
	SnackEnqueued(variant model.Variant)
	SnackRejected(reason string)
	SnackClosed(reason model.CloseReason)
	QueueDepth(active, pending int)
}

type nopObserver struct{}

func (nopObserver) SnackEnqueued(model.Variant) {}
func (nopObserver) SnackRejected(string) {}
func (nopObserver) SnackClosed(model.CloseReason) {}
func (nopObserver) QueueDepth(active, pending int) {}

// Rejection reasons reported to the Observer.
const (
	RejectDuplicateID      = "duplicate_id"
	RejectDuplicateMessage = "duplicate_message"
	RejectInvalid          = "invalid"
	RejectShutdown         = "shutdown"
)

// Config wires a Provider.
type Config struct {
	Options  Options
	Renderer Renderer
	Clock    clockwork.Clock
	IDs      model.IDGenerator
	Observer Observer
	Logger   *slog.Logger
}

type autoHideTimer struct {
	timer    clockwork.Timer
	duration time.Duration
	gen      uint64
}

// Provider owns one snack queue for its whole lifetime.
type Provider struct {
	queue  *queue.Controller
	calc   *layout.Calculator
	ids    model.IDGenerator
	clock  clockwork.Clock
	logger *slog.Logger

	// renderMu serialises plan-and-render passes so renderers see states in order.
	renderMu sync.Mutex

	mu           sync.Mutex
	opts         Options
	renderer     Renderer
	observer     Observer
	hooks        []Hooks
	timers       map[model.ID]*autoHideTimer
	nextGen      uint64
	entered      map[model.ID]bool
	hovered      map[model.ID]bool
	dequeueTimer clockwork.Timer
	closed       bool
}

var (
	_ Snacks    = (*Provider)(nil)
	_ Callbacks = (*Provider)(nil)
)

// New creates a Provider. A nil Clock, IDs, Observer or Logger falls back
// to a default. Options are used as given unless they are entirely zero,
// in which case DefaultOptions applies. Zero fields mean no auto-hide, no
// pacing delay and so on; start from DefaultOptions to change a few.
func New(cfg Config) *Provider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := cfg.Options
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	opts = opts.normalized()

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ids := cfg.IDs
	if ids == nil {
		ids = model.NewULIDGenerator()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	p := &Provider{
		queue: queue.NewController(queue.Options{
			MaxSnacks:         opts.MaxSnacks,
			PreventDuplicates: opts.PreventDuplicates,
		}, logger),
		calc:     layout.NewCalculator(logger),
		ids:      ids,
		clock:    clock,
		logger:   logger,
		opts:     opts,
		renderer: cfg.Renderer,
		observer: observer,
		timers:   make(map[model.ID]*autoHideTimer),
		entered:  make(map[model.ID]bool),
		hovered:  make(map[model.ID]bool),
	}
	p.queue.SetEvictCallback(func(id model.ID, reason model.CloseReason) {
		p.close(id, reason)
	})
	return p
}

// SetRenderer replaces the renderer and redraws.
func (p *Provider) SetRenderer(r Renderer) {
	p.mu.Lock()
	p.renderer = r
	p.mu.Unlock()
	p.render()
}

// AddHooks registers lifecycle hooks.
func (p *Provider) AddHooks(h Hooks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, h)
}

// Options returns the current provider options.
func (p *Provider) Options() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

// Snapshot returns the current active and pending snacks.
func (p *Provider) Snapshot() queue.Snapshot {
	return p.queue.Snapshot()
}

// Enqueue merges s with the provider defaults and admits it. Returns false
// if the snack was rejected: empty message, duplicate id, or duplicate
// message while PreventDuplicates is on.
func (p *Provider) Enqueue(s model.Snack) (model.ID, bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.observer.SnackRejected(RejectShutdown)
		return "", false
	}
	opts := p.opts
	observer := p.observer
	p.mu.Unlock()

	id := s.ID
	if id == "" {
		var err error
		id, err = p.ids.NewID()
		if err != nil {
			p.logger.Error("failed to generate snack id", "error", err)
			observer.SnackRejected(RejectInvalid)
			return "", false
		}
	}

	variant := s.Variant
	if variant == "" {
		variant = model.VariantInfo
	}
	action := s.Action
	if action == nil && opts.Action != nil {
		a := *opts.Action
		action = &a
	}

	duration := opts.EffectiveDuration(s)
	item := model.Item{
		ID:               id,
		Message:          s.Message,
		Variant:          variant,
		Open:             true,
		AutoHideDuration: duration,
		Height:           model.DefaultHeight,
		Action:           action,
		DynamicHeight:    s.DynamicHeight,
		Meta:             s.Meta,
		EnqueuedAt:       p.clock.Now(),
	}

	if _, err := p.queue.Enqueue(item); err != nil {
		observer.SnackRejected(rejectReason(err))
		p.logger.Debug("snack rejected", "id", id, "error", err)
		return "", false
	}
	observer.SnackEnqueued(variant)

	// Read after the insert: a pacing timer still pending here will see
	// the new id when it fires.
	p.mu.Lock()
	pacing := p.dequeueTimer != nil
	p.mu.Unlock()
	if pacing {
		p.render()
		return id, true
	}
	p.dequeue()
	return id, true
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, queue.ErrDuplicateID):
		return RejectDuplicateID
	case errors.Is(err, queue.ErrDuplicateMessage):
		return RejectDuplicateMessage
	default:
		return RejectInvalid
	}
}

// Close starts the exit of a snack with reason "manually".
func (p *Provider) Close(id model.ID) {
	if p.close(id, model.CloseReasonManually) {
		p.render()
	}
}

// CloseAll closes every stored snack, active or pending.
func (p *Provider) CloseAll(reason model.CloseReason) {
	changed := false
	for _, id := range p.queue.Store().IDs() {
		if p.close(id, reason) {
			changed = true
		}
	}
	if changed {
		p.render()
	}
}

// Update patches a stored snack and redraws. Returns false for unknown ids.
func (p *Provider) Update(id model.ID, patch model.Patch) bool {
	if patch.Open != nil && !*patch.Open {
		// Closing through a patch behaves like Close.
		patch.Open = nil
		p.close(id, model.CloseReasonManually)
	}
	if !p.queue.Update(id, patch) {
		return false
	}
	p.render()
	return true
}

// UpdateOptions changes the provider options live. Capacity changes take
// effect immediately.
func (p *Provider) UpdateOptions(fn func(*Options)) {
	p.mu.Lock()
	opts := p.opts
	fn(&opts)
	opts = opts.normalized()
	p.opts = opts
	p.mu.Unlock()

	p.queue.SetMaxSnacks(opts.MaxSnacks)
	p.queue.SetPreventDuplicates(opts.PreventDuplicates)
	p.logger.Debug("snack options updated", "anchor", opts.Anchor, "max_snacks", opts.MaxSnacks)
	p.dequeue()
}

// HandleClose is called by renderers when the user dismisses a snack.
// Clickaway is ignored.
func (p *Provider) HandleClose(id model.ID, reason model.CloseReason) {
	if p.close(id, reason) {
		p.render()
	}
}

// HandleExited is called by renderers once a snack's exit transition has
// finished. The snack is removed and the next pending snack is promoted
// after the transition delay.
func (p *Provider) HandleExited(id model.ID) {
	if !p.queue.Remove(id) {
		return
	}

	p.mu.Lock()
	p.disarmLocked(id)
	delete(p.entered, id)
	delete(p.hovered, id)
	hooks := p.hooks
	delay := p.opts.TransitionDelay
	schedule := !p.closed && p.dequeueTimer == nil
	if schedule && delay > 0 {
		p.dequeueTimer = p.clock.AfterFunc(delay, p.pacedDequeue)
	}
	p.mu.Unlock()

	for _, h := range hooks {
		if h.OnExited != nil {
			h.OnExited(id)
		}
	}

	if schedule && delay <= 0 {
		p.dequeue()
		return
	}
	p.render()
}

func (p *Provider) pacedDequeue() {
	p.mu.Lock()
	p.dequeueTimer = nil
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		p.dequeue()
	}
}

// HandleSetHeight records the measured height of a snack.
func (p *Provider) HandleSetHeight(id model.ID, height int) {
	if height <= 0 {
		return
	}
	it, ok := p.queue.Get(id)
	if !ok || it.Height == height {
		return
	}
	p.queue.Update(id, model.Patch{Height: &height})
	p.render()
}

// HandleHover pauses a snack's auto-hide while the pointer is over it.
// Leaving restarts the full duration.
func (p *Provider) HandleHover(id model.ID, hovering bool) {
	p.mu.Lock()
	if !p.opts.PauseOnHover || p.hovered[id] == hovering {
		p.mu.Unlock()
		return
	}
	if hovering {
		p.hovered[id] = true
	} else {
		delete(p.hovered, id)
	}
	p.mu.Unlock()
	p.render()
}

// Shutdown stops every timer. The provider rejects new snacks afterwards.
func (p *Provider) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for id := range p.timers {
		p.disarmLocked(id)
	}
	if p.dequeueTimer != nil {
		p.dequeueTimer.Stop()
		p.dequeueTimer = nil
	}
	p.mu.Unlock()

	if err := p.queue.Shutdown(); err != nil {
		p.logger.Warn("failed to shut down snack queue", "error", err)
	}
}

// close marks a snack closing and fires hooks. It does not redraw.
func (p *Provider) close(id model.ID, reason model.CloseReason) bool {
	if !p.queue.Close(id, reason) {
		return false
	}

	p.mu.Lock()
	p.disarmLocked(id)
	hooks := p.hooks
	observer := p.observer
	p.mu.Unlock()

	observer.SnackClosed(reason)
	for _, h := range hooks {
		if h.OnClose != nil {
			h.OnClose(id, reason)
		}
	}
	return true
}

func (p *Provider) dequeue() {
	p.queue.Dequeue()
	p.render()
}

func (p *Provider) lookup(id model.ID) (model.Item, bool) {
	return p.queue.Get(id)
}

// render plans the active set, syncs the auto-hide timers with it and hands
// it to the renderer.
func (p *Provider) render() {
	p.renderMu.Lock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.renderMu.Unlock()
		return
	}
	opts := p.opts
	active := p.queue.ActiveIDs()
	placements := p.calc.Plan(active, p.lookup, opts.Spacing, opts.Anchor)

	items := make([]RenderItem, 0, len(placements))
	var entered []model.Item
	visible := make(map[model.ID]bool, len(placements))
	for _, pl := range placements {
		visible[pl.ID] = true
		if !p.entered[pl.ID] {
			p.entered[pl.ID] = true
			entered = append(entered, pl.Item)
		}
		p.syncTimerLocked(pl)

		items = append(items, RenderItem{
			ID:            pl.ID,
			Index:         pl.Index,
			Offset:        pl.Offset,
			Content:       pl.Item.Message,
			Variant:       pl.Item.Variant,
			Action:        pl.Item.Action,
			Anchor:        opts.Anchor,
			Direction:     pl.Direction,
			AutoHide:      pl.AutoHide,
			Open:          pl.Item.Open,
			Height:        pl.Item.Height,
			DynamicHeight: pl.Item.DynamicHeight,
			HideIcon:      opts.HideIcon,
			EnqueuedAt:    pl.Item.EnqueuedAt,
			Meta:          pl.Item.Meta,
		})
	}
	for id := range p.timers {
		if !visible[id] {
			p.disarmLocked(id)
		}
	}
	renderer := p.renderer
	observer := p.observer
	hooks := p.hooks
	p.mu.Unlock()

	if renderer != nil {
		renderer.Render(items)
	}
	p.renderMu.Unlock()

	observer.QueueDepth(len(active), p.queue.Len()-len(active))
	for _, it := range entered {
		for _, h := range hooks {
			if h.OnEnter != nil {
				h.OnEnter(it)
			}
		}
	}
}

// syncTimerLocked arms, re-arms or disarms the auto-hide timer of one
// placement. Caller must hold p.mu.
func (p *Provider) syncTimerLocked(pl layout.Placement) {
	want := pl.Item.Open && pl.AutoHide != nil && !(p.opts.PauseOnHover && p.hovered[pl.ID])
	current, armed := p.timers[pl.ID]

	if !want {
		if armed {
			p.disarmLocked(pl.ID)
		}
		return
	}
	if armed && current.duration == *pl.AutoHide {
		return
	}
	if armed {
		p.disarmLocked(pl.ID)
	}

	p.nextGen++
	gen := p.nextGen
	id := pl.ID
	d := *pl.AutoHide
	p.timers[id] = &autoHideTimer{
		timer:    p.clock.AfterFunc(d, func() { p.expire(id, gen) }),
		duration: d,
		gen:      gen,
	}
}

func (p *Provider) disarmLocked(id model.ID) {
	if t, ok := p.timers[id]; ok {
		t.timer.Stop()
		delete(p.timers, id)
	}
}

// expire runs when an auto-hide timer fires. The snack is closed only if
// the timer is still current and the snack is still open and allowed to
// auto-hide.
func (p *Provider) expire(id model.ID, gen uint64) {
	p.mu.Lock()
	t, ok := p.timers[id]
	if !ok || t.gen != gen || p.closed {
		p.mu.Unlock()
		return
	}
	delete(p.timers, id)
	p.mu.Unlock()

	if !p.autoHideAllowed(id) {
		p.logger.Debug("auto-hide skipped, snack no longer eligible", "id", id)
		return
	}
	if p.close(id, model.CloseReasonTimeout) {
		p.render()
	}
}

func (p *Provider) autoHideAllowed(id model.ID) bool {
	it, ok := p.queue.Get(id)
	if !ok || !it.Open || it.Persistent() {
		return false
	}
	active := p.queue.ActiveIDs()
	flags := p.calc.AutoHide(active, p.lookup)
	for i, activeID := range active {
		if activeID == id {
			return flags[i]
		}
	}
	return false
}
