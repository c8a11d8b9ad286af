package records

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/angelmondragon/orderdesk/internal/connectivity"
	"github.com/angelmondragon/orderdesk/internal/notices"
	"github.com/angelmondragon/orderdesk/pkg/enums"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/validation"
)

// Store is the remote collection one controller manages.
type Store[T any] interface {
	Kind() enums.RecordKind
	Identity(T) string
	CanDelete() bool
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, rec T) error
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
}

// Prompt is the two-choice question asked before a delete.
type Prompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Cancel  string `json:"cancel"`
	Proceed string `json:"proceed"`
}

// Confirmer answers a delete prompt; false means the operator cancelled.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) bool
}

type ConfirmFunc func(ctx context.Context, prompt Prompt) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt Prompt) bool {
	return f(ctx, prompt)
}

// Editor is an edit surface. It must call refresh once when editing completes.
type Editor[T any] interface {
	Edit(ctx context.Context, rec T, refresh func()) error
}

type EditorFunc[T any] func(ctx context.Context, rec T, refresh func()) error

func (f EditorFunc[T]) Edit(ctx context.Context, rec T, refresh func()) error {
	return f(ctx, rec, refresh)
}

// Labels name the record kind in operator notices.
type Labels struct {
	Singular string
	Plural   string
}

type Options[T any] struct {
	Labels Labels
	// GateReads applies the connectivity gate to Load as well as to mutations.
	GateReads      bool
	ValidateCreate bool
	ValidateUpdate bool
	// PrepareCreate fills form defaults before a create is validated.
	PrepareCreate func(*T)
}

// Snapshot is a consistent view of the controller state.
type Snapshot[T any] struct {
	Kind     enums.RecordKind  `json:"kind"`
	State    enums.RecordState `json:"state"`
	Items    []T               `json:"items"`
	LoadedAt time.Time         `json:"loadedAt,omitempty"`
}

// Controller keeps a cached record list in step with the record store.
type Controller[T any] struct {
	store    Store[T]
	signal   connectivity.Signal
	notifier *notices.Notifier
	logg     *logger.Logger
	opts     Options[T]

	mu       sync.Mutex
	state    enums.RecordState
	items    []T
	loadedAt time.Time
	loadSeq  uint64
}

func NewController[T any](store Store[T], signal connectivity.Signal, notifier *notices.Notifier, logg *logger.Logger, opts Options[T]) *Controller[T] {
	if opts.Labels.Singular == "" {
		opts.Labels.Singular = "record"
	}
	if opts.Labels.Plural == "" {
		opts.Labels.Plural = string(store.Kind())
	}
	return &Controller[T]{
		store:    store,
		signal:   signal,
		notifier: notifier,
		logg:     logg,
		opts:     opts,
		state:    enums.RecordStateLoading,
		items:    []T{},
	}
}

func (c *Controller[T]) Kind() enums.RecordKind {
	return c.store.Kind()
}

func (c *Controller[T]) CanDelete() bool {
	return c.store.CanDelete()
}

func (c *Controller[T]) ctx(ctx context.Context) context.Context {
	if c.logg == nil {
		return ctx
	}
	return c.logg.WithRecordKind(ctx, string(c.store.Kind()))
}

func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{Kind: c.store.Kind(), State: c.state, Items: items, LoadedAt: c.loadedAt}
}

func (c *Controller[T]) State() enums.RecordState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Find returns the cached record with the given identity.
func (c *Controller[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.items {
		if c.store.Identity(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Load re-fetches the whole list. A failed fetch leaves an empty list in Ready and is
// reported once; a connectivity block on a gated kind leaves the list as it was.
func (c *Controller[T]) Load(ctx context.Context) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.state = enums.RecordStateLoading
	c.mu.Unlock()

	if c.opts.GateReads {
		if err := connectivity.Gate(ctx, c.signal); err != nil {
			c.mu.Lock()
			if seq == c.loadSeq {
				c.state = enums.RecordStateReady
			}
			c.mu.Unlock()
			c.notifier.Failure(ctx, err, "")
			return err
		}
	}

	items, err := c.store.List(ctx)

	c.mu.Lock()
	if seq != c.loadSeq {
		// a newer load owns the list
		c.mu.Unlock()
		return err
	}
	if err != nil {
		items = []T{}
	}
	c.items = items
	c.state = enums.RecordStateReady
	c.loadedAt = time.Now().UTC()
	c.mu.Unlock()

	if err != nil {
		c.notifier.Failure(ctx, err, fmt.Sprintf("Failed to fetch %s", c.opts.Labels.Plural))
		return err
	}
	return nil
}

// DeletePrompt is the question asked before deleting one record.
func (c *Controller[T]) DeletePrompt() Prompt {
	return Prompt{
		Title:   "Confirm Delete",
		Message: fmt.Sprintf("Are you sure you want to delete this %s?", c.opts.Labels.Singular),
		Cancel:  "Cancel",
		Proceed: "OK",
	}
}

// ConfirmAndDelete asks confirmer first. On cancel nothing is sent and false is returned.
// A successful delete removes the record from the cached list without a re-fetch; a
// failed one leaves the list untouched.
func (c *Controller[T]) ConfirmAndDelete(ctx context.Context, id string, confirmer Confirmer) (bool, error) {
	ctx = c.ctx(ctx)
	if c.logg != nil {
		ctx = c.logg.WithRecordID(ctx, id)
	}
	if confirmer == nil || !confirmer.Confirm(ctx, c.DeletePrompt()) {
		return false, nil
	}
	if err := connectivity.Gate(ctx, c.signal); err != nil {
		c.notifier.Failure(ctx, err, "")
		return false, err
	}
	if err := c.store.Delete(ctx, id); err != nil {
		c.notifier.Failure(ctx, err, fmt.Sprintf("Failed to delete %s", c.opts.Labels.Singular))
		return false, err
	}

	c.mu.Lock()
	kept := make([]T, 0, len(c.items))
	for _, rec := range c.items {
		if c.store.Identity(rec) != id {
			kept = append(kept, rec)
		}
	}
	c.items = kept
	c.mu.Unlock()

	c.notifier.Success(ctx, fmt.Sprintf("%s deleted successfully", capitalize(c.opts.Labels.Singular)))
	return true, nil
}

// EditThenRefresh hands rec to editor together with a refresh callback. The first call
// of the callback re-fetches the whole list; later calls are ignored. The callback may
// outlive ctx.
func (c *Controller[T]) EditThenRefresh(ctx context.Context, rec T, editor Editor[T]) error {
	ctx = c.ctx(ctx)
	refreshCtx := context.WithoutCancel(ctx)
	var once sync.Once
	refresh := func() {
		once.Do(func() {
			_ = c.Load(refreshCtx)
		})
	}
	return editor.Edit(ctx, rec, refresh)
}

// Save is the standard edit surface: validate, gate, update, then refresh on success.
func (c *Controller[T]) Save(ctx context.Context, rec T) error {
	return c.EditThenRefresh(ctx, rec, EditorFunc[T](func(ctx context.Context, rec T, refresh func()) error {
		if c.opts.ValidateUpdate {
			if err := validation.Struct(&rec); err != nil {
				c.notifier.Failure(ctx, err, "")
				return err
			}
		}
		if err := connectivity.Gate(ctx, c.signal); err != nil {
			c.notifier.Failure(ctx, err, "")
			return err
		}
		if err := c.store.Update(ctx, rec); err != nil {
			c.notifier.Failure(ctx, err, fmt.Sprintf("Failed to update %s", c.opts.Labels.Singular))
			return err
		}
		c.notifier.Success(ctx, fmt.Sprintf("%s updated successfully", capitalize(c.opts.Labels.Singular)))
		refresh()
		return nil
	}))
}

// Create validates and stores a new record, then re-fetches the list.
func (c *Controller[T]) Create(ctx context.Context, rec T) (T, error) {
	ctx = c.ctx(ctx)
	if c.opts.PrepareCreate != nil {
		c.opts.PrepareCreate(&rec)
	}
	if c.opts.ValidateCreate {
		if err := validation.Struct(&rec); err != nil {
			c.notifier.Failure(ctx, err, "")
			return rec, err
		}
	}
	if err := connectivity.Gate(ctx, c.signal); err != nil {
		c.notifier.Failure(ctx, err, "")
		return rec, err
	}
	if err := c.store.Create(ctx, rec); err != nil {
		c.notifier.Failure(ctx, err, fmt.Sprintf("Failed to store %s details", c.opts.Labels.Singular))
		return rec, err
	}
	c.notifier.Success(ctx, fmt.Sprintf("%s details stored successfully", capitalize(c.opts.Labels.Singular)))
	_ = c.Load(ctx)
	return rec, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
