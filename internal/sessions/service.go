package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/orderdesk/internal/connectivity"
	"github.com/angelmondragon/orderdesk/internal/drafts"
	"github.com/angelmondragon/orderdesk/internal/lineitems"
	"github.com/angelmondragon/orderdesk/internal/notices"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

// OrderWriter sends finished drafts to the record store.
type OrderWriter interface {
	Create(ctx context.Context, order models.PurchaseOrder) error
	Update(ctx context.Context, order models.PurchaseOrder) error
}

// Searcher runs picker searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Product, error)
}

type Deps struct {
	Store    Store
	Writer   OrderWriter
	Catalog  Searcher
	Signal   connectivity.Signal
	Notifier *notices.Notifier
	Metrics  *metrics.DraftMetrics
	Logger   *logger.Logger
}

// View is a draft plus values derived from it for display.
type View struct {
	drafts.Draft
	Mode   string            `json:"mode"`
	Totals []lineitems.Total `json:"totals"`
}

func NewView(d drafts.Draft) View {
	return View{Draft: d, Mode: d.Mode(), Totals: d.Items.Totals()}
}

// SubmitResult describes a completed submission attempt.
type SubmitResult struct {
	Draft     View                 `json:"draft"`
	Submitted bool                 `json:"submitted"`
	Order     models.PurchaseOrder `json:"order"`
	// Discarded is set when the session closed while the call was in flight.
	Discarded bool `json:"discarded,omitempty"`
}

// Service owns the order builder sessions. Operations on one session are applied in the
// order they arrive; different sessions proceed independently.
type Service struct {
	store    Store
	writer   OrderWriter
	catalog  Searcher
	signal   connectivity.Signal
	notifier *notices.Notifier
	metrics  *metrics.DraftMetrics
	logg     *logger.Logger
	now      func() time.Time

	mu         sync.Mutex
	locks      map[string]*sessionLock
	refreshers map[string]func()
}

// sessionLock is held in Service.locks only while some caller holds or waits for it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(deps Deps) *Service {
	return &Service{
		store:      deps.Store,
		writer:     deps.Writer,
		catalog:    deps.Catalog,
		signal:     deps.Signal,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logg:       deps.Logger,
		now:        time.Now,
		locks:      map[string]*sessionLock{},
		refreshers: map[string]func(){},
	}
}

func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// forget drops the edit refresher of a draft that no longer exists.
func (s *Service) forget(id string, err error) {
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return
	}
	s.mu.Lock()
	delete(s.refreshers, id)
	s.mu.Unlock()
}

// Sweep drops edit refreshers whose drafts have expired from the store. It returns the
// number dropped.
func (s *Service) Sweep(ctx context.Context) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.refreshers))
	for id := range s.refreshers {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	dropped := 0
	for _, id := range ids {
		if _, err := s.store.Get(ctx, id); pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.forget(id, err)
			dropped++
		}
	}
	if dropped > 0 && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "dropped", dropped), "draft.refreshers_swept")
	}
	return dropped
}

func (s *Service) ctx(ctx context.Context, id string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithDraftID(ctx, id)
}

// Open starts an empty create-mode draft.
func (s *Service) Open(ctx context.Context) (View, error) {
	d := drafts.New(s.now())
	if err := s.store.Save(ctx, d); err != nil {
		return View{}, err
	}
	s.metrics.SessionOpened()
	if s.logg != nil {
		s.logg.Info(s.ctx(ctx, d.ID), "draft.opened")
	}
	return NewView(d), nil
}

// OpenEdit starts an edit draft for order. refresh is called once after a successful save.
func (s *Service) OpenEdit(ctx context.Context, order models.PurchaseOrder, refresh func()) (View, error) {
	if order.ID.IsZero() {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "purchase order has no id")
	}
	d := drafts.FromOrder(order, s.now())
	if err := s.store.Save(ctx, d); err != nil {
		return View{}, err
	}
	if refresh != nil {
		s.mu.Lock()
		s.refreshers[d.ID] = refresh
		s.mu.Unlock()
	}
	s.metrics.SessionOpened()
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(s.ctx(ctx, d.ID), "order_id", order.ID.String()), "draft.opened_for_edit")
	}
	return NewView(d), nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		s.forget(id, err)
		return View{}, err
	}
	return NewView(d), nil
}

// Close discards the session. A submission still in flight will not write back.
func (s *Service) Close(ctx context.Context, id string) error {
	unlock := s.lock(id)
	if _, err := s.store.Get(ctx, id); err != nil {
		unlock()
		return err
	}
	err := s.store.Delete(ctx, id)
	unlock()

	s.mu.Lock()
	delete(s.refreshers, id)
	s.mu.Unlock()
	if err == nil {
		s.metrics.SessionClosed()
	}
	return err
}

// mutate loads the draft, applies fn and saves the result when fn succeeds.
func (s *Service) mutate(ctx context.Context, id string, fn func(drafts.Draft) (drafts.Draft, error)) (View, error) {
	unlock := s.lock(id)
	defer unlock()
	d, err := s.store.Get(ctx, id)
	if err != nil {
		s.forget(id, err)
		return View{}, err
	}
	next, err := fn(d)
	if err != nil {
		return NewView(d), err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return NewView(d), err
	}
	return NewView(next), nil
}

func (s *Service) UpdateFields(ctx context.Context, id string, patch drafts.FieldsPatch) (View, error) {
	return s.mutate(ctx, id, func(d drafts.Draft) (drafts.Draft, error) {
		return d.UpdateFields(patch, s.now())
	})
}

func (s *Service) OpenPicker(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, func(d drafts.Draft) (drafts.Draft, error) {
		return d.OpenPicker(s.now())
	})
}

func (s *Service) ClosePicker(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, func(d drafts.Draft) (drafts.Draft, error) {
		return d.ClosePicker(s.now()), nil
	})
}

// Search runs a picker query and keeps the results on the draft. A failed search
// leaves the draft as it was.
func (s *Service) Search(ctx context.Context, id, query string) (View, error) {
	ctx = s.ctx(ctx, id)
	if _, err := s.store.Get(ctx, id); err != nil {
		return View{}, err
	}
	products, err := s.catalog.Search(ctx, query)
	if err != nil {
		s.notifier.Failure(ctx, err, "Failed to fetch products")
		return View{}, err
	}
	return s.mutate(ctx, id, func(d drafts.Draft) (drafts.Draft, error) {
		return d.WithCatalog(query, products, s.now()), nil
	})
}

// Select adds the product with key from the latest search results.
func (s *Service) Select(ctx context.Context, id, key string) (View, error) {
	return s.mutate(ctx, id, func(d drafts.Draft) (drafts.Draft, error) {
		p, ok := d.CatalogProduct(key)
		if !ok {
			return d, pkgerrors.New(pkgerrors.CodeNotFound, "product not in the current search results").
				WithDetails(map[string]any{"product_key": key})
		}
		return d.Select(p, s.now())
	})
}

func (s *Service) SetQuantity(ctx context.Context, id, key, raw string) (View, error) {
	return s.mutate(ctx, id, func(d drafts.Draft) (drafts.Draft, error) {
		return d.SetQuantity(key, raw, s.now())
	})
}

func (s *Service) RemoveItem(ctx context.Context, id, key string) (View, error) {
	return s.mutate(ctx, id, func(d drafts.Draft) (drafts.Draft, error) {
		return d.RemoveItem(key, s.now())
	})
}

// Validate checks the draft without changing it.
func (s *Service) Validate(ctx context.Context, id string) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return drafts.Validate(d)
}

// Submit sends the draft once. A second submit while the first is in flight fails with
// a state conflict.
func (s *Service) Submit(ctx context.Context, id string) (SubmitResult, error) {
	ctx = s.ctx(ctx, id)

	unlock := s.lock(id)
	d, err := s.store.Get(ctx, id)
	if err != nil {
		unlock()
		s.forget(id, err)
		return SubmitResult{}, err
	}
	mode := d.Mode()
	submitting, payload, err := drafts.BeginSubmit(d, s.now())
	if err != nil {
		unlock()
		s.notifier.Failure(ctx, err, "All required fields must be filled")
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			s.metrics.IncSubmission(mode, metrics.SubmitConflict)
		} else {
			s.metrics.IncSubmission(mode, metrics.SubmitInvalid)
		}
		return SubmitResult{Draft: NewView(d)}, err
	}
	if err := connectivity.Gate(ctx, s.signal); err != nil {
		unlock()
		s.notifier.Failure(ctx, err, "")
		s.metrics.IncSubmission(mode, metrics.SubmitFailed)
		return SubmitResult{Draft: NewView(d)}, err
	}
	acquired, err := s.store.AcquireSubmit(ctx, id)
	if err != nil || !acquired {
		unlock()
		if err == nil {
			err = pkgerrors.New(pkgerrors.CodeStateConflict, "order is being submitted")
		}
		s.metrics.IncSubmission(mode, metrics.SubmitConflict)
		return SubmitResult{Draft: NewView(d)}, err
	}
	if err := s.store.Save(ctx, submitting); err != nil {
		_ = s.store.ReleaseSubmit(ctx, id)
		unlock()
		return SubmitResult{Draft: NewView(d)}, err
	}
	unlock()

	var sendErr error
	if mode == drafts.ModeEdit {
		sendErr = s.writer.Update(ctx, payload)
	} else {
		sendErr = s.writer.Create(ctx, payload)
	}

	unlock = s.lock(id)
	defer unlock()
	defer func() { _ = s.store.ReleaseSubmit(context.WithoutCancel(ctx), id) }()

	current, err := s.store.Get(ctx, id)
	if err != nil {
		s.forget(id, err)
		if s.logg != nil {
			s.logg.Warn(ctx, "draft.closed_during_submit")
		}
		return SubmitResult{Submitted: sendErr == nil, Order: payload, Discarded: true}, sendErr
	}
	final := drafts.CompleteSubmit(current, sendErr, s.now())
	if err := s.store.Save(ctx, final); err != nil {
		return SubmitResult{Draft: NewView(current), Submitted: sendErr == nil, Order: payload}, err
	}

	result := SubmitResult{Draft: NewView(final), Submitted: sendErr == nil, Order: payload}
	if sendErr != nil {
		s.metrics.IncSubmission(mode, metrics.SubmitFailed)
		if mode == drafts.ModeEdit {
			s.notifier.Failure(ctx, sendErr, "Failed to update order")
		} else {
			s.notifier.Failure(ctx, sendErr, "Failed to store purchase order")
		}
		return result, sendErr
	}

	s.metrics.IncSubmission(mode, metrics.SubmitSucceeded)
	if mode == drafts.ModeEdit {
		s.notifier.Success(ctx, "Order updated successfully")
		s.mu.Lock()
		refresh := s.refreshers[id]
		delete(s.refreshers, id)
		s.mu.Unlock()
		if refresh != nil {
			refresh()
		}
	} else {
		s.notifier.Success(ctx, "Purchase order stored successfully")
	}
	return result, nil
}
