package connectivity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
)

// Signal reports whether the record store can currently be reached.
type Signal interface {
	Connected(ctx context.Context) bool
}

// Static is a fixed signal, used when probing is disabled.
type Static bool

func (s Static) Connected(context.Context) bool {
	return bool(s)
}

// Reacher performs one reachability check.
type Reacher interface {
	Reachable(ctx context.Context) error
}

// Probe caches reachability checks for ttl and collapses concurrent checks into one.
type Probe struct {
	reacher Reacher
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	group     singleflight.Group
	mu        sync.Mutex
	connected bool
	checkedAt time.Time
}

func NewProbe(reacher Reacher, ttl, timeout time.Duration) *Probe {
	return &Probe{
		reacher: reacher,
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
	}
}

func (p *Probe) Connected(ctx context.Context) bool {
	if p == nil || p.reacher == nil {
		return true
	}
	p.mu.Lock()
	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl {
		connected := p.connected
		p.mu.Unlock()
		return connected
	}
	p.mu.Unlock()

	v, _, _ := p.group.Do("probe", func() (any, error) {
		checkCtx := context.WithoutCancel(ctx)
		if p.timeout > 0 {
			var cancel context.CancelFunc
			checkCtx, cancel = context.WithTimeout(checkCtx, p.timeout)
			defer cancel()
		}
		connected := p.reacher.Reachable(checkCtx) == nil
		p.mu.Lock()
		p.connected = connected
		p.checkedAt = p.now()
		p.mu.Unlock()
		return connected, nil
	})
	return v.(bool)
}

// Gate returns a connectivity error when sig reports the store unreachable.
func Gate(ctx context.Context, sig Signal) error {
	if sig == nil || sig.Connected(ctx) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConnectivity, "no internet connection")
}
