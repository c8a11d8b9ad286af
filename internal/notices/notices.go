package notices

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/types"
)

const (
	TitleSuccess        = "Success"
	TitleError          = "Error"
	TitleNoConnection   = "No Internet Connection"
	MessageNoConnection = "Please check your network settings."
)

type ctxKey struct{}

// Recorder collects the notices raised while handling one request.
type Recorder struct {
	mu      sync.Mutex
	notices []types.Notice
}

func (r *Recorder) add(n types.Notice) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Drain returns and clears the recorded notices.
func (r *Recorder) Drain() []types.Notice {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

func NewContext(ctx context.Context) (context.Context, *Recorder) {
	rec := &Recorder{}
	return context.WithValue(ctx, ctxKey{}, rec), rec
}

func FromContext(ctx context.Context) *Recorder {
	if ctx == nil {
		return nil
	}
	rec, _ := ctx.Value(ctxKey{}).(*Recorder)
	return rec
}

// Drain pulls the notices recorded on ctx, if any.
func Drain(ctx context.Context) []types.Notice {
	return FromContext(ctx).Drain()
}

// Notifier turns outcomes into operator notices and logs them.
type Notifier struct {
	logg *logger.Logger
	now  func() time.Time
}

func NewNotifier(logg *logger.Logger) *Notifier {
	return &Notifier{logg: logg, now: time.Now}
}

func (n *Notifier) Success(ctx context.Context, message string) types.Notice {
	notice := types.Notice{Level: types.NoticeSuccess, Title: TitleSuccess, Message: message, At: n.timestamp()}
	FromContext(ctx).add(notice)
	if n != nil && n.logg != nil {
		n.logg.Info(n.logg.WithField(ctx, "notice", message), "notice.success")
	}
	return notice
}

// Failure records an error notice for err. fallback is shown for remote failures,
// whose raw details are not meant for the operator.
func (n *Notifier) Failure(ctx context.Context, err error, fallback string) types.Notice {
	notice := FromError(err, fallback)
	notice.At = n.timestamp()
	FromContext(ctx).add(notice)
	if n != nil && n.logg != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConnectivity) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			n.logg.Warn(n.logg.WithField(ctx, "notice", notice.Message), "notice.failure")
		} else {
			n.logg.Error(n.logg.WithField(ctx, "notice", notice.Message), "notice.failure", err)
		}
	}
	return notice
}

func (n *Notifier) timestamp() time.Time {
	if n == nil || n.now == nil {
		return time.Now().UTC()
	}
	return n.now().UTC()
}

// FromError maps an error to the notice the operator sees.
func FromError(err error, fallback string) types.Notice {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeConnectivity:
		return types.Notice{Level: types.NoticeWarning, Title: TitleNoConnection, Message: MessageNoConnection}
	case pkgerrors.CodeValidation, pkgerrors.CodeStateConflict, pkgerrors.CodeNotFound:
		if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
			return types.Notice{Level: types.NoticeError, Title: TitleError, Message: typed.Message()}
		}
	}
	if fallback == "" {
		fallback = "An unexpected error occurred"
	}
	return types.Notice{Level: types.NoticeError, Title: TitleError, Message: fallback}
}
