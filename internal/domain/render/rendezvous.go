package render

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/action"
)

// Default render target and wait bounds.
const (
	DefaultWidth        = 512
	DefaultHeight       = 288
	DefaultTimeout      = 10 * time.Second
	DefaultAttachWindow = 5 * time.Second
)

// Job is the outstanding render request.
type Job struct {
	Seq      int64           `json:"seq"`
	ImageB64 string          `json:"image_b64"`
	Actions  []action.Action `json:"actions"`
	RenderW  int             `json:"render_w"`
	RenderH  int             `json:"render_h"`
}

// Result is what a renderer posts back.
type Result struct {
	Seq      int64  `json:"seq"`
	ImageB64 string `json:"image_b64"`
}

// Outcome tells how an Annotate call ended.
type Outcome string

const (
	OutcomeAnnotated  Outcome = "annotated"
	OutcomeFallback   Outcome = "fallback"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeNoRenderer Outcome = "no_renderer"
	OutcomeCanceled   Outcome = "canceled"
)

// Config bounds the rendezvous. A zero Timeout waits until a result arrives.
// A zero AttachWindow always publishes, even when no renderer was seen.
type Config struct {
	Timeout      time.Duration
	AttachWindow time.Duration
	Width        int
	Height       int
}

// DefaultConfig returns the standard render settings.
func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		AttachWindow: DefaultAttachWindow,
		Width:        DefaultWidth,
		Height:       DefaultHeight,
	}
}

// Rendezvous couples the proxy path with one external renderer.
type Rendezvous struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	seq      int64
	job      *Job
	waiter   chan Result
	changed  chan struct{}
	attached int
	lastSeen time.Time
}

// New creates a rendezvous.
func New(cfg Config, logger *zap.Logger) *Rendezvous {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rendezvous{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		changed: make(chan struct{}),
	}
}

// Annotate publishes imageB64 with actions and waits for the rendered
// image. Every outcome other than OutcomeAnnotated returns imageB64
// unchanged.
func (r *Rendezvous) Annotate(ctx context.Context, imageB64 string, actions []action.Action) (string, Outcome) {
	if imageB64 == "" {
		return imageB64, OutcomeFallback
	}

	seq, waiter, ok := r.publish(imageB64, actions)
	if !ok {
		return imageB64, OutcomeNoRenderer
	}

	var expired <-chan time.Time
	if r.cfg.Timeout > 0 {
		timer := time.NewTimer(r.cfg.Timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-waiter:
		if res.Seq == seq && res.ImageB64 != "" {
			return res.ImageB64, OutcomeAnnotated
		}
		r.logger.Debug("Render result rejected",
			zap.Int64("seq", seq),
			zap.Int64("result_seq", res.Seq),
			zap.Bool("empty", res.ImageB64 == ""),
		)
		return imageB64, OutcomeFallback
	case <-expired:
		r.abandon(seq)
		r.logger.Warn("Render wait timed out", zap.Int64("seq", seq), zap.Duration("timeout", r.cfg.Timeout))
		return imageB64, OutcomeTimeout
	case <-ctx.Done():
		r.abandon(seq)
		return imageB64, OutcomeCanceled
	}
}

func (r *Rendezvous) publish(imageB64 string, actions []action.Action) (int64, chan Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.rendererSeenLocked() {
		return 0, nil, false
	}

	if r.waiter != nil {
		select {
		case r.waiter <- Result{Seq: -1}:
		default:
		}
	}

	r.seq++
	waiter := make(chan Result, 1)
	r.job = &Job{
		Seq:      r.seq,
		ImageB64: imageB64,
		Actions:  actions,
		RenderW:  r.cfg.Width,
		RenderH:  r.cfg.Height,
	}
	r.waiter = waiter

	close(r.changed)
	r.changed = make(chan struct{})

	return r.seq, waiter, true
}

func (r *Rendezvous) rendererSeenLocked() bool {
	if r.cfg.AttachWindow <= 0 || r.attached > 0 {
		return true
	}
	return !r.lastSeen.IsZero() && r.now().Sub(r.lastSeen) <= r.cfg.AttachWindow
}

// abandon clears the job if it is still seq's.
func (r *Rendezvous) abandon(seq int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job != nil && r.job.Seq == seq {
		r.job = nil
		r.waiter = nil
	}
}

// Submit delivers a renderer result. It reports false when no job is
// outstanding, in which case the result is discarded.
func (r *Rendezvous) Submit(res Result) bool {
	r.mu.Lock()
	r.lastSeen = r.now()
	waiter := r.waiter
	r.waiter = nil
	r.job = nil
	r.mu.Unlock()

	if waiter == nil {
		return false
	}
	select {
	case waiter <- res:
	default:
	}
	return true
}

// Current returns the outstanding job, if any. Calling it counts as a
// renderer poll.
func (r *Rendezvous) Current() (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSeen = r.now()
	if r.job == nil {
		return Job{}, false
	}
	return *r.job, true
}

// Changed returns a channel closed the next time a job is published.
func (r *Rendezvous) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Attach registers a push-connected renderer. The returned func detaches it.
func (r *Rendezvous) Attach() func() {
	r.mu.Lock()
	r.attached++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.attached--
			r.lastSeen = r.now()
			r.mu.Unlock()
		})
	}
}

// Attached returns the number of push-connected renderers.
func (r *Rendezvous) Attached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// Seq returns the last allocated sequence number.
func (r *Rendezvous) Seq() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}
