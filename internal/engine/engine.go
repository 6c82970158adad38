package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/clock"
	"github.com/roach88/upgrades/internal/economy"
	"github.com/roach88/upgrades/internal/persist"
)

const (
	// DefaultTickInterval is how often production is credited.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultAutosaveInterval is how often the state is written to the sink.
	DefaultAutosaveInterval = 5 * time.Second

	// DefaultSaveTimeout bounds a single sink write.
	DefaultSaveTimeout = 10 * time.Second
)

// Engine owns one game state and serializes every access to it.
//
// Intents may be submitted from any goroutine with Do; Run applies them one
// at a time, interleaved with production ticks and autosaves. Sink writes
// happen on a separate saver goroutine from snapshots taken inside the loop,
// so a slow medium never delays a tick.
type Engine struct {
	state *economy.State
	sink  persist.Sink

	clock            clock.Clock
	session          string
	tickInterval     time.Duration
	autosaveInterval time.Duration
	saveTimeout      time.Duration
	offlineCredit    bool

	inbox *queue[request]
	jobs  *queue[saveJob]

	// seq and epoch are touched only by the loop. epoch changes whenever the
	// state is replaced so stale save acknowledgements are ignored.
	seq   int64
	epoch int

	subsMu     sync.Mutex
	subs       map[int]*Subscription
	nextSub    int
	subsClosed bool

	running  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the wall clock used for ticks and timestamps.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSession sets the session ID directly.
func WithSession(id string) Option {
	return func(e *Engine) { e.session = id }
}

// WithSessionGenerator draws the session ID from gen.
func WithSessionGenerator(gen SessionGenerator) Option {
	return func(e *Engine) { e.session = gen.Generate() }
}

// WithTickInterval sets the production tick period.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// WithAutosaveInterval sets the autosave period. Zero disables autosave;
// the final save on shutdown still happens.
func WithAutosaveInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.autosaveInterval = d
		}
	}
}

// WithSaveTimeout bounds each sink write.
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.saveTimeout = d
		}
	}
}

// WithOfflineCredit controls whether an imported save is credited for the
// time since its last tick.
func WithOfflineCredit(on bool) Option {
	return func(e *Engine) { e.offlineCredit = on }
}

// New creates an engine around state. sink may be nil, in which case
// nothing is ever saved and Save fails with ErrNoSink.
//
// The engine takes ownership of state: callers must not touch it again.
func New(state *economy.State, sink persist.Sink, opts ...Option) *Engine {
	e := &Engine{
		state:            state,
		sink:             sink,
		clock:            clock.System{},
		tickInterval:     DefaultTickInterval,
		autosaveInterval: DefaultAutosaveInterval,
		saveTimeout:      DefaultSaveTimeout,
		offlineCredit:    true,
		inbox:            newQueue[request](),
		jobs:             newQueue[saveJob](),
		subs:             make(map[int]*Subscription),
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.session == "" {
		e.session = UUIDv7Generator{}.Generate()
	}
	return e
}

// Session returns the session ID stamped on notifications.
func (e *Engine) Session() string { return e.session }

// Catalog returns the catalog of the engine's state. Catalogs are immutable
// so this is safe from any goroutine.
func (e *Engine) Catalog() *catalog.Catalog { return e.state.Catalog() }

// Done is closed once Run has returned and the final save has finished.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Run processes intents, ticks and autosaves until ctx is done or Stop is
// called. On the way out it writes a final save, waits for the saver to
// drain and closes every subscription.
//
// After Stop, intents already queued are still applied. After ctx is done
// they are rejected with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.done)

	slog.Info("engine starting",
		"session", e.session,
		"catalog", e.state.Catalog().Name,
		"tick", e.tickInterval,
		"autosave", e.autosaveInterval)

	saverDone := make(chan struct{})
	go e.runSaver(saverDone)
	defer func() {
		e.finalSave()
		e.jobs.Close()
		<-saverDone
		e.closeSubscribers()
		slog.Info("engine stopped", "session", e.session, "notifications", e.seq)
	}()

	ticker := e.clock.NewTicker(e.tickInterval)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if e.sink != nil && e.autosaveInterval > 0 {
		t := e.clock.NewTicker(e.autosaveInterval)
		defer t.Stop()
		autosave = t.C()
	}

	for {
		if req, ok := e.inbox.TryDequeue(); ok {
			e.handle(req)
			continue
		}
		if e.inbox.Drained() {
			return nil
		}

		select {
		case <-ctx.Done():
			e.inbox.Close()
			e.rejectPending()
			return ctx.Err()
		case <-ticker.C():
			e.tick()
		case <-autosave:
			e.scheduleSave(nil, Result{})
		case <-e.inbox.Wait():
		}
	}
}

// Stop asks Run to return after applying the intents already queued.
// Safe to call more than once and before Run.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.inbox.Close()
	})
}

// Do submits an intent and waits for its result. Game rule failures are
// returned as *economy.Error and leave the state unchanged.
func (e *Engine) Do(ctx context.Context, in Intent) (Result, error) {
	reply := make(chan response, 1)
	if !e.inbox.Enqueue(request{intent: in, reply: reply}) {
		return Result{}, ErrStopped
	}

	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-e.done:
		select {
		case r := <-reply:
			return r.result, r.err
		default:
			return Result{}, ErrStopped
		}
	}
}

func (e *Engine) tick() {
	now := e.clock.Now()
	e.state.Advance(now)
	e.publish("tick", now)
}

func (e *Engine) handle(req request) {
	now := e.clock.Now()
	// Production up to this instant is credited before the intent applies,
	// so purchases never see a stale balance.
	e.state.Advance(now)

	var (
		res    Result
		err    error
		mutate bool
	)

	switch in := req.intent.(type) {
	case Gather:
		amount := in.Amount
		if amount == 0 {
			amount = 1
		}
		err = e.state.Gather(in.Resource, amount)
		mutate = true
	case BuyProducer:
		err = e.state.BuyProducer(in.Producer)
		mutate = true
	case BuyUpgrade:
		err = e.state.BuyUpgrade(in.Upgrade)
		mutate = true
	case Research:
		err = e.state.Research(in.Technology)
		mutate = true
	case Snapshot:
		res.Snapshot = e.state.Snapshot()
	case Reset:
		if !in.Confirmed {
			err = ErrNotConfirmed
			break
		}
		e.state.Reset(now)
		e.epoch++
		if e.sink != nil {
			e.jobs.Enqueue(saveJob{wipe: true})
		}
		mutate = true
		slog.Info("game reset", "session", e.session)
	case Save:
		if e.sink == nil {
			err = e.errorf(ErrCodeNoSink, "save requested without a sink")
			break
		}
		res.View = e.state.View()
		res.View.LastSave = now
		e.scheduleSave(req.reply, res)
		return
	case Export:
		res.Blob, err = persist.Serialize(e.state.Snapshot())
	case Import:
		res.Report, err = e.importSave(in.Blob, now)
		mutate = true
	case saved:
		if in.epoch != e.epoch {
			return
		}
		e.state.MarkSaved(in.at)
		mutate = true
	default:
		err = fmt.Errorf("engine: unhandled intent %T", req.intent)
	}

	if err != nil {
		slog.Debug("intent rejected", "intent", req.intent.Name(), "error", err)
	} else if mutate {
		e.publish(req.intent.Name(), now)
	}

	if req.reply != nil {
		res.View = e.state.View()
		req.reply <- response{result: res, err: err}
	}
}

func (e *Engine) importSave(blob []byte, now time.Time) (persist.Report, error) {
	state, report, err := persist.Decode(blob, e.state.Catalog())
	if err != nil {
		return report, err
	}
	if len(report.Dropped) > 0 {
		slog.Warn("imported save references unknown kinds", "dropped", report.Dropped)
	}

	var offline float64
	if e.offlineCredit {
		offline = state.Advance(now)
	} else {
		state.Rebase(now)
	}
	e.state = state
	e.epoch++
	if e.sink != nil {
		e.scheduleSave(nil, Result{})
	}
	slog.Info("save imported", "session", e.session, "offline_seconds", offline)
	return report, nil
}

// rejectPending answers everything left in the closed inbox.
func (e *Engine) rejectPending() {
	for {
		req, ok := e.inbox.TryDequeue()
		if !ok {
			return
		}
		if req.reply != nil {
			req.reply <- response{err: ErrStopped}
		}
	}
}

type saveJob struct {
	snap  economy.Snapshot
	epoch int
	wipe  bool

	// reply, when set, receives result with the write's error.
	reply  chan response
	result Result
}

// scheduleSave snapshots the state and hands it to the saver.
func (e *Engine) scheduleSave(reply chan response, result Result) {
	if e.sink == nil {
		return
	}
	snap := e.state.Snapshot()
	snap.LastSave = e.clock.Now()
	e.jobs.Enqueue(saveJob{snap: snap, epoch: e.epoch, reply: reply, result: result})
}

func (e *Engine) finalSave() {
	if e.sink == nil {
		return
	}
	e.state.Advance(e.clock.Now())
	e.scheduleSave(nil, Result{})
}

func (e *Engine) runSaver(done chan<- struct{}) {
	defer close(done)
	for {
		job, ok := e.jobs.TryDequeue()
		if !ok {
			if e.jobs.Drained() {
				return
			}
			<-e.jobs.Wait()
			continue
		}
		e.perform(job)
	}
}

func (e *Engine) perform(job saveJob) {
	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()

	var err error
	if job.wipe {
		err = e.wipe(ctx)
	} else {
		err = persist.Save(ctx, e.sink, job.snap)
	}

	switch {
	case err != nil:
		slog.Warn("save failed", "session", e.session, "wipe", job.wipe, "error", err)
	case job.wipe:
		slog.Debug("save slot wiped", "session", e.session)
	default:
		slog.Debug("state saved", "session", e.session, "at", job.snap.LastSave)
		// Fails once the loop has stopped, which is fine: nothing reads the
		// state after the final save.
		e.inbox.Enqueue(request{intent: saved{at: job.snap.LastSave, epoch: job.epoch}})
	}

	if job.reply != nil {
		job.reply <- response{result: job.result, err: err}
	}
}

func (e *Engine) wipe(ctx context.Context) error {
	w, ok := e.sink.(persist.Wiper)
	if !ok {
		return nil
	}
	if err := w.Delete(ctx); err != nil {
		return fmt.Errorf("%w: %w", persist.ErrPersistenceUnavailable, err)
	}
	return nil
}

// IsRuleError reports whether err is a game rule failure rather than an
// engine or persistence failure.
func IsRuleError(err error) bool {
	var ee *economy.Error
	return errors.As(err, &ee)
}
