package lease

import (
	"context"
	"io/ioutil"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/indexgate/indexgate/textindexer/index"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

var (
	// ErrRefresh is reported by Refresh when a newer snapshot could not be
	// opened. Errors returned by Refresh can be matched against it via
	// xerrors.Is.
	ErrRefresh = xerrors.New("snapshot refresh failed")

	// ErrClosed is returned by Refresh after the manager has been closed.
	ErrClosed = xerrors.New("lease manager closed")
)

// Opener is implemented by objects that can open the latest committed
// snapshot of an index. index.Engine satisfies this interface.
type Opener interface {
	OpenSnapshot(ctx context.Context) (index.Snapshot, error)
}

// Config encapsulates the settings for configuring a lease manager.
type Config struct {
	// The source of index snapshots.
	Opener Opener

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Opener == nil {
		err = multierror.Append(err, xerrors.Errorf("snapshot opener has not been provided"))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// generation pairs a snapshot with the number of outstanding references to
// it. The manager holds one reference while the generation is current.
type generation struct {
	snap index.Snapshot
	refs int64
}

func (g *generation) incRef() { atomic.AddInt64(&g.refs, 1) }

func (g *generation) decRef() error {
	if atomic.AddInt64(&g.refs, -1) != 0 {
		return nil
	}
	return g.snap.Close()
}

// refreshCall tracks a reopen that is in flight. Callers that arrive while
// it runs wait for it and share its outcome.
type refreshCall struct {
	done chan struct{}
	err  error
}

// Manager hands out leases on the current index snapshot and swaps in newer
// snapshots on request.
//
// Concurrency model:
//   - mu (RWMutex): read-locked while acquiring a lease, write-locked while
//     swapping the current generation.
//   - callMu (Mutex): protects the in-flight refresh and the closed flag.
//     It is never held while performing I/O.
type Manager struct {
	cfg Config

	mu      sync.RWMutex
	current *generation

	callMu   sync.Mutex
	inflight *refreshCall
	closed   bool
}

// NewManager creates a lease manager and opens the initial snapshot.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("lease manager: config validation failed: %w", err)
	}

	snap, err := cfg.Opener.OpenSnapshot(ctx)
	if err != nil {
		return nil, xerrors.Errorf("lease manager: open initial snapshot: %w", err)
	}

	versionGauge.Set(float64(snap.Version()))
	cfg.Logger.WithField("version", snap.Version()).Debug("opened initial snapshot")
	return &Manager{
		cfg:     cfg,
		current: &generation{snap: snap, refs: 1},
	}, nil
}

// Acquire returns a lease on the current snapshot. The caller must release
// the lease once done with it. Acquire must not be called after Close.
func (m *Manager) Acquire() *Lease {
	m.mu.RLock()
	gen := m.current
	gen.incRef()
	m.mu.RUnlock()

	activeLeases.Inc()
	return &Lease{gen: gen}
}

// Version returns the version of the current snapshot.
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.snap.Version()
}

// Refresh checks whether the index has moved past the current snapshot and
// if so makes the newer snapshot current. Leases acquired before the swap
// keep using their snapshot until released.
//
// At most one reopen is in flight at any time. Callers that arrive while a
// reopen is running wait for it to complete and return its result.
func (m *Manager) Refresh(ctx context.Context) error {
	m.callMu.Lock()
	if m.closed {
		m.callMu.Unlock()
		return ErrClosed
	}
	if call := m.inflight; call != nil {
		m.callMu.Unlock()

		refreshOutcome.WithLabelValues("coalesced").Inc()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return &refreshError{err: ctx.Err()}
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.callMu.Unlock()

	call.err = m.reopen(ctx)

	m.callMu.Lock()
	m.inflight = nil
	m.callMu.Unlock()
	close(call.done)

	return call.err
}

func (m *Manager) reopen(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "lease.Refresh")
	defer span.Finish()

	timer := prometheus.NewTimer(reopenDuration)
	snap, err := m.cfg.Opener.OpenSnapshot(ctx)
	timer.ObserveDuration()
	if err != nil {
		refreshOutcome.WithLabelValues("failed").Inc()
		span.SetTag("error", true)
		return &refreshError{err: err}
	}

	m.mu.Lock()
	prev := m.current
	if snap.Version() <= prev.snap.Version() {
		m.mu.Unlock()
		refreshOutcome.WithLabelValues("unchanged").Inc()
		if err = snap.Close(); err != nil {
			m.cfg.Logger.WithField("err", err).Warn("unable to close unchanged snapshot")
		}
		return nil
	}
	m.current = &generation{snap: snap, refs: 1}
	m.mu.Unlock()

	refreshOutcome.WithLabelValues("reopened").Inc()
	versionGauge.Set(float64(snap.Version()))
	span.SetTag("version", snap.Version())
	m.cfg.Logger.WithFields(logrus.Fields{
		"from": prev.snap.Version(),
		"to":   snap.Version(),
	}).Debug("installed newer snapshot")

	// The superseded snapshot is closed here if no leases are outstanding,
	// otherwise by the last lease released.
	if err = prev.decRef(); err != nil {
		m.cfg.Logger.WithField("err", err).Warn("unable to close superseded snapshot")
	}
	return nil
}

// Close drops the manager's reference to the current snapshot. The snapshot
// is closed once all outstanding leases are released.
func (m *Manager) Close() error {
	m.callMu.Lock()
	if m.closed {
		m.callMu.Unlock()
		return nil
	}
	m.closed = true
	call := m.inflight
	m.callMu.Unlock()

	// Let an in-flight reopen finish so it does not swap in a generation
	// after we dropped our reference.
	if call != nil {
		<-call.done
	}

	m.mu.RLock()
	gen := m.current
	m.mu.RUnlock()
	return gen.decRef()
}

// Lease binds a single request to a single snapshot.
type Lease struct {
	gen      *generation
	released int32
}

// Snapshot returns the leased snapshot.
func (l *Lease) Snapshot() index.Snapshot { return l.gen.snap }

// Version returns the version of the leased snapshot.
func (l *Lease) Version() uint64 { return l.gen.snap.Version() }

// ETag returns the validator for the leased snapshot.
func (l *Lease) ETag() string { return ETag(l.Version()) }

// Release returns the lease. Calling Release more than once has no effect.
func (l *Lease) Release() error {
	if !atomic.CompareAndSwapInt32(&l.released, 0, 1) {
		return nil
	}

	activeLeases.Dec()
	return l.gen.decRef()
}

// ETag returns the validator for a snapshot version: its lowercase
// hexadecimal representation.
func ETag(version uint64) string {
	return strconv.FormatUint(version, 16)
}

// refreshError wraps the cause of a failed refresh so that it matches
// ErrRefresh.
type refreshError struct {
	err error
}

func (e *refreshError) Error() string { return ErrRefresh.Error() + ": " + e.err.Error() }

func (e *refreshError) Unwrap() error { return e.err }

func (e *refreshError) Is(target error) bool { return target == ErrRefresh }
