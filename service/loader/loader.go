package loader

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/indexgate/indexgate/searcher"
	"github.com/indexgate/indexgate/textindexer/index"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Compile-time check to ensure Service implements searcher.DocumentStore.
var _ searcher.DocumentStore = (*Service)(nil)

// Config encapsulates the settings for configuring the seed loader.
type Config struct {
	// The index that receives the seed documents.
	Writer index.Writer

	// The newline-delimited JSON file to load. Files ending in .zst are
	// expected to be zstd-compressed.
	SeedFile string

	// The schema applied to seed documents. If not specified, every field
	// is indexed and stored as text.
	Schema *Schema

	// If set, the seed file is reloaded whenever it changes on disk.
	Watch bool

	// The time to wait for a burst of file system events to settle
	// before reloading. Defaults to 250ms.
	SettleDelay time.Duration

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Writer == nil {
		err = multierror.Append(err, xerrors.Errorf("index writer has not been provided"))
	}
	if cfg.SeedFile == "" {
		err = multierror.Append(err, xerrors.Errorf("seed file has not been specified"))
	}
	if cfg.Schema == nil {
		cfg.Schema, _ = LoadSchema("")
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 250 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Service populates the index from a seed file. It also serves the source
// documents of the last successful load as a searcher.DocumentStore.
type Service struct {
	cfg Config

	mu sync.RWMutex

	// The source documents of the last successful load keyed by ID.
	docs map[string]json.RawMessage

	// The IDs of documents passed to the index since the last commit.
	uncommitted map[string]struct{}
}

// NewService creates a new seed loader instance with the specified config.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("loader service: config validation failed: %w", err)
	}
	return &Service{cfg: cfg}, nil
}

// Name implements service.Service
func (svc *Service) Name() string { return "loader" }

// Run implements service.Service. The seed file is loaded once; failing to
// do so is fatal. When watching is enabled Run keeps reloading the file
// until ctx is cancelled and reload failures are only logged.
func (svc *Service) Run(ctx context.Context) error {
	if _, err := svc.Load(); err != nil {
		return err
	}
	if !svc.cfg.Watch {
		return nil
	}

	// Watch the parent directory so that files replaced by a rename are
	// still observed.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return xerrors.Errorf("creating seed file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	seedPath := filepath.Clean(svc.cfg.SeedFile)
	if err = watcher.Add(filepath.Dir(seedPath)); err != nil {
		return xerrors.Errorf("watching %s: %w", seedPath, err)
	}
	svc.cfg.Logger.WithField("seed_file", seedPath).Info("watching seed file for changes")

	var settleCh <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != seedPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				settleCh = svc.cfg.Clock.After(svc.cfg.SettleDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			svc.cfg.Logger.WithField("err", err).Warn("seed file watcher error")
		case <-settleCh:
			settleCh = nil
			if _, err := svc.Load(); err != nil {
				svc.cfg.Logger.WithField("err", err).Error("unable to reload seed file")
			}
		}
	}
}

// Load indexes every document in the seed file, deletes documents added by
// a previous load that are no longer present and commits the changes. It
// returns the version of the committed snapshot. The seed file is decoded
// in full before the index is modified, so a malformed file leaves the index
// untouched. Load must not be called concurrently.
func (svc *Service) Load() (uint64, error) {
	startAt := svc.cfg.Clock.Now()

	f, err := openSeed(svc.cfg.SeedFile)
	if err != nil {
		return 0, xerrors.Errorf("load seed: %w", err)
	}
	defer func() { _ = f.Close() }()

	var (
		docs []*index.Document
		seen = make(map[string]json.RawMessage)
	)
	err = readDocuments(f, svc.cfg.Schema, func(doc *index.Document, raw json.RawMessage) error {
		docs = append(docs, doc)
		seen[doc.ID] = raw
		return nil
	})
	if err != nil {
		return 0, xerrors.Errorf("load seed %s: %w", svc.cfg.SeedFile, err)
	}

	svc.mu.RLock()
	prev := svc.docs
	svc.mu.RUnlock()

	for _, doc := range docs {
		svc.markUncommitted(doc.ID)
		if err = svc.cfg.Writer.Index(doc); err != nil {
			return 0, xerrors.Errorf("load seed: %w", err)
		}
	}

	// Documents indexed by an earlier load that failed before committing
	// are still pending in the index and must be removed as well.
	var deleted int
	for id := range svc.deleteCandidates(prev) {
		if _, found := seen[id]; found {
			continue
		}
		if err = svc.cfg.Writer.Delete(id); err != nil && !xerrors.Is(err, index.ErrNotFound) {
			return 0, xerrors.Errorf("load seed: %w", err)
		}
		if _, wasLoaded := prev[id]; wasLoaded {
			deleted++
		}
	}

	version, err := svc.cfg.Writer.Commit()
	if err != nil {
		return 0, xerrors.Errorf("load seed: %w", err)
	}
	svc.uncommitted = nil
	svc.mu.Lock()
	svc.docs = seen
	svc.mu.Unlock()

	svc.cfg.Logger.WithFields(logrus.Fields{
		"indexed":   len(seen),
		"deleted":   deleted,
		"version":   version,
		"load_time": svc.cfg.Clock.Now().Sub(startAt).String(),
	}).Info("loaded seed file")
	return version, nil
}

func (svc *Service) markUncommitted(id string) {
	if svc.uncommitted == nil {
		svc.uncommitted = make(map[string]struct{})
	}
	svc.uncommitted[id] = struct{}{}
}

// deleteCandidates returns the IDs of the previously loaded documents and
// of documents indexed since the last commit.
func (svc *Service) deleteCandidates(prev map[string]json.RawMessage) map[string]struct{} {
	ids := make(map[string]struct{}, len(prev)+len(svc.uncommitted))
	for id := range prev {
		ids[id] = struct{}{}
	}
	for id := range svc.uncommitted {
		ids[id] = struct{}{}
	}
	return ids
}

// Fetch implements searcher.DocumentStore.
func (svc *Service) Fetch(_ context.Context, ids []string) ([]json.RawMessage, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	docs := make([]json.RawMessage, len(ids))
	for i, id := range ids {
		docs[i] = svc.docs[id]
	}
	return docs, nil
}
