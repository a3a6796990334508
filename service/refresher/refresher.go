package refresher

import (
	"context"
	"io/ioutil"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/indexgate/indexgate/service/refresher RefreshAPI

// RefreshAPI defines the API methods for reopening the index snapshot that
// serves search requests.
type RefreshAPI interface {
	Refresh(ctx context.Context) error
	Version() uint64
}

// Config encapsulates the settings for configuring the snapshot refresher.
type Config struct {
	// An API for refreshing the leased index snapshot.
	RefreshAPI RefreshAPI

	// A clock instance for generating time-related events. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The time between subsequent refreshes.
	Interval time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.RefreshAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("refresh API has not been provided"))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Interval <= 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for refresh interval"))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Service periodically refreshes the leased snapshot so that requests
// which opt out of refreshing still observe recent commits.
type Service struct {
	cfg Config
}

// NewService creates a new refresher instance with the specified config.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("refresher service: config validation failed: %w", err)
	}
	return &Service{cfg: cfg}, nil
}

// Name implements service.Service
func (svc *Service) Name() string { return "refresher" }

// Run implements service.Service. Failed refreshes are logged and retried
// on the next tick.
func (svc *Service) Run(ctx context.Context) error {
	svc.cfg.Logger.WithField("refresh_interval", svc.cfg.Interval.String()).Info("starting service")
	defer svc.cfg.Logger.Info("stopped service")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-svc.cfg.Clock.After(svc.cfg.Interval):
			svc.refresh(ctx)
		}
	}
}

func (svc *Service) refresh(ctx context.Context) {
	prev := svc.cfg.RefreshAPI.Version()
	if err := svc.cfg.RefreshAPI.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			svc.cfg.Logger.WithField("err", err).Warn("snapshot refresh failed")
		}
		return
	}

	if cur := svc.cfg.RefreshAPI.Version(); cur != prev {
		svc.cfg.Logger.WithFields(logrus.Fields{
			"prev_version": prev,
			"version":      cur,
		}).Info("refreshed index snapshot")
	}
}
