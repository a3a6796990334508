package search

import (
	"context"
	"io/ioutil"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"github.com/indexgate/indexgate/lease"
	"github.com/indexgate/indexgate/searcher"
	"github.com/indexgate/indexgate/textindexer/index"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/indexgate/indexgate/service/search SearchAPI

const (
	indexEndpoint  = "/"
	searchEndpoint = "/_search"

	internalErrorMessage = "An error occurred; please try again later."
)

// LeaseAPI defines a set of API methods for obtaining leases on the current
// index snapshot.
type LeaseAPI interface {
	Refresh(ctx context.Context) error
	Acquire() *lease.Lease
}

// SearchAPI defines a set of API methods for executing queries against an
// index snapshot.
type SearchAPI interface {
	Explain(ctx context.Context, snap index.Snapshot, req searcher.Request) (*searcher.ExplainResult, error)
	Search(ctx context.Context, snap index.Snapshot, req searcher.Request) (*searcher.SearchResult, error)
}

// Config encapsulates the settings for configuring the search endpoint.
type Config struct {
	// An API for leasing index snapshots.
	LeaseAPI LeaseAPI

	// An API for executing queries.
	SearchAPI SearchAPI

	// The address to listen for incoming requests.
	ListenAddr string

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.ListenAddr == "" {
		err = multierror.Append(err, xerrors.Errorf("listen address has not been specified"))
	}
	if cfg.LeaseAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("lease API has not been provided"))
	}
	if cfg.SearchAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("search API has not been provided"))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Service implements the HTTP search endpoint.
type Service struct {
	cfg    Config
	router *mux.Router
}

// NewService creates a new search endpoint instance with the specified config.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("search service: config validation failed: %w", err)
	}

	svc := &Service{
		router: mux.NewRouter(),
		cfg:    cfg,
	}

	svc.router.Use(instrument)
	svc.router.HandleFunc(searchEndpoint, svc.search).Methods("GET", "HEAD")
	svc.router.HandleFunc(indexEndpoint, svc.search).Methods("GET", "HEAD")
	return svc, nil
}

// Name implements service.Service
func (svc *Service) Name() string { return "search" }

// Run implements service.Service
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.cfg.ListenAddr,
		Handler: svc,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	svc.cfg.Logger.WithField("addr", svc.cfg.ListenAddr).Info("starting search server")
	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Ignore error when the server shuts down.
		err = nil
	}

	return err
}

// ServeHTTP implements http.Handler.
func (svc *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.router.ServeHTTP(w, r)
}

func (svc *Service) search(w http.ResponseWriter, r *http.Request) {
	logger := svc.cfg.Logger.WithField("request_id", uuid.New().String())

	req, err := parseRequest(r.URL.Query(), r.Header)
	if err != nil {
		svc.renderError(w, logger, err)
		return
	}

	if !req.Stale {
		if err = svc.cfg.LeaseAPI.Refresh(r.Context()); err != nil {
			svc.renderError(w, logger, err)
			return
		}
	}

	l := svc.cfg.LeaseAPI.Acquire()
	defer func() {
		if err := l.Release(); err != nil {
			logger.WithField("err", err).Warn("unable to release snapshot lease")
		}
	}()

	etag := l.ETag()
	if !req.Debug && req.MatchesETag(etag) {
		NotModified(w, etag)
		return
	}

	env, err := svc.execute(r.Context(), l.Snapshot(), req, etag)
	if err != nil {
		svc.renderError(w, logger, err)
		return
	}

	if err = render(w, req, env); err != nil {
		logger.WithField("err", err).Error("unable to render search response")
	}
}

func (svc *Service) execute(ctx context.Context, snap index.Snapshot, req *Request, etag string) (*envelope, error) {
	sreq := searcher.Request{
		Query:       req.Query,
		Analyzer:    req.Analyzer,
		Skip:        req.Skip,
		Limit:       req.Limit,
		Sort:        req.Sort,
		IncludeDocs: req.IncludeDocs,
	}

	if req.RewriteQuery {
		res, err := svc.cfg.SearchAPI.Explain(ctx, snap, sreq)
		if err != nil {
			return nil, err
		}
		return newExplainEnvelope(res, etag), nil
	}

	res, err := svc.cfg.SearchAPI.Search(ctx, snap, sreq)
	if err != nil {
		return nil, err
	}
	return newSearchEnvelope(res, req, etag), nil
}

// renderError maps err to a client or server error response. Details of
// server errors are logged but never sent to the client.
func (svc *Service) renderError(w http.ResponseWriter, logger *logrus.Entry, err error) {
	var cErr clientError
	switch {
	case xerrors.As(err, &cErr):
	case searcher.IsClientError(err):
		cErr = errBadQuery
		if xerrors.Is(err, index.ErrUnknownAnalyzer) {
			cErr = errUnknownAnalyzer
		}
	default:
		logger.WithField("err", err).Error("search request failed")
		renderMessage(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	logger.WithField("reason", string(cErr)).Debug("rejected search request")
	renderMessage(w, http.StatusBadRequest, string(cErr))
}
