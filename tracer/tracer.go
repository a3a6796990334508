package tracer

import (
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Pool keeps track of instantiated tracers so that their buffered spans can
// be flushed with a single call before the application exits.
var Pool = new(pool)

type pool struct {
	mu      sync.Mutex
	closers []io.Closer
}

func (p *pool) track(c io.Closer) {
	p.mu.Lock()
	p.closers = append(p.closers, c)
	p.mu.Unlock()
}

// Close flushes and closes all tracers currently tracked by the pool.
func (p *pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for _, closer := range p.closers {
		if cErr := closer.Close(); cErr != nil {
			err = multierror.Append(err, cErr)
		}
	}

	p.closers = nil
	return err
}

// GetTracer returns a new Jaeger tracer configured from the standard
// JAEGER_* environment variables. If no sampler is configured through the
// environment, every span is sampled.
func GetTracer(serviceName string) (opentracing.Tracer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.Sampler == nil || cfg.Sampler.Type == "" {
		cfg.Sampler = &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		}
	}
	cfg.ServiceName = serviceName

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		return nil, err
	}

	Pool.track(closer)
	return tracer, nil
}

// InstallGlobal creates a tracer with GetTracer and registers it as the
// opentracing global tracer.
func InstallGlobal(serviceName string) error {
	tracer, err := GetTracer(serviceName)
	if err != nil {
		return err
	}
	opentracing.SetGlobalTracer(tracer)
	return nil
}
