package sessionlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	redistimeseries "github.com/RedisTimeSeries/redistimeseries-go"
)

// tsClient is the subset of the RedisTimeSeries client used here.
type tsClient interface {
	Info(key string) (redistimeseries.KeyInfo, error)
	CreateKeyWithOptions(key string, options redistimeseries.CreateOptions) error
	AddAutoTs(key string, value float64) (int64, error)
}

// RedisSink appends each run's metrics to per-system time series named
// ctrlsim:<system>:<metric>.
type RedisSink struct {
	client  tsClient
	mu      sync.Mutex
	created map[string]bool
}

func NewRedisSink(addr, password string) *RedisSink {
	var pw *string
	if password != "" {
		pw = &password
	}
	return newRedisSink(redistimeseries.NewClient(addr, "ctrlsim", pw))
}

func newRedisSink(client tsClient) *RedisSink {
	return &RedisSink{client: client, created: make(map[string]bool)}
}

func SeriesKey(system, metric string) string {
	return fmt.Sprintf("ctrlsim:%s:%s", system, metric)
}

func (r *RedisSink) Write(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Output == nil {
		return nil
	}

	names := make([]string, 0, len(e.Output.Metrics))
	for name := range e.Output.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		key := SeriesKey(e.System, name)
		if err := r.ensure(key, e.System, name); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := r.client.AddAutoTs(key, e.Output.Metrics[name]); err != nil {
			errs = append(errs, fmt.Errorf("add %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (r *RedisSink) ensure(key, system, metric string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.created[key] {
		return nil
	}
	if _, err := r.client.Info(key); err != nil {
		opts := redistimeseries.DefaultCreateOptions
		opts.Labels = map[string]string{
			"system": system,
			"metric": metric,
		}
		if err := r.client.CreateKeyWithOptions(key, opts); err != nil {
			return fmt.Errorf("create %s: %w", key, err)
		}
	}
	r.created[key] = true
	return nil
}
