package observability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisInstrumentationOnce sync.Once

// InstrumentRedisClient installs command and pool metrics on the client.
// Instrumentation is installed at most once per process.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisInstrumentationOnce.Do(func() {
		hook, err := newRedisMetricsHook(otel.Meter(meterName), client.PoolStats)
		if err != nil {
			logger.Warn("redis observability instrumentation disabled", "error", err)
			return
		}
		client.AddHook(hook)
		logger.Info("redis observability instrumentation enabled")
	})
}

type redisMetricsHook struct {
	cmdTotal       metric.Int64Counter
	cmdErrors      metric.Int64Counter
	cmdLatency     metric.Float64Histogram
	keyspaceHits   metric.Int64Counter
	keyspaceMisses metric.Int64Counter

	cmdTotalAtomic  atomic.Int64
	cmdErrorAtomic  atomic.Int64
	keyHitAtomic    atomic.Int64
	keyMissAtomic   atomic.Int64
	poolStatsReader func() *redis.PoolStats
}

func newRedisMetricsHook(meter metric.Meter, poolStats func() *redis.PoolStats) (*redisMetricsHook, error) {
	h := &redisMetricsHook{poolStatsReader: poolStats}
	var err error

	counters := []struct {
		name string
		desc string
		dst  *metric.Int64Counter
	}{
		{"redis.command.total", "Total number of Redis commands executed", &h.cmdTotal},
		{"redis.command.errors", "Total number of Redis command errors", &h.cmdErrors},
		{"redis.keyspace.hits", "Redis keyspace hits observed by client operations", &h.keyspaceHits},
		{"redis.keyspace.misses", "Redis keyspace misses observed by client operations", &h.keyspaceMisses},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}
	h.cmdLatency, err = meter.Float64Histogram(
		"redis.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"),
	)
	if err != nil {
		return nil, err
	}

	poolSaturation, err := meter.Float64ObservableGauge(
		"redis.pool.saturation",
		metric.WithUnit("1"),
		metric.WithDescription("Redis pool saturation ratio (used_conns / total_conns)"),
	)
	if err != nil {
		return nil, err
	}
	hitRatio, err := meter.Float64ObservableGauge(
		"redis.keyspace.hit_ratio",
		metric.WithUnit("1"),
		metric.WithDescription("Redis keyspace hit ratio from client-observed lookups"),
	)
	if err != nil {
		return nil, err
	}
	errorRate, err := meter.Float64ObservableGauge(
		"redis.command.error_rate",
		metric.WithUnit("1"),
		metric.WithDescription("Redis command error rate (errors / total commands)"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		if h.poolStatsReader != nil {
			if stats := h.poolStatsReader(); stats != nil && stats.TotalConns > 0 {
				used := stats.TotalConns - stats.IdleConns
				observer.ObserveFloat64(poolSaturation, clampRatio(float64(used)/float64(stats.TotalConns)))
			}
		}
		if hits, misses := h.keyHitAtomic.Load(), h.keyMissAtomic.Load(); hits+misses > 0 {
			observer.ObserveFloat64(hitRatio, clampRatio(float64(hits)/float64(hits+misses)))
		}
		if total := h.cmdTotalAtomic.Load(); total > 0 {
			observer.ObserveFloat64(errorRate, clampRatio(float64(h.cmdErrorAtomic.Load())/float64(total)))
		}
		return nil
	}, poolSaturation, hitRatio, errorRate)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		command := commandName(cmd)
		h.cmdLatency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", redisCommandStatus(err)),
		))
		h.observe(ctx, cmd, err)
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.cmdLatency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("command", "pipeline"),
			attribute.String("status", redisCommandStatus(err)),
		))
		for _, cmd := range cmds {
			h.observe(ctx, cmd, cmd.Err())
		}
		return err
	}
}

func (h *redisMetricsHook) observe(ctx context.Context, cmd redis.Cmder, err error) {
	command := commandName(cmd)
	h.cmdTotalAtomic.Add(1)
	h.cmdTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", redisCommandStatus(err)),
	))
	if err != nil && !errors.Is(err, redis.Nil) {
		h.cmdErrorAtomic.Add(1)
		h.cmdErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("error_type", classifyRedisError(err)),
		))
	}
	if hits, misses, ok := classifyKeyspaceOutcome(cmd); ok {
		if hits > 0 {
			h.keyHitAtomic.Add(hits)
			h.keyspaceHits.Add(ctx, hits, metric.WithAttributes(attribute.String("command", command)))
		}
		if misses > 0 {
			h.keyMissAtomic.Add(misses)
			h.keyspaceMisses.Add(ctx, misses, metric.WithAttributes(attribute.String("command", command)))
		}
	}
}

func commandName(cmd redis.Cmder) string {
	return strings.ToLower(cmd.Name())
}

func redisCommandStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "miss"
	default:
		return "error"
	}
}

func classifyRedisError(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "connection"):
		return "connection"
	case strings.HasPrefix(errStr, "noscript"):
		return "noscript"
	default:
		return "other"
	}
}

func classifyKeyspaceOutcome(cmd redis.Cmder) (hits int64, misses int64, ok bool) {
	switch commandName(cmd) {
	case "get", "hget":
		err := cmd.Err()
		if errors.Is(err, redis.Nil) {
			return 0, 1, true
		}
		if err != nil {
			return 0, 0, false
		}
		return 1, 0, true
	case "hgetall":
		mapCmd, castOK := cmd.(*redis.MapStringStringCmd)
		if !castOK || mapCmd.Err() != nil {
			return 0, 0, false
		}
		if len(mapCmd.Val()) == 0 {
			return 0, 1, true
		}
		return 1, 0, true
	case "exists":
		intCmd, castOK := cmd.(*redis.IntCmd)
		if !castOK || intCmd.Err() != nil {
			return 0, 0, false
		}
		if intCmd.Val() > 0 {
			return 1, 0, true
		}
		return 0, 1, true
	default:
		return 0, 0, false
	}
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
