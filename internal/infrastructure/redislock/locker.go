// Package redislock implementa el lock por fila de inventario sobre Redis, para varias réplicas del servicio.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/scm-fulfillment/internal/application/inventory"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/pkg/config"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

var _ inventory.KeyLocker = (*Locker)(nil)

const keyPrefix = "scm-fulfillment:lock:"

// Locker lock distribuido con TTL. El dueño lo libera al terminar; si muere, el TTL lo libera.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    *logger.Logger
}

// NewClient abre la conexión a Redis y verifica que responda.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// New construye el locker sobre un cliente ya conectado.
func New(rdb redis.UniversalClient, cfg config.RedisConfig, log *logger.Logger) *Locker {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{
		client: redislock.New(rdb),
		ttl:    cfg.LockTTL,
		wait:   cfg.LockWait,
		log:    log.Component("redislock"),
	}
}

// Lock espera hasta wait reintentando cada 50ms. Sin lock tras la espera devuelve ErrConflict.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.client.Obtain(waitCtx, keyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	switch {
	case err == nil:
	case errors.Is(err, redislock.ErrNotObtained), errors.Is(err, context.DeadlineExceeded):
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: fila %s bloqueada por otra corrida", domain.ErrConflict, key)
	default:
		return nil, fmt.Errorf("obtener lock %s: %w", key, err)
	}

	return func() {
		// Liberar con un contexto propio: el de la petición puede estar cancelado.
		rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer rcancel()
		if err := lock.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock")
		}
	}, nil
}
