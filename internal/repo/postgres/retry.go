package postgres

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// retryDelays spaces out attempts on transient connection failures.
var retryDelays = []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, time.Second}

func withRetry(ctx context.Context, log *zap.Logger, fn func() error) error {
	var err error
	for i, d := range retryDelays {
		err = fn()
		if err == nil || !isRetriable(err) {
			return err
		}
		log.Warn("pg_retry", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return fn()
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ConnectionException,
			pgerrcode.ConnectionDoesNotExist,
			pgerrcode.ConnectionFailure,
			pgerrcode.SQLClientUnableToEstablishSQLConnection,
			pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection,
			pgerrcode.TransactionResolutionUnknown,
			pgerrcode.SerializationFailure,
			pgerrcode.TooManyConnections:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
