package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsimplex/pkg/config"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestWithTransaction_Commit(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM solve_runs`).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := WithTransaction(ctx, mock, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM solve_runs WHERE created_at < NOW()`)
		return err
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := WithTransaction(ctx, mock, func(pgx.Tx) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RollbackFailure(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()
	rbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(rbErr)

	err := WithTransaction(ctx, mock, func(pgx.Tx) error { return errors.New("boom") })

	assert.ErrorIs(t, err, rbErr)
	assert.Contains(t, err.Error(), "boom")
}

func TestWithTransaction_BeginFailure(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err := WithTransaction(context.Background(), mock, func(pgx.Tx) error {
		called = true
		return nil
	})

	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.False(t, called)
}

func TestWithTransaction_CommitFailure(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := WithTransaction(context.Background(), mock, func(pgx.Tx) error { return nil })

	assert.ErrorContains(t, err, "failed to commit transaction")
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = WithTransaction(context.Background(), mock, func(pgx.Tx) error { panic("kaboom") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransactionResult(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))
	mock.ExpectCommit()

	n, err := WithTransactionResult(ctx, mock, func(tx pgx.Tx) (int64, error) {
		var count int64
		err := tx.QueryRow(ctx, `SELECT count(*) FROM solve_runs`).Scan(&count)
		return count, err
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSnapshot(t *testing.T) {
	mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBeginTx(SnapshotOptions)
	mock.ExpectQuery(`SELECT count`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectCommit()

	n, err := WithSnapshot(ctx, mock, func(tx pgx.Tx) (int64, error) {
		var count int64
		err := tx.QueryRow(ctx, `SELECT count(*) FROM solve_runs`).Scan(&count)
		return count, err
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	assert.NoError(t, HealthCheck(context.Background(), mock))

	mock.ExpectQuery(`SELECT 1`).WillReturnError(errors.New("down"))
	assert.ErrorContains(t, HealthCheck(context.Background(), mock), "health check failed")
}

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		Database:        "netsimplex",
		Username:        "postgres",
		Password:        "secret",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: 30 * time.Second,
	}

	pc, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, 30*time.Second, pc.MaxConnIdleTime)
	assert.Equal(t, "netsimplex", pc.ConnConfig.Database)
	assert.Equal(t, uint16(5432), pc.ConnConfig.Port)
}
