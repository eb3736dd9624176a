package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-movements-api/internal/application/inventory"
	"github.com/jhoicas/stock-movements-api/internal/domain"
	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
)

// fakeTx solo implementa Commit y Rollback; el resto de pgx.Tx no se usa.
type fakeTx struct {
	pgx.Tx
	commitErr error
	rollbacks *int
}

func (t *fakeTx) Commit(context.Context) error { return t.commitErr }

func (t *fakeTx) Rollback(context.Context) error {
	*t.rollbacks++
	return nil
}

// fakeDB devuelve los errores de beginErrs en orden; agotados, entrega una fakeTx.
type fakeDB struct {
	begins    int
	beginErrs []error
	commitErr error
	rollbacks int
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	db.begins++
	if len(db.beginErrs) > 0 {
		err := db.beginErrs[0]
		db.beginErrs = db.beginErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &fakeTx{commitErr: db.commitErr, rollbacks: &db.rollbacks}, nil
}

func serializationFailure() error { return &pgconn.PgError{Code: codeSerializationFailure} }

func noop(repository.MovementRepository, repository.StockRepository) error { return nil }

func repeat(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

func TestTxRunner_AgotaReintentos(t *testing.T) {
	db := &fakeDB{beginErrs: repeat(serializationFailure(), 10)}
	runner := newTxRunner(db, 3, nil)

	err := runner.Run(context.Background(), noop)
	require.Error(t, err)
	assert.Equal(t, 4, db.begins, "un intento más maxRetries reintentos")
	assert.True(t, isRetryable(err))
}

func TestTxRunner_ReintentaUnidadCompleta(t *testing.T) {
	db := &fakeDB{}
	runner := newTxRunner(db, 3, nil)

	calls := 0
	err := runner.Run(context.Background(), func(repository.MovementRepository, repository.StockRepository) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: codeDeadlockDetected}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, db.begins)
	assert.Equal(t, 2, db.rollbacks, "cada intento cierra su transacción")
}

func TestTxRunner_ConflictoEnCommitSeReintenta(t *testing.T) {
	db := &fakeDB{commitErr: serializationFailure()}
	runner := newTxRunner(db, 2, nil)

	calls := 0
	err := runner.Run(context.Background(), func(repository.MovementRepository, repository.StockRepository) error {
		calls++
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestTxRunner_ErrorNoReintentableNoRepite(t *testing.T) {
	db := &fakeDB{}
	runner := newTxRunner(db, 3, nil)
	boom := errors.New("boom")

	calls := 0
	err := runner.Run(context.Background(), func(repository.MovementRepository, repository.StockRepository) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	calls = 0
	err = runner.Run(context.Background(), func(repository.MovementRepository, repository.StockRepository) error {
		calls++
		return domain.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, calls)
}

func TestTxRunner_CancelacionDuranteEspera(t *testing.T) {
	db := &fakeDB{beginErrs: repeat(serializationFailure(), 10)}
	runner := newTxRunner(db, 5, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Run(ctx, noop)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, db.begins)
}

func TestTxRunner_SinReintentos(t *testing.T) {
	db := &fakeDB{beginErrs: repeat(serializationFailure(), 10)}
	runner := newTxRunner(db, -1, nil)

	require.Error(t, runner.Run(context.Background(), noop))
	assert.Equal(t, 1, db.begins)
}

func TestRecordMovement_ReintentosAgotadosEsErrPersistence(t *testing.T) {
	db := &fakeDB{beginErrs: repeat(serializationFailure(), 10)}
	uc := inventory.NewRecordMovementUseCase(newTxRunner(db, 2, nil), nil)

	res, err := uc.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: "p1",
		UserID:    "u1",
		Type:      entity.MovementTypeOUT,
		Quantity:  1,
	})
	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrPersistence)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, codeSerializationFailure, pgErr.Code)
	assert.Equal(t, 3, db.begins)
}
