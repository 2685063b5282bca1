package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
	"github.com/jhoicas/scm-fulfillment/internal/infrastructure/postgres"
	"github.com/jhoicas/scm-fulfillment/pkg/config"
)

// Prueba de integración: requiere TEST_DATABASE_URL apuntando a una base desechable.
func newLogRepo(t *testing.T) *postgres.FulfillmentLogRepo {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return postgres.NewFulfillmentLogRepository(pool, postgres.NewTxRunner(pool))
}

func newRun() *entity.FulfillmentRun {
	now := time.Now().UTC()
	return &entity.FulfillmentRun{
		TicketID:   "it-" + uuid.NewString(),
		TicketCode: "PX-001",
		RunID:      uuid.NewString(),
		IssueType:  entity.OriginSales,
		State:      status.RunStarted,
		Attempts:   1,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

func TestFulfillmentLog_BeginGetSave(t *testing.T) {
	repo := newLogRepo(t)
	ctx := context.Background()
	run := newRun()

	require.NoError(t, repo.Begin(ctx, run))
	assert.ErrorIs(t, repo.Begin(ctx, newRunFor(run.TicketID)), domain.ErrFulfillmentInProgress)

	run.Record(entity.StepRecord{Name: "complete_ticket", Outcome: entity.StepOK, Attempts: 1, At: time.Now().UTC()})
	run.State = status.RunFailed
	run.FailedStep = "delivery_order"
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, run.TicketID)
	require.NoError(t, err)
	assert.Equal(t, status.RunFailed, got.State)
	assert.Equal(t, "delivery_order", got.FailedStep)
	assert.Equal(t, entity.OriginSales, got.IssueType)
	assert.True(t, got.Succeeded("complete_ticket"))
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Millisecond)
}

func TestFulfillmentLog_Resume(t *testing.T) {
	repo := newLogRepo(t)
	ctx := context.Background()
	run := newRun()
	require.NoError(t, repo.Begin(ctx, run))

	_, err := repo.Resume(ctx, run.TicketID, time.Time{})
	assert.ErrorIs(t, err, domain.ErrFulfillmentInProgress, "una corrida en curso no se reanuda")

	run.State = status.RunFailed
	run.FailedStep = "inventory[0].quantity"
	require.NoError(t, repo.Save(ctx, run))

	resumed, err := repo.Resume(ctx, run.TicketID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, status.RunStarted, resumed.State)
	assert.Empty(t, resumed.FailedStep)
	assert.Equal(t, 2, resumed.Attempts)

	finished := time.Now().UTC()
	resumed.State = status.RunDone
	resumed.FinishedAt = &finished
	require.NoError(t, repo.Save(ctx, resumed))

	_, err = repo.Resume(ctx, run.TicketID, time.Time{})
	assert.ErrorIs(t, err, domain.ErrAlreadyFulfilled)
}

func TestFulfillmentLog_ResumeTomaCorridaAbandonada(t *testing.T) {
	repo := newLogRepo(t)
	ctx := context.Background()
	run := newRun()
	run.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Begin(ctx, run))

	_, err := repo.Resume(ctx, run.TicketID, time.Now().Add(-2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrFulfillmentInProgress, "dentro del plazo sigue en curso")

	resumed, err := repo.Resume(ctx, run.TicketID, time.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, status.RunStarted, resumed.State)
	assert.Equal(t, 2, resumed.Attempts)

	// La toma renueva UpdatedAt: un segundo intento inmediato no la vuelve a tomar.
	_, err = repo.Resume(ctx, run.TicketID, time.Now().Add(-5*time.Minute))
	assert.ErrorIs(t, err, domain.ErrFulfillmentInProgress)
}

func TestFulfillmentLog_NoEncontrado(t *testing.T) {
	repo := newLogRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Save(ctx, newRun()), domain.ErrNotFound)
}

func newRunFor(ticketID string) *entity.FulfillmentRun {
	r := newRun()
	r.TicketID = ticketID
	return r
}
