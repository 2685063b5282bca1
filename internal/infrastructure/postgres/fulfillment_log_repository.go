package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

var _ repository.FulfillmentLogRepository = (*FulfillmentLogRepo)(nil)

// FulfillmentLogRepo bitácora de orquestación sobre la tabla fulfillment_runs.
type FulfillmentLogRepo struct {
	q  Querier
	tx *TxRunner
}

// NewFulfillmentLogRepository construye la bitácora. Resume necesita el TxRunner para el SELECT FOR UPDATE.
func NewFulfillmentLogRepository(q Querier, tx *TxRunner) *FulfillmentLogRepo {
	return &FulfillmentLogRepo{q: q, tx: tx}
}

const runColumns = `ticket_id, ticket_code, run_id, issue_type, state, failed_step, steps, attempts, started_at, updated_at, finished_at`

// Begin inserta la corrida. Si el ticket ya tiene una, devuelve ErrFulfillmentInProgress.
func (r *FulfillmentLogRepo) Begin(ctx context.Context, run *entity.FulfillmentRun) error {
	steps, err := marshalSteps(run.Steps)
	if err != nil {
		return err
	}
	query := `INSERT INTO fulfillment_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.q.Exec(ctx, query,
		run.TicketID, run.TicketCode, run.RunID, string(run.IssueType), string(run.State), run.FailedStep,
		steps, run.Attempts, run.StartedAt, run.UpdatedAt, run.FinishedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrFulfillmentInProgress
		}
		return fmt.Errorf("insert fulfillment run: %w", err)
	}
	return nil
}

func (r *FulfillmentLogRepo) Get(ctx context.Context, ticketID string) (*entity.FulfillmentRun, error) {
	query := `SELECT ` + runColumns + ` FROM fulfillment_runs WHERE ticket_id = $1`
	return scanRun(r.q.QueryRow(ctx, query, ticketID))
}

// Resume pasa a Started una corrida Failed o abandonada, dentro de una transacción con la fila bloqueada.
// Con NOWAIT, un segundo reintento simultáneo recibe ErrFulfillmentInProgress sin esperar.
func (r *FulfillmentLogRepo) Resume(ctx context.Context, ticketID string, staleBefore time.Time) (*entity.FulfillmentRun, error) {
	var resumed *entity.FulfillmentRun
	err := r.tx.Run(ctx, func(q Querier) error {
		query := `SELECT ` + runColumns + ` FROM fulfillment_runs WHERE ticket_id = $1 FOR UPDATE NOWAIT`
		run, err := scanRun(q.QueryRow(ctx, query, ticketID))
		if err != nil {
			if isLockNotAvailable(err) {
				return domain.ErrFulfillmentInProgress
			}
			return err
		}
		switch {
		case run.State == status.RunDone:
			return domain.ErrAlreadyFulfilled
		case !run.Resumable(staleBefore):
			return domain.ErrFulfillmentInProgress
		}
		run.State = status.RunStarted
		run.FailedStep = ""
		run.FinishedAt = nil
		run.Attempts++
		run.UpdatedAt = time.Now().UTC()
		_, err = q.Exec(ctx, `
			UPDATE fulfillment_runs
			SET state = $2, failed_step = '', finished_at = NULL, attempts = $3, updated_at = $4
			WHERE ticket_id = $1`,
			ticketID, string(run.State), run.Attempts, run.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("resume fulfillment run: %w", err)
		}
		resumed = run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resumed, nil
}

func (r *FulfillmentLogRepo) Save(ctx context.Context, run *entity.FulfillmentRun) error {
	steps, err := marshalSteps(run.Steps)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE fulfillment_runs
		SET ticket_code = $2, state = $3, failed_step = $4, steps = $5, attempts = $6,
		    updated_at = $7, finished_at = $8
		WHERE ticket_id = $1`,
		run.TicketID, run.TicketCode, string(run.State), run.FailedStep, steps, run.Attempts,
		run.UpdatedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save fulfillment run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (*entity.FulfillmentRun, error) {
	var (
		run              entity.FulfillmentRun
		issueType, state string
		steps            []byte
	)
	err := row.Scan(
		&run.TicketID, &run.TicketCode, &run.RunID, &issueType, &state, &run.FailedStep,
		&steps, &run.Attempts, &run.StartedAt, &run.UpdatedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan fulfillment run: %w", err)
	}
	run.IssueType = entity.Origin(issueType)
	run.State = status.State(state)
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &run.Steps); err != nil {
			return nil, fmt.Errorf("decodificar pasos: %w", err)
		}
	}
	return &run, nil
}

func marshalSteps(steps []entity.StepRecord) ([]byte, error) {
	if steps == nil {
		steps = []entity.StepRecord{}
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("serializar pasos: %w", err)
	}
	return b, nil
}
