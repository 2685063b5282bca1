package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/internal/domain/status"
)

var _ repository.FulfillmentLogRepository = (*FulfillmentLog)(nil)

// FulfillmentLog bitácora de orquestación en memoria. Misma semántica que la de PostgreSQL.
type FulfillmentLog struct {
	mu   sync.Mutex
	runs map[string]*entity.FulfillmentRun
}

// NewFulfillmentLog crea una bitácora vacía.
func NewFulfillmentLog() *FulfillmentLog {
	return &FulfillmentLog{runs: make(map[string]*entity.FulfillmentRun)}
}

func (l *FulfillmentLog) Begin(_ context.Context, run *entity.FulfillmentRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.runs[run.TicketID]; ok {
		return domain.ErrFulfillmentInProgress
	}
	l.runs[run.TicketID] = cloneRun(run)
	return nil
}

func (l *FulfillmentLog) Get(_ context.Context, ticketID string) (*entity.FulfillmentRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	run, ok := l.runs[ticketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRun(run), nil
}

func (l *FulfillmentLog) Resume(_ context.Context, ticketID string, staleBefore time.Time) (*entity.FulfillmentRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	run, ok := l.runs[ticketID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	switch {
	case run.State == status.RunDone:
		return nil, domain.ErrAlreadyFulfilled
	case !run.Resumable(staleBefore):
		return nil, domain.ErrFulfillmentInProgress
	}
	run.State = status.RunStarted
	run.FailedStep = ""
	run.FinishedAt = nil
	run.Attempts++
	run.UpdatedAt = time.Now()
	return cloneRun(run), nil
}

func (l *FulfillmentLog) Save(_ context.Context, run *entity.FulfillmentRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.runs[run.TicketID]; !ok {
		return domain.ErrNotFound
	}
	l.runs[run.TicketID] = cloneRun(run)
	return nil
}

func cloneRun(r *entity.FulfillmentRun) *entity.FulfillmentRun {
	c := *r
	c.Steps = append([]entity.StepRecord(nil), r.Steps...)
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
