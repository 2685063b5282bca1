package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/scm-fulfillment/internal/application/ports"
	"github.com/jhoicas/scm-fulfillment/internal/domain"
	"github.com/jhoicas/scm-fulfillment/internal/domain/entity"
	"github.com/jhoicas/scm-fulfillment/internal/domain/repository"
	"github.com/jhoicas/scm-fulfillment/pkg/logger"
)

// LedgerUseCase cliente del libro de inventario remoto. Cada mutación toma el lock de su fila,
// verifica la precondición (existencia ≥ solicitado) y recién entonces aplica la resta relativa,
// de modo que dos despachos concurrentes no sobregiran la misma fila.
type LedgerUseCase struct {
	repo        repository.InventoryRepository
	locker      KeyLocker
	metrics     ports.Metrics
	log         *logger.Logger
	maxParallel int
}

// NewLedgerUseCase construye el caso de uso. maxParallel acota el fan-out de ApplyAll.
func NewLedgerUseCase(
	repo repository.InventoryRepository,
	locker KeyLocker,
	metrics ports.Metrics,
	log *logger.Logger,
	maxParallel int,
) *LedgerUseCase {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	return &LedgerUseCase{
		repo:        repo,
		locker:      locker,
		metrics:     metrics,
		log:         log.Component("inventory"),
		maxParallel: maxParallel,
	}
}

// MutationResult resultado de una mutación dentro de un lote.
type MutationResult struct {
	Mutation entity.StockMutation
	Err      error
}

// Record devuelve la fila actual de (bodega, item).
func (uc *LedgerUseCase) Record(ctx context.Context, warehouseID, itemID string) (*entity.InventoryRecord, error) {
	if warehouseID == "" || itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.repo.Get(ctx, warehouseID, itemID)
}

// Decrease resta Amount de la existencia (Kind=quantity) o de la reserva (Kind=on_demand).
// Devuelve domain.ErrInsufficientStock si la fila no alcanza; en ese caso no se llama a la API.
func (uc *LedgerUseCase) Decrease(ctx context.Context, m entity.StockMutation) error {
	if err := validateMutation(m); err != nil {
		return err
	}
	if m.Amount.IsZero() {
		return nil
	}
	unlock, err := uc.lock(ctx, m.Key())
	if err != nil {
		return err
	}
	defer unlock()

	rec, err := uc.repo.Get(ctx, m.WarehouseID, m.ItemID)
	if err != nil {
		return fmt.Errorf("leer inventario %s: %w", m.Key(), err)
	}
	available := rec.Quantity
	if m.Kind == entity.MutationOnDemand {
		available = rec.OnDemandQuantity
	}
	if available.LessThan(m.Amount) {
		return fmt.Errorf("%w: %s %s disponible %s, solicitado %s",
			domain.ErrInsufficientStock, m.Key(), m.Kind, available, m.Amount)
	}

	switch m.Kind {
	case entity.MutationQuantity:
		err = uc.repo.DecreaseQuantity(ctx, m)
	case entity.MutationOnDemand:
		err = uc.repo.DecreaseOnDemand(ctx, m)
	}
	if err != nil {
		return fmt.Errorf("descontar %s %s: %w", m.Kind, m.Key(), err)
	}
	uc.log.Debug().Str("key", m.Key()).Str("kind", m.Kind).Str("amount", m.Amount.String()).
		Str("mutation_id", m.MutationID).Msg("inventario descontado")
	return nil
}

// Increase suma Amount a la existencia física (entrada de bodega).
func (uc *LedgerUseCase) Increase(ctx context.Context, m entity.StockMutation) error {
	if err := validateMutation(m); err != nil {
		return err
	}
	if m.Kind != entity.MutationQuantity {
		return fmt.Errorf("%w: solo se incrementa la existencia física", domain.ErrInvalidInput)
	}
	if m.Amount.IsZero() {
		return nil
	}
	unlock, err := uc.lock(ctx, m.Key())
	if err != nil {
		return err
	}
	defer unlock()

	if err := uc.repo.IncreaseQuantity(ctx, m); err != nil {
		return fmt.Errorf("incrementar %s: %w", m.Key(), err)
	}
	return nil
}

// DecreaseAll aplica todas las restas en paralelo y espera a todas. Devuelve un resultado por mutación, en orden.
func (uc *LedgerUseCase) DecreaseAll(ctx context.Context, muts []entity.StockMutation) []MutationResult {
	return uc.fanOut(ctx, muts, uc.Decrease)
}

// IncreaseAll aplica todos los incrementos en paralelo y espera a todos.
func (uc *LedgerUseCase) IncreaseAll(ctx context.Context, muts []entity.StockMutation) []MutationResult {
	return uc.fanOut(ctx, muts, uc.Increase)
}

func (uc *LedgerUseCase) fanOut(
	ctx context.Context,
	muts []entity.StockMutation,
	fn func(context.Context, entity.StockMutation) error,
) []MutationResult {
	results := make([]MutationResult, len(muts))
	var g errgroup.Group
	g.SetLimit(uc.maxParallel)
	for i, m := range muts {
		i, m := i, m
		g.Go(func() error {
			results[i] = MutationResult{Mutation: m, Err: fn(ctx, m)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (uc *LedgerUseCase) lock(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	unlock, err := uc.locker.Lock(ctx, "inventory:"+key)
	uc.metrics.LockWait(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("lock inventario %s: %w", key, err)
	}
	return unlock, nil
}

func validateMutation(m entity.StockMutation) error {
	if m.WarehouseID == "" || m.ItemID == "" {
		return fmt.Errorf("%w: mutación sin bodega o item", domain.ErrInvalidInput)
	}
	if m.Kind != entity.MutationQuantity && m.Kind != entity.MutationOnDemand {
		return fmt.Errorf("%w: tipo de mutación %q", domain.ErrInvalidInput, m.Kind)
	}
	if m.Amount.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	return nil
}
