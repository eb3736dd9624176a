package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/stock-movements-api/internal/domain"
	"github.com/jhoicas/stock-movements-api/internal/domain/entity"
	"github.com/jhoicas/stock-movements-api/internal/domain/repository"
	"github.com/jhoicas/stock-movements-api/pkg/logger"
)

// RecordMovementUseCase registra movimientos IN/OUT: bloquea el producto, valida el stock
// resultante y confirma movimiento + stock en una sola transacción.
type RecordMovementUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewRecordMovementUseCase construye el caso de uso.
func NewRecordMovementUseCase(txRunner TxRunner, log *logger.Logger) *RecordMovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RecordMovementUseCase{
		txRunner: txRunner,
		log:      log.Named("inventory"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MovementInput entrada para registrar un movimiento. UserID es el actor ya autenticado.
type MovementInput struct {
	ProductID string
	UserID    string
	Type      string
	Quantity  int64
	Reason    string
}

// MovementResult movimiento confirmado y stock resultante del producto.
type MovementResult struct {
	Movement *entity.Movement
	NewStock int64
	LowStock bool // NewStock <= MinStock
}

// RecordMovement valida la entrada antes de tocar la BD; los rechazos no dejan rastro.
// Errores: ErrInvalidQuantity, ErrInvalidKind, ErrProductNotFound, ErrInsufficientStock
// o ErrPersistence (envolviendo la causa) si la transacción no se pudo confirmar.
func (uc *RecordMovementUseCase) RecordMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if !entity.IsValidMovementType(in.Type) {
		return nil, domain.ErrInvalidKind
	}

	var result *MovementResult
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error {
		mov := &entity.Movement{
			ProductID: in.ProductID,
			UserID:    in.UserID,
			Type:      in.Type,
			Quantity:  in.Quantity,
			Reason:    in.Reason,
			CreatedAt: uc.now(),
		}
		updated, err := withProductForUpdate(ctx, stockRepo, in.ProductID, func(current *entity.Stock) (int64, error) {
			return applyMovement(current.Quantity, mov)
		})
		if err != nil {
			return err
		}
		if err := movRepo.Append(ctx, mov); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}
		result = &MovementResult{
			Movement: mov,
			NewStock: updated.Quantity,
			LowStock: updated.Quantity <= updated.MinStock,
		}
		return nil
	})
	if err != nil {
		if isRejection(err) {
			uc.log.Debug().Err(err).
				Str("product_id", in.ProductID).
				Str("type", in.Type).
				Int64("quantity", in.Quantity).
				Msg("movimiento rechazado")
			return nil, err
		}
		uc.log.Error().Err(err).
			Str("product_id", in.ProductID).
			Str("type", in.Type).
			Msg("persistir movimiento")
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	uc.log.Info().
		Int64("movement_id", result.Movement.ID).
		Str("product_id", in.ProductID).
		Str("user_id", in.UserID).
		Str("type", in.Type).
		Int64("quantity", in.Quantity).
		Int64("new_stock", result.NewStock).
		Msg("movimiento registrado")
	if result.LowStock {
		uc.log.Warn().
			Str("product_id", in.ProductID).
			Int64("stock", result.NewStock).
			Msg("stock en o por debajo del mínimo")
	}
	return result, nil
}

// applyMovement calcula el stock candidato; OUT nunca deja el stock negativo.
func applyMovement(current int64, mov *entity.Movement) (int64, error) {
	if mov.Type == entity.MovementTypeIN {
		if current > math.MaxInt64-mov.Quantity {
			return 0, domain.ErrInvalidQuantity
		}
		return current + mov.Quantity, nil
	}
	next := current - mov.Quantity
	if next < 0 {
		return 0, domain.ErrInsufficientStock
	}
	return next, nil
}

func isRejection(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInvalidQuantity)
}
