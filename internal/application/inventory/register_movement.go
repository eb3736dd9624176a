package inventory

import (
	"context"

	"github.com/jhoicas/stock-movements-api/internal/application/dto"
)

// RecordMovementFromRequest adapta el request HTTP al caso de uso RecordMovement.
// userID sale del token; el body nunca decide el actor.
func (uc *RecordMovementUseCase) RecordMovementFromRequest(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*dto.RegisterMovementResponse, error) {
	res, err := uc.RecordMovement(ctx, MovementInput{
		ProductID: in.ProductID,
		UserID:    userID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &dto.RegisterMovementResponse{
		Movement: ToMovementResponse(res.Movement),
		NewStock: res.NewStock,
		LowStock: res.LowStock,
	}, nil
}
