package recruit

import (
	"context"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
)

// ListPositions fetches one page of open and closed positions.
func (s *service) ListPositions(ctx context.Context, req model.PageRequest) (*model.Page[model.Position], error) {
	if err := validPage(req); err != nil {
		return nil, err
	}
	return s.positions.List(ctx, req)
}

func (s *service) CreatePosition(ctx context.Context, req model.PositionRequest) (*model.Position, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.positions.Create(ctx, req)
}

func (s *service) UpdatePosition(ctx context.Context, uid string, req model.PositionRequest) (*model.Position, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.positions.Update(ctx, uid, req)
}

func (s *service) DeletePosition(ctx context.Context, uid string) error {
	return s.positions.Delete(ctx, uid)
}
