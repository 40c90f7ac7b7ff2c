package recruit

import (
	"context"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
)

func (s *service) ListTasks(ctx context.Context, req model.PageRequest) (*model.Page[model.Task], error) {
	if err := validPage(req); err != nil {
		return nil, err
	}
	return s.tasks.List(ctx, req)
}

func (s *service) CreateTask(ctx context.Context, req model.TaskRequest) (*model.Task, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.tasks.Create(ctx, req)
}

func (s *service) UpdateTask(ctx context.Context, uid string, req model.TaskRequest) (*model.Task, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.tasks.Update(ctx, uid, req)
}

func (s *service) DeleteTask(ctx context.Context, uid string) error {
	return s.tasks.Delete(ctx, uid)
}
