package recruit

import (
	"context"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
)

func (s *service) ListDepartments(ctx context.Context, req model.PageRequest) (*model.Page[model.Department], error) {
	if err := validPage(req); err != nil {
		return nil, err
	}
	return s.departments.List(ctx, req)
}

func (s *service) CreateDepartment(ctx context.Context, req model.DepartmentRequest) (*model.Department, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.departments.Create(ctx, req)
}

func (s *service) UpdateDepartment(ctx context.Context, uid string, req model.DepartmentRequest) (*model.Department, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.departments.Update(ctx, uid, req)
}

func (s *service) DeleteDepartment(ctx context.Context, uid string) error {
	return s.departments.Delete(ctx, uid)
}
