package recruit

import (
	"context"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
)

// ListTemplates fetches one page of recruitment form templates.
func (s *service) ListTemplates(ctx context.Context, req model.PageRequest) (*model.Page[model.Template], error) {
	if err := validPage(req); err != nil {
		return nil, err
	}
	return s.templates.List(ctx, req)
}

func (s *service) CreateTemplate(ctx context.Context, req model.TemplateRequest) (*model.Template, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.templates.Create(ctx, req)
}

func (s *service) UpdateTemplate(ctx context.Context, uid string, req model.TemplateRequest) (*model.Template, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.templates.Update(ctx, uid, req)
}

func (s *service) DeleteTemplate(ctx context.Context, uid string) error {
	return s.templates.Delete(ctx, uid)
}
