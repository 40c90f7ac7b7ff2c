package recruit

import (
	"context"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
)

// ListOrganizations fetches one page of organizations. The organization list
// endpoint is the only one spelled "/All".
func (s *service) ListOrganizations(ctx context.Context, req model.PageRequest) (*model.Page[model.Organization], error) {
	if err := validPage(req); err != nil {
		return nil, err
	}
	return s.organizations.List(ctx, req)
}

func (s *service) CreateOrganization(ctx context.Context, req model.OrganizationRequest) (*model.Organization, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.organizations.Create(ctx, req)
}

func (s *service) UpdateOrganization(ctx context.Context, uid string, req model.OrganizationRequest) (*model.Organization, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	return s.organizations.Update(ctx, uid, req)
}

func (s *service) DeleteOrganization(ctx context.Context, uid string) error {
	return s.organizations.Delete(ctx, uid)
}
