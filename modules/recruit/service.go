package recruit

import (
	"context"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/common/model"
	"github.com/guarzo/recruitapi/modules/gateway"
	"github.com/guarzo/recruitapi/modules/resource"
)

// Service is the typed CRUD surface over the five recruitment resources.
type Service interface {
	// Organizations
	ListOrganizations(ctx context.Context, req model.PageRequest) (*model.Page[model.Organization], error)
	CreateOrganization(ctx context.Context, req model.OrganizationRequest) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, uid string, req model.OrganizationRequest) (*model.Organization, error)
	DeleteOrganization(ctx context.Context, uid string) error
	// Departments
	ListDepartments(ctx context.Context, req model.PageRequest) (*model.Page[model.Department], error)
	CreateDepartment(ctx context.Context, req model.DepartmentRequest) (*model.Department, error)
	UpdateDepartment(ctx context.Context, uid string, req model.DepartmentRequest) (*model.Department, error)
	DeleteDepartment(ctx context.Context, uid string) error
	// Positions
	ListPositions(ctx context.Context, req model.PageRequest) (*model.Page[model.Position], error)
	CreatePosition(ctx context.Context, req model.PositionRequest) (*model.Position, error)
	UpdatePosition(ctx context.Context, uid string, req model.PositionRequest) (*model.Position, error)
	DeletePosition(ctx context.Context, uid string) error
	// Tasks
	ListTasks(ctx context.Context, req model.PageRequest) (*model.Page[model.Task], error)
	CreateTask(ctx context.Context, req model.TaskRequest) (*model.Task, error)
	UpdateTask(ctx context.Context, uid string, req model.TaskRequest) (*model.Task, error)
	DeleteTask(ctx context.Context, uid string) error
	// Form templates
	ListTemplates(ctx context.Context, req model.PageRequest) (*model.Page[model.Template], error)
	CreateTemplate(ctx context.Context, req model.TemplateRequest) (*model.Template, error)
	UpdateTemplate(ctx context.Context, uid string, req model.TemplateRequest) (*model.Template, error)
	DeleteTemplate(ctx context.Context, uid string) error
}

// Resource names, also the first path segment of each resource.
const (
	OrganizationResource = "organization"
	DepartmentResource   = "department"
	PositionResource     = "position"
	TaskResource         = "task"
	TemplateResource     = "formtemplate"
)

type service struct {
	organizations *resource.Client[model.Organization]
	departments   *resource.Client[model.Department]
	positions     *resource.Client[model.Position]
	tasks         *resource.Client[model.Task]
	templates     *resource.Client[model.Template]
}

// NewService wires one resource client per resource over api. Unless opts
// say otherwise, the clients share one list cache.
func NewService(api gateway.Requester, opts ...resource.Option) Service {
	opts = append([]resource.Option{resource.WithCache(common.NewCacheStore())}, opts...)
	return &service{
		organizations: resource.NewClient[model.Organization](api, OrganizationResource,
			resource.Paths{Base: "/organization", List: "/organization/All"}, opts...),
		departments: resource.NewClient[model.Department](api, DepartmentResource,
			resource.Paths{Base: "/department"}, opts...),
		positions: resource.NewClient[model.Position](api, PositionResource,
			resource.Paths{Base: "/position"}, opts...),
		tasks: resource.NewClient[model.Task](api, TaskResource,
			resource.Paths{Base: "/task"}, opts...),
		templates: resource.NewClient[model.Template](api, TemplateResource,
			resource.Paths{Base: "/formtemplate"}, opts...),
	}
}

// DefaultPage is the first page with the dashboard's default size.
func DefaultPage() model.PageRequest {
	return model.PageRequest{PageIndex: 0, PageSize: 10}
}

func validPage(req model.PageRequest) error {
	return common.Validate(req)
}
