package model

import (
	"bytes"
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// ----------------------------------------------------------------------
// Response envelope
// ----------------------------------------------------------------------

// Envelope is the wrapper every endpoint responds with.
type Envelope[M any] struct {
	IsSuccess bool   `json:"IsSuccess"`
	Status    int    `json:"Status"`
	Message   string `json:"Message"`
	Model     M      `json:"Model"`
}

// Page is one page of a paginated list endpoint.
type Page[T any] struct {
	PageIndex    int `json:"PageIndex"`
	PageSize     int `json:"PageSize"`
	TotalRecords int `json:"TotalRecords"`
	Records      []T `json:"Records"`
}

// ListModel decodes a page from either Model.Result or Model itself; the
// organization endpoints embed the page directly.
type ListModel[T any] struct {
	Page[T]
}

func (m *ListModel[T]) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Result *Page[T] `json:"Result"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Result != nil {
		m.Page = *wrapped.Result
		return nil
	}
	var page Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}
	m.Page = page
	return nil
}

// EntityModel decodes a single entity from either Model.Entity or Model itself.
type EntityModel[T any] struct {
	Entity T
}

func (m *EntityModel[T]) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Entity json.RawMessage `json:"Entity"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if len(wrapped.Entity) > 0 && !bytes.Equal(wrapped.Entity, []byte("null")) {
		return json.Unmarshal(wrapped.Entity, &m.Entity)
	}
	return json.Unmarshal(data, &m.Entity)
}

// ----------------------------------------------------------------------
// Entities
// ----------------------------------------------------------------------

// BaseEntity carries the fields common to every CRUD resource.
type BaseEntity struct {
	Uid       string  `json:"Uid"`
	CreatedOn string  `json:"CreatedOn"`
	CreatedBy string  `json:"CreatedBy"`
	UpdatedOn string  `json:"UpdatedOn"`
	UpdatedBy string  `json:"UpdatedBy"`
	IsDeleted int     `json:"IsDeleted"`
	IsActive  int     `json:"IsActive"`
	DeletedOn *string `json:"DeletedOn"`
	OrgId     string  `json:"OrgId"`
}

type Organization struct {
	BaseEntity
	Name        string `json:"Name"`
	Owner       string `json:"Owner"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone"`
	Description string `json:"Description"`
	Address     string `json:"Address"`
	OrgSite     string `json:"OrgSite"`
	LogoUrl     string `json:"LogoUrl,omitempty"`
}

type Department struct {
	BaseEntity
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

type Position struct {
	BaseEntity
	Name         string `json:"Name"`
	Description  string `json:"Description"`
	DepartmentId string `json:"DepartmentId"`
	Department   string `json:"Department"`
	Status       string `json:"Status"`
}

type Task struct {
	BaseEntity
	Name        string `json:"Name"`
	Description string `json:"Description"`
	UserName    string `json:"UserName"`
	Stack       string `json:"Stack"`
	StartDate   string `json:"StartDate"`
	EndDate     string `json:"EndDate"`
	Status      string `json:"Status"`
}

// Template is a recruitment form template.
type Template struct {
	BaseEntity
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

// ----------------------------------------------------------------------
// Requests
// ----------------------------------------------------------------------

// PageRequest is the body of every <resource>/all call.
type PageRequest struct {
	PageIndex int     `json:"PageIndex" validate:"gte=0"`
	PageSize  int     `json:"PageSize" validate:"gt=0,lte=500"`
	SortBy    *string `json:"SortBy"`
	Filter    *string `json:"Filter,omitempty"`
}

type OrganizationRequest struct {
	Name        string `json:"Name" validate:"required"`
	Description string `json:"Description"`
	LogoUrl     string `json:"LogoUrl"`
	Phone       string `json:"Phone"`
	Email       string `json:"Email" validate:"omitempty,email"`
	Owner       string `json:"Owner"`
	Address     string `json:"Address"`
	OrgSite     string `json:"OrgSite"`
}

type DepartmentRequest struct {
	Name        string `json:"Name" validate:"required"`
	Description string `json:"Description"`
}

type PositionRequest struct {
	Name         string `json:"Name" validate:"required"`
	Description  string `json:"Description"`
	DepartmentId string `json:"DepartmentId,omitempty"`
	Status       string `json:"Status,omitempty" validate:"omitempty,oneof=active closed"`
}

type TaskRequest struct {
	Name        string `json:"Name" validate:"required"`
	Description string `json:"Description"`
	UserName    string `json:"UserName"`
	Stack       string `json:"Stack"`
	StartDate   string `json:"StartDate"`
	EndDate     string `json:"EndDate"`
	Status      string `json:"Status"`
}

type TemplateRequest struct {
	Name        string `json:"Name" validate:"required"`
	Description string `json:"Description"`
}

// ----------------------------------------------------------------------
// Auth
// ----------------------------------------------------------------------

type LoginRequest struct {
	Email    string `json:"Email" validate:"required,email"`
	Password string `json:"Password" validate:"required,password"`
}

// LoginResult is the Model of a successful login envelope.
type LoginResult struct {
	UserId       string `json:"UserId"`
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse accepts the token pair at the top level or inside an
// envelope Model, in either casing.
type RefreshResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type tokenFields struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func (r *RefreshResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		tokenFields
		Model *tokenFields `json:"Model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	src := raw.tokenFields
	if src.AccessToken == "" && raw.Model != nil {
		src = *raw.Model
	}
	r.AccessToken = src.AccessToken
	r.RefreshToken = src.RefreshToken
	r.ExpiresIn = src.ExpiresIn
	return nil
}

// Token converts the response into the oauth2 token shape used across the client.
// A missing refresh token keeps the caller's current one.
func (r RefreshResponse) Token(currentRefresh string) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    r.ExpiresIn,
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = currentRefresh
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok
}
