package validations

import (
	"context"

	pkgError "github.com/AzielCF/az-console/pkg/error"
	"github.com/AzielCF/az-console/workspace/domain/access"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateListQuery(ctx context.Context, query workspace.ListQuery) error {
	sorts := make([]interface{}, 0, len(workspace.SortValues))
	for _, s := range workspace.SortValues {
		sorts = append(sorts, s)
	}

	err := validation.ValidateStructWithContext(ctx, &query,
		validation.Field(&query.Page, validation.Required, validation.Min(1)),
		validation.Field(&query.PageSize, validation.Required, validation.Min(1), validation.Max(workspace.MaxPageSize)),
		validation.Field(&query.Sort, validation.Required, validation.In(sorts...)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

type CreateWorkspaceRequest struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

func ValidateCreateWorkspace(ctx context.Context, request CreateWorkspaceRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, 120)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

type CreateAppRequest struct {
	Title string `json:"title"`
}

func ValidateCreateApp(ctx context.Context, request CreateAppRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Title, validation.Required, validation.Length(1, 120)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func ValidateAddMember(ctx context.Context, request AddMemberRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.Role, validation.Required, validation.In(access.RoleAdmin, access.RoleEditor, access.RoleViewer)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
