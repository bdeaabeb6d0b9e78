package rest

import (
	"context"

	"github.com/AzielCF/az-console/featureflag"
	pkgError "github.com/AzielCF/az-console/pkg/error"
	"github.com/AzielCF/az-console/ui/rest/middleware"
	"github.com/AzielCF/az-console/workspace/paginator"
	"github.com/AzielCF/az-console/workspace/usecase"
	"github.com/gofiber/fiber/v2"
)

// FeatureStore evaluates and overrides feature flag parts.
type FeatureStore interface {
	featureflag.Evaluator
	SetFeaturePart(ctx context.Context, flag, part string, enabled bool) error
	All(ctx context.Context) (map[string]bool, error)
}

type Access struct {
	Service  *usecase.WorkspaceUsecase
	Features FeatureStore
}

func InitRestAccess(router fiber.Router, service *usecase.WorkspaceUsecase, features FeatureStore) Access {
	handler := Access{Service: service, Features: features}

	router.Get("/api/me/access", handler.GetAccess)

	group := router.Group("/api/features")
	group.Get("/", handler.ListFeatures)
	group.Get("/:flag/:part", handler.GetFeature)
	group.Put("/:flag/:part", handler.SetFeature)

	return handler
}

func (h *Access) GetAccess(c *fiber.Ctx) error {
	caller := middleware.CallerOf(c)
	perms, roles, err := h.Service.Access(c.UserContext(), caller)
	if err != nil {
		return respondError(c, err)
	}
	if roles == nil {
		roles = []string{}
	}
	return success(c, fiber.StatusOK, "Access retrieved", paginator.AccessResponse{
		Caller:      caller,
		Permissions: perms,
		Roles:       roles,
	})
}

func (h *Access) ListFeatures(c *fiber.Ctx) error {
	flags, err := h.Features.All(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Features retrieved", flags)
}

func (h *Access) GetFeature(c *fiber.Ctx) error {
	flag, part := c.Params("flag"), c.Params("part")
	return success(c, fiber.StatusOK, "Feature retrieved", paginator.FeatureResponse{
		Flag:    flag,
		Part:    part,
		Enabled: h.Features.IsFeaturePartEnabled(c.UserContext(), flag, part),
	})
}

// SetFeature flips a flag for every caller, so only global admins may use it.
func (h *Access) SetFeature(c *fiber.Ctx) error {
	caller := middleware.CallerOf(c)
	admin, err := h.Service.IsAdmin(c.UserContext(), caller)
	if err != nil {
		return respondError(c, err)
	}
	if !admin {
		return respondError(c, pkgError.ForbiddenError(caller+" may not change feature flags"))
	}

	var request struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.BodyParser(&request); err != nil || request.Enabled == nil {
		return badRequest(c, "enabled is required")
	}

	flag, part := c.Params("flag"), c.Params("part")
	if err := h.Features.SetFeaturePart(c.UserContext(), flag, part, *request.Enabled); err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Feature updated", paginator.FeatureResponse{
		Flag:    flag,
		Part:    part,
		Enabled: *request.Enabled,
	})
}
