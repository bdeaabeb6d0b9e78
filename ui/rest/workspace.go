package rest

import (
	"github.com/AzielCF/az-console/ui/rest/middleware"
	"github.com/AzielCF/az-console/validations"
	"github.com/AzielCF/az-console/workspace/domain/workspace"
	"github.com/AzielCF/az-console/workspace/screen"
	"github.com/AzielCF/az-console/workspace/usecase"
	"github.com/gofiber/fiber/v2"
)

type Workspace struct {
	Service *usecase.WorkspaceUsecase
	Screens screen.Factory
}

// InitRestWorkspace registers the raw collection at workspace.ResourceURL and
// the console endpoints under /api/workspaces. router must already carry auth.
func InitRestWorkspace(router fiber.Router, service *usecase.WorkspaceUsecase, screens screen.Factory) Workspace {
	handler := Workspace{Service: service, Screens: screens}

	router.Get(workspace.ResourceURL, handler.ListWorkspaces)

	group := router.Group("/api/workspaces")
	group.Get("/view", handler.ViewWorkspaces)
	group.Post("/", handler.CreateWorkspace)
	group.Get("/:id", handler.GetWorkspace)
	group.Post("/:id/apps", handler.CreateApp)
	group.Put("/:id/apps/:appId/touch", handler.TouchApp)
	group.Get("/:id/members", handler.ListMembers)
	group.Post("/:id/members", handler.AddMember)

	return handler
}

func (h *Workspace) parseQuery(c *fiber.Ctx) (workspace.ListQuery, error) {
	var query workspace.ListQuery
	if err := c.QueryParser(&query); err != nil {
		return query, err
	}
	if query.PageSize == 0 && h.Screens.PageSize > 0 {
		query.PageSize = h.Screens.PageSize
	}
	return query.WithDefaults(), nil
}

func (h *Workspace) ListWorkspaces(c *fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return badRequest(c, "invalid query")
	}
	page, err := h.Service.ListWorkspaces(c.UserContext(), middleware.CallerOf(c), query)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Workspaces retrieved", page)
}

// ViewWorkspaces answers with the projected card grid. Failures are part of
// the view, so this always answers 200.
func (h *Workspace) ViewWorkspaces(c *fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return badRequest(c, "invalid query")
	}
	view := h.Screens.For(middleware.CallerOf(c)).Load(c.UserContext(), query)
	return success(c, fiber.StatusOK, "Workspace view rendered", view)
}

func (h *Workspace) CreateWorkspace(c *fiber.Ctx) error {
	var request validations.CreateWorkspaceRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, "invalid body")
	}
	ws, err := h.Service.CreateWorkspace(c.UserContext(), middleware.CallerOf(c), request)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusCreated, "Workspace created", ws)
}

func (h *Workspace) GetWorkspace(c *fiber.Ctx) error {
	ws, err := h.Service.GetWorkspace(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Workspace retrieved", ws)
}

func (h *Workspace) CreateApp(c *fiber.Ctx) error {
	var request validations.CreateAppRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, "invalid body")
	}
	app, err := h.Service.AddApp(c.UserContext(), middleware.CallerOf(c), c.Params("id"), request)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusCreated, "App created", app)
}

func (h *Workspace) TouchApp(c *fiber.Ctx) error {
	if err := h.Service.TouchApp(c.UserContext(), middleware.CallerOf(c), c.Params("id"), c.Params("appId")); err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "App touched", nil)
}

func (h *Workspace) ListMembers(c *fiber.Ctx) error {
	members, err := h.Service.ListMembers(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusOK, "Members retrieved", members)
}

func (h *Workspace) AddMember(c *fiber.Ctx) error {
	var request validations.AddMemberRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, "invalid body")
	}
	member, err := h.Service.AddMember(c.UserContext(), middleware.CallerOf(c), c.Params("id"), request)
	if err != nil {
		return respondError(c, err)
	}
	return success(c, fiber.StatusCreated, "Member added", member)
}
