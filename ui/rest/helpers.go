package rest

import (
	"errors"
	"net/http"

	pkgError "github.com/AzielCF/az-console/pkg/error"
	"github.com/AzielCF/az-console/pkg/utils"
	"github.com/AzielCF/az-console/workspace/domain/common"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func success(c *fiber.Ctx, status int, message string, results any) error {
	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    "SUCCESS",
		Message: message,
		Results: results,
	})
}

// respondError answers with the status and code the error carries. Domain
// sentinels are mapped to their HTTP meaning.
func respondError(c *fiber.Ctx, err error) error {
	res := utils.ResponseData{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_SERVER_ERROR",
		Message: err.Error(),
	}

	var generic pkgError.GenericError
	switch {
	case errors.As(err, &generic):
		res.Status = generic.StatusCode()
		res.Code = generic.ErrCode()
	case errors.Is(err, common.ErrForbidden):
		res.Status = http.StatusForbidden
		res.Code = "FORBIDDEN"
	case errors.Is(err, common.ErrWorkspaceNotFound), errors.Is(err, common.ErrAppNotFound):
		res.Status = http.StatusNotFound
		res.Code = "NOT_FOUND_ERROR"
	case errors.Is(err, common.ErrDuplicateMember):
		res.Status = http.StatusConflict
		res.Code = "CONFLICT"
	default:
		logrus.WithError(err).Errorf("[REST] %s %s failed", c.Method(), c.Path())
	}

	return c.Status(res.Status).JSON(res)
}

func badRequest(c *fiber.Ctx, message string) error {
	return respondError(c, pkgError.ValidationError(message))
}
