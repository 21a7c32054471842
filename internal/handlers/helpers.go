package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

// paramUUID parses a path parameter. A malformed id is reported as notFound,
// the same as an id that matches nothing.
func paramUUID(c *fiber.Ctx, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

func queryUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid " + name)
	}
	return id, nil
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, apperr.Unauthorized("Not authorized")
	}
	return u, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// ErrorHandler renders every error returned by a handler or middleware as
// {success:false, message, error, errors?}.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apperr.HTTPStatus(err)
		msg := err.Error()

		body := fiber.Map{"success": false}
		var ae *apperr.Error
		switch {
		case errors.As(err, &ae):
			msg = ae.Message
			if len(ae.Fields) > 0 {
				body["errors"] = ae.Fields
			}
			if ae.Kind == apperr.KindInternal {
				logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
				msg = "Server error"
			}
		case status == fiber.StatusInternalServerError:
			logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			msg = "Server error"
		}

		body["message"] = msg
		body["error"] = msg
		return c.Status(status).JSON(body)
	}
}
