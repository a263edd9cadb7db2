package web

import (
	"github.com/dukex/flowmeta/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

// problemType names the problem document for a status code.
func problemType(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "validation_error"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusServiceUnavailable:
		return "unavailable"
	default:
		if status >= fiber.StatusInternalServerError {
			return "internal_error"
		}

		return "request_error"
	}
}

// rejectInput renders a request input error: 400 for a validation error, 500 otherwise.
func rejectInput(c fiber.Ctx, err error) error {
	if services.IsValidationError(err) {
		return failure(c, fiber.StatusBadRequest, err)
	}

	return failure(c, fiber.StatusInternalServerError, err)
}

// failure renders err as a problem document with the status code the store reported.
func failure(c fiber.Ctx, status int, err error) error {
	switch {
	case services.IsValidationError(err):
		status = fiber.StatusBadRequest
	case status < fiber.StatusBadRequest:
		status = fiber.StatusInternalServerError
	}

	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType(status))

	switch {
	case err == nil:
	case status >= fiber.StatusInternalServerError:
		problem = problem.WithError(err)
	default:
		problem = problem.WithDetail(err.Error())
	}

	return c.Status(status).JSON(problem)
}
