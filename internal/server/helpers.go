package server

import (
	"context"
	"errors"

	"exercisetracker/internal/models"
	"exercisetracker/internal/service"

	"github.com/gofiber/fiber/v2"
)

// userSvc returns the configured service, building one over userRepo for servers assembled by hand.
func (s *Server) userSvc() *service.UserService {
	if s.userService == nil {
		s.userService = service.NewUserService(s.userRepo, nil)
	}
	return s.userService
}

// mapServiceError maps an AppError code to its HTTP status.
func mapServiceError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case models.HasCode(err, models.CodeValidation):
		return fiber.StatusBadRequest
	case models.HasCode(err, models.CodeNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Errors outside the
// AppError taxonomy are reported as internal so their text never reaches the client.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	var appErr *models.AppError
	if status == fiber.StatusGatewayTimeout {
		return c.Status(status).JSON(models.ErrorResponse{Error: "Request timeout"})
	}
	if !errors.As(err, &appErr) {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, status, err)
}
