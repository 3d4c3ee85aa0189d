package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/application/services"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/logger"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/ports"
)

// respondError maps service errors onto the HTTP taxonomy. Validation
// failures carry field detail verbatim; forbidden responses never
// reveal more than "not yours"; storage failures stay generic.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	var verr *entities.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, ports.ErrorResponse{
			Error:   "validation failed",
			Details: verr.Fields,
		})
	}

	switch {
	case errors.Is(err, entities.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, ports.ErrorResponse{Error: "task not found"})
	case errors.Is(err, entities.ErrForbidden):
		return c.JSON(http.StatusForbidden, ports.ErrorResponse{Error: "forbidden"})
	case errors.Is(err, entities.ErrEmailTaken):
		return c.JSON(http.StatusConflict, ports.ErrorResponse{Error: "email already registered"})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ports.ErrorResponse{Error: "invalid credentials"})
	}

	var serr *entities.StorageError
	if errors.As(err, &serr) {
		log.Error("Storage failure", "error", err, "path", c.Path())
		return c.JSON(http.StatusInternalServerError, ports.ErrorResponse{Error: "internal error"})
	}

	log.Error("Unhandled error", "error", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, ports.ErrorResponse{Error: "internal error"})
}
