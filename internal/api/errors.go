package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evnavlabs/evnav-simulator/core"
	"github.com/evnavlabs/evnav-simulator/model"
)

// statusForError maps domain errors onto HTTP statuses and stable
// machine-readable codes. No feasible route is an expected planning
// outcome, not a malformed request, so it gets its own status instead
// of riding on 400.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNoRoute):
		return http.StatusConflict, "no_feasible_route"
	case errors.Is(err, core.ErrUnknownLocation):
		return http.StatusBadRequest, "unknown_location"
	case errors.Is(err, model.ErrUnknownVehicle):
		return http.StatusBadRequest, "unknown_vehicle"
	case errors.Is(err, core.ErrInvalidCharge),
		errors.Is(err, model.ErrInvalidVehicle),
		errors.Is(err, model.ErrNegativeDistance):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err as the uniform error body.
func writeError(c *gin.Context, err error) {
	status, code := statusForError(err)
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// writeBadRequest renders a request decoding or validation failure.
func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}

func unknownVehicleError(id string) error {
	return fmt.Errorf("%w: %q", model.ErrUnknownVehicle, id)
}

func unknownLocationError(id string) error {
	return fmt.Errorf("%w: %q", core.ErrUnknownLocation, id)
}
