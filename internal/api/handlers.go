package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-back/internal/attendance"
	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/config"
	"github.com/tutorhub/tutorhub-back/internal/db"
	"github.com/tutorhub/tutorhub-back/internal/enroll"
	"github.com/tutorhub/tutorhub-back/internal/errs"
	"github.com/tutorhub/tutorhub-back/internal/room"
)

// API bundles the handlers' collaborators.
type API struct {
	Cfg        *config.Config
	Store      *db.Store
	Recorder   *attendance.Recorder
	Resolver   *enroll.Resolver
	Dispatcher *room.Dispatcher
	Clock      clock.Clock
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	State string `json:"state,omitempty"`
}

// respondErr maps the error taxonomy onto HTTP statuses. Invalid transitions
// report the state the session was actually in.
func respondErr(c *gin.Context, err error) {
	var transition *errs.InvalidTransitionError
	var dispatch *errs.DispatchError

	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: transition.Error(), State: transition.From})
	case errors.Is(err, errs.ErrEnrollmentMismatch):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Enrollment paths disagree"})
	case errors.Is(err, errs.ErrNotJoinable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Session is not joinable"})
	case errors.As(err, &dispatch):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: dispatch.Error()})
	default:
		log.Println("internal error:", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
}
