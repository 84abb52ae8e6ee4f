package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tbayconnect/api/internal/model"
)

// errorTable maps the machine-readable operation errors to an HTTP status
// and the user-facing copy. Unrecognized errors fall back to a generic
// retry message.
var errorTable = map[error]struct {
	status  int
	message string
}{
	model.ErrEventNotFound:    {http.StatusNotFound, "That event no longer exists."},
	model.ErrEventEnded:       {http.StatusConflict, "This event has already ended."},
	model.ErrEventFull:        {http.StatusConflict, "This event is full."},
	model.ErrEventLimit:       {http.StatusTooManyRequests, "You've reached your event limit for this month."},
	model.ErrAlreadyAttending: {http.StatusConflict, "Leave your current event before joining another."},
	model.ErrAgeRestricted:    {http.StatusForbidden, "This event has a minimum age requirement."},
	model.ErrNotEventCreator:  {http.StatusForbidden, "Only the event creator can do that."},

	model.ErrUserNotFound: {http.StatusNotFound, "User not found."},
	model.ErrAuthRequired: {http.StatusUnauthorized, "Please sign in to continue."},

	model.ErrDeviceNotFound:      {http.StatusNotFound, "We couldn't find that device."},
	model.ErrDeviceNotEncoded:    {http.StatusConflict, "This device hasn't been provisioned yet."},
	model.ErrDeviceAlreadyLinked: {http.StatusConflict, "This device is linked to another account."},
	model.ErrUserAlreadyLinked:   {http.StatusConflict, "Your account already has a linked device."},
	model.ErrDeviceNotOwned:      {http.StatusConflict, "This device isn't linked to your account."},
	model.ErrUserDeviceMismatch:  {http.StatusConflict, "Your account and this device don't match."},
}

// respondError translates an operation error into an HTTP response
func respondError(c *gin.Context, err error) {
	for sentinel, entry := range errorTable {
		if errors.Is(err, sentinel) {
			c.JSON(entry.status, model.ErrorResponse{Error: sentinel.Error(), Message: entry.message})
			return
		}
	}

	var validation model.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: validation.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, model.ErrorResponse{
		Error:   "internal",
		Message: "Something went wrong. Please try again.",
	})
}
