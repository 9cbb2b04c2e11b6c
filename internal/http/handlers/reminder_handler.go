package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/http/middleware"
	"github.com/tbourn/pill-mate/internal/services"
	"github.com/tbourn/pill-mate/internal/utils"
)

const defaultOccurrences = 5

// CreateReminderRequest documents the JSON payload of POST /reminder.
type CreateReminderRequest struct {
	Time         string  `json:"time" example:"08:30"`
	Frequency    int     `json:"frequency" minimum:"1" example:"1"`
	Quantity     float64 `json:"quantity" example:"1"`
	MedicationID uint    `json:"medicationId" example:"3"`
	UserID       *uint   `json:"userId" example:"1"`
}

// PatchReminderRequest documents the JSON payload of PATCH /reminder/{id}.
type PatchReminderRequest struct {
	Time         *string  `json:"time" example:"09:00"`
	Frequency    *int     `json:"frequency" minimum:"1" example:"2"`
	Quantity     *float64 `json:"quantity" example:"0.5"`
	NextDate     *string  `json:"nextDate" example:"2025-03-20"`
	MedicationID *uint    `json:"medicationId" example:"3"`
}

// OccurrencesResponse lists upcoming occurrence instants.
type OccurrencesResponse struct {
	Occurrences []time.Time `json:"occurrences"`
}

// ListReminders godoc
// @ID          listReminders
// @Summary     List reminders
// @Description Returns the caller's reminders. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Reminders
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true   "Home Assistant user id"
// @Param       If-None-Match     header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.Reminder
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "User not registered"
// @Router      /reminder [get]
func (h *Handlers) ListReminders(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	if checkETag(c, h.remStats, "reminders", u.ID) {
		return
	}
	items, err := h.reminders.List(c.Request.Context(), u)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, nonNilReminders(items))
}

// CreateReminder godoc
// @ID          createReminder
// @Summary     Add a reminder
// @Description Creates a reminder firing every frequency days at time. The first occurrence is today when time is still ahead, tomorrow otherwise. A retried request carrying the same Idempotency-Key returns the original reminder with 200.
// @Tags        Reminders
// @Accept      json
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true   "Home Assistant user id"
// @Param       Idempotency-Key   header  string  false  "Deduplicates retried creations"
// @Param       body  body  handlers.CreateReminderRequest  true  "Reminder"
// @Success     201  {object}  domain.Reminder
// @Success     200  {object}  domain.Reminder  "Replayed creation"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "HELPED caller targeting another user"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication or helped user not found"
// @Router      /reminder [post]
func (h *Handlers) CreateReminder(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	ctx := c.Request.Context()

	if id, replay := middleware.ReplayOf(c); replay {
		r, err := h.reminders.Get(ctx, u, id)
		switch {
		case err == nil:
			ok(c, http.StatusOK, r)
			return
		case !errors.Is(err, services.ErrReminderNotFound):
			serviceError(c, err, msgNotForOthers)
			return
		}
	}

	body, valid := bindObject(c, "time", "frequency", "quantity", "medicationId", "userId")
	if !valid {
		return
	}

	var in services.ReminderInput
	var msg string
	if in.Time, msg = body.requiredString("time"); msg != "" {
		badRequest(c, msg)
		return
	}
	if in.Frequency, msg = body.requiredInt("frequency"); msg != "" {
		badRequest(c, msg)
		return
	}
	if in.Quantity, msg = body.requiredNumber("quantity"); msg != "" {
		badRequest(c, msg)
		return
	}
	if in.MedicationID, msg = body.requiredID("medicationId"); msg != "" {
		badRequest(c, msg)
		return
	}
	if in.UserID, msg = body.optionalID("userId"); msg != "" {
		badRequest(c, msg)
		return
	}

	r, err := h.reminders.Create(ctx, u, in)
	if err != nil {
		serviceError(c, err, msgNotForOthers)
		return
	}
	h.rememberCreate(c, u.ID, r.ID)
	ok(c, http.StatusCreated, r)
}

// GetReminder godoc
// @ID          getReminder
// @Summary     Get a reminder
// @Tags        Reminders
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       id  path  int  true  "Reminder id"
// @Success     200  {object}  domain.Reminder
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Reminder not found"
// @Router      /reminder/{id} [get]
func (h *Handlers) GetReminder(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	r, err := h.reminders.Get(c.Request.Context(), u, id)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, r)
}

// PatchReminder godoc
// @ID          patchReminder
// @Summary     Update a reminder
// @Description Changes the given fields and re-arms the reminder timer. nextDate must not be in the past; a new time whose stored occurrence has passed moves nextDate forward.
// @Tags        Reminders
// @Accept      json
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       id    path  int  true  "Reminder id"
// @Param       body  body  handlers.PatchReminderRequest  true  "Fields to change"
// @Success     200  {object}  domain.Reminder
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Reminder or medication not found"
// @Router      /reminder/{id} [patch]
func (h *Handlers) PatchReminder(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	body, valid := bindObject(c, "time", "frequency", "quantity", "nextDate", "medicationId")
	if !valid {
		return
	}

	var p services.ReminderPatch
	var msg string
	if p.Time, msg = body.optionalString("time"); msg != "" {
		badRequest(c, msg)
		return
	}
	if p.Frequency, msg = body.optionalInt("frequency"); msg != "" {
		badRequest(c, msg)
		return
	}
	if p.Quantity, msg = body.optionalNumber("quantity"); msg != "" {
		badRequest(c, msg)
		return
	}
	if p.NextDate, msg = body.optionalString("nextDate"); msg != "" {
		badRequest(c, msg)
		return
	}
	if p.MedicationID, msg = body.optionalID("medicationId"); msg != "" {
		badRequest(c, msg)
		return
	}

	r, err := h.reminders.Update(c.Request.Context(), u, id, p)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteReminder godoc
// @ID          deleteReminder
// @Summary     Delete a reminder
// @Description Deletes the reminder and clears its timer.
// @Tags        Reminders
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       id  path  int  true  "Reminder id"
// @Success     200  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Reminder not found"
// @Router      /reminder/{id} [delete]
func (h *Handlers) DeleteReminder(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.reminders.Delete(c.Request.Context(), u, id); err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Reminder removed successfully."})
}

// ReminderOccurrences godoc
// @ID          listReminderOccurrences
// @Summary     Upcoming occurrences
// @Description Lists the next count occurrence instants of a reminder, starting at its next date.
// @Tags        Reminders
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true   "Home Assistant user id"
// @Param       id     path   int  true   "Reminder id"
// @Param       count  query  int  false  "Number of occurrences"  minimum(1) maximum(50) default(5)
// @Success     200  {object}  handlers.OccurrencesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id or count"
// @Failure     404  {object}  handlers.ErrorResponse  "Reminder not found"
// @Router      /reminder/{id}/occurrences [get]
func (h *Handlers) ReminderOccurrences(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	count := defaultOccurrences
	if raw, set := c.GetQuery("count"); set {
		// Out of range or malformed counts are rejected by the service.
		count = utils.AtoiDefault(raw, 0)
	}
	times, err := h.reminders.Occurrences(c.Request.Context(), u, id, count)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	if times == nil {
		times = []time.Time{}
	}
	ok(c, http.StatusOK, OccurrencesResponse{Occurrences: times})
}
