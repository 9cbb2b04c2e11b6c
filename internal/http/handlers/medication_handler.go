package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/http/middleware"
	"github.com/tbourn/pill-mate/internal/services"
)

// CreateMedicationRequest documents the JSON payload of POST /medication.
type CreateMedicationRequest struct {
	Name       string                `json:"name" example:"Paracetamol"`
	Indication *string               `json:"indication" example:"The red pills."`
	Quantity   float64               `json:"quantity" example:"10"`
	Unit       domain.MedicationUnit `json:"unit" enums:"0,1,2,3,4" example:"0"`
	UserID     *uint                 `json:"userId" example:"1"`
}

// PatchMedicationRequest documents the JSON payload of PATCH /medication/{id}.
type PatchMedicationRequest struct {
	Name       *string                `json:"name" example:"Paracetamol"`
	Indication *string                `json:"indication" example:"The red pills."`
	Quantity   *float64               `json:"quantity" example:"8"`
	Unit       *domain.MedicationUnit `json:"unit" enums:"0,1,2,3,4" example:"0"`
}

// medicationUnit decodes a unit value (0..4).
func (o object) medicationUnit(key string) (domain.MedicationUnit, bool) {
	n, isInt := o.integer(key)
	u := domain.MedicationUnit(n)
	return u, isInt && u.Valid()
}

// ListMedications godoc
// @ID          listMedications
// @Summary     List medications
// @Description Returns the caller's medications. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Medications
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true   "Home Assistant user id"
// @Param       If-None-Match     header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.Medication
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "User not registered"
// @Router      /medication [get]
func (h *Handlers) ListMedications(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	if checkETag(c, h.medStats, "medications", u.ID) {
		return
	}
	items, err := h.meds.List(c.Request.Context(), u)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	if items == nil {
		items = []domain.Medication{}
	}
	ok(c, http.StatusOK, items)
}

// CreateMedication godoc
// @ID          createMedication
// @Summary     Add a medication
// @Description Creates a medication for the caller, or for a user the caller helps (userId). A retried request carrying the same Idempotency-Key returns the original medication with 200.
// @Tags        Medications
// @Accept      json
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true   "Home Assistant user id"
// @Param       Idempotency-Key   header  string  false  "Deduplicates retried creations"
// @Param       body  body  handlers.CreateMedicationRequest  true  "Medication"
// @Success     201  {object}  domain.Medication
// @Success     200  {object}  domain.Medication  "Replayed creation"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "HELPED caller targeting another user"
// @Failure     404  {object}  handlers.ErrorResponse  "Helped user not found"
// @Router      /medication [post]
func (h *Handlers) CreateMedication(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	ctx := c.Request.Context()

	if id, replay := middleware.ReplayOf(c); replay {
		m, err := h.meds.Get(ctx, u, id)
		switch {
		case err == nil:
			ok(c, http.StatusOK, m)
			return
		case !errors.Is(err, services.ErrMedicationNotFound):
			serviceError(c, err, msgNotForOthers)
			return
		}
	}

	body, valid := bindObject(c, "name", "indication", "quantity", "unit", "userId")
	if !valid {
		return
	}

	var in services.MedicationInput
	var msg string
	if in.Name, msg = body.requiredString("name"); msg != "" {
		badRequest(c, msg)
		return
	}
	if in.Indication, _, msg = body.nullableString("indication"); msg != "" {
		badRequest(c, msg)
		return
	}
	if in.Quantity, msg = body.requiredNumber("quantity"); msg != "" {
		badRequest(c, msg)
		return
	}
	if !body.has("unit") {
		badRequest(c, requiredMsg("unit"))
		return
	}
	var unitOK bool
	if in.Unit, unitOK = body.medicationUnit("unit"); !unitOK {
		badRequest(c, invalidMsg("unit"))
		return
	}
	if in.UserID, msg = body.optionalID("userId"); msg != "" {
		badRequest(c, msg)
		return
	}

	m, err := h.meds.Create(ctx, u, in)
	if err != nil {
		serviceError(c, err, msgNotForOthers)
		return
	}
	h.rememberCreate(c, u.ID, m.ID)
	ok(c, http.StatusCreated, m)
}

// GetMedication godoc
// @ID          getMedication
// @Summary     Get a medication
// @Tags        Medications
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       id  path  int  true  "Medication id"
// @Success     200  {object}  domain.Medication
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Router      /medication/{id} [get]
func (h *Handlers) GetMedication(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	m, err := h.meds.Get(c.Request.Context(), u, id)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, m)
}

// PatchMedication godoc
// @ID          patchMedication
// @Summary     Update a medication
// @Description Changes the given fields. A null indication clears it.
// @Tags        Medications
// @Accept      json
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       id    path  int  true  "Medication id"
// @Param       body  body  handlers.PatchMedicationRequest  true  "Fields to change"
// @Success     200  {object}  domain.Medication
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Router      /medication/{id} [patch]
func (h *Handlers) PatchMedication(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	body, valid := bindObject(c, "name", "indication", "quantity", "unit")
	if !valid {
		return
	}

	var p services.MedicationPatch
	var msg string
	if p.Name, msg = body.optionalString("name"); msg != "" {
		badRequest(c, msg)
		return
	}
	if p.Indication, p.SetIndication, msg = body.nullableString("indication"); msg != "" {
		badRequest(c, msg)
		return
	}
	if p.Quantity, msg = body.optionalNumber("quantity"); msg != "" {
		badRequest(c, msg)
		return
	}
	if body.has("unit") {
		unit, unitOK := body.medicationUnit("unit")
		if !unitOK {
			badRequest(c, invalidMsg("unit"))
			return
		}
		p.Unit = &unit
	}

	m, err := h.meds.Update(c.Request.Context(), u, id, p)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMedication godoc
// @ID          deleteMedication
// @Summary     Delete a medication
// @Description Deletes the medication and its reminders; their timers are cleared.
// @Tags        Medications
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       id  path  int  true  "Medication id"
// @Success     200  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Medication not found"
// @Router      /medication/{id} [delete]
func (h *Handlers) DeleteMedication(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.meds.Delete(c.Request.Context(), u, id); err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Medication removed successfully."})
}
