package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/http/middleware"
)

// CreateUserRequest is the JSON payload of POST /user.
type CreateUserRequest struct {
	Role domain.UserRole `json:"role" enums:"0,1" example:"0"`
}

// UpdateUserRequest is the JSON payload of PATCH /user/me. A null device
// disables notifications.
type UpdateUserRequest struct {
	MobileAppDevice *string `json:"mobileAppDevice" example:"Pixel 7"`
}

// AddHelpedUserRequest is the JSON payload of POST /user/helped.
type AddHelpedUserRequest struct {
	HelpedUserID uint `json:"helpedUserId" example:"2"`
}

// UserResponse describes a user together with its Home Assistant names.
type UserResponse struct {
	ID                  uint            `json:"id" example:"1"`
	HomeAssistantUserID string          `json:"homeAssistantUserId" example:"c355d2aaeee44e4e84ff8394fa4794a9"`
	UserName            string          `json:"userName,omitempty" example:"alice"`
	UserDisplayName     string          `json:"userDisplayName,omitempty" example:"Alice"`
	Role                domain.UserRole `json:"role" example:"0"`
	MobileAppDevice     *string         `json:"mobileAppDevice" example:"Pixel 7"`
}

// userResponse builds the response for the calling user, whose names come
// from the ingress headers.
func userResponse(c *gin.Context, u *domain.User) UserResponse {
	ident, _ := middleware.IdentityFrom(c)
	return UserResponse{
		ID:                  u.ID,
		HomeAssistantUserID: u.HomeAssistantUserID,
		UserName:            ident.UserName,
		UserDisplayName:     ident.DisplayName,
		Role:                u.Role,
		MobileAppDevice:     u.MobileAppDevice,
	}
}

// CreateUser godoc
// @ID          createUser
// @Summary     Register the ingress user
// @Description Creates the add-on account of the Home Assistant user sending the request.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       X-Remote-User-Id            header  string  true  "Home Assistant user id"  example(c355d2aaeee44e4e84ff8394fa4794a9)
// @Param       X-Remote-User-Name          header  string  true  "Home Assistant user name"
// @Param       X-Remote-User-Display-Name  header  string  true  "Home Assistant display name"
// @Param       body  body  handlers.CreateUserRequest  true  "Role"
// @Success     201  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid role or user already exists"
// @Failure     415  {object}  handlers.ErrorResponse  "Not JSON"
// @Router      /user [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	body, valid := bindObject(c, "role")
	if !valid {
		return
	}
	if !body.has("role") {
		badRequest(c, requiredMsg("role"))
		return
	}
	n, isInt := body.integer("role")
	role := domain.UserRole(n)
	if !isInt || !role.Valid() {
		badRequest(c, invalidMsg("role"))
		return
	}

	ident, _ := middleware.IdentityFrom(c)
	u, err := h.users.Register(c.Request.Context(), ident.UserID, role)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusCreated, userResponse(c, u))
}

// Me godoc
// @ID          getMe
// @Summary     Current user
// @Tags        Users
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Success     200  {object}  handlers.UserResponse
// @Failure     401  {object}  handlers.ErrorResponse  "User not registered"
// @Router      /user/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, userResponse(c, u))
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update the current user
// @Description Sets the companion-app device that receives reminder notifications.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       body  body  handlers.UpdateUserRequest  true  "Notification target"
// @Success     200  {object}  handlers.UserResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "User not registered"
// @Router      /user/me [patch]
func (h *Handlers) UpdateMe(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	body, valid := bindObject(c, "mobileAppDevice")
	if !valid {
		return
	}
	device, set, msg := body.nullableString("mobileAppDevice")
	if msg != "" {
		badRequest(c, msg)
		return
	}
	if set {
		if err := h.users.SetMobileAppDevice(c.Request.Context(), u, device); err != nil {
			serviceError(c, err, msgNoPermission)
			return
		}
	}
	ok(c, http.StatusOK, userResponse(c, u))
}

// ListHelpedUsers godoc
// @ID          listHelpedUsers
// @Summary     Users helped by the caller
// @Tags        Users
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Success     200  {array}   domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "User not registered"
// @Router      /user/helped [get]
func (h *Handlers) ListHelpedUsers(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	users, err := h.users.HelpedUsers(c.Request.Context(), u)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	ok(c, http.StatusOK, users)
}

// AddHelpedUser godoc
// @ID          addHelpedUser
// @Summary     Follow a helped user
// @Description A HELPER starts following a HELPED user, gaining access to their medications and reminders.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       body  body  handlers.AddHelpedUserRequest  true  "Helped user"
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not a HELPER"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /user/helped [post]
func (h *Handlers) AddHelpedUser(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	body, valid := bindObject(c, "helpedUserId")
	if !valid {
		return
	}
	helpedID, msg := body.requiredID("helpedUserId")
	if msg != "" {
		badRequest(c, msg)
		return
	}
	helped, err := h.users.AddHelped(c.Request.Context(), u, helpedID)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusCreated, helped)
}

// UserReminders godoc
// @ID          listUserReminders
// @Summary     Reminders of a user
// @Description Returns the caller's reminders, or those of a user the caller helps.
// @Tags        Users
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Param       id  path  int  true  "User id"
// @Success     200  {array}   domain.Reminder
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     403  {object}  handlers.ErrorResponse  "HELPED caller"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /user/{id}/reminders [get]
func (h *Handlers) UserReminders(c *gin.Context) {
	u, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c)
	if !valid {
		return
	}
	items, err := h.reminders.ListFor(c.Request.Context(), u, id)
	if err != nil {
		serviceError(c, err, msgNoPermission)
		return
	}
	ok(c, http.StatusOK, nonNilReminders(items))
}

func nonNilReminders(items []domain.Reminder) []domain.Reminder {
	if items == nil {
		return []domain.Reminder{}
	}
	return items
}
