// Package handlers exposes the Pill Mate REST endpoints:
//   - /user           registration, profile, helped users
//   - /medication     medication stock CRUD (ETag on list, Idempotency-Key on create)
//   - /reminder       reminder CRUD and upcoming occurrences
//   - /homeassistant  companion-app devices that can receive notifications
//
// Handlers are transport-thin: they validate the JSON body, call the
// services and translate service errors into the error envelope.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/homeassistant"
	"github.com/tbourn/pill-mate/internal/http/middleware"
	"github.com/tbourn/pill-mate/internal/services"
	"github.com/tbourn/pill-mate/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService is implemented by *services.UserService.
type UserService interface {
	Register(ctx context.Context, homeAssistantUserID string, role domain.UserRole) (*domain.User, error)
	SetMobileAppDevice(ctx context.Context, u *domain.User, device *string) error
	AddHelped(ctx context.Context, helper *domain.User, helpedID uint) (*domain.User, error)
	HelpedUsers(ctx context.Context, u *domain.User) ([]domain.User, error)
}

// MedicationService is implemented by *services.MedicationService.
type MedicationService interface {
	List(ctx context.Context, caller *domain.User) ([]domain.Medication, error)
	Create(ctx context.Context, caller *domain.User, in services.MedicationInput) (*domain.Medication, error)
	Get(ctx context.Context, caller *domain.User, id uint) (*domain.Medication, error)
	Update(ctx context.Context, caller *domain.User, id uint, p services.MedicationPatch) (*domain.Medication, error)
	Delete(ctx context.Context, caller *domain.User, id uint) error
}

// ReminderService is implemented by *services.ReminderService.
type ReminderService interface {
	List(ctx context.Context, caller *domain.User) ([]domain.Reminder, error)
	ListFor(ctx context.Context, caller *domain.User, targetID uint) ([]domain.Reminder, error)
	Create(ctx context.Context, caller *domain.User, in services.ReminderInput) (*domain.Reminder, error)
	Get(ctx context.Context, caller *domain.User, id uint) (*domain.Reminder, error)
	Update(ctx context.Context, caller *domain.User, id uint, p services.ReminderPatch) (*domain.Reminder, error)
	Delete(ctx context.Context, caller *domain.User, id uint) error
	Occurrences(ctx context.Context, caller *domain.User, id uint, count int) ([]time.Time, error)
}

// DeviceLister returns the companion-app devices known to Home Assistant.
type DeviceLister interface {
	MobileAppDevices(ctx context.Context) ([]homeassistant.Device, error)
}

// IdempotencyRecorder stores the resource created for an Idempotency-Key.
type IdempotencyRecorder interface {
	Remember(ctx context.Context, userID uint, scope, key string, resourceID uint, status int) error
}

// StatsFunc returns the row count and latest update of a user's rows; it
// feeds the list ETags.
type StatsFunc func(ctx context.Context, userID uint) (count int64, maxUpdatedAt *time.Time, err error)

//
// Handler wiring
//

// Deps are the collaborators of Handlers. Idempotency and the stats funcs
// are optional.
type Deps struct {
	Users           UserService
	Medications     MedicationService
	Reminders       ReminderService
	Devices         DeviceLister
	Idempotency     IdempotencyRecorder
	MedicationStats StatsFunc
	ReminderStats   StatsFunc
}

// Handlers groups the HTTP endpoints of the add-on API.
type Handlers struct {
	users     UserService
	meds      MedicationService
	reminders ReminderService
	devices   DeviceLister
	idem      IdempotencyRecorder
	medStats  StatsFunc
	remStats  StatsFunc
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	return &Handlers{
		users:     d.Users,
		meds:      d.Medications,
		reminders: d.Reminders,
		devices:   d.Devices,
		idem:      d.Idempotency,
		medStats:  d.MedicationStats,
		remStats:  d.ReminderStats,
	}
}

//
// Helpers
//

// currentUser returns the user loaded by middleware.RequireUser. Routes
// without it answer 401.
func currentUser(c *gin.Context) (*domain.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "User not registered.")
		return nil, false
	}
	return u, true
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, msgInvalidID)
		return 0, false
	}
	return id, true
}

// serviceError maps a service error to the error envelope. forbidden is the
// message used for services.ErrForbidden, which differs per endpoint.
func serviceError(c *gin.Context, err error, forbidden string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		badRequest(c, ve.Message)
	case errors.Is(err, services.ErrUserExists):
		badRequest(c, "The user already exists.")
	case errors.Is(err, services.ErrNextDateInPast):
		badRequest(c, "nextDate must be in the future.")
	case errors.Is(err, services.ErrUserNotRegistered):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "User not registered.")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, forbidden)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found.")
	case errors.Is(err, services.ErrHelpedUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Helped user not found.")
	case errors.Is(err, services.ErrMedicationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Medication not found.")
	case errors.Is(err, services.ErrReminderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Reminder not found.")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "Service unavailable.")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("request failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
	}
}

// checkETag sets a weak ETag built from stats and reports whether the
// client copy is current (304 written). Stats errors skip the ETag.
func checkETag(c *gin.Context, stats StatsFunc, kind string, userID uint) bool {
	if stats == nil {
		return false
	}
	count, maxTS, err := stats(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("kind", kind).Msg("etag stats failed")
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d:%d"`, kind, userID, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// rememberCreate records a created resource under the request's
// Idempotency-Key, if any. Keys are scoped to the caller.
func (h *Handlers) rememberCreate(c *gin.Context, callerID, resourceID uint) {
	key, ok := middleware.GetIdempotencyKey(c)
	if h.idem == nil || !ok || key == "" {
		return
	}
	scope := middleware.IdempotencyScope(c)
	if err := h.idem.Remember(c.Request.Context(), callerID, scope, key, resourceID, http.StatusCreated); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency record failed")
	}
}
