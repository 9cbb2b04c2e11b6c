package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/http/middleware"
)

// MobileAppDevices godoc
// @ID          listMobileAppDevices
// @Summary     Companion-app devices
// @Description Names of the Home Assistant devices registered by the companion app. One of them is chosen as notification target with PATCH /user/me.
// @Tags        HomeAssistant
// @Produce     json
// @Param       X-Remote-User-Id  header  string  true  "Home Assistant user id"
// @Success     200  {array}   string
// @Failure     401  {object}  handlers.ErrorResponse  "User not registered"
// @Failure     503  {object}  handlers.ErrorResponse  "Home Assistant unavailable"
// @Router      /homeassistant/mobile-app-devices [get]
func (h *Handlers) MobileAppDevices(c *gin.Context) {
	if _, found := currentUser(c); !found {
		return
	}
	devices, err := h.devices.MobileAppDevices(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("device registry query failed")
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "Home Assistant unavailable.")
		return
	}
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name)
	}
	ok(c, http.StatusOK, names)
}
