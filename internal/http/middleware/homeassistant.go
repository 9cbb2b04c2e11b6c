// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file reads the identity Home Assistant ingress forwards with every
// request (X-Remote-User-Id / -Name / -Display-Name) and resolves it to a
// registered add-on user.
package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pill-mate/internal/domain"
)

// Ingress identity headers.
const (
	HeaderRemoteUserID          = "X-Remote-User-Id"
	HeaderRemoteUserName        = "X-Remote-User-Name"
	HeaderRemoteUserDisplayName = "X-Remote-User-Display-Name"
)

const (
	ctxKeyUserID      = "userID"
	ctxKeyIdentity    = "ha.identity"
	ctxKeyCurrentUser = "ha.user"
)

var homeAssistantUserIDRE = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Identity is the Home Assistant person behind a request.
type Identity struct {
	UserID      string
	UserName    string
	DisplayName string
}

// ValidHomeAssistantUserID reports whether id looks like a Home Assistant
// user id (32 lowercase hex characters).
func ValidHomeAssistantUserID(id string) bool { return homeAssistantUserIDRE.MatchString(id) }

// HomeAssistantHeaders rejects requests without a complete ingress identity
// and stores it for IdentityFrom. The Home Assistant user id is also stored
// under "userID" so logging and rate limiting key on it.
func HomeAssistantHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := headerValue(c, HeaderRemoteUserID)
		if !ok {
			abortBadRequest(c, "Missing required header: x-remote-user-id.")
			return
		}
		if !ValidHomeAssistantUserID(id) {
			abortBadRequest(c, "Invalid Home Assistant User Id in x-remote-user-id.")
			return
		}
		name, ok := headerValue(c, HeaderRemoteUserName)
		if !ok {
			abortBadRequest(c, "Missing required header: x-remote-user-name.")
			return
		}
		display, ok := headerValue(c, HeaderRemoteUserDisplayName)
		if !ok {
			abortBadRequest(c, "Missing required header: x-remote-user-display-name.")
			return
		}

		c.Set(ctxKeyIdentity, Identity{UserID: id, UserName: name, DisplayName: display})
		c.Set(ctxKeyUserID, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by HomeAssistantHeaders.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// UserLookup resolves a Home Assistant user id to a registered user. It
// returns (nil, nil) when the user is not registered.
type UserLookup func(ctx context.Context, homeAssistantUserID string) (*domain.User, error)

// RequireUser answers 401 when the ingress user has no add-on account and
// otherwise stores the user for CurrentUser. It must run after
// HomeAssistantHeaders.
func RequireUser(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok {
			abortBadRequest(c, "Missing required header: x-remote-user-id.")
			return
		}
		u, err := lookup(c.Request.Context(), ident.UserID)
		if err != nil {
			LoggerFrom(c).Error().Err(err).Msg("user lookup failed")
			abortJSON(c, http.StatusInternalServerError, "internal_error", "Internal Server Error.")
			return
		}
		if u == nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "User not registered.")
			return
		}
		c.Set(ctxKeyCurrentUser, u)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxKeyCurrentUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// headerValue distinguishes an absent header from an empty one.
func headerValue(c *gin.Context, name string) (string, bool) {
	vv, ok := c.Request.Header[http.CanonicalHeaderKey(name)]
	if !ok || len(vv) == 0 {
		return "", false
	}
	return vv[0], true
}

func abortBadRequest(c *gin.Context, msg string) {
	abortJSON(c, http.StatusBadRequest, "bad_request", msg)
}

// abortJSON writes the API error envelope. It mirrors handlers.Fail, which
// this package cannot import.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
