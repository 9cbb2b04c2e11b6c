package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApplicationJSON answers 415 to any non-GET request whose body is not
// declared as application/json. Parameters such as charset are accepted.
func ApplicationJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mt != "application/json" {
			abortJSON(c, http.StatusUnsupportedMediaType, "unsupported_media_type",
				"Unsupported content type. Only application/json is allowed.")
			return
		}
		c.Next()
	}
}
