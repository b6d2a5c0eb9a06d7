package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"remote-medic/internal/core/auth"
	resp "remote-medic/internal/transport/http/response"
)

// Context keys the gate fills in for downstream handlers.
const (
	KeyUID      = "uid"
	KeyUsername = "username"
	KeyAdmin    = "admin"
)

// AuthJWT is the authentication gate. Allow-listed paths and CORS
// pre-flight requests pass through untouched; everything else needs a valid
// bearer token. All verification failures collapse to one generic 401 body.
func AuthJWT(j *auth.JWTer, allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, p := range allowlist {
		allowed[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if _, ok := allowed[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"msg":   "invalid or missing token",
				"error": "missing bearer token",
			})
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"msg":   "invalid or missing token",
				"error": err.Error(),
			})
			return
		}
		c.Set(KeyUID, claims.UID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyAdmin, claims.Admin)
		c.Next()
	}
}

// RequireAdmin composes on top of AuthJWT: 403 is distinct from 401 so a
// valid non-admin caller can tell the difference.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(KeyAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, resp.Err("admin privileges required"))
			return
		}
		c.Next()
	}
}

// UID returns the authenticated caller's id.
func UID(c *gin.Context) uint {
	if v, ok := c.Get(KeyUID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
