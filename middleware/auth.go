// Package middleware extracts and authorizes the request principal.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"salonbook/config"
	"salonbook/services/auth"
	"salonbook/utils"
)

// Context keys set by the auth middleware.
const (
	CtxUser       = "user"
	CtxExternalID = "externalID"
	CtxIsAdmin    = "isAdmin"
	CtxMaster     = "master"
)

// JWTAuthMiddleware validates the bearer token and resolves the user. The
// token's sub claim carries the external messaging id.
func JWTAuthMiddleware(authSvc auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, ok := bearerSubject(c)
		if !ok {
			return
		}

		name, _ := c.Get("tokenName")
		displayName, _ := name.(string)
		if displayName == "" {
			displayName = strconv.FormatInt(externalID, 10)
		}
		user, err := authSvc.ResolveUser(c.Request.Context(), externalID, displayName, nil, nil)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "internal_error", "failed to resolve user")
			c.Abort()
			return
		}

		c.Set(CtxUser, user)
		c.Set(CtxExternalID, externalID)
		if authSvc.IsAdmin(c.Request.Context(), externalID) {
			c.Set(CtxIsAdmin, true)
		}
		c.Next()
	}
}

// AdminAuthMiddleware requires the principal to have admin rights.
func AdminAuthMiddleware(authSvc auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, ok := c.Get(CtxExternalID)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "missing principal")
			c.Abort()
			return
		}
		if !authSvc.IsAdmin(c.Request.Context(), externalID.(int64)) {
			utils.JSONError(c, http.StatusForbidden, "unauthorized", "admin access required")
			c.Abort()
			return
		}
		c.Set(CtxIsAdmin, true)
		c.Next()
	}
}

// MasterAuthMiddleware requires the principal to be an active master (admins
// pass too) and stores the master on the context when present.
func MasterAuthMiddleware(authSvc auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, ok := c.Get(CtxExternalID)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "missing principal")
			c.Abort()
			return
		}
		id := externalID.(int64)
		if m, isMaster := authSvc.IsMaster(c.Request.Context(), id); isMaster {
			c.Set(CtxMaster, m)
			c.Next()
			return
		}
		if authSvc.IsAdmin(c.Request.Context(), id) {
			c.Set(CtxIsAdmin, true)
			c.Next()
			return
		}
		utils.JSONError(c, http.StatusForbidden, "unauthorized", "master access required")
		c.Abort()
	}
}

// bearerSubject parses the Authorization header and returns the validated
// external id from the token's sub claim.
func bearerSubject(c *gin.Context) (int64, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid Authorization header")
		c.Abort()
		return 0, false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "invalid token")
		c.Abort()
		return 0, false
	}

	sub, err := claims.GetSubject()
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "invalid token subject")
		c.Abort()
		return 0, false
	}
	externalID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "invalid token subject")
		c.Abort()
		return 0, false
	}
	if name, ok := claims["name"].(string); ok {
		c.Set("tokenName", name)
	}
	return externalID, true
}
