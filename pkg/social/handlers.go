package social

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sociallogin/pkg/logger"
)

const (
	sessionCookieName = "session_id"
	cookieMaxAge      = 86400 // 24 hours
)

// LoginHandler starts the login flow for a provider
// @Summary Start social login
// @Description Redirects the user to the provider's authorization page
// @Tags social
// @Param provider path string true "Provider name"
// @Success 302 {string} string "Redirect"
// @Failure 404 {object} map[string]string "Unknown or disabled provider"
// @Router /auth/login/{provider} [get]
func LoginHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		providerName := c.Param("provider")

		redirectURL, err := manager.BeginLogin(c.Request.Context(), providerName)
		if err != nil {
			if errors.Is(err, ErrProviderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": UserMessage(err, providerName)})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": UserMessage(err, providerName)})
			return
		}

		c.Redirect(http.StatusTemporaryRedirect, redirectURL)
	}
}

// CallbackHandler completes the login flow from the provider callback
// @Summary Social login callback
// @Description Finishes the OAuth handshake and creates a session
// @Tags social
// @Produce json
// @Param provider path string true "Provider name"
// @Param code query string false "OAuth2 authorization code"
// @Param state query string false "OAuth2 state"
// @Param oauth_token query string false "OAuth1 request token"
// @Param oauth_verifier query string false "OAuth1 verifier"
// @Success 200 {object} map[string]interface{} "Authenticated"
// @Failure 401 {object} map[string]string "Login cancelled or denied"
// @Router /auth/callback/{provider} [get]
func CallbackHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		providerName := c.Param("provider")

		cb := Callback{
			Code:          c.Query("code"),
			State:         c.Query("state"),
			OAuthToken:    c.Query("oauth_token"),
			OAuthVerifier: c.Query("oauth_verifier"),
			ErrorCode:     c.Query("error"),
		}
		// Twitter signals cancellation with ?denied=<token> instead of an
		// error parameter.
		if cb.ErrorCode == "" && c.Query("denied") != "" {
			cb.ErrorCode = "access_denied"
		}

		result, err := manager.CompleteLogin(c.Request.Context(), providerName, cb)
		if err != nil {
			c.JSON(callbackStatus(err), gin.H{"error": UserMessage(err, providerName)})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(
			sessionCookieName,
			result.Session.ID,
			cookieMaxAge,
			"/",
			"",
			true, // Secure: only HTTPS
			true, // HttpOnly: not accessible via JavaScript
		)

		c.JSON(http.StatusOK, gin.H{
			"message": "Authenticated as: " + result.User.Name,
			"user":    result.User,
		})
	}
}

func callbackStatus(err error) int {
	var resErr *ResolutionError

	switch {
	case errors.Is(err, ErrAuthDenied):
		return http.StatusUnauthorized
	case errors.Is(err, ErrProviderNotFound):
		return http.StatusNotFound
	case errors.As(err, &resErr):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// ProvidersHandler lists the enabled providers
// @Summary List enabled social login providers
// @Tags social
// @Produce json
// @Success 200 {object} map[string][]string "Provider names"
// @Router /auth/providers [get]
func ProvidersHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"providers": manager.Providers()})
	}
}

// MeHandler returns authenticated user info from session
// @Summary Get authenticated user info
// @Tags social
// @Produce json
// @Success 200 {object} map[string]interface{} "User info"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func MeHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session found"})
			return
		}

		session, err := manager.GetSession(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":       session.User,
			"created_at": session.CreatedAt,
			"expires_at": session.ExpiresAt,
		})
	}
}

// LogoutHandler logs out the user by deleting the session
// @Summary Logout
// @Tags social
// @Produce json
// @Success 200 {object} map[string]string "Logged out"
// @Router /auth/logout [post]
func LogoutHandler(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookieName)
		if err == nil {
			if err := manager.DeleteSession(c.Request.Context(), sessionID); err != nil {
				manager.log.Warn("failed to delete session on logout",
					logger.Field{Key: "err", Value: err.Error()},
				)
			}
		}

		c.SetCookie(
			sessionCookieName,
			"",
			-1,
			"/",
			"",
			true,
			true,
		)

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// AuthMiddleware is a middleware that validates the login session
func AuthMiddleware(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session found"})
			c.Abort()
			return
		}

		session, err := manager.GetSession(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			c.Abort()
			return
		}

		// Store session in context for downstream handlers
		c.Set("session", session)
		c.Set("user", session.User)

		c.Next()
	}
}
