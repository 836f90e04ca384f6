package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/pkg/jwt"
	"github.com/kontenhub/cms/internal/pkg/response"
)

const ContextKeyPrincipal = "principal"

// Auth returns a middleware that requires a valid bearer token.
func Auth(signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := principalFromRequest(signer, c)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyPrincipal, p)
		c.Next()
	}
}

// OptionalAuth sets the principal if a valid token is present, but does not block the request.
func OptionalAuth(signer *jwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, err := principalFromRequest(signer, c); err == nil {
			c.Set(ContextKeyPrincipal, p)
		}
		c.Next()
	}
}

// RequireRoles rejects principals whose role is not listed. It must run after Auth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if !p.Authenticated() {
			response.Unauthorized(c)
			return
		}
		if _, ok := allowed[p.Role]; !ok {
			response.ForbiddenMsg(c, "your role cannot perform this action")
			return
		}
		c.Next()
	}
}

// CurrentPrincipal extracts the authenticated principal from context, or
// access.Anonymous.
func CurrentPrincipal(c *gin.Context) access.Principal {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return access.Anonymous
	}
	p, _ := v.(access.Principal)
	return p
}

func principalFromRequest(signer *jwt.Signer, c *gin.Context) (access.Principal, error) {
	token := NormalizeToken(c.GetHeader("Authorization"))
	if token == "" {
		return access.Anonymous, errors.New("token is required")
	}
	claims, err := signer.Parse(token)
	if err != nil {
		return access.Anonymous, err
	}
	return access.Principal{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
