package middleware

import (
	"cmp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/config"
)

const (
	claimsKey = "claims"

	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"
)

// Claims is the identity the gateway asserts for a request. The gateway
// authenticates the session; this service only reads its headers.
type Claims struct {
	// Subject is the host platform account id.
	Subject string

	// Roles are the account's roles on the host platform, e.g. "editor".
	Roles []string
}

// HasRole reports whether the account holds role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// ExtractClaims reads the identity headers named by cfg, falling back to
// X-User-ID and X-User-Roles. Roles are comma separated.
func ExtractClaims(c *gin.Context, cfg *config.AuthConfig) *Claims {
	subjectHeader, rolesHeader := defaultSubjectHeader, defaultRolesHeader

	if cfg != nil {
		subjectHeader = cmp.Or(cfg.SubjectHeader, subjectHeader)
		rolesHeader = cmp.Or(cfg.RolesHeader, rolesHeader)
	}

	claims := &Claims{Subject: strings.TrimSpace(c.GetHeader(subjectHeader))}

	for role := range strings.SplitSeq(c.GetHeader(rolesHeader), ",") {
		if role = strings.TrimSpace(role); role != "" {
			claims.Roles = append(claims.Roles, role)
		}
	}

	return claims
}

// GetClaims returns the claims stored by RequireAuth, or nil.
func GetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}

	claims, _ := v.(*Claims)

	return claims
}

// RequireAuth rejects requests without a subject and stores the claims for
// the handlers.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ExtractClaims(c, cfg)
		if claims.Subject == "" {
			dto.Abort(c, dto.ErrorCodeForbidden, "authentication required")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose account lacks role.
func RequireRole(cfg *config.AuthConfig, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			claims = ExtractClaims(c, cfg)
			c.Set(claimsKey, claims)
		}

		if !claims.HasRole(role) {
			dto.Abort(c, dto.ErrorCodeForbidden, "insufficient permissions: role "+role+" required")
			return
		}

		c.Next()
	}
}
