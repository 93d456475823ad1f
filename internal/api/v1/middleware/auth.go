package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	log "github.com/handyhub/quotehub/internal/logger"
	"github.com/handyhub/quotehub/internal/types"
)

// identityKey is the fiber.Ctx locals key the auth middleware stores the
// resolved identity under.
const identityKey = "identity"

// AuthOptions configures the identity-service backed auth middleware.
type AuthOptions struct {
	// ValidateURL is the identity service endpoint that validates bearer
	// tokens, e.g. http://identity:8080/auth/validate.
	ValidateURL string
	Timeout     time.Duration
}

type validateRequest struct {
	Token string `json:"token"`
}

// Auth returns a middleware that resolves the caller's bearer token through
// the identity service and stores the resulting Identity in request locals.
// Token parsing and verification live entirely in the identity service.
func Auth(opts AuthOptions) fiber.Handler {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).
				JSON(types.SlugResponse{Slug: types.ErrorSlug, Error: "missing bearer token"})
		}

		body, err := json.Marshal(validateRequest{Token: token})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(types.ErrServer("failed to build validation request"))
		}

		req, err := http.NewRequestWithContext(c.Context(), http.MethodPost, opts.ValidateURL, bytes.NewReader(body))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(types.ErrServer("failed to build validation request"))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			log.Errorf("Identity service unreachable: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).
				JSON(types.SlugResponse{Slug: types.UnavailableSlug, Error: "identity service unavailable"})
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return c.Status(fiber.StatusUnauthorized).
				JSON(types.SlugResponse{Slug: types.ErrorSlug, Error: "invalid or expired token"})
		}

		var identity types.Identity
		if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
			log.Errorf("Identity service returned malformed response: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).
				JSON(types.SlugResponse{Slug: types.UnavailableSlug, Error: "identity service unavailable"})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireRole returns a middleware that rejects callers whose resolved role
// does not match. Admin passes every role check.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).
				JSON(types.SlugResponse{Slug: types.ErrorSlug, Error: "authentication required"})
		}
		if identity.Role != role && identity.Role != types.RoleAdmin {
			return c.Status(fiber.StatusForbidden).
				JSON(types.SlugResponse{Slug: types.ForbiddenSlug, Error: "insufficient role"})
		}
		return c.Next()
	}
}

// IdentityFrom extracts the authenticated identity stored by Auth.
func IdentityFrom(c *fiber.Ctx) (types.Identity, bool) {
	identity, ok := c.Locals(identityKey).(types.Identity)
	return identity, ok
}

// SetIdentity stores an identity in request locals. Exposed for tests that
// exercise handlers without the full auth chain.
func SetIdentity(c *fiber.Ctx, identity types.Identity) {
	c.Locals(identityKey, identity)
}
