package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handyhub/quotehub/internal/types"
)

func identityServer(t *testing.T, validToken string, identity types.Identity) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Token != validToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(identity)
	}))
}

func protectedApp(authURL string) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", Auth(AuthOptions{ValidateURL: authURL}), func(c *fiber.Ctx) error {
		identity, _ := IdentityFrom(c)
		return c.JSON(identity)
	})
	return app
}

func TestAuthResolvesIdentity(t *testing.T) {
	server := identityServer(t, "good-token", types.Identity{
		UserID: "provider-1",
		Email:  "provider-1@example.com",
		Role:   types.RoleProvider,
	})
	defer server.Close()

	app := protectedApp(server.URL)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var identity types.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
	assert.Equal(t, "provider-1", identity.UserID)
	assert.Equal(t, types.RoleProvider, identity.Role)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	server := identityServer(t, "good-token", types.Identity{})
	defer server.Close()

	app := protectedApp(server.URL)

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	server := identityServer(t, "good-token", types.Identity{})
	defer server.Close()

	app := protectedApp(server.URL)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer bad-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthIdentityServiceDown(t *testing.T) {
	server := identityServer(t, "good-token", types.Identity{})
	server.Close()

	app := protectedApp(server.URL)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/provider-only",
		func(c *fiber.Ctx) error {
			SetIdentity(c, types.Identity{UserID: "u1", Role: types.RoleCustomer})
			return c.Next()
		},
		RequireRole(types.RoleProvider),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
	)
	app.Get("/admin-pass",
		func(c *fiber.Ctx) error {
			SetIdentity(c, types.Identity{UserID: "u2", Role: types.RoleAdmin})
			return c.Next()
		},
		RequireRole(types.RoleProvider),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/provider-only", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/admin-pass", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
