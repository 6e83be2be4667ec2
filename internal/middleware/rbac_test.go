package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/skilldesk/lms-api/internal/models"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name       string
		role       interface{}
		wantStatus int
	}{
		{name: "admin allowed", role: models.RoleAdmin, wantStatus: fiber.StatusOK},
		{name: "case insensitive", role: "Admin", wantStatus: fiber.StatusOK},
		{name: "student rejected", role: models.RoleStudent, wantStatus: fiber.StatusForbidden},
		{name: "missing role rejected", role: nil, wantStatus: fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.role != nil {
					c.Locals("user_role", tc.role)
				}
				return c.Next()
			})
			app.Use(RequireRole(models.RoleAdmin))
			app.Get("/admin", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}
