package middleware

import "github.com/gofiber/fiber/v2"

// CallerKey is the Locals key holding the request caller.
const CallerKey = "caller"

// Caller exposes the authenticated basic auth user as the request caller.
func Caller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, ok := c.Locals("username").(string); ok {
			c.Locals(CallerKey, user)
		}
		return c.Next()
	}
}

// CallerOf returns the caller set by Caller, or "" for anonymous requests.
func CallerOf(c *fiber.Ctx) string {
	caller, _ := c.Locals(CallerKey).(string)
	return caller
}
