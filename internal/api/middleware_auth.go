package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const contextSubjectKey = "token_subject"

// AuthRequired accepts "Authorization: Bearer <jwt>". Clients that keep presenting bad tokens
// are throttled with 429 until the window passes.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	now := handler.now()
	key := clientKey(c)
	if handler.tokenLimiter.blocked(key, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many invalid tokens")
	}

	raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	claims, err := parseToken(handler.signingKey, raw, now)
	if err != nil {
		handler.tokenLimiter.fail(key, now)
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	handler.tokenLimiter.forget(key)
	c.Locals(contextSubjectKey, claims.Subject)
	return c.Next()
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
