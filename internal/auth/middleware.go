package auth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/models"
	"github.com/ShivaprasadMurashillin/LexDash/pkg/validation"
)

/* ============================== JWT Claims ============================== */

// Claims represents the JWT payload we issue and expect.
type Claims struct {
	Sub   string `json:"sub"`  // user ID
	Role  string `json:"role"` // "attorney" | "admin"
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenTTL is how long issued tokens stay valid. cmd/server sets it from config.
var TokenTTL = 7 * 24 * time.Hour

/* ============================== JWT Helpers ============================= */

// IssueToken signs a JWT for the given user.
func IssueToken(u models.User) (string, error) {
	claims := &Claims{
		Sub:   u.ID.String(),
		Role:  string(u.Role),
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

/* ============================== Middleware ============================== */

// RequireAuth validates a Bearer JWT and injects the actor into the context.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return fiber.ErrUnauthorized
		}
		tokenStr := strings.TrimPrefix(h, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}

		c.Locals("userID", claims.Sub)
		c.Locals("role", claims.Role)
		c.Locals("name", claims.Name)
		c.Locals("email", strings.ToLower(claims.Email))
		return c.Next()
	}
}

// MustRole reads the authenticated user role from context or panics (programming error).
func MustRole(c *fiber.Ctx) string {
	if v := c.Locals("role"); v != nil {
		return v.(string)
	}
	panic(errors.New("role not in context"))
}

// RequireRole ensures the authenticated user has the expected role.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if MustRole(c) != string(role) {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}

/* ================================ Actor ================================= */

// Actor is who performed a request, as far as notifications are concerned.
type Actor struct {
	ID    string
	Name  string
	Email string
}

const anonymousActor = "An attorney"

// ActorFrom reads the actor injected by RequireAuth.
func ActorFrom(c *fiber.Ctx) Actor {
	str := func(k string) string {
		s, _ := c.Locals(k).(string)
		return strings.TrimSpace(s)
	}
	return Actor{ID: str("userID"), Name: str("name"), Email: str("email")}
}

// DisplayName is the label recorded as a notification's author.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return anonymousActor
}

// Viewer is the per-viewer read-tracking key (lowercased email).
func (a Actor) Viewer() string {
	return strings.ToLower(a.Email)
}

/* =========================== Error Formatting =========================== */

// httpCodeToString converts an HTTP status code to a short, stable string.
func httpCodeToString(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// ErrorHandler returns a global Fiber error handler with a consistent JSON shape.
// Validation failures use the Laravel-style body; upstream causes are logged, never shown.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Defaults
		code := fiber.StatusInternalServerError
		msg := "Internal Server Error"

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			msg = fe.Message
		case errors.Is(err, gorm.ErrRecordNotFound):
			code, msg = fiber.StatusNotFound, fiber.ErrNotFound.Message
		default:
			if ae, ok := apperr.As(err); ok {
				if ae.Fields != nil {
					return validation.Respond(c, ae.Fields)
				}
				code, msg = ae.Status, ae.Message
				if ae.Err != nil {
					log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", ae.Err)
				}
			} else {
				log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
			}
		}
		if strings.TrimSpace(msg) == "" {
			msg = fiber.ErrInternalServerError.Message
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Code:    httpCodeToString(code),
			Error:   true,
			Message: msg,
		})
	}
}
