package middleware

import (
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/labstack/echo/v4"

	"assignmint.com/assignmint/internal/constants"
	apperrors "assignmint.com/assignmint/internal/errors"
)

const (
	identityKey = "identity"

	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// Identity is the caller as established by the transport boundary.
type Identity struct {
	ID   string
	Name string
	Role constants.Role
}

type identityClaims struct {
	jwt.Claims
	Name string `json:"name"`
	Role string `json:"role"`
}

// Authenticate resolves the caller. With a secret configured only HS256
// bearer tokens are accepted; without one the gateway headers are trusted.
// Requests without credentials pass through anonymous.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var (
				id  Identity
				err error
			)
			if len(secret) > 0 {
				id, err = fromBearer(c.Request().Header.Get(echo.HeaderAuthorization), secret, time.Now())
			} else {
				id, err = fromHeaders(c)
			}
			if err != nil {
				return err
			}
			if id.ID != "" {
				c.Set(identityKey, id)
			}
			return next(c)
		}
	}
}

func fromBearer(header string, secret []byte, now time.Time) (Identity, error) {
	if header == "" {
		return Identity{}, nil
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return Identity{}, apperrors.ErrUnauthorized.WithMessage("malformed authorization header")
	}

	token, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return Identity{}, apperrors.ErrUnauthorized.WithMessage("invalid token")
	}

	var claims identityClaims
	if err := token.Claims(secret, &claims); err != nil {
		return Identity{}, apperrors.ErrUnauthorized.WithMessage("invalid token signature")
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{Time: now}, time.Minute); err != nil {
		return Identity{}, apperrors.ErrUnauthorized.WithMessage("token expired or not yet valid")
	}
	if claims.Subject == "" {
		return Identity{}, apperrors.ErrUnauthorized.WithMessage("token has no subject")
	}

	role := constants.Role(claims.Role)
	if role != "" && !role.Valid() {
		return Identity{}, apperrors.ErrUnauthorized.WithMessage("unknown role")
	}
	return Identity{ID: claims.Subject, Name: claims.Name, Role: role}, nil
}

func fromHeaders(c echo.Context) (Identity, error) {
	h := c.Request().Header
	id := Identity{
		ID:   strings.TrimSpace(h.Get(HeaderUserID)),
		Name: strings.TrimSpace(h.Get(HeaderUserName)),
		Role: constants.Role(strings.TrimSpace(h.Get(HeaderUserRole))),
	}
	if id.Role != "" && !id.Role.Valid() {
		return Identity{}, apperrors.ErrUnauthorized.WithMessage("unknown role")
	}
	return id, nil
}

// CurrentIdentity returns the authenticated caller or ErrUnauthorized.
func CurrentIdentity(c echo.Context) (Identity, error) {
	id, ok := c.Get(identityKey).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, apperrors.ErrUnauthorized
	}
	return id, nil
}
