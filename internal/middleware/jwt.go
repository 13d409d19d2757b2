package middleware

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/campus-forum-api/internal/utils"
)

var errMissingSubject = errors.New("token subject missing")

const maxFloatAccountID = 1 << 53

// JWTProtected validates HMAC bearer tokens issued by the identity provider and stores the
// numeric account id from the subject claim (or a legacy user_id claim) as user_id.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := accountIDFromClaims(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		c.Locals("user_id", userID)

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func accountIDFromClaims(claims jwt.MapClaims) (uint, error) {
	if subject, err := claims.GetSubject(); err == nil && subject != "" {
		return parseAccountID(subject)
	}
	if value, ok := claims["user_id"]; ok {
		switch v := value.(type) {
		case float64:
			// JSON numbers decode as float64; only whole values in the exactly representable range are ids.
			if v > 0 && v == math.Trunc(v) && v <= maxFloatAccountID {
				return uint(v), nil
			}
			return 0, fmt.Errorf("invalid token subject")
		case string:
			return parseAccountID(v)
		}
	}
	return 0, errMissingSubject
}

func parseAccountID(value string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject")
	}
	if id == 0 {
		return 0, errMissingSubject
	}
	return uint(id), nil
}
