package http

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/ratelimit"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

const (
	headerRequestID = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxIdentity  = "identity"
)

// Identity is the verified caller.
type Identity struct {
	StudentID string
	Role      student.Role
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

func identityFrom(c *gin.Context) Identity {
	if v, ok := c.Get(ctxIdentity); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}

// requestID tags the request and binds a request-scoped logger to its context.
func requestID(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log.WithRequestID(id)))
		c.Next()
	}
}

// accessLog logs one line per request; level follows the status class.
func accessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", status),
			logger.Latency(time.Since(start)),
			logger.String("ip", c.ClientIP()),
			logger.String(logger.RequestIDKey, requestIDFrom(c)),
		}
		if id := identityFrom(c); id.StudentID != "" {
			fields = append(fields, logger.StudentID(id.StudentID))
		}

		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

// recovery turns a panic into a 500 envelope.
func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", c.Request.URL.Path),
					logger.String(logger.RequestIDKey, requestIDFrom(c)),
				)
				abortWithError(c, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
			}
		}()
		c.Next()
	}
}

// rateLimit keys on the verified profile id, or on the client address for
// anonymous routes. A nil limiter lets everything through.
func rateLimit(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if id := identityFrom(c); id.StudentID != "" {
			key = "sub:" + id.StudentID
		}
		res := l.Allow(key)
		if !res.Allowed {
			secs := int(res.RetryAfter.Seconds())
			if res.RetryAfter > time.Duration(secs)*time.Second {
				secs++
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			respondError(c, shared.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY
// Tokens are issued by the school's identity provider; the API only verifies
// them. sub is the profile id, role is student, admin or principal.
// ══════════════════════════════════════════════════════════════════════════════

// Claims is the verified token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier verifies HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier. An empty issuer is not checked.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses the token and returns the caller.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}
	if !parsed.Valid {
		return Identity{}, jwt.ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("token has no subject")
	}
	role := student.Role(claims.Role)
	if !role.IsValid() {
		return Identity{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return Identity{StudentID: claims.Subject, Role: role}, nil
}

// Sign issues a token. Used by the admin CLI and tests.
func (v *TokenVerifier) Sign(studentID string, role student.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticate rejects requests without a valid bearer token.
func authenticate(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			logger.FromContext(c.Request.Context()).Debug("token rejected", logger.Err(err))
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		c.Set(ctxIdentity, id)
		c.Request = c.Request.WithContext(logger.WithContext(
			c.Request.Context(),
			logger.FromContext(c.Request.Context()).With(logger.StudentID(id.StudentID)),
		))
		c.Next()
	}
}

// requireRole admits only the listed roles.
func requireRole(roles ...student.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identityFrom(c)
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "forbidden", "this action is not available for your role")
	}
}
