package http

import (
	"context"
	"errors"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CodeDisallowedHost rejects requests whose Host header is outside the allow-list.
const CodeDisallowedHost = "DISALLOWED_HOST"

// MiddlewareOptions tunes the global middleware chain.
type MiddlewareOptions struct {
	Timeout      time.Duration
	AllowedHosts []string
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, opts MiddlewareOptions) {
	if opts.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(opts.Timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
	if len(opts.AllowedHosts) > 0 {
		app.Use(allowedHostsMiddleware(opts.AllowedHosts))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// allowedHostsMiddleware accepts exact host names, "*" and ".example.com" suffix patterns.
func allowedHostsMiddleware(hosts []string) fiber.Handler {
	exact := make(map[string]struct{}, len(hosts))
	var suffixes []string
	wildcard := false
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case h == "*":
			wildcard = true
		case strings.HasPrefix(h, "."):
			suffixes = append(suffixes, h)
		case h != "":
			exact[h] = struct{}{}
		}
	}
	return func(c *fiber.Ctx) error {
		if wildcard {
			return c.Next()
		}
		host := strings.ToLower(c.Hostname())
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if _, ok := exact[host]; ok {
			return c.Next()
		}
		for _, suffix := range suffixes {
			if host == suffix[1:] || strings.HasSuffix(host, suffix) {
				return c.Next()
			}
		}
		return apperrors.NewDomainError(CodeDisallowedHost, "invalid host header", fiber.StatusBadRequest, map[string]any{"host": host})
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("request_id", observability.RequestID(c)),
						zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also keeps the status of framework errors such as unmatched routes.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := apperrors.CodeInternal
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = apperrors.CodeNotFound
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			code = apperrors.CodeValidation
		}
		return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}
