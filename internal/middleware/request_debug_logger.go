package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxBodyLogSize = 1024

var (
	passwordFieldPattern = regexp.MustCompile(`("[A-Za-z_]*password[A-Za-z_]*"\s*:\s*")(?:[^"\\]|\\.)*(")`)
	tokenFieldPattern    = regexp.MustCompile(`("token"\s*:\s*")[^"]*(")`)
)

// RequestDebugLogger logs request headers and body before the handler runs, and the response
// status, latency and body after it. Nothing is logged unless the request logger is at debug level.
func RequestDebugLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := GetRequestFileLogger(c)
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			return c.Next()
		}
		startTime := time.Now()

		headersMap := make(map[string]string)
		c.Request().Header.VisitAll(func(key, value []byte) {
			headerKey := string(key)
			if headerKey == AuthorizationHeader || headerKey == "Cookie" {
				headersMap[headerKey] = "*** HIDDEN ***"
			} else {
				headersMap[headerKey] = string(value)
			}
		})

		logger.Debug("Incoming Request Details",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Any("headers", headersMap),
			zap.String("body", describeBody(c.BodyRaw(), string(c.Request().Header.ContentType()))),
		)

		err := c.Next()

		logger.Debug("Request Handled",
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("response_body", describeBody(c.Response().Body(), string(c.Response().Header.ContentType()))),
		)
		return err
	}
}

func describeBody(body []byte, contentType string) string {
	if len(body) == 0 {
		return "(Empty Body)"
	}
	if !isTextual(contentType) {
		return fmt.Sprintf("(Binary or non-text body, size: %d bytes)", len(body))
	}
	text := string(body)
	if len(text) > maxBodyLogSize {
		text = text[:maxBodyLogSize] + "... (truncated)"
	}
	return sanitizeSensitiveData(text)
}

func isTextual(contentType string) bool {
	if strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return false
	}
	for _, kind := range []string{"json", "xml", "text", "form"} {
		if strings.Contains(contentType, kind) {
			return true
		}
	}
	return false
}

// sanitizeSensitiveData masks password-like and token fields in a JSON body.
func sanitizeSensitiveData(body string) string {
	body = passwordFieldPattern.ReplaceAllString(body, `$1***$2`)
	return tokenFieldPattern.ReplaceAllString(body, `$1***$2`)
}
