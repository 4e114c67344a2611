package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var scannerPaths = []string{
	"/admin",
	"/phpmyadmin",
	"/wp-admin",
	"/wp-login",
	"/.env",
	"/.git",
	"/.aws",
	"/cgi-bin",
	"/actuator",
	"/console",
	"/robots.txt",
	"/favicon.ico",
}

var scannerExtensions = []string{
	".php",
	".asp",
	".aspx",
	".jsp",
	".bak",
	".sql",
}

// NoiseFilter marks unauthenticated scanner traffic so Logging skips it.
// Register it after Logging so its check runs first on the way out.
func NoiseFilter(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.GetBool(AuthenticatedKey) {
			return
		}

		status := c.Writer.Status()
		path := c.Request.URL.Path

		if status == http.StatusMethodNotAllowed || (status >= 400 && isScannerPath(path)) {
			c.Set(SkipLoggingKey, true)
			logger.Debug("Scanner request filtered",
				"component", "api",
				"path", path,
				"method", c.Request.Method,
				"status", status,
				"client_ip", c.ClientIP())
		}
	}
}

// isScannerPath checks if a path is commonly probed by scanners
func isScannerPath(path string) bool {
	lowercasePath := strings.ToLower(path)
	for _, scannerPath := range scannerPaths {
		if strings.HasPrefix(lowercasePath, scannerPath) {
			return true
		}
	}
	for _, ext := range scannerExtensions {
		if strings.HasSuffix(lowercasePath, ext) {
			return true
		}
	}
	return false
}
