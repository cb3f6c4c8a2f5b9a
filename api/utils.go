package api

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// intQueryParam parses an optional integer query parameter; absent or
// malformed values yield zero.
func intQueryParam(c echo.Context, name string) int {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
