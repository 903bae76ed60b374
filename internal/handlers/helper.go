package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const studentIDKey = "student_id"

// StudentIDMiddleware extracts the authenticated student identity set by the
// gateway. Authentication itself happens upstream; the runner only needs the
// resolved id.
func StudentIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Student-Id"))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing student identity",
			})
			return
		}
		c.Set(studentIDKey, id)
		c.Next()
	}
}

func StudentID(c *gin.Context) string {
	return c.GetString(studentIDKey)
}

// ParseUintParam parses a numeric path parameter, writing a 400 response and
// returning ok=false when it is malformed.
func ParseUintParam(c *gin.Context, param string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(param))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}
