package response

import (
	"net/http"
	"reflect"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

var exposeInternal atomic.Bool

// ExposeInternalErrors controls whether internal errors carry their wrapped detail.
// Only enable outside production.
func ExposeInternalErrors(enabled bool) {
	exposeInternal.Store(enabled)
}

// ErrorBody is the failure contract: {"message": "...", "code": "..."}.
type ErrorBody struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// Entity responds with {"message": message, key: value} and optional meta.
func Entity(c *gin.Context, status int, message, key string, value interface{}, meta ...map[string]interface{}) {
	noStore(c)
	body := gin.H{"message": message}
	if key != "" {
		body[key] = value
	}
	if len(meta) > 0 && len(meta[0]) > 0 {
		body["meta"] = meta[0]
	}
	c.JSON(status, body)
}

// Created responds with HTTP 201 and the created entity.
func Created(c *gin.Context, message, key string, value interface{}) {
	Entity(c, http.StatusCreated, message, key, value)
}

// Message responds with only a message.
func Message(c *gin.Context, status int, message string) {
	noStore(c)
	c.JSON(status, gin.H{"message": message})
}

// List responds with {key: items, "count": count}. A nil slice is sent as [].
func List(c *gin.Context, key string, items interface{}, count int, meta ...map[string]interface{}) {
	noStore(c)
	if v := reflect.ValueOf(items); !v.IsValid() || (v.Kind() == reflect.Slice && v.IsNil()) {
		items = []interface{}{}
	}
	body := gin.H{key: items, "count": count}
	if len(meta) > 0 && len(meta[0]) > 0 {
		body["meta"] = meta[0]
	}
	c.JSON(http.StatusOK, body)
}

// Error sends a failure response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	body := ErrorBody{Message: appErr.Message, Code: appErr.Code, Fields: appErr.Fields}
	if appErr.Status >= http.StatusInternalServerError && appErr.Err != nil && exposeInternal.Load() {
		body.Detail = appErr.Err.Error()
	}
	c.JSON(appErr.Status, body)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
