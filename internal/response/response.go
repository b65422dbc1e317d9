package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope every engine endpoint answers with.
type Response struct {
	Data     interface{} `json:"data"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// ErrorBody carries the machine-readable code, the user-facing message and
// optional per-field details.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata ties a response to its request and, on session routes, to the
// exam session it concerns.
type Metadata struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Success sends data with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{Data: data, Metadata: buildMetadata(c)})
}

// Fail sends an error code without field details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, failure(c, code, nil))
}

// FailWithFields sends an error code with per-field details, such as
// validation messages or the offending question index.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, failure(c, code, fields))
}

// AbortFail stops the middleware chain and sends an error code.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, failure(c, code, nil))
}

func failure(c *gin.Context, code ErrCode, fields map[string]string) Response {
	return Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
		Metadata: buildMetadata(c),
	}
}

func buildMetadata(c *gin.Context) Metadata {
	reqID, _ := c.Get(ContextKeyRequestID)
	id, ok := reqID.(string)
	if !ok || id == "" {
		id = uuid.New().String()
	}
	meta := Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if sid, err := uuid.Parse(c.Param("id")); err == nil {
		meta.SessionID = sid.String()
	}
	return meta
}
