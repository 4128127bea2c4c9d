package api

import (
	"encoding/json"
	"net/http"
)

type (
	// Context of one API request.
	Context struct {
		Request *http.Request
		Writer  http.ResponseWriter
	}

	// Handler of an API route.
	Handler func(ctx *Context)

	// Json object response.
	Json map[string]any
)

// JSON writes data with the status code.
func (ctx *Context) JSON(code int, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		ctx.Writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	ctx.Writer.Header().Set("Content-Type", "application/json")
	ctx.Writer.WriteHeader(code)

	_, _ = ctx.Writer.Write(buf)
}

// Param returns a path wildcard value.
func (ctx *Context) Param(key string) string {
	return ctx.Request.PathValue(key)
}
