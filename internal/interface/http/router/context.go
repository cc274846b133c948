package router

import (
	"encoding/json"
	"net/http"
)

// Params holds query-string values merged with path parameters. Path
// parameters win when both define the same key.
type Params map[string]string

func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Context is the mutable per-request state threaded through a handler chain.
type Context struct {
	Request *http.Request
	Params  Params

	w      *responseWriter
	values map[string]any
	after  []func(*Context)
}

func newContext(w http.ResponseWriter, r *http.Request, params Params) *Context {
	return &Context{
		Request: r,
		Params:  params,
		w:       &responseWriter{ResponseWriter: w},
	}
}

func (c *Context) Writer() http.ResponseWriter {
	return c.w
}

// Written reports whether a status line has been sent.
func (c *Context) Written() bool {
	return c.w.status != 0
}

// Status is the status code sent so far, 0 if nothing was written.
func (c *Context) Status() int {
	return c.w.status
}

func (c *Context) BytesWritten() int {
	return c.w.bytes
}

func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

func (c *Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// After registers fn to run once the chain has finished and a response has
// been written. Callbacks run in reverse registration order.
func (c *Context) After(fn func(*Context)) {
	c.after = append(c.after, fn)
}

func (c *Context) finish() {
	for i := len(c.after) - 1; i >= 0; i-- {
		c.after[i](c)
	}
}

// JSON writes payload with status. When payload cannot be encoded nothing
// but a plain-text 500 is sent.
func (c *Context) JSON(status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		c.Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	c.w.Header().Set("Content-Type", "application/json")
	c.w.WriteHeader(status)
	_, _ = c.w.Write(append(body, '\n'))
}

func (c *Context) Text(status int, msg string) {
	http.Error(c.w, msg, status)
}

func (c *Context) NoContent() {
	c.w.Header().Set("Content-Length", "0")
	c.w.WriteHeader(http.StatusNoContent)
}

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status != 0 {
		return
	}
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
