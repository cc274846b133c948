package router

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func serve(r *Router, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func writeParams(c *Context) Result {
	c.JSON(http.StatusOK, c.Params)
	return Halt()
}

func TestMatchTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		path     string
		match    bool
		params   map[string]string
	}{
		{name: "Parameter bound", template: "/api/orders/:id", path: "/api/orders/42", match: true, params: map[string]string{"id": "42"}},
		{name: "Extra segment", template: "/api/orders/:id", path: "/api/orders/42/extra", match: false},
		{name: "Missing segment", template: "/api/orders/:id", path: "/api/orders", match: false},
		{name: "Empty parameter", template: "/api/orders/:id", path: "/api/orders/", match: false},
		{name: "Literal mismatch", template: "/api/orders/:id", path: "/api/users/42", match: false},
		{name: "Literal only", template: "/api/orders", path: "/api/orders", match: true, params: map[string]string{}},
		{name: "Two parameters", template: "/a/:x/b/:y", path: "/a/1/b/2", match: true, params: map[string]string{"x": "1", "y": "2"}},
		{name: "Non numeric value still matches", template: "/api/orders/:id", path: "/api/orders/订单号", match: true, params: map[string]string{"id": "订单号"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, ok := MatchTemplate(tt.template, tt.path)
			require.Equal(t, tt.match, ok)
			if tt.match {
				require.Equal(t, tt.params, params)
			}
		})
	}
}

func TestServeHTTP_NoRoute_Returns404(t *testing.T) {
	r := New()
	r.Get("/api/orders/:id", Step(writeParams))

	rec := serve(r, http.MethodGet, "/api/orders/42/extra")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Not Found")
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = serve(r, http.MethodPost, "/api/orders/42")
	require.Equal(t, http.StatusNotFound, rec.Code, "method must match too")
}

func TestServeHTTP_FirstMatchWins(t *testing.T) {
	r := New()
	r.Get("/items/:id", Step(func(c *Context) Result {
		c.Text(http.StatusOK, "param")
		return Halt()
	}))
	r.Get("/items/special", Step(func(c *Context) Result {
		c.Text(http.StatusOK, "literal")
		return Halt()
	}))

	rec := serve(r, http.MethodGet, "/items/special")
	require.Contains(t, rec.Body.String(), "param")
}

func TestServeHTTP_PathParamsOverrideQuery(t *testing.T) {
	r := New()
	r.Get("/api/orders/:id", Step(writeParams))

	rec := serve(r, http.MethodGet, "/api/orders/42?id=7&verbose=1&verbose=2")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"42","verbose":"1"}`, rec.Body.String())
}

func TestServeHTTP_StagesRunInOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Stage {
		return Step(func(c *Context) Result {
			trace = append(trace, name)
			return Next()
		})
	}

	r := New()
	r.Use(mark("global"))
	r.Get("/x", mark("first"), mark("second"), Step(func(c *Context) Result {
		trace = append(trace, "terminal")
		c.NoContent()
		return Halt()
	}), mark("after-halt"))

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{"global", "first", "second", "terminal"}, trace)
}

func TestServeHTTP_FailSkipsToErrorHandler(t *testing.T) {
	boom := errors.New("boom")
	var trace []string

	r := New()
	r.Get("/x",
		Rescue(func(c *Context, err error) Result {
			trace = append(trace, "rescue-before")
			return Halt()
		}),
		Step(func(c *Context) Result {
			trace = append(trace, "fails")
			return Fail(boom)
		}),
		Step(func(c *Context) Result {
			trace = append(trace, "skipped")
			return Next()
		}),
		Rescue(func(c *Context, err error) Result {
			trace = append(trace, "rescue")
			require.ErrorIs(t, err, boom)
			c.JSON(http.StatusTeapot, map[string]string{"error": err.Error()})
			return Halt()
		}),
	)

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
	require.Equal(t, []string{"fails", "rescue"}, trace)
}

func TestServeHTTP_UnhandledFailure_Returns500(t *testing.T) {
	var unhandled error
	r := New()
	r.OnUnhandled = func(c *Context, err error) { unhandled = err }
	r.Get("/x", Step(func(c *Context) Result { return Fail(errors.New("no handler")) }))

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Internal Server Error")
	require.EqualError(t, unhandled, "no handler")
}

func TestServeHTTP_ErrorHandlerCanPassFailureOn(t *testing.T) {
	var seen []string
	r := New()
	r.Get("/x",
		Step(func(c *Context) Result { return Fail(errors.New("first")) }),
		Rescue(func(c *Context, err error) Result {
			seen = append(seen, err.Error())
			return Fail(errors.New("second"))
		}),
		Rescue(func(c *Context, err error) Result {
			seen = append(seen, err.Error())
			c.Text(http.StatusBadGateway, err.Error())
			return Halt()
		}),
	)

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, []string{"first", "second"}, seen)
}

func TestServeHTTP_ChainWithoutResponse_Returns500(t *testing.T) {
	r := New()
	r.Get("/x", Step(func(c *Context) Result { return Next() }))

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFail_NilError(t *testing.T) {
	res := Fail(nil)
	require.ErrorIs(t, res.err, errUnspecified)
}

func TestContext_ValuesAndStatus(t *testing.T) {
	r := New()
	r.Get("/x",
		Step(func(c *Context) Result {
			c.Set("user", "wukong")
			return Next()
		}),
		Step(func(c *Context) Result {
			v, ok := c.Value("user")
			require.True(t, ok)
			require.False(t, c.Written())
			c.JSON(http.StatusCreated, map[string]any{"user": v})
			require.True(t, c.Written())
			require.Equal(t, http.StatusCreated, c.Status())
			require.Positive(t, c.BytesWritten())
			return Halt()
		}),
	)

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"user":"wukong"}`, rec.Body.String())
}

func TestContext_AfterRunsInReverseOnceResponseIsWritten(t *testing.T) {
	var order []string
	var status int
	r := New()
	r.Use(Step(func(c *Context) Result {
		c.After(func(c *Context) {
			order = append(order, "outer")
			status = c.Status()
		})
		return Next()
	}))
	r.Get("/x",
		Step(func(c *Context) Result {
			c.After(func(*Context) { order = append(order, "inner") })
			return Next()
		}),
		Step(func(c *Context) Result { return Fail(errors.New("unhandled")) }),
	)

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, []string{"inner", "outer"}, order)
	require.Equal(t, http.StatusInternalServerError, status)
}

func TestServeHTTP_PanicIsRecoveredAndAfterHooksRun(t *testing.T) {
	var unhandled error
	var loggedStatus int
	r := New()
	r.OnUnhandled = func(c *Context, err error) { unhandled = err }
	r.Use(Step(func(c *Context) Result {
		c.After(func(c *Context) { loggedStatus = c.Status() })
		return Next()
	}))
	r.Get("/x", Step(func(c *Context) Result { panic("boom") }))

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.ErrorIs(t, unhandled, ErrPanic)
	require.ErrorContains(t, unhandled, "boom")
	require.Equal(t, http.StatusInternalServerError, loggedStatus)
}

func TestServeHTTP_AbortHandlerPanicPropagates(t *testing.T) {
	afterRan := false
	r := New()
	r.Get("/x", Step(func(c *Context) Result {
		c.After(func(*Context) { afterRan = true })
		panic(http.ErrAbortHandler)
	}))

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(r, http.MethodGet, "/x")
	})
	require.True(t, afterRan)
}

func TestContext_JSON_UnencodablePayload_Returns500(t *testing.T) {
	r := New()
	r.Get("/x", Step(func(c *Context) Result {
		c.JSON(http.StatusOK, map[string]any{"v": math.Inf(1)})
		return Halt()
	}))

	rec := serve(r, http.MethodGet, "/x")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
