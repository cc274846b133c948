// Package router matches requests against "/a/:param" style templates and
// runs the matched route's stages through an explicit pipeline.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type route struct {
	method   string
	template string
	segments []string
	stages   []Stage
}

// Router is an append-only route table. Routes are tried in registration
// order and the first whose method and shape match wins.
type Router struct {
	prefix []Stage
	routes []route
	// OnUnhandled, when set, observes errors no error-handler stage consumed,
	// including recovered panics wrapped in ErrPanic.
	OnUnhandled func(c *Context, err error)
}

func New() *Router {
	return &Router{}
}

// Use prepends stages to the chain of every route.
func (r *Router) Use(stages ...Stage) {
	r.prefix = append(r.prefix, stages...)
}

func (r *Router) Handle(method, template string, stages ...Stage) {
	r.routes = append(r.routes, route{
		method:   method,
		template: template,
		segments: strings.Split(template, "/"),
		stages:   stages,
	})
}

func (r *Router) Get(template string, stages ...Stage) {
	r.Handle(http.MethodGet, template, stages...)
}

func (r *Router) Post(template string, stages ...Stage) {
	r.Handle(http.MethodPost, template, stages...)
}

func (r *Router) Put(template string, stages ...Stage) {
	r.Handle(http.MethodPut, template, stages...)
}

func (r *Router) Delete(template string, stages ...Stage) {
	r.Handle(http.MethodDelete, template, stages...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt, pathParams, ok := r.match(req.Method, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	c := newContext(w, req, mergeParams(req, pathParams))
	chain := make([]Stage, 0, len(r.prefix)+len(rt.stages))
	chain = append(chain, r.prefix...)
	chain = append(chain, rt.stages...)

	defer c.finish()
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		r.unhandled(c, fmt.Errorf("%w: %v", ErrPanic, rec))
		writeFallback(c)
	}()

	if err := run(c, chain); err != nil {
		r.unhandled(c, err)
	}
	writeFallback(c)
}

// ErrPanic wraps the value recovered from a panicking stage.
var ErrPanic = errors.New("handler panicked")

func (r *Router) unhandled(c *Context, err error) {
	if r.OnUnhandled != nil {
		r.OnUnhandled(c, err)
	}
}

func (r *Router) match(method, path string) (route, map[string]string, bool) {
	parts := strings.Split(path, "/")
	for _, rt := range r.routes {
		if rt.method != method {
			continue
		}
		if params, ok := matchSegments(rt.segments, parts); ok {
			return rt, params, true
		}
	}
	return route{}, nil, false
}

// MatchTemplate reports whether path fits template and returns the bound
// parameters.
func MatchTemplate(template, path string) (map[string]string, bool) {
	return matchSegments(strings.Split(template, "/"), strings.Split(path, "/"))
}

func matchSegments(template, path []string) (map[string]string, bool) {
	if len(template) != len(path) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range template {
		if name, isParam := strings.CutPrefix(seg, ":"); isParam {
			if path[i] == "" {
				return nil, false
			}
			params[name] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func mergeParams(req *http.Request, pathParams map[string]string) Params {
	query := req.URL.Query()
	merged := make(Params, len(query)+len(pathParams))
	for key, values := range query {
		if len(values) > 0 {
			merged[key] = values[0]
		}
	}
	for key, value := range pathParams {
		merged[key] = value
	}
	return merged
}
