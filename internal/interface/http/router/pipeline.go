package router

import (
	"errors"
	"net/http"
)

type action int

const (
	actionNext action = iota
	actionHalt
	actionFail
)

// Result tells the runner what to do after a stage returns.
type Result struct {
	action action
	err    error
}

// Next continues with the following handler stage.
func Next() Result {
	return Result{action: actionNext}
}

// Halt stops the chain. Used once a response has been written.
func Halt() Result {
	return Result{action: actionHalt}
}

// Fail skips ahead to the next error-handler stage with err.
func Fail(err error) Result {
	if err == nil {
		err = errUnspecified
	}
	return Result{action: actionFail, err: err}
}

var errUnspecified = errors.New("handler failed without an error")

type (
	Handler      func(c *Context) Result
	ErrorHandler func(c *Context, err error) Result
)

// Stage is one element of a route's chain: either a handler or an error
// handler, never both.
type Stage struct {
	handle Handler
	rescue ErrorHandler
}

func Step(h Handler) Stage {
	return Stage{handle: h}
}

func Rescue(h ErrorHandler) Stage {
	return Stage{rescue: h}
}

// run executes stages in order. In normal flow error handlers are skipped;
// after a failure only error handlers run. The returned error is the one
// left unhandled when the chain ran out.
func run(c *Context, stages []Stage) error {
	var pending error
	for _, s := range stages {
		var res Result
		switch {
		case pending == nil && s.handle != nil:
			res = s.handle(c)
		case pending != nil && s.rescue != nil:
			err := pending
			pending = nil
			res = s.rescue(c, err)
		default:
			continue
		}

		switch res.action {
		case actionHalt:
			return nil
		case actionFail:
			pending = res.err
		}
	}
	return pending
}

func writeFallback(c *Context) {
	if c.Written() {
		return
	}
	c.Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
