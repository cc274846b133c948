package http

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"example.com/ddd-order/internal/interface/http/router"
)

type orderRequest struct {
	CustomerName string          `json:"customerName" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

func (a *API) createOrder(c *router.Context) router.Result {
	var req orderRequest
	if err := a.decodeAndValidate(c.Request, &req); err != nil {
		return router.Fail(err)
	}

	o, err := a.orderSvc.CreateOrder(c.Request.Context(), req.CustomerName, req.Amount)
	if err != nil {
		return router.Fail(err)
	}
	c.JSON(http.StatusCreated, mapOrder(o))
	return router.Halt()
}

func (a *API) getOrder(c *router.Context) router.Result {
	o, err := a.orderSvc.GetOrder(c.Request.Context(), orderIDFrom(c))
	if err != nil {
		return router.Fail(err)
	}
	c.JSON(http.StatusOK, mapOrder(o))
	return router.Halt()
}

func (a *API) listOrders(c *router.Context) router.Result {
	ctx := c.Request.Context()

	name, _ := c.Params.Get("customerName")
	if name == "" {
		orders, err := a.orderSvc.GetAllOrders(ctx)
		if err != nil {
			return router.Fail(err)
		}
		c.JSON(http.StatusOK, map[string]any{"data": mapOrders(orders)})
		return router.Halt()
	}

	orders, err := a.orderSvc.FindOrdersByCustomer(ctx, name)
	if err != nil {
		return router.Fail(err)
	}
	c.JSON(http.StatusOK, map[string]any{"data": mapOrders(orders)})
	return router.Halt()
}

func (a *API) updateOrder(c *router.Context) router.Result {
	var req orderRequest
	if err := a.decodeAndValidate(c.Request, &req); err != nil {
		return router.Fail(err)
	}

	o, err := a.orderSvc.UpdateOrder(c.Request.Context(), orderIDFrom(c), req.CustomerName, req.Amount)
	if err != nil {
		return router.Fail(err)
	}
	c.JSON(http.StatusOK, mapOrder(o))
	return router.Halt()
}

func (a *API) deleteOrder(c *router.Context) router.Result {
	if err := a.orderSvc.DeleteOrder(c.Request.Context(), orderIDFrom(c)); err != nil {
		return router.Fail(err)
	}
	c.NoContent()
	return router.Halt()
}

func (a *API) cancelOrder(c *router.Context) router.Result {
	o, canceled, err := a.orderSvc.CancelOrder(c.Request.Context(), orderIDFrom(c))
	if err != nil {
		return router.Fail(err)
	}
	body := mapOrder(o)
	body["canceled"] = canceled
	c.JSON(http.StatusOK, body)
	return router.Halt()
}

// failWith answers every failure on a route with the same status.
func (a *API) failWith(status int) router.ErrorHandler {
	return func(c *router.Context, err error) router.Result {
		a.logFailure(c, status, err)
		respondError(c.Writer(), status, err)
		return router.Halt()
	}
}

func (a *API) failByError(c *router.Context, err error) router.Result {
	status := statusForError(err)
	a.logFailure(c, status, err)
	respondError(c.Writer(), status, err)
	return router.Halt()
}

func (a *API) logFailure(c *router.Context, status int, err error) {
	log := a.log.Warn
	if status >= http.StatusInternalServerError {
		log = a.log.Error
	}
	log("order request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
}
