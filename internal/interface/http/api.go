package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domorder "example.com/ddd-order/internal/domain/order"
	"example.com/ddd-order/internal/interface/http/router"
	orderuc "example.com/ddd-order/internal/usecase/order"
)

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	orderSvc  *orderuc.Service
	validator *validator.Validate
	log       *zap.Logger
	store     Pinger
}

type Dependencies struct {
	OrderService *orderuc.Service
	Logger       *zap.Logger
	// Store is optional. When nil /health always reports ok.
	Store Pinger
}

func NewAPI(deps Dependencies) *API {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		orderSvc:  deps.OrderService,
		validator: validator.New(),
		log:       log.Named("http"),
		store:     deps.Store,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/", a.handleHome)
	r.Get("/health", a.handleHealth)
	r.Handle("/api/*", a.OrderRouter())

	return r
}

// OrderRouter builds the route table for the order resource.
func (a *API) OrderRouter() *router.Router {
	rt := router.New()
	rt.Use(router.Step(a.logRequest), router.Step(limitBody))
	rt.OnUnhandled = a.logUnhandled

	rt.Post("/api/orders",
		router.Step(a.createOrder),
		router.Rescue(a.failWith(http.StatusBadRequest)),
	)
	rt.Get("/api/orders",
		router.Step(a.listOrders),
		router.Rescue(a.failByError),
	)
	rt.Get("/api/orders/:id",
		router.Step(requireOrderID),
		router.Step(a.getOrder),
		router.Rescue(a.failWith(http.StatusNotFound)),
	)
	rt.Put("/api/orders/:id",
		router.Step(requireOrderID),
		router.Step(a.updateOrder),
		router.Rescue(a.failWith(http.StatusBadRequest)),
	)
	rt.Delete("/api/orders/:id",
		router.Step(requireOrderID),
		router.Step(a.deleteOrder),
		router.Rescue(a.failWith(http.StatusNotFound)),
	)
	rt.Post("/api/orders/:id/cancel",
		router.Step(requireOrderID),
		router.Step(a.cancelOrder),
		router.Rescue(a.failWith(http.StatusNotFound)),
	)

	return rt
}

var errInvalidBody = errors.New("invalid request body")

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidBody)
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return a.validator.Struct(dst)
}

// writeJSON encodes before sending the status line. An unencodable payload
// becomes a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func mapOrder(o *domorder.Order) map[string]any {
	return map[string]any{
		"id":           o.ID(),
		"customerName": o.CustomerName(),
		"amount":       o.Amount().InexactFloat64(),
		"status":       int(o.Status()),
	}
}

func mapOrders(orders []*domorder.Order) []map[string]any {
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, mapOrder(o))
	}
	return out
}

// statusForError maps an error chain to the status used by routes that do
// not pin a single failure status.
func statusForError(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domorder.ErrOrderNotFound),
		errors.Is(err, errMissingOrderID),
		errors.Is(err, errInvalidOrderID):
		return http.StatusNotFound
	case errors.Is(err, domorder.ErrInvalidOrder),
		errors.Is(err, domorder.ErrInvalidAmount),
		errors.Is(err, domorder.ErrInvalidCustomerName),
		errors.Is(err, errInvalidBody),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
