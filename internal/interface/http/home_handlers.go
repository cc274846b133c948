package http

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

var homePage = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order service</title></head>
<body>
<h1>Order service</h1>
<p>Create an order:</p>
<pre>curl -X POST {{.Base}}/api/orders -H "Content-Type: application/json" -d '{"customerName":"张三","amount":99.99}'</pre>
<p>Get an order:</p>
<pre>curl {{.Base}}/api/orders/1</pre>
<p>List orders, optionally by customer:</p>
<pre>curl "{{.Base}}/api/orders?customerName=张三"</pre>
<p>Update an order:</p>
<pre>curl -X PUT {{.Base}}/api/orders/1 -H "Content-Type: application/json" -d '{"customerName":"李四","amount":199.99}'</pre>
<p>Cancel an order:</p>
<pre>curl -X POST {{.Base}}/api/orders/1/cancel</pre>
<p>Delete an order:</p>
<pre>curl -X DELETE {{.Base}}/api/orders/1</pre>
</body>
</html>
`))

func (a *API) handleHome(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := homePage.Execute(w, struct{ Base string }{Base: scheme + "://" + r.Host}); err != nil {
		a.log.Error("render home page", zap.Error(err))
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			a.log.Error("store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
