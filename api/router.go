package api

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"sync"

	"github.com/semihalev/zlog/v2"
)

// Router dispatches API requests by method and path.
type Router struct {
	mux *http.ServeMux

	ctxPool sync.Pool
}

var extraHeaders = map[string]string{
	"Server":        "ingressdns",
	"Cache-Control": "no-cache, no-store, no-transform, must-revalidate, private, max-age=0",
	"Pragma":        "no-cache",
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	r := &Router{mux: http.NewServeMux()}

	r.ctxPool.New = func() any {
		return &Context{}
	}

	return r
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			zlog.Error("Recovered in API", "recover", rec)

			_, _ = fmt.Fprintf(os.Stderr, "panic: %v\n\n%s", rec, debug.Stack())
		}
	}()

	for k, v := range extraHeaders {
		w.Header().Set(k, v)
	}

	rt.mux.ServeHTTP(w, r)
}

// Handle adds a route for method and path.
func (rt *Router) Handle(method, path string, handle Handler) {
	rt.mux.HandleFunc(method+" "+path, func(w http.ResponseWriter, r *http.Request) {
		ctx := rt.ctxPool.Get().(*Context)
		ctx.Request, ctx.Writer = r, w

		handle(ctx)

		ctx.Request, ctx.Writer = nil, nil
		rt.ctxPool.Put(ctx)
	})
}

// GET adds a GET route, HEAD is served too.
func (rt *Router) GET(path string, handle Handler) {
	rt.Handle(http.MethodGet, path, handle)
}

// Group returns a route group under prefix.
func (rt *Router) Group(prefix string) *Group {
	return &Group{parent: rt, path: prefix}
}
