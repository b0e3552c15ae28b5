package app

import (
	"context"
	"fmt"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// isPath is the RegExp to ensure valid instruction paths
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_]+/[a-zA-Z0-9_]+$`).MatchString

// Router allows us to register many handlers with different paths and
// dispatch every transaction to the handler of its message path.
type Router struct {
	routes map[string]custody.Handler
}

var _ custody.Registry = (*Router)(nil)
var _ custody.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]custody.Handler),
	}
}

// Handle adds a new Handler for the given path. This function panics if a
// handler for given path is already registered or the path is malformed.
func (r *Router) Handle(path string, h custody.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// Paths returns all registered paths.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	return paths
}

// handler returns the registered Handler for this path. If no path is
// found, returns a noSuchPath Handler. Always returns a non-nil Handler.
func (r *Router) handler(path string) custody.Handler {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return r.handler(custody.GetPath(tx)).Check(ctx, info, db, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	return r.handler(custody.GetPath(tx)).Deliver(ctx, info, db, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the
// arguments.
type notFoundHandler string

func (path notFoundHandler) Check(context.Context, custody.BlockInfo, custody.KVStore, custody.Tx) (*custody.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for %s", string(path))
}

func (path notFoundHandler) Deliver(context.Context, custody.BlockInfo, custody.KVStore, custody.Tx) (*custody.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for %s", string(path))
}
