package httpapi

import (
	"context"
	"net/http"

	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

// IdentityExtractor resolves the caller's identity from an already-validated
// request. JWT decoding itself is out of scope (spec §1) — it happens
// upstream of this package; this interface only reads whatever claim the
// decoding layer attached.
type IdentityExtractor interface {
	Extract(r *http.Request) (permission.Identity, error)
}

// HeaderIdentityExtractor reads the username from a request header, the
// simplest contract an upstream auth proxy can satisfy.
type HeaderIdentityExtractor struct {
	HeaderName string
}

func NewHeaderIdentityExtractor() HeaderIdentityExtractor {
	return HeaderIdentityExtractor{HeaderName: "X-Catalog-User"}
}

func (h HeaderIdentityExtractor) Extract(r *http.Request) (permission.Identity, error) {
	user := r.Header.Get(h.HeaderName)
	if user == "" {
		return permission.Identity{}, errMissingIdentity
	}
	return permission.Identity{Username: user}, nil
}

var errMissingIdentity = types.Wrap(types.ErrUnauthorized, "missing caller identity")

type identityCtxKey struct{}

func withIdentity(ctx context.Context, id permission.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

func identityFromContext(ctx context.Context) (permission.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(permission.Identity)
	return id, ok
}

// requireIdentity wraps a handler so it only runs once an identity has been
// extracted and attached to the request context.
func (s *Server) requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.Identity.Extract(r)
		if err != nil {
			writeError(w, err)
			return
		}
		r = r.WithContext(withIdentity(r.Context(), id))
		next(w, r)
	}
}
