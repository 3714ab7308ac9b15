package service

import (
	"context"
	"net/http"
)

type contactStoreKey struct{}

// ContactsProvider shares one ContactStore with every request of a console session
type ContactsProvider struct {
	store *ContactStore
}

// NewContactsProvider wraps store. The store is built by the caller.
func NewContactsProvider(store *ContactStore) *ContactsProvider {
	return &ContactsProvider{store: store}
}

// Store returns the provided store
func (p *ContactsProvider) Store() *ContactStore {
	return p.store
}

// Middleware installs the store into each request context. It has the
// mux.MiddlewareFunc signature.
func (p *ContactsProvider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContactStore(r.Context(), p.store)))
	})
}

// WithContactStore returns a copy of ctx carrying store
func WithContactStore(ctx context.Context, store *ContactStore) context.Context {
	return context.WithValue(ctx, contactStoreKey{}, store)
}

// ContactStoreFrom returns the store carried by ctx, if any
func ContactStoreFrom(ctx context.Context) (*ContactStore, bool) {
	store, ok := ctx.Value(contactStoreKey{}).(*ContactStore)
	return store, ok && store != nil
}

// MustContactStore returns the store carried by ctx and panics when there is
// none. Reaching it outside the provider is a wiring bug.
func MustContactStore(ctx context.Context) *ContactStore {
	store, ok := ContactStoreFrom(ctx)
	if !ok {
		panic("service: MustContactStore called outside ContactsProvider")
	}
	return store
}
