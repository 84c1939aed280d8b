package httpapi

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
)

// StoreTemplateResolver adapts store.Store to eventbus.TemplateResolver.
// Templates are fetched from the store on first use and their names cached
// indefinitely; a later rename through the template update endpoint is not
// reflected in names already cached.
type StoreTemplateResolver struct {
	Store store.Store
	cache sync.Map // uuid.UUID -> string
}

func NewStoreTemplateResolver(st store.Store) *StoreTemplateResolver {
	return &StoreTemplateResolver{Store: st}
}

func (r *StoreTemplateResolver) ResolveTemplateName(id uuid.UUID) (string, bool) {
	if name, ok := r.cache.Load(id); ok {
		return name.(string), true
	}
	tpl, err := r.Store.GetTemplate(context.Background(), id)
	if err != nil {
		return "", false
	}
	r.cache.Store(id, tpl.Name)
	return tpl.Name, true
}
