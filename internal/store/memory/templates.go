package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hdc-platform/metadata-catalog/internal/store"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

func (s *Store) CreateTemplate(ctx context.Context, t *types.AttributeTemplate) (*types.AttributeTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.templates {
		if existing.ProjectCode == t.ProjectCode && existing.Name == t.Name {
			return nil, fmt.Errorf("%w: template %q already exists for project %q", store.ErrDuplicate, t.Name, t.ProjectCode)
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	s.templates[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID) (*types.AttributeTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: template %s", store.ErrNotFound, id)
	}
	out := *t
	return &out, nil
}

func (s *Store) ListTemplates(ctx context.Context, projectCode string) ([]types.AttributeTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.AttributeTemplate
	for _, t := range s.templates {
		if t.ProjectCode == projectCode {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t *types.AttributeTemplate) (*types.AttributeTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.ID]; !ok {
		return nil, fmt.Errorf("%w: template %s", store.ErrNotFound, t.ID)
	}
	cp := *t
	s.templates[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("%w: template %s", store.ErrNotFound, id)
	}
	delete(s.templates, id)
	return nil
}
