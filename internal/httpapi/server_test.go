package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hdc-platform/metadata-catalog/internal/permission"
	"github.com/hdc-platform/metadata-catalog/internal/store/memory"
	"github.com/hdc-platform/metadata-catalog/internal/types"
)

type allowAllAuthority struct{}

func (allowAllAuthority) HasPermission(ctx context.Context, containerCode, capability string, zone types.Zone, action string, identity permission.Identity) (bool, error) {
	return true, nil
}

func newTestServer() *Server {
	st := memory.New(memory.DefaultLimits())
	return &Server{
		Store:     st,
		Authority: allowAllAuthority{},
		Identity:  NewHeaderIdentityExtractor(),
	}
}

func doRequest(s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		data, _ := json.Marshal(body)
		req = httptest.NewRequest(method, target, bytes.NewReader(data))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-Catalog-User", "alice")
	w := httptest.NewRecorder()
	s.mux().ServeHTTP(w, req)
	return w
}

func TestCreateThenGetItem_NameFolder(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodPost, "/v1/item/", map[string]interface{}{
		"name": "alice", "type": "name_folder", "container_code": "proj1",
		"container_type": "project", "zone": 0, "owner": "alice",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	result := env.Result.(map[string]interface{})
	id := result["id"].(string)

	w2 := doRequest(s, http.MethodGet, "/v1/item/"+id+"/", nil)
	if w2.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestCreateFile_RejectsActiveStatus(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodPost, "/v1/item/", map[string]interface{}{
		"name": "a.txt", "type": "file", "container_code": "proj1", "container_type": "project",
		"zone": 0, "owner": "alice", "status": "ACTIVE", "parent_path": "alice",
		"parent": "11111111-1111-1111-1111-111111111111",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealth_ReportsNoContentWhenStoreReachable(t *testing.T) {
	s := newTestServer()
	w := doRequest(s, http.MethodGet, "/v1/health", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}
