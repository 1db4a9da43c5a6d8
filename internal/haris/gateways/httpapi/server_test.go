package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alharis/haris/internal/haris/domain"
	"github.com/alharis/haris/internal/haris/services/parental"
)

type stubService struct {
	ready      bool
	lastNames  []string
	lastTarget string
	lastChild  childRequest
	err        error
}

func (s *stubService) ListCategories() domain.CategoryList {
	return domain.CategoryList{Mandatory: []string{"adult"}, Optional: []string{"gaming", "social"}}
}

func (s *stubService) RefreshStatus() domain.RefreshStatus {
	return domain.RefreshStatus{Version: 3, Ready: s.ready, Categories: map[string]domain.CategoryStatus{
		"adult": {Name: "adult", Status: domain.IngestSuccess, Size: 10},
	}}
}

func (s *stubService) Ready() bool { return s.ready }

func (s *stubService) CreateAccount(_ context.Context, name string) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return 7, nil
}

func (s *stubService) Settings(_ context.Context, id uint64) (parental.Settings, error) {
	if s.err != nil {
		return parental.Settings{}, s.err
	}
	return parental.Settings{AccountID: id, Enabled: []string{"gaming"}}, nil
}

func (s *stubService) UpdateCategories(_ context.Context, _ uint64, names []string) ([]string, error) {
	s.lastNames = names
	if s.err != nil {
		return nil, s.err
	}
	return names, nil
}

func (s *stubService) BlockURL(_ context.Context, _ uint64, target string) (domain.Override, error) {
	s.lastTarget = target
	if s.err != nil {
		return domain.Override{}, s.err
	}
	return domain.BlockOverride("example.com"), nil
}

func (s *stubService) AllowURL(_ context.Context, _ uint64, target string) (domain.Override, error) {
	s.lastTarget = target
	if s.err != nil {
		return domain.Override{}, s.err
	}
	return domain.AllowOverride("example.com"), nil
}

func (s *stubService) Check(_ context.Context, _ uint64, raw string) (domain.BlockDecision, error) {
	if s.err != nil {
		return domain.BlockDecision{}, s.err
	}
	return domain.BlockDecision{Domain: raw, Blocked: true, Reason: domain.ReasonMandatoryCategory, Category: "adult"}, nil
}

func (s *stubService) CreateChild(_ context.Context, _ uint64, name, device string) (uint64, error) {
	s.lastChild = childRequest{Name: name, DeviceName: device}
	if s.err != nil {
		return 0, s.err
	}
	return 42, nil
}

func (s *stubService) ListChildren(_ context.Context, parentID uint64) ([]domain.ChildProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.ChildProfile{{ID: 42, ParentID: parentID, Name: "kid"}}, nil
}

func (s *stubService) ChildFeed(_ context.Context, childID uint64) (domain.ChildFeed, error) {
	if s.err != nil {
		return domain.ChildFeed{}, s.err
	}
	return domain.ChildFeed{ChildID: childID, SnapshotVersion: 3, Categories: []string{"adult"}}, nil
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func newTestServer(svc Service, refr Refresher) http.Handler {
	return New(Config{Addr: "127.0.0.1:0", Service: svc, Refresher: refr}).Handler()
}

func TestHealthAndReadiness(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc, nil)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, PathHealthz, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, PathReadyz, "").Code)

	svc.ready = true
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, PathReadyz, "").Code)
}

func TestCategoriesAndStatus(t *testing.T) {
	h := newTestServer(&stubService{ready: true}, nil)

	w := do(t, h, http.MethodGet, PathCategories, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var list domain.CategoryList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"adult"}, list.Mandatory)

	w = do(t, h, http.MethodGet, PathStatus, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st domain.RefreshStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, uint64(3), st.Version)
	assert.Equal(t, domain.IngestSuccess, st.Categories["adult"].Status)
}

func TestUpdateCategories(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc, nil)

	w := do(t, h, http.MethodPut, "/v1/accounts/7/categories", `{"categories":["gaming"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"gaming"}, svc.lastNames)
	assert.JSONEq(t, `{"enabled_categories":["gaming"]}`, w.Body.String())
}

func TestUpdateCategoriesInvalid(t *testing.T) {
	svc := &stubService{err: domain.NewInvalidCategoryRequestError([]string{"casino"}, []string{"adult"})}
	h := newTestServer(svc, nil)

	w := do(t, h, http.MethodPut, "/v1/accounts/7/categories", `{"categories":["casino","adult"]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"casino"}, resp.Unknown)
	assert.Equal(t, []string{"adult"}, resp.Mandatory)
}

func TestBadRequests(t *testing.T) {
	h := newTestServer(&stubService{}, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"non numeric id", http.MethodGet, "/v1/accounts/abc/settings", ""},
		{"zero id", http.MethodGet, "/v1/accounts/0/settings", ""},
		{"bad json", http.MethodPut, "/v1/accounts/1/categories", `{"categories":`},
		{"unknown field", http.MethodPost, "/v1/accounts/1/block-url", `{"host":"x.com"}`},
		{"missing domain", http.MethodGet, "/v1/accounts/1/check", ""},
		{"missing child name", http.MethodPost, "/v1/accounts/1/children", `{"device_name":"tablet"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestOverrides(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc, nil)

	w := do(t, h, http.MethodPost, "/v1/accounts/1/block-url", `{"url":"https://example.com/x"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "https://example.com/x", svc.lastTarget)
	assert.JSONEq(t, `{"target":"example.com","verdict":"block"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/v1/accounts/1/allow-url", `{"url":"example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"target":"example.com","verdict":"allow"}`, w.Body.String())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"malformed", domain.ErrMalformedDomain, http.StatusUnprocessableEntity},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("account 9"), domain.ErrNotFound), http.StatusNotFound},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&stubService{err: tt.err}, nil)
			w := do(t, h, http.MethodPost, "/v1/accounts/1/block-url", `{"url":"x"}`)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestCheck(t *testing.T) {
	h := newTestServer(&stubService{}, nil)

	w := do(t, h, http.MethodGet, "/v1/accounts/1/check?domain=porn.example", "")
	require.Equal(t, http.StatusOK, w.Code)
	var d domain.BlockDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.True(t, d.Blocked)
	assert.Equal(t, "adult", d.Category)
}

func TestCreateAccount(t *testing.T) {
	h := newTestServer(&stubService{}, nil)

	w := do(t, h, http.MethodPost, PathAccounts, `{"name":"family"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, PathAccounts, `{}`).Code)
}

func TestChildren(t *testing.T) {
	svc := &stubService{}
	h := newTestServer(svc, nil)

	w := do(t, h, http.MethodPost, "/v1/accounts/1/children", `{"name":"kid","device_name":"tablet"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())
	assert.Equal(t, "tablet", svc.lastChild.DeviceName)

	w = do(t, h, http.MethodGet, "/v1/accounts/1/children", "")
	require.Equal(t, http.StatusOK, w.Code)
	var kids []domain.ChildProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &kids))
	require.Len(t, kids, 1)
	assert.Equal(t, uint64(1), kids[0].ParentID)

	w = do(t, h, http.MethodGet, "/v1/children/42/blocklist", "")
	require.Equal(t, http.StatusOK, w.Code)
	var feed domain.ChildFeed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, uint64(42), feed.ChildID)
}

func TestRefresh(t *testing.T) {
	h := newTestServer(&stubService{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, PathRefresh, "").Code)

	calls := 0
	h = newTestServer(&stubService{}, RefreshFunc(func(context.Context) (uint64, error) {
		calls++
		return 9, nil
	}))
	w := do(t, h, http.MethodPost, PathRefresh, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":9}`, w.Body.String())
	assert.Equal(t, 1, calls)
}

func TestRefreshAbandoned(t *testing.T) {
	h := newTestServer(&stubService{}, RefreshFunc(func(context.Context) (uint64, error) {
		return 0, fmt.Errorf("refresh: abandoned: %w", context.Canceled)
	}))
	w := do(t, h, http.MethodPost, PathRefresh, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(&stubService{}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, PathCategories, "").Code)
}

func TestStartShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", Service: &stubService{}})
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
