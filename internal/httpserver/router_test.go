package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"userapi/internal/handler"
	"userapi/internal/httpserver"
	"userapi/internal/model"
	"userapi/internal/repository"
	"userapi/internal/service/auth"
	"userapi/internal/service/user"
	"userapi/internal/util"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeStore struct {
	mu     sync.Mutex
	users  map[int]model.User
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int]model.User), nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrEmailTaken
		}
	}
	u.ID = f.nextID
	f.nextID++
	u.IsActive = true
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range f.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrEmailTaken
		}
	}
	u.UpdatedAt = time.Now().Add(time.Millisecond)
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.users, id)
	return &u, nil
}

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (f *fakeDenylist) Revoke(_ context.Context, jti string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

type fakePublisher struct{}

func (fakePublisher) Publish(string, any) error { return nil }

type fakePinger struct{}

func (fakePinger) Ping(context.Context) error { return nil }

func newTestRouter() *httpserver.Router {
	store := newFakeStore()
	tokens := util.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	authService := auth.NewService(store, tokens, &fakeDenylist{revoked: make(map[string]bool)}, fakePublisher{}, zap.NewNop())
	userService := user.NewService(store, fakePublisher{}, zap.NewNop())

	return httpserver.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		authService,
		fakePinger{},
	)
}

func doJSON(r *httpserver.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.Engine.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

// registerUser registers an account and returns the access token.
func registerUser(t *testing.T, r *httpserver.Router, email string) string {
	t.Helper()
	resp := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Admin",
		"email":    email,
		"password": "senha123",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	data := decode(t, resp)["data"].(map[string]any)
	return data["access_token"].(string)
}

func TestRegister_NeverLeaksPassword(t *testing.T) {
	r := newTestRouter()

	resp := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Maria Santos",
		"email":    "maria.santos@email.com",
		"password": "senha123",
		"age":      25,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotContains(t, resp.Body.String(), "password")
	require.NotContains(t, resp.Body.String(), "senha123")

	out := decode(t, resp)
	require.Equal(t, true, out["success"])

	data := out["data"].(map[string]any)
	require.NotEmpty(t, data["access_token"])
	require.NotEmpty(t, data["refresh_token"])

	u := data["user"].(map[string]any)
	require.Equal(t, "maria.santos@email.com", u["email"])
}

func TestRegister_DuplicateEmailIs409(t *testing.T) {
	r := newTestRouter()
	registerUser(t, r, "maria@email.com")

	resp := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Maria",
		"email":    "maria@email.com",
		"password": "outra",
	})
	require.Equal(t, http.StatusConflict, resp.Code)

	out := decode(t, resp)
	require.Equal(t, false, out["success"])
	require.Equal(t, "Email ja cadastrado", out["error"])
}

func TestLogin_WrongPasswordIs401(t *testing.T) {
	r := newTestRouter()
	registerUser(t, r, "maria@email.com")

	resp := doJSON(r, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "maria@email.com",
		"password": "errada",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Equal(t, "Email ou senha invalidos", decode(t, resp)["error"])
}

func TestUsers_RequireToken(t *testing.T) {
	r := newTestRouter()

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/1"},
		{http.MethodPost, "/users"},
		{http.MethodPut, "/users/1"},
		{http.MethodDelete, "/users/1"},
	} {
		resp := doJSON(r, req.method, req.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.Code, "%s %s", req.method, req.path)
		require.Equal(t, false, decode(t, resp)["success"])
	}
}

func TestCreateUser_TimestampsMatch(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	resp := doJSON(r, http.MethodPost, "/users", token, map[string]any{
		"name":  "Maria Santos",
		"email": "maria.santos@email.com",
		"age":   25,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	out := decode(t, resp)
	require.Equal(t, true, out["success"])
	require.Equal(t, "Usuario criado com sucesso", out["message"])

	data := out["data"].(map[string]any)
	require.NotZero(t, data["id"])
	require.Equal(t, data["created_at"], data["updated_at"])
	require.Equal(t, float64(25), data["age"])
}

func TestGetUser_UnknownIdIs404(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	resp := doJSON(r, http.MethodGet, "/users/9999", token, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	out := decode(t, resp)
	require.Equal(t, false, out["success"])
	require.Equal(t, "Usuario nao encontrado", out["error"])
}

func TestCreateUser_AgeOutOfRangeIs400(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	for _, age := range []int{-1, 151} {
		resp := doJSON(r, http.MethodPost, "/users", token, map[string]any{
			"name":  "Maria",
			"email": "maria@email.com",
			"age":   age,
		})
		require.Equal(t, http.StatusBadRequest, resp.Code)
		require.Equal(t, "Idade deve estar entre 0 e 150 anos", decode(t, resp)["error"])
	}
}

func TestUpdateUser_AgeOutOfRangeIs400(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	resp := doJSON(r, http.MethodPost, "/users", token, map[string]any{
		"name":  "Maria",
		"email": "maria@email.com",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	id := int(decode(t, resp)["data"].(map[string]any)["id"].(float64))

	resp = doJSON(r, http.MethodPut, "/users/"+itoa(id), token, map[string]any{"age": 151})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "Idade deve estar entre 0 e 150 anos", decode(t, resp)["error"])
}

func TestUpdateUser_EmptyBody(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	resp := doJSON(r, http.MethodPost, "/users", token, map[string]any{
		"name":  "Maria",
		"email": "maria@email.com",
		"age":   25,
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	created := decode(t, resp)["data"].(map[string]any)
	id := int(created["id"].(float64))

	resp = doJSON(r, http.MethodPut, "/users/"+itoa(id), token, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)

	updated := decode(t, resp)["data"].(map[string]any)
	require.Equal(t, created["name"], updated["name"])
	require.Equal(t, created["email"], updated["email"])
	require.Equal(t, created["age"], updated["age"])
	require.NotEqual(t, created["updated_at"], updated["updated_at"])
}

func TestDeleteUser_TwiceIs404(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	resp := doJSON(r, http.MethodPost, "/users", token, map[string]any{
		"name":  "Maria",
		"email": "maria@email.com",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	id := int(decode(t, resp)["data"].(map[string]any)["id"].(float64))

	resp = doJSON(r, http.MethodDelete, "/users/"+itoa(id), token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	out := decode(t, resp)
	require.Equal(t, "Usuario removido com sucesso", out["message"])
	require.Equal(t, "maria@email.com", out["data"].(map[string]any)["email"])

	resp = doJSON(r, http.MethodDelete, "/users/"+itoa(id), token, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, "Usuario nao encontrado", decode(t, resp)["error"])
}

func TestListUsers_Count(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	resp := doJSON(r, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	out := decode(t, resp)
	// the registered account itself is the only row
	require.Equal(t, float64(1), out["count"])
	require.Len(t, out["data"].([]any), 1)
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "admin@email.com")

	resp := doJSON(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	data := decode(t, resp)["data"].(map[string]any)
	require.Equal(t, "admin@email.com", data["email"])
}

func TestRefresh_FlowAndKindChecks(t *testing.T) {
	r := newTestRouter()

	resp := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Maria",
		"email":    "maria@email.com",
		"password": "senha123",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	data := decode(t, resp)["data"].(map[string]any)
	access := data["access_token"].(string)
	refresh := data["refresh_token"].(string)

	// an access token is not a refresh token
	resp = doJSON(r, http.MethodPost, "/api/v1/auth/refresh", access, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	// the real refresh token mints a working access token
	resp = doJSON(r, http.MethodPost, "/api/v1/auth/refresh", refresh, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	newAccess := decode(t, resp)["data"].(map[string]any)["access_token"].(string)

	resp = doJSON(r, http.MethodGet, "/api/v1/auth/me", newAccess, nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	r := newTestRouter()
	token := registerUser(t, r, "maria@email.com")

	resp := doJSON(r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "Logout realizado com sucesso", decode(t, resp)["message"])

	// the revoked token no longer opens protected endpoints
	resp = doJSON(r, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	r := newTestRouter()

	resp := doJSON(r, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, "Endpoint nao encontrado", decode(t, resp)["error"])
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
