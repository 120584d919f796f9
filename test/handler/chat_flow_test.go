package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/creditchek/devbot/internal/config"
	"github.com/creditchek/devbot/internal/handler"
	"github.com/creditchek/devbot/internal/model"
	"github.com/creditchek/devbot/internal/repo"
	"github.com/creditchek/devbot/internal/service"
	"github.com/creditchek/devbot/test/testutil"
)

type echoIndex struct{}

func (echoIndex) Query(ctx context.Context, input string, history []model.HistoryPair) (string, error) {
	return "echo: " + input, nil
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(db)
	chatRepo := repo.NewChatRepo(db)

	jwtSecret := []byte("test-secret")
	authService := service.NewAuthService(userRepo, jwtSecret, time.Hour)
	include := false
	chatService := service.NewChatService(chatRepo, echoIndex{}, config.ChatConfig{
		MaxHistory:          5,
		IncludeSystemPrompt: &include,
	})

	engine := gin.New()
	handler.RegisterRoutes(engine.Group("/api/v1"), handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Chat:      handler.NewChatHandler(chatService),
		JWTSecret: jwtSecret,
	})
	return engine, cleanup
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signupAndLogin(t *testing.T, router http.Handler) string {
	t.Helper()
	email := uuid.NewString() + "@example.com"
	rec := doJSON(t, router, "POST", "/api/v1/auth/signup", "", gin.H{
		"first_name": "Test",
		"last_name":  "User",
		"email":      email,
		"password":   "pass1234",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "pass1234",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.Data.TokenType)
	require.NotEmpty(t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func TestAuthFlow_SignupLoginMe(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	token := signupAndLogin(t, router)
	rec := doJSON(t, router, "GET", "/api/v1/auth/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			User struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Data.User.Email, "@example.com")
}

func TestAuthFlow_DuplicateSignupConflict(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	email := uuid.NewString() + "@example.com"
	body := gin.H{"first_name": "A", "last_name": "B", "email": email, "password": "pass1234"}
	rec := doJSON(t, router, "POST", "/api/v1/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, "POST", "/api/v1/auth/signup", "", body)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	email := uuid.NewString() + "@example.com"
	rec := doJSON(t, router, "POST", "/api/v1/auth/signup", "", gin.H{
		"first_name": "A", "last_name": "B", "email": email, "password": "pass1234",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{"email": email, "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatFlow_PostAndHistory(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()
	token := signupAndLogin(t, router)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, "POST", "/api/v1/chatbot", token, gin.H{"user_input": fmt.Sprintf("question %d", i)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		time.Sleep(5 * time.Millisecond) // distinct timestamps for ordering
	}

	rec := doJSON(t, router, "GET", "/api/v1/chatbot/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Items []struct {
				UserInput string `json:"user_input"`
				Response  string `json:"response"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 2)
	require.Equal(t, "question 0", resp.Data.Items[0].UserInput)
	require.Equal(t, "echo: question 0", resp.Data.Items[0].Response)
}

func TestChatFlow_EmptyInputRejected(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()
	token := signupAndLogin(t, router)

	rec := doJSON(t, router, "POST", "/api/v1/chatbot", token, gin.H{"user_input": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatFlow_RequiresAuth(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doJSON(t, router, "POST", "/api/v1/chatbot", "", gin.H{"user_input": "hi"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, router, "GET", "/api/v1/chatbot/history", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
