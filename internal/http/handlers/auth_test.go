package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sehyun-dev/taxlink/internal/auth"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/http/handlers"
	"github.com/sehyun-dev/taxlink/internal/repo/memory"
	"github.com/sehyun-dev/taxlink/internal/security"
	"github.com/sehyun-dev/taxlink/internal/service"
)

type fakeVerifySvc struct {
	sendFn   func(ctx context.Context, phone string) (string, int, error)
	verifyFn func(ctx context.Context, phone, code string) error
}

func (f *fakeVerifySvc) VerifyBusinessNumber(n string) service.VerificationResult {
	return service.VerificationResult{Valid: len(n) == 10, Message: "checked"}
}

func (f *fakeVerifySvc) VerifyCorporateNumber(n string) service.VerificationResult {
	return service.VerificationResult{Valid: len(n) == 13, Message: "checked"}
}

func (f *fakeVerifySvc) SendVerificationCode(ctx context.Context, phone string) (string, int, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, phone)
	}
	return "123456", 180, nil
}

func (f *fakeVerifySvc) VerifyPhoneCode(ctx context.Context, phone, code string) error {
	if f.verifyFn != nil {
		return f.verifyFn(ctx, phone, code)
	}
	return nil
}

func newAuthFixture(t *testing.T, env string) (*handlers.AuthHandler, *memory.UsersRepo) {
	t.Helper()

	users := memory.NewUsersRepo()
	jwtManager := auth.NewManager("test-secret", time.Hour)
	cfg := config.Config{Env: env}

	return handlers.NewAuthHandler(users, users, &fakeVerifySvc{}, jwtManager, cfg), users
}

const registerBody = `{
	"username": "kimclient",
	"email": "kim@example.com",
	"password": "password123",
	"name": "김철수",
	"phoneNumber": "01012345678",
	"userType": "NON_BUSINESS"
}`

func TestRegisterHandler(t *testing.T) {
	h, users := newAuthFixture(t, "dev")
	r := setupRouter(http.MethodPost, "/api/auth/register", h.Register)

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody)

	wantStatus(t, w, http.StatusCreated)

	env := decodeEnvelope(t, w)

	if env.Code != handlers.CodeSuccess {
		t.Fatalf("code = %s", env.Code)
	}

	data := dataMap(t, env)

	if data["username"] != "kimclient" || data["role"] != user.RoleClient {
		t.Fatalf("data = %v", data)
	}

	if data["mandateStatus"] != "NONE" || data["paymentStatus"] != user.PaymentUnpaid {
		t.Fatalf("new user defaults = %v", data)
	}

	if _, ok := data["passwordHash"]; ok {
		t.Fatal("password hash leaked into the response")
	}

	stored, err := users.GetByUsernameOrEmail(context.Background(), "kimclient")

	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}

	if stored.PasswordHash == "password123" || stored.PasswordHash == "" {
		t.Fatal("password stored unhashed")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, _ := newAuthFixture(t, "dev")
	r := setupRouter(http.MethodPost, "/api/auth/register", h.Register)

	doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody)
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", registerBody)

	wantStatus(t, w, http.StatusConflict)
}

func TestRegisterBusinessNumberRequiredForIndividual(t *testing.T) {
	h, _ := newAuthFixture(t, "dev")
	r := setupRouter(http.MethodPost, "/api/auth/register", h.Register)

	body := `{
		"username": "bizowner",
		"email": "biz@example.com",
		"password": "password123",
		"name": "박사장",
		"userType": "INDIVIDUAL"
	}`

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", body)

	wantStatus(t, w, http.StatusBadRequest)
}

func TestLoginHandler(t *testing.T) {
	h, users := newAuthFixture(t, "dev")

	hash, _ := security.HashPassword("password123")
	_, err := users.Create(context.Background(), user.User{
		ID:           "c1",
		Username:     "kimclient",
		Email:        "kim@example.com",
		PasswordHash: hash,
		Name:         "김철수",
		Role:         user.RoleClient,
	})

	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	r := setupRouter(http.MethodPost, "/api/auth/login", h.Login)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"by username", `{"usernameOrEmail":"kimclient","password":"password123"}`, http.StatusOK},
		{"by email", `{"usernameOrEmail":"kim@example.com","password":"password123"}`, http.StatusOK},
		{"wrong password", `{"usernameOrEmail":"kimclient","password":"nope-nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"usernameOrEmail":"ghost","password":"password123"}`, http.StatusUnauthorized},
		{"legacy username field rejected", `{"username":"kimclient","password":"password123"}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/login", tc.body)

			wantStatus(t, w, tc.wantStatus)

			if tc.wantStatus != http.StatusOK {
				return
			}

			data := dataMap(t, decodeEnvelope(t, w))

			if data["accessToken"] == nil || data["accessToken"] == "" {
				t.Fatal("no access token in login payload")
			}

			u := data["user"].(map[string]interface{})

			if u["userId"] != "c1" {
				t.Fatalf("user = %v", u)
			}
		})
	}
}

func TestSendVerificationCodeEchoesOutsideProd(t *testing.T) {
	h, _ := newAuthFixture(t, "dev")
	r := setupRouter(http.MethodPost, "/api/auth/send-verification-code", h.SendVerificationCode)

	w := doJSON(t, r, http.MethodPost, "/api/auth/send-verification-code", `{"phoneNumber":"01012345678"}`)

	wantStatus(t, w, http.StatusOK)

	data := dataMap(t, decodeEnvelope(t, w))

	if data["code"] != "123456" {
		t.Fatalf("dev response should echo the code, got %v", data)
	}

	if data["expiresIn"].(float64) != 180 {
		t.Fatalf("expiresIn = %v", data["expiresIn"])
	}
}

func TestSendVerificationCodeHiddenInProd(t *testing.T) {
	h, _ := newAuthFixture(t, "prod")
	r := setupRouter(http.MethodPost, "/api/auth/send-verification-code", h.SendVerificationCode)

	w := doJSON(t, r, http.MethodPost, "/api/auth/send-verification-code", `{"phoneNumber":"01012345678"}`)

	wantStatus(t, w, http.StatusOK)

	data := dataMap(t, decodeEnvelope(t, w))

	if _, ok := data["code"]; ok {
		t.Fatal("prod response must not echo the code")
	}
}

func TestVerifyPhoneCodeExpired(t *testing.T) {
	users := memory.NewUsersRepo()
	verify := &fakeVerifySvc{
		verifyFn: func(ctx context.Context, phone, code string) error {
			return service.ErrCodeNotFound
		},
	}

	h := handlers.NewAuthHandler(users, users, verify, auth.NewManager("s", time.Hour), config.Config{Env: "dev"})
	r := setupRouter(http.MethodPost, "/api/auth/verify-phone-code", h.VerifyPhoneCode)

	w := doJSON(t, r, http.MethodPost, "/api/auth/verify-phone-code", `{"phoneNumber":"01012345678","code":"123456"}`)

	wantStatus(t, w, http.StatusBadRequest)

	env := decodeEnvelope(t, w)

	if env.Code != handlers.CodeVerificationFailed {
		t.Fatalf("code = %s", env.Code)
	}
}
