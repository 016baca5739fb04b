package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/http/handlers"
	"github.com/sehyun-dev/taxlink/internal/repo/memory"
)

func seedProfile(t *testing.T, users *memory.UsersRepo) user.User {
	t.Helper()

	u, err := users.Create(context.Background(), user.User{
		ID:            "c1",
		Username:      "kimclient",
		Email:         "kim@example.com",
		Name:          "김철수",
		PhoneNumber:   "01012345678",
		PostalCode:    "06236",
		Address:       "서울특별시 강남구",
		AddressDetail: "101동 202호",
		Role:          user.RoleClient,
	})

	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	return u
}

func TestProfileGetHandler(t *testing.T) {
	users := memory.NewUsersRepo()
	seedProfile(t, users)

	h := handlers.NewProfileHandler(users)
	r := setupRouter(http.MethodGet, "/api/users/me", asUser("c1", user.RoleClient), h.Get)

	w := doJSON(t, r, http.MethodGet, "/api/users/me", "")

	wantStatus(t, w, http.StatusOK)

	data := dataMap(t, decodeEnvelope(t, w))

	if data["username"] != "kimclient" || data["name"] != "김철수" {
		t.Fatalf("data = %v", data)
	}
}

// A patch carrying a single field must leave every other field alone.
func TestProfilePartialUpdate(t *testing.T) {
	users := memory.NewUsersRepo()
	seedProfile(t, users)

	h := handlers.NewProfileHandler(users)
	r := setupRouter(http.MethodPut, "/api/users/me", asUser("c1", user.RoleClient), h.Update)

	w := doJSON(t, r, http.MethodPut, "/api/users/me", `{"name":"김영희"}`)

	wantStatus(t, w, http.StatusOK)

	updated, err := users.GetByID(context.Background(), "c1")

	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if updated.Name != "김영희" {
		t.Fatalf("name = %s, want 김영희", updated.Name)
	}

	if updated.Email != "kim@example.com" || updated.PhoneNumber != "01012345678" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	if updated.Address != "서울특별시 강남구" || updated.AddressDetail != "101동 202호" {
		t.Fatalf("address wiped by partial patch: %+v", updated)
	}
}

func TestProfileUpdateRejectsBadEmail(t *testing.T) {
	users := memory.NewUsersRepo()
	seedProfile(t, users)

	h := handlers.NewProfileHandler(users)
	r := setupRouter(http.MethodPut, "/api/users/me", asUser("c1", user.RoleClient), h.Update)

	w := doJSON(t, r, http.MethodPut, "/api/users/me", `{"email":"not-an-email"}`)

	wantStatus(t, w, http.StatusBadRequest)
}

func TestProfileGetUnknownUser(t *testing.T) {
	h := handlers.NewProfileHandler(memory.NewUsersRepo())
	r := setupRouter(http.MethodGet, "/api/users/me", asUser("ghost", user.RoleClient), h.Get)

	w := doJSON(t, r, http.MethodGet, "/api/users/me", "")

	wantStatus(t, w, http.StatusNotFound)
}
