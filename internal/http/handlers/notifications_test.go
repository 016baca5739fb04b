package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sehyun-dev/taxlink/internal/domain/notification"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/http/handlers"
	"github.com/sehyun-dev/taxlink/internal/repo/memory"
)

func seedNotification(t *testing.T, repo *memory.NotificationsRepo, id, userID, message string) {
	t.Helper()

	_, err := repo.Create(context.Background(), notification.Notification{
		ID:        id,
		UserID:    userID,
		Type:      notification.TypeTaxToClient,
		Category:  notification.CategoryMandate,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})

	if err != nil {
		t.Fatalf("seeding notification: %v", err)
	}
}

func TestNotificationsListHandler(t *testing.T) {
	repo := memory.NewNotificationsRepo()
	seedNotification(t, repo, "n1", "c1", "첫 번째 알림")
	seedNotification(t, repo, "n2", "c1", "두 번째 알림")
	seedNotification(t, repo, "n3", "other", "남의 알림")

	h := handlers.NewNotificationsHandler(repo)
	r := setupRouter(http.MethodGet, "/api/notifications", asUser("c1", user.RoleClient), h.List)

	w := doJSON(t, r, http.MethodGet, "/api/notifications", "")

	wantStatus(t, w, http.StatusOK)

	data := dataMap(t, decodeEnvelope(t, w))

	if data["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", data["count"])
	}

	items := data["items"].([]interface{})

	// newest first
	first := items[0].(map[string]interface{})

	if first["notificationId"] != "n2" {
		t.Fatalf("first item = %v, want n2", first["notificationId"])
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	repo := memory.NewNotificationsRepo()
	seedNotification(t, repo, "n1", "c1", "알림")

	h := handlers.NewNotificationsHandler(repo)
	r := setupRouter(http.MethodPut, "/api/notifications/:id/read", asUser("c1", user.RoleClient), h.MarkRead)

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPut, "/api/notifications/n1/read", "")

		wantStatus(t, w, http.StatusOK)

		env := decodeEnvelope(t, w)

		if env.Code != handlers.CodeSuccess {
			t.Fatalf("attempt %d: code = %s", i+1, env.Code)
		}
	}

	count, _ := repo.UnreadCount(context.Background(), "c1")

	if count != 0 {
		t.Fatalf("unread count = %d after mark-read", count)
	}
}

func TestMarkReadRejectsOtherUsersNotification(t *testing.T) {
	repo := memory.NewNotificationsRepo()
	seedNotification(t, repo, "n1", "accountant-1", "세무사 앞 알림")

	h := handlers.NewNotificationsHandler(repo)
	r := setupRouter(http.MethodPut, "/api/notifications/:id/read", asUser("c1", user.RoleClient), h.MarkRead)

	w := doJSON(t, r, http.MethodPut, "/api/notifications/n1/read", "")

	wantStatus(t, w, http.StatusNotFound)

	// the recipient's notification stays unread
	count, _ := repo.UnreadCount(context.Background(), "accountant-1")

	if count != 1 {
		t.Fatalf("unread count = %d, notification mutated by a non-recipient", count)
	}
}

func TestMarkReadUnknownNotification(t *testing.T) {
	h := handlers.NewNotificationsHandler(memory.NewNotificationsRepo())
	r := setupRouter(http.MethodPut, "/api/notifications/:id/read", asUser("c1", user.RoleClient), h.MarkRead)

	w := doJSON(t, r, http.MethodPut, "/api/notifications/ghost/read", "")

	wantStatus(t, w, http.StatusNotFound)
}

func TestUnreadCountTracksReads(t *testing.T) {
	repo := memory.NewNotificationsRepo()
	seedNotification(t, repo, "n1", "c1", "하나")
	seedNotification(t, repo, "n2", "c1", "둘")

	h := handlers.NewNotificationsHandler(repo)

	countRouter := setupRouter(http.MethodGet, "/api/notifications/unread-count", asUser("c1", user.RoleClient), h.UnreadCount)
	readRouter := setupRouter(http.MethodPut, "/api/notifications/:id/read", asUser("c1", user.RoleClient), h.MarkRead)

	w := doJSON(t, countRouter, http.MethodGet, "/api/notifications/unread-count", "")
	data := dataMap(t, decodeEnvelope(t, w))

	if data["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", data["count"])
	}

	doJSON(t, readRouter, http.MethodPut, "/api/notifications/n1/read", "")
	doJSON(t, readRouter, http.MethodPut, "/api/notifications/n2/read", "")

	w = doJSON(t, countRouter, http.MethodGet, "/api/notifications/unread-count", "")
	data = dataMap(t, decodeEnvelope(t, w))

	if data["count"].(float64) != 0 {
		t.Fatalf("count = %v, want 0 after reading everything", data["count"])
	}
}
