package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/domain/notification"
	"github.com/sehyun-dev/taxlink/internal/http/middlewares"
)

type NotificationReader interface {
	ListByUser(ctx context.Context, userID string) ([]notification.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type NotificationsHandler struct {
	notifs NotificationReader
}

func NewNotificationsHandler(notifs NotificationReader) *NotificationsHandler {
	return &NotificationsHandler{notifs: notifs}
}

func (h *NotificationsHandler) List(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.notifs.ListByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "알림 조회에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "알림 조회에 성공했습니다.", gin.H{
		"items": items,
		"count": len(items),
	})
}

// MarkRead is idempotent: re-reading an already read notification is
// still a success. Only the recipient can mark their own notification;
// anyone else's id reads as not found.
func (h *NotificationsHandler) MarkRead(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.notifs.MarkRead(cctx, userID, id)

	if err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			RespondNotFound(ctx, "알림을 찾을 수 없습니다.")
			return
		}

		RespondInternal(ctx, "알림 읽음 처리에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "알림을 읽음 처리했습니다.", nil)
}

func (h *NotificationsHandler) UnreadCount(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	count, err := h.notifs.UnreadCount(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "알림 개수 조회에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "읽지 않은 알림 개수 조회에 성공했습니다.", gin.H{"count": count})
}
