package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/http/middlewares"
	"github.com/sehyun-dev/taxlink/internal/service"
)

type PaymentProcessor interface {
	Process(ctx context.Context, userID string) (user.User, error)
	Status(ctx context.Context, userID string) (service.PaymentStatus, error)
}

type PaymentHandler struct {
	svc PaymentProcessor
}

func NewPaymentHandler(svc PaymentProcessor) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) Process(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.svc.Process(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "사용자를 찾을 수 없습니다.")
			return
		}

		RespondInternal(ctx, "결제 처리에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "결제가 완료되었습니다.", u)
}

func (h *PaymentHandler) Status(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	info, err := h.svc.Status(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "사용자를 찾을 수 없습니다.")
			return
		}

		RespondInternal(ctx, "결제 상태 조회에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "결제 상태 조회에 성공했습니다.", info)
}
