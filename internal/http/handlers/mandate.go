package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/http/middlewares"
)

// MandateWorkflow is the slice of the mandate service the handler
// needs, small enough for tests to fake.
type MandateWorkflow interface {
	Request(ctx context.Context, userID string) (user.User, error)
	SendRequest(ctx context.Context, taxAccountantID, clientID string) (user.User, error)
	Complete(ctx context.Context, userID string) (user.User, error)
	RequestRelease(ctx context.Context, taxAccountantID, clientID string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

type MandateHandler struct {
	svc MandateWorkflow
}

func NewMandateHandler(svc MandateWorkflow) *MandateHandler {
	return &MandateHandler{svc: svc}
}

type MandateTargetRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *MandateHandler) Request(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	u, err := h.svc.Request(cctx, userID)

	if err != nil {
		respondMandateError(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "수임 동의 신청이 완료되었습니다.", u)
}

func (h *MandateHandler) SendRequest(ctx *gin.Context) {
	taxID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	var req MandateTargetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	u, err := h.svc.SendRequest(cctx, taxID, req.UserID)

	if err != nil {
		respondMandateError(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "수임 동의 요청을 보냈습니다.", u)
}

func (h *MandateHandler) Complete(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	u, err := h.svc.Complete(cctx, userID)

	if err != nil {
		respondMandateError(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "수임 동의가 완료되었습니다.", u)
}

func (h *MandateHandler) ReleaseRequest(ctx *gin.Context) {
	taxID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	var req MandateTargetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	u, err := h.svc.RequestRelease(cctx, taxID, req.UserID)

	if err != nil {
		respondMandateError(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "수임 해제 요청을 보냈습니다.", u)
}

func (h *MandateHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	clients, err := h.svc.List(cctx)

	if err != nil {
		RespondInternal(ctx, "수임 목록 조회에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "수임 목록 조회에 성공했습니다.", gin.H{
		"items": clients,
		"count": len(clients),
	})
}

func respondMandateError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, mandate.ErrPaymentRequired):
		RespondError(ctx, http.StatusPaymentRequired, CodePaymentRequired, "이용권 결제 후 수임 동의를 신청할 수 있습니다.", nil)
	case errors.Is(err, mandate.ErrInvalidTransition):
		RespondError(ctx, http.StatusConflict, CodeInvalidTransition, "현재 상태에서는 처리할 수 없는 요청입니다.", nil)
	case errors.Is(err, user.ErrNotTaxAccountant):
		RespondForbidden(ctx, "세무사만 처리할 수 있는 요청입니다.")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "사용자를 찾을 수 없습니다.")
	default:
		RespondInternal(ctx, "요청 처리에 실패했습니다.")
	}
}
