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
)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (user.User, error)
}

type ProfileHandler struct {
	users ProfileStore
}

func NewProfileHandler(users ProfileStore) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) Get(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "사용자를 찾을 수 없습니다.")
			return
		}

		RespondInternal(ctx, "프로필 조회에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "프로필 조회에 성공했습니다.", u)
}

func (h *ProfileHandler) Update(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "로그인이 필요합니다.")
		return
	}

	var patch user.ProfilePatch

	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, userID, patch)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "사용자를 찾을 수 없습니다.")
			return
		}

		RespondInternal(ctx, "프로필 수정에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "프로필이 수정되었습니다.", u)
}
