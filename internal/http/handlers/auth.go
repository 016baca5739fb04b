package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sehyun-dev/taxlink/internal/auth"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/security"
	"github.com/sehyun-dev/taxlink/internal/service"
)

type UserReader interface {
	GetByUsernameOrEmail(ctx context.Context, q string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, u user.User) (user.User, error)
}

// VerifyService covers the registry lookups and phone verification.
type VerifyService interface {
	VerifyBusinessNumber(businessNumber string) service.VerificationResult
	VerifyCorporateNumber(corporateNumber string) service.VerificationResult
	SendVerificationCode(ctx context.Context, phoneNumber string) (code string, expiresIn int, err error)
	VerifyPhoneCode(ctx context.Context, phoneNumber, code string) error
}

type AuthHandler struct {
	users  UserReader
	writer UserWriter
	verify VerifyService
	jwt    *auth.Manager
	cfg    config.Config
}

func NewAuthHandler(users UserReader, writer UserWriter, verify VerifyService, jwtManager *auth.Manager, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:  users,
		writer: writer,
		verify: verify,
		jwt:    jwtManager,
		cfg:    cfg,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=4,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=4"`
	Name     string `json:"name" binding:"required"`

	ResidentNumber string `json:"residentNumber"`
	PhoneNumber    string `json:"phoneNumber"`
	PostalCode     string `json:"postalCode"`
	Address        string `json:"address"`
	AddressDetail  string `json:"addressDetail"`

	UserType        string `json:"userType" binding:"required,oneof=INDIVIDUAL CORPORATE NON_BUSINESS"`
	BusinessNumber  string `json:"businessNumber"`
	CorporateNumber string `json:"corporateNumber"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// business identifiers depend on the user type
	switch req.UserType {
	case user.TypeIndividual:
		if req.BusinessNumber == "" {
			RespondBadRequest(ctx, "사업자등록번호를 입력해주세요.", nil)
			return
		}
	case user.TypeCorporate:
		if req.BusinessNumber == "" {
			RespondBadRequest(ctx, "사업자등록번호를 입력해주세요.", nil)
			return
		}

		if req.CorporateNumber == "" {
			RespondBadRequest(ctx, "법인등록번호를 입력해주세요.", nil)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "회원가입에 실패했습니다.")
		return
	}

	now := time.Now().UTC()

	u, err := h.writer.Create(cctx, user.User{
		ID:              uuid.NewString(),
		Username:        req.Username,
		Email:           req.Email,
		PasswordHash:    hash,
		Name:            req.Name,
		ResidentNumber:  req.ResidentNumber,
		PhoneNumber:     req.PhoneNumber,
		PostalCode:      req.PostalCode,
		Address:         req.Address,
		AddressDetail:   req.AddressDetail,
		UserType:        req.UserType,
		BusinessNumber:  req.BusinessNumber,
		CorporateNumber: req.CorporateNumber,
		Role:            user.RoleClient,
		PaymentStatus:   user.PaymentUnpaid,
		MandateStatus:   mandate.StatusNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	})

	if err != nil {
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			RespondConflict(ctx, CodeConflict, "이미 사용 중인 아이디입니다.")
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, CodeConflict, "이미 사용 중인 이메일입니다.")
		default:
			RespondInternal(ctx, "회원가입에 실패했습니다.")
		}
		return
	}

	RespondSuccess(ctx, http.StatusCreated, "회원가입이 완료되었습니다.", u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByUsernameOrEmail(cctx, req.UsernameOrEmail)

	if err != nil {
		RespondUnauthorized(ctx, "아이디 또는 비밀번호가 올바르지 않습니다.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "아이디 또는 비밀번호가 올바르지 않습니다.")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "로그인에 실패했습니다.")
		return
	}

	RespondSuccess(ctx, http.StatusOK, "로그인에 성공했습니다.", gin.H{
		"user":        foundUser,
		"accessToken": accessToken,
	})
}

type BusinessNumberRequest struct {
	BusinessNumber string `json:"businessNumber" binding:"required"`
}

type CorporateNumberRequest struct {
	CorporateNumber string `json:"corporateNumber" binding:"required"`
}

type PhoneNumberRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

type PhoneCodeRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Code        string `json:"code" binding:"required,len=6"`
}

func (h *AuthHandler) VerifyBusinessNumber(ctx *gin.Context) {
	var req BusinessNumberRequest

	if !BindJSON(ctx, &req) {
		return
	}

	result := h.verify.VerifyBusinessNumber(req.BusinessNumber)

	RespondSuccess(ctx, http.StatusOK, result.Message, result)
}

func (h *AuthHandler) VerifyCorporateNumber(ctx *gin.Context) {
	var req CorporateNumberRequest

	if !BindJSON(ctx, &req) {
		return
	}

	result := h.verify.VerifyCorporateNumber(req.CorporateNumber)

	RespondSuccess(ctx, http.StatusOK, result.Message, result)
}

func (h *AuthHandler) SendVerificationCode(ctx *gin.Context) {
	var req PhoneNumberRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	code, expiresIn, err := h.verify.SendVerificationCode(cctx, req.PhoneNumber)

	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	data := gin.H{"expiresIn": expiresIn}

	// no SMS provider outside prod, echo the code so signup flows work
	if h.cfg.Env != "prod" {
		data["code"] = code
	}

	RespondSuccess(ctx, http.StatusOK, "인증번호가 발송되었습니다.", data)
}

func (h *AuthHandler) VerifyPhoneCode(ctx *gin.Context) {
	var req PhoneCodeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.verify.VerifyPhoneCode(cctx, req.PhoneNumber, req.Code); err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			RespondError(ctx, http.StatusBadRequest, CodeVerificationFailed, "인증번호가 만료되었거나 존재하지 않습니다.", nil)
			return
		}

		RespondError(ctx, http.StatusBadRequest, CodeVerificationFailed, err.Error(), nil)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "휴대폰 인증이 완료되었습니다.", gin.H{"verified": true})
}
