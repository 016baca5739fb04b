package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// CodeStore keeps phone verification codes for their short lifetime.
// Backed by redis in production, a map in tests.
type CodeStore interface {
	SetCode(ctx context.Context, phone, code string, ttl time.Duration) error
	GetCode(ctx context.Context, phone string) (string, error)
	DeleteCode(ctx context.Context, phone string) error
}

var ErrCodeNotFound = errors.New("verification code not found or expired")

var (
	businessNumberRe  = regexp.MustCompile(`^\d{10}$`)
	corporateNumberRe = regexp.MustCompile(`^\d{13}$`)
	phoneNumberRe     = regexp.MustCompile(`^01[0-9]\d{7,8}$`)
)

// VerificationResult mirrors the mock registry lookups. A real
// deployment would call the national tax service / court registry here.
type VerificationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`

	BusinessName  string `json:"businessName,omitempty"`
	BusinessType  string `json:"businessType,omitempty"`
	CorporateName string `json:"corporateName,omitempty"`
	CorporateType string `json:"corporateType,omitempty"`
}

type VerifyService struct {
	codes   CodeStore
	codeTTL time.Duration
}

func NewVerifyService(codes CodeStore, codeTTL time.Duration) *VerifyService {
	if codeTTL <= 0 {
		codeTTL = 3 * time.Minute
	}

	return &VerifyService{
		codes:   codes,
		codeTTL: codeTTL,
	}
}

func (s *VerifyService) VerifyBusinessNumber(businessNumber string) VerificationResult {
	clean := strings.ReplaceAll(businessNumber, "-", "")

	if clean == "" {
		return VerificationResult{Valid: false, Message: "사업자등록번호를 입력해주세요."}
	}

	if !businessNumberRe.MatchString(clean) {
		return VerificationResult{Valid: false, Message: "사업자등록번호는 숫자 10자리여야 합니다."}
	}

	return VerificationResult{
		Valid:        true,
		Message:      "유효한 사업자등록번호입니다.",
		BusinessName: "테스트 사업자",
		BusinessType: "개인사업자",
	}
}

func (s *VerifyService) VerifyCorporateNumber(corporateNumber string) VerificationResult {
	clean := strings.ReplaceAll(corporateNumber, "-", "")

	if clean == "" {
		return VerificationResult{Valid: false, Message: "법인등록번호를 입력해주세요."}
	}

	if !corporateNumberRe.MatchString(clean) {
		return VerificationResult{Valid: false, Message: "법인등록번호는 숫자 13자리여야 합니다."}
	}

	return VerificationResult{
		Valid:         true,
		Message:       "유효한 법인등록번호입니다.",
		CorporateName: "테스트 법인",
		CorporateType: "주식회사",
	}
}

// SendVerificationCode generates a 6-digit code and stores it under the
// phone number with a TTL. Actual SMS delivery is mocked out.
func (s *VerifyService) SendVerificationCode(ctx context.Context, phoneNumber string) (code string, expiresIn int, err error) {
	clean := strings.ReplaceAll(phoneNumber, "-", "")

	if !phoneNumberRe.MatchString(clean) {
		return "", 0, errors.New("올바른 휴대폰 번호 형식이 아닙니다.")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))

	if err != nil {
		return "", 0, err
	}

	code = fmt.Sprintf("%06d", n.Int64())

	if err = s.codes.SetCode(ctx, clean, code, s.codeTTL); err != nil {
		return "", 0, err
	}

	return code, int(s.codeTTL.Seconds()), nil
}

// VerifyPhoneCode compares the submitted code and consumes it on success.
func (s *VerifyService) VerifyPhoneCode(ctx context.Context, phoneNumber, code string) error {
	clean := strings.ReplaceAll(phoneNumber, "-", "")

	stored, err := s.codes.GetCode(ctx, clean)

	if err != nil {
		return err
	}

	if stored != code {
		return errors.New("인증번호가 일치하지 않습니다.")
	}

	return s.codes.DeleteCode(ctx, clean)
}
