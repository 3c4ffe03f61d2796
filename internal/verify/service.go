package verify

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"voicecredit-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTooManyRequests = errors.New("too many verification requests")
	ErrInvalidCode     = errors.New("invalid or expired code")
)

const (
	codeDigits = 6
	codeTTL    = 10 * time.Minute

	// Issue throttle per email. The window matches the code lifetime so a
	// caller can never hold more requests than active codes.
	issueLimit  = 5
	issueWindow = 10 * time.Minute
)

// Service issues and checks single-use email verification codes backed by
// redis TTL keys. Codes expire with the key; no sweeper is needed.
type Service struct {
	rdb *redis.Client
}

func NewService(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

func codeKey(email string) string {
	return "verify:code:" + email
}

func throttleKey(email string) string {
	return "verify:rl:" + email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue generates a fresh code for the email and stores it with a TTL,
// replacing any previous code. Repeated requests inside the window beyond the
// limit return ErrTooManyRequests.
func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrInvalidArgument
	}

	ok, err := utils.AllowRateLimited(ctx, s.rdb, throttleKey(email), issueLimit, issueWindow)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrTooManyRequests
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, codeKey(email), code, codeTTL).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Check consumes the stored code. A match deletes the key so the code can be
// used exactly once; a mismatch leaves it in place until the TTL expires.
func (s *Service) Check(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return ErrInvalidArgument
	}

	stored, err := s.rdb.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrInvalidCode
	}

	if err := s.rdb.Del(ctx, codeKey(email)).Err(); err != nil {
		return err
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
