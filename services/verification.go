package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/models"
	"civicpulse-be/store"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeDigits      = 6
	codeTTL         = 10 * time.Minute
	codePrefix      = "phone-verification"
	attemptsPrefix  = "phone-verification-attempts"
	maxCodeAttempts = 5
)

// ErrTooManyAttempts is returned once a user has used up their wrong guesses.
// The counter outlives resent codes and expires codeTTL after the first
// failure.
var ErrTooManyAttempts = fmt.Errorf("%w: too many failed verification attempts, try again later", engine.ErrValidation)

// CodeCache is the subset of the Redis client used to hold pending
// verification codes.
type CodeCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// VerificationService confirms phone numbers with one-time codes. Only a
// bcrypt hash of the code is kept, for ten minutes.
type VerificationService struct {
	cache CodeCache
	users store.UserStore
	trust *trustKeeper
	now   Clock
	log   *slog.Logger
}

func NewVerificationService(cache CodeCache, users store.UserStore, log *slog.Logger) *VerificationService {
	s := &VerificationService{
		cache: cache,
		users: users,
		now:   time.Now,
		log:   log,
	}
	s.trust = &trustKeeper{users: users, now: func() time.Time { return s.now() }, log: log}
	return s
}

func codeKey(user *models.User) string {
	return codePrefix + ":" + user.ID.Hex()
}

func attemptsKey(user *models.User) string {
	return attemptsPrefix + ":" + user.ID.Hex()
}

// SendCode issues a new code for user, replacing any pending one. SMS
// delivery is out of scope; the code is returned to the caller.
func (s *VerificationService) SendCode(ctx context.Context, user *models.User) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash verification code: %w", err)
	}
	if err := s.cache.Set(ctx, codeKey(user), string(hash), codeTTL).Err(); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	s.log.InfoContext(ctx, "phone verification code issued", "user", user.ID.Hex(), "phone", user.Phone)
	return code, nil
}

// VerifyCode checks code against the pending one and marks the phone
// verified on success.
func (s *VerificationService) VerifyCode(ctx context.Context, user *models.User, code string) (*models.User, error) {
	if !isCode(code) {
		return nil, engine.Invalid("invalid verification code")
	}
	attempts, err := s.cache.Get(ctx, attemptsKey(user)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load verification attempts: %w", err)
	}
	if attempts >= maxCodeAttempts {
		return nil, ErrTooManyAttempts
	}
	hash, err := s.cache.Get(ctx, codeKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, engine.Invalid("no pending verification code")
	}
	if err != nil {
		return nil, fmt.Errorf("load verification code: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return nil, s.recordFailure(ctx, user)
	}

	updated, err := s.users.SetPhoneVerified(ctx, user.ID)
	if err != nil {
		return nil, mapStoreErr(err, "user")
	}
	dependent(ctx, s.log, "redis.del", func(ctx context.Context) error {
		return s.cache.Del(ctx, codeKey(user), attemptsKey(user)).Err()
	}, "user", user.ID.Hex())

	if fresh, err := s.trust.recompute(ctx, user.ID); err == nil {
		updated = fresh
	} else {
		s.log.WarnContext(ctx, "trust score refresh failed", "user", user.ID.Hex(), "error", err)
	}
	return updated, nil
}

// recordFailure counts a wrong guess. The last allowed failure also discards
// the pending code.
func (s *VerificationService) recordFailure(ctx context.Context, user *models.User) error {
	n, err := s.cache.Incr(ctx, attemptsKey(user)).Result()
	if err != nil {
		return fmt.Errorf("count verification attempt: %w", err)
	}
	if n == 1 {
		if err := s.cache.Expire(ctx, attemptsKey(user), codeTTL).Err(); err != nil {
			return fmt.Errorf("expire verification attempts: %w", err)
		}
	}
	if n >= maxCodeAttempts {
		s.log.WarnContext(ctx, "phone verification locked", "user", user.ID.Hex(), "attempts", n)
		dependent(ctx, s.log, "redis.del", func(ctx context.Context) error {
			return s.cache.Del(ctx, codeKey(user)).Err()
		}, "user", user.ID.Hex())
		return ErrTooManyAttempts
	}
	return engine.Invalid("invalid verification code")
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func isCode(code string) bool {
	if len(code) != codeDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
