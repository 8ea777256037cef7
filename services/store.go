// ABOUTME: In-memory auth store for login states, users, and OTP codes
// ABOUTME: TTL'd entries live in the cache; users persist for the process lifetime

package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canvasai/mixboard/backend/cache"
	"github.com/canvasai/mixboard/backend/models"
)

// Auth flow errors carry the user-facing message directly; handlers return
// them as {success:false, error} JSON with HTTP 200 so client polling loops
// stay simple.
var (
	ErrResendTooSoon   = errors.New("发送太频繁，请稍后再试")
	ErrCodeExpired     = errors.New("验证码已过期，请重新获取")
	ErrTooManyAttempts = errors.New("验证码错误次数过多，请重新获取")
	ErrCodeMismatch    = errors.New("验证码错误")
	ErrLoginExpired    = errors.New("登录已过期，请重新扫码")
)

const (
	authTTL      = 5 * time.Minute // login states and verification codes
	resendWindow = 60 * time.Second
	maxAttempts  = 5
)

// AuthStore owns all transient auth state. Construct one at process start and
// inject it into handlers; Close stops the backing cache's sweeper. Nothing
// here survives a restart, which is acceptable for this scope.
type AuthStore struct {
	mu sync.Mutex

	ttld *cache.Cache // login states ("login:") and codes ("code:"), 5-minute TTL

	users      map[string]*models.User // keyed by WeChat openid
	phoneUsers map[string]*models.User // keyed by phone number
}

func NewAuthStore() *AuthStore {
	return &AuthStore{
		ttld:       cache.New(authTTL),
		users:      make(map[string]*models.User),
		phoneUsers: make(map[string]*models.User),
	}
}

// Close releases the background sweeper.
func (s *AuthStore) Close() {
	s.ttld.Close()
}

// newStateToken returns an opaque token for the QR login flow.
func newStateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// ---- WeChat QR login states ----

// CreateLoginState registers a pending login attempt and returns its state token.
func (s *AuthStore) CreateLoginState() string {
	state := newStateToken()
	s.ttld.Set("login:"+state, &models.LoginState{
		Status:    models.LoginPending,
		CreatedAt: time.Now(),
	})
	return state
}

// GetLoginState returns a snapshot of a login attempt. Expired or unknown
// tokens are absent. Status polls run concurrently with the WeChat callback,
// so callers never see the stored pointer.
func (s *AuthStore) GetLoginState(state string) (*models.LoginState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.loginState(state)
	if !ok {
		return nil, false
	}
	return &models.LoginState{
		Status:    ls.Status,
		User:      cloneUser(ls.User),
		CreatedAt: ls.CreatedAt,
	}, true
}

// loginState fetches the stored pointer. Callers must hold s.mu.
func (s *AuthStore) loginState(state string) (*models.LoginState, bool) {
	val, ok := s.ttld.Get("login:" + state)
	if !ok {
		return nil, false
	}
	return val.(*models.LoginState), true
}

// MarkScanned moves a pending login to scanned. A no-op for missing states.
func (s *AuthStore) MarkScanned(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ls, ok := s.loginState(state); ok && ls.Status == models.LoginPending {
		ls.Status = models.LoginScanned
	}
}

// ConfirmLogin flips a login attempt to confirmed and attaches the user.
// This is the only path that populates LoginState.User.
func (s *AuthStore) ConfirmLogin(state string, user *models.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.loginState(state)
	if !ok {
		return false
	}
	ls.Status = models.LoginConfirmed
	ls.User = cloneUser(user)
	return true
}

// ExpireLogin marks a login attempt failed so status polls stop waiting.
func (s *AuthStore) ExpireLogin(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ls, ok := s.loginState(state); ok {
		ls.Status = models.LoginExpired
	}
}

// DeleteLoginState removes a login attempt, e.g. once its result was observed.
func (s *AuthStore) DeleteLoginState(state string) {
	s.ttld.Delete("login:" + state)
}

// ---- Users ----

// cloneUser copies an account so re-login profile refreshes cannot touch
// anything already handed out.
func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// UpsertWeChatUser creates or refreshes the account for a WeChat identity.
// Idempotent per openid. Returns a copy.
func (s *AuthStore) UpsertWeChatUser(openid, nickname, avatar string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[openid]; ok {
		user.Nickname = nickname
		user.Avatar = avatar
		return cloneUser(user)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		OpenID:    openid,
		Nickname:  nickname,
		Avatar:    avatar,
		CreatedAt: time.Now(),
	}
	s.users[openid] = user
	slog.Info("WeChat user registered", "user_id", user.ID)
	return cloneUser(user)
}

// UpsertPhoneUser creates or returns the account for a verified phone number.
// Idempotent per phone, so verification retries never duplicate users.
func (s *AuthStore) UpsertPhoneUser(phone string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.phoneUsers[phone]; ok {
		return cloneUser(user)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Phone:     phone,
		Nickname:  "用户" + phone[len(phone)-4:],
		CreatedAt: time.Now(),
	}
	s.phoneUsers[phone] = user
	slog.Info("Phone user registered", "user_id", user.ID)
	return cloneUser(user)
}

// FindUserByID scans both user maps. Linear, fine at this scale. Returns a copy.
func (s *AuthStore) FindUserByID(id string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			return cloneUser(u), true
		}
	}
	for _, u := range s.phoneUsers {
		if u.ID == id {
			return cloneUser(u), true
		}
	}
	return nil, false
}

// ---- Phone verification codes ----

// IssueCode generates a 6-digit OTP for phone. At most one issue per
// resendWindow per number.
func (s *AuthStore) IssueCode(phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if val, ok := s.ttld.Get("code:" + phone); ok {
		existing := val.(*models.VerificationCode)
		if time.Since(existing.CreatedAt) < resendWindow {
			return "", ErrResendTooSoon
		}
	}

	code := randomDigits(6)
	s.ttld.Set("code:"+phone, &models.VerificationCode{
		Code:      code,
		CreatedAt: time.Now(),
	})
	return code, nil
}

// VerifyCode checks a submitted OTP. The stored code is deleted on success,
// on its fifth failed attempt, and (by TTL) on expiry; each of those forces
// re-issuance.
func (s *AuthStore) VerifyCode(phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.ttld.Get("code:" + phone)
	if !ok {
		return ErrCodeExpired
	}
	stored := val.(*models.VerificationCode)

	if stored.Attempts >= maxAttempts {
		s.ttld.Delete("code:" + phone)
		return ErrTooManyAttempts
	}
	if stored.Code != code {
		stored.Attempts++
		if stored.Attempts >= maxAttempts {
			s.ttld.Delete("code:" + phone)
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	s.ttld.Delete("code:" + phone)
	return nil
}

// randomDigits returns n uniformly random decimal digits.
func randomDigits(n int) string {
	ten := big.NewInt(10)
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, ten)
		if err != nil {
			panic(err) // crypto/rand failure is unrecoverable
		}
		digits[i] = '0' + byte(v.Int64())
	}
	return string(digits)
}
