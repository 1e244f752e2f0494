package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/storage"
	"electrocart_back_end/internal/storage/memory"
	"electrocart_back_end/internal/utils"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *captureMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newService(production bool) (*Service, *captureMailer) {
	mailer := &captureMailer{}
	return NewService(memory.New(), mailer, Options{
		JWTSecret:  "secret",
		ClientURL:  "http://localhost:3000/",
		Production: production,
	}), mailer
}

func TestRegisterAndLogin(t *testing.T) {
	s, _ := newService(false)
	ctx := context.Background()

	res, err := s.Register(ctx, "User A", " A@X.com ", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.False(t, res.User.IsAdmin)

	_, err = s.Register(ctx, "Again", "a@x.com", "other")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, MsgEmailExists, apperr.Message(err))

	_, err = s.Register(ctx, "Empty", "", "pw")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	login, err := s.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)

	user, err := s.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	_, err = s.Login(ctx, "a@x.com", "bad")
	assert.Equal(t, MsgInvalidCredentials, apperr.Message(err))
	_, err = s.Login(ctx, "nobody@x.com", "pw123456")
	assert.Equal(t, MsgInvalidCredentials, apperr.Message(err))
}

func TestAuthenticate_Rejects(t *testing.T) {
	s, _ := newService(false)
	ctx := context.Background()

	_, err := s.Authenticate(ctx, "not-a-jwt")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	// token valide mais utilisateur inconnu
	token, err := utils.GenerateJWT("secret", "ghost", time.Now())
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	// mauvaise signature
	res, err := s.Register(ctx, "U", "u@x.com", "pw")
	require.NoError(t, err)
	forged, err := utils.GenerateJWT("other-secret", res.User.ID, time.Now())
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, forged)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestPasswordReset_SingleUse(t *testing.T) {
	s, mailer := newService(false)
	ctx := context.Background()
	_, err := s.Register(ctx, "User A", "a@x.com", "old-pass")
	require.NoError(t, err)

	ticket, err := s.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, "http://localhost:3000/reset-password/"+ticket.Token, ticket.URL)
	assert.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, s.ResetPassword(ctx, ticket.Token, "new-pass"))
	err = s.ResetPassword(ctx, ticket.Token, "again")
	assert.Equal(t, MsgInvalidResetToken, apperr.Message(err))

	_, err = s.Login(ctx, "a@x.com", "new-pass")
	assert.NoError(t, err)
	_, err = s.Login(ctx, "a@x.com", "old-pass")
	assert.Error(t, err)
}

func TestPasswordReset_Expired(t *testing.T) {
	s, _ := newService(false)
	ctx := context.Background()
	_, err := s.Register(ctx, "User A", "a@x.com", "old-pass")
	require.NoError(t, err)

	start := time.Now()
	s.now = func() time.Time { return start }
	ticket, err := s.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(ResetTokenTTL + time.Second) }
	err = s.ResetPassword(ctx, ticket.Token, "new-pass")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRequestPasswordReset_NoLeak(t *testing.T) {
	s, mailer := newService(false)
	ctx := context.Background()

	ticket, err := s.RequestPasswordReset(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, ticket)
	assert.Zero(t, mailer.count())

	_, err = s.RequestPasswordReset(ctx, " ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	prod, _ := newService(true)
	_, err = prod.Register(ctx, "User A", "a@x.com", "pw")
	require.NoError(t, err)
	ticket, err = prod.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, ticket, "no token is returned in production")
}

// resetCountingStore compte les écritures de token de réinitialisation
type resetCountingStore struct {
	storage.UserStore
	writes int
}

func (s *resetCountingStore) SetResetToken(ctx context.Context, userID, tokenHash string, expire time.Time) error {
	s.writes++
	return s.UserStore.SetResetToken(ctx, userID, tokenHash, expire)
}

func TestRequestPasswordReset_SameStoreWorkForUnknownEmail(t *testing.T) {
	users := &resetCountingStore{UserStore: memory.New()}
	s := NewService(users, &captureMailer{}, Options{JWTSecret: "secret", ClientURL: "http://localhost:3000"})
	ctx := context.Background()

	_, err := s.Register(ctx, "User A", "a@x.com", "pw123456")
	require.NoError(t, err)

	real, err := s.RequestPasswordReset(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, real)
	assert.Equal(t, 1, users.writes)

	ticket, err := s.RequestPasswordReset(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, ticket)
	assert.Equal(t, 2, users.writes)

	// l'écriture à vide ne touche pas le token du compte existant
	require.NoError(t, s.ResetPassword(ctx, real.Token, "newpass123"))
}

func TestEnsureAdmin(t *testing.T) {
	s, _ := newService(false)
	ctx := context.Background()

	admin, created, err := s.EnsureAdmin(ctx, "Admin", "admin@x.com", "pw1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsAdmin)

	_, err = s.Register(ctx, "User", "u@x.com", "pw")
	require.NoError(t, err)
	promoted, created, err := s.EnsureAdmin(ctx, "User", "u@x.com", "pw2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, promoted.IsAdmin)

	res, err := s.Login(ctx, "u@x.com", "pw2")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin)

	_, _, err = s.EnsureAdmin(ctx, "", "", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
