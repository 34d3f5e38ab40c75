package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainauth "reva/internal/domain/auth"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/security"
	"reva/internal/infra/storage/memory"
)

type senderMock struct {
	mock.Mock
}

func (m *senderMock) SendCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.Called(ctx, email, code, ttl).Error(0)
}

type observerMock struct {
	mock.Mock
}

func (m *observerMock) SignupStarted(delivered bool) { m.Called(delivered) }
func (m *observerMock) SignupCompleted()             { m.Called() }

type fixedCode string

func (c fixedCode) NewCode() (string, error) { return string(c), nil }

type fixture struct {
	svc    *Service
	users  *memory.UserRepository
	sender *senderMock
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  memory.NewUserRepository(nil),
		sender: new(senderMock),
		now:    time.Now().UTC(),
	}
	f.svc = &Service{
		Users:             f.users,
		Sessions:          memory.NewSessionStore(),
		Challenges:        memory.NewChallengeStore(),
		Passwords:         security.BcryptHasher{Cost: 4},
		Tokens:            security.RandomTokenGenerator{},
		Codes:             fixedCode("482913"),
		Sender:            f.sender,
		SignupMaxAttempts: 3,
		Clock:             func() time.Time { return f.now },
	}
	return f
}

func (f *fixture) addUser(t *testing.T, id, email, secret string, role domainuser.Role) {
	t.Helper()
	hash := ""
	if secret != "" {
		var err error
		hash, err = f.svc.Passwords.Hash(secret)
		require.NoError(t, err)
	}
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID: domainuser.ID(id), Name: "User " + id, Email: email, Role: role, SecretHash: hash, CreatedAt: f.now,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "2", "owner@reva.com", "password123", domainuser.RoleOwner)
	f.addUser(t, "7", "legacy@reva.com", "", domainuser.RoleUser)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginParams{Email: " Owner@Reva.com ", Secret: "password123"})
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("2"), res.User.ID)
	require.NotEmpty(t, res.Token)

	resolved, err := f.svc.ResolveToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleOwner, resolved.User.Role)

	_, err = f.svc.Login(ctx, LoginParams{Email: "owner@reva.com", Secret: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginParams{Email: "ghost@reva.com", Secret: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginParams{Email: "legacy@reva.com", Secret: "anything"})
	assert.NoError(t, err)
}

func TestResolveToken_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "3", "user@reva.com", "pw", domainuser.RoleUser)
	f.svc.SessionTTL = time.Hour
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginParams{Email: "user@reva.com", Secret: "pw"})
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.svc.ResolveToken(ctx, res.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	_, err = f.svc.ResolveToken(ctx, "  ")
	assert.ErrorIs(t, err, domainauth.ErrTokenRequired)
}

func TestSignup_Success(t *testing.T) {
	f := newFixture(t)
	obs := new(observerMock)
	obs.On("SignupStarted", true).Once()
	obs.On("SignupCompleted").Once()
	f.svc.Observer = obs
	f.sender.On("SendCode", mock.Anything, "new@reva.com", "482913", 15*time.Minute).Return(nil)
	ctx := context.Background()

	challenge, err := f.svc.BeginSignup(ctx, "New@Reva.com")
	require.NoError(t, err)
	assert.True(t, challenge.Delivered)
	assert.Equal(t, f.now.Add(15*time.Minute), challenge.ExpiresAt)

	res, err := f.svc.CompleteSignup(ctx, CompleteSignupParams{Name: "Nour", Email: "new@reva.com", Secret: "s3cret", Code: "482913"})
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.User.AvatarURL)
	assert.NotEqual(t, "s3cret", res.User.SecretHash)

	_, err = f.svc.Login(ctx, LoginParams{Email: "new@reva.com", Secret: "s3cret"})
	assert.NoError(t, err)

	_, err = f.svc.CompleteSignup(ctx, CompleteSignupParams{Name: "Nour", Email: "new@reva.com", Secret: "s3cret", Code: "482913"})
	assert.ErrorIs(t, err, ErrInvalidOtp, "challenge is single use")
	obs.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestSignup_DeliveryFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.sender.On("SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	res, err := f.svc.BeginSignup(context.Background(), "new@reva.com")

	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Equal(t, "smtp down", res.DeliveryError)
	assert.Equal(t, "482913", res.Code)
}

func TestSignup_WrongCodeAndAttemptLimit(t *testing.T) {
	f := newFixture(t)
	f.sender.On("SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	_, err := f.svc.BeginSignup(ctx, "new@reva.com")
	require.NoError(t, err)

	params := CompleteSignupParams{Name: "Nour", Email: "new@reva.com", Secret: "pw", Code: "111111"}
	for i := 0; i < 3; i++ {
		_, err = f.svc.CompleteSignup(ctx, params)
		assert.ErrorIs(t, err, ErrInvalidOtp)
	}

	params.Code = "482913"
	_, err = f.svc.CompleteSignup(ctx, params)
	assert.ErrorIs(t, err, ErrInvalidOtp, "locked out after max attempts")
	_, err = f.users.ByEmail(ctx, "new@reva.com")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
}

func TestSignup_Expired(t *testing.T) {
	f := newFixture(t)
	f.sender.On("SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	_, err := f.svc.BeginSignup(ctx, "new@reva.com")
	require.NoError(t, err)

	f.now = f.now.Add(16 * time.Minute)
	_, err = f.svc.CompleteSignup(ctx, CompleteSignupParams{Name: "N", Email: "new@reva.com", Secret: "pw", Code: "482913"})

	assert.ErrorIs(t, err, ErrInvalidOtp)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "3", "user@reva.com", "pw", domainuser.RoleUser)

	_, err := f.svc.BeginSignup(context.Background(), "USER@reva.com")

	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	f.sender.AssertNotCalled(t, "SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteSignup_RequiresFields(t *testing.T) {
	f := newFixture(t)
	f.sender.On("SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	_, err := f.svc.BeginSignup(ctx, "a@b.c")
	require.NoError(t, err)

	_, err = f.svc.CompleteSignup(ctx, CompleteSignupParams{Email: "a@b.c", Secret: "x", Code: "482913"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CompleteSignup(ctx, CompleteSignupParams{Email: "a@b.c", Name: "A", Code: "482913"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	res, err := f.svc.CompleteSignup(ctx, CompleteSignupParams{Email: "a@b.c", Name: "A", Secret: "x", Code: "482913"})
	require.NoError(t, err, "a valid code survives a submission with missing fields")
	assert.Equal(t, "A", res.User.Name)
}

func TestCompleteSignup_CodeCheckedBeforeFields(t *testing.T) {
	f := newFixture(t)
	f.sender.On("SendCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	_, err := f.svc.CompleteSignup(ctx, CompleteSignupParams{Email: "a@b.c", Code: "482913"})
	assert.ErrorIs(t, err, ErrInvalidOtp, "no challenge pending")

	_, err = f.svc.BeginSignup(ctx, "a@b.c")
	require.NoError(t, err)
	_, err = f.svc.CompleteSignup(ctx, CompleteSignupParams{Email: "a@b.c", Code: "000000"})
	assert.ErrorIs(t, err, ErrInvalidOtp)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "2", "owner@reva.com", "", domainuser.RoleOwner)

	u, err := f.svc.GetUser(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "owner@reva.com", u.Email)

	_, err = f.svc.GetUser(context.Background(), "404")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
}
