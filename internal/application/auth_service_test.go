package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/user"
)

var _ transaction.Tx = (*MockTx)(nil)

// MockUserRepository implements user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

// トークンのexp検証は実時刻に対して行われるので、ここは固定時刻にしない
func newAuthService(repo user.Repository) *AuthService {
	return NewAuthService(repo, "test-secret", 30*time.Minute, fixedClock{now: time.Now()})
}

func testUser(t *testing.T, password string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &user.User{ID: 7, Email: "taro@example.com", Name: "山田太郎", PasswordHash: string(hash)}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(MockUserRepository)
	service := newAuthService(repo)
	ctx := context.Background()

	u := testUser(t, "s3cretpass")
	repo.On("GetByEmail", ctx, "taro@example.com").Return(u, nil)

	token, loggedIn, err := service.Login(ctx, "taro@example.com", "s3cretpass")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(7), loggedIn.ID)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "taro@example.com", claims.Email)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)
	service := newAuthService(repo)
	ctx := context.Background()

	u := testUser(t, "s3cretpass")
	repo.On("GetByEmail", ctx, "taro@example.com").Return(u, nil)

	_, _, err := service.Login(ctx, "taro@example.com", "wrong-pass")

	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)
	service := newAuthService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, user.ErrUserNotFound)

	_, _, err := service.Login(ctx, "nobody@example.com", "whatever1")

	// ユーザー不在とパスワード不一致は見分けられないようにする
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestAuthService_VerifyToken_Invalid(t *testing.T) {
	service := newAuthService(new(MockUserRepository))

	_, err := service.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, user.ErrInvalidToken)

	// 別の鍵で署名されたトークンも拒否する
	other := NewAuthService(new(MockUserRepository), "other-secret", 30*time.Minute, fixedClock{now: time.Now()})
	token, err := other.generateToken(&user.User{ID: 7, Email: "taro@example.com"})
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, user.ErrInvalidToken)
}
