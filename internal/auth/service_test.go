package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/freshfields/storefront-backend/internal/users"
	pkgAuth "github.com/freshfields/storefront-backend/pkg/auth"
	"github.com/freshfields/storefront-backend/pkg/config"
	dbmodels "github.com/freshfields/storefront-backend/pkg/db/models"
	"github.com/freshfields/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	byEmail map[string]*dbmodels.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*dbmodels.User{}}
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*dbmodels.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*dbmodels.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func testConfigs() (config.PasswordConfig, config.JWTConfig) {
	return config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		}, config.JWTConfig{
			Secret:            "secret",
			Issuer:            "storefront",
			ExpirationMinutes: 30,
		}
}

func newTestService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	passwordCfg, jwtCfg := testConfigs()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		PasswordConfig: passwordCfg,
		JWTConfig:      jwtCfg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Buyer@Example.com ",
		Password:  "hunter2secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if registered.User.Email != "buyer@example.com" {
		t.Fatalf("expected normalized email, got %q", registered.User.Email)
	}
	if registered.User.Role != enums.UserRoleUser {
		t.Fatalf("expected default role, got %s", registered.User.Role)
	}

	logged, err := svc.Login(ctx, LoginRequest{
		Email:    "buyer@example.com",
		Password: "hunter2secret",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, jwtCfg := testConfigs()
	claims, err := pkgAuth.ParseAccessToken(jwtCfg, logged.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != registered.User.ID {
		t.Fatalf("token user mismatch: %s vs %s", claims.UserID, registered.User.ID)
	}
}

func TestRegisterNormalizesUnknownRole(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "buyer@example.com",
		Password:  "hunter2secret",
		Role:      "superuser",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != enums.UserRoleUser {
		t.Fatalf("expected fallback to user role, got %s", resp.User.Role)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	req := RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "buyer@example.com",
		Password:  "hunter2secret",
	}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, req)
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "buyer@example.com",
		Password:  "hunter2secret",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, LoginRequest{
		Email:    "buyer@example.com",
		Password: "wrong-password",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), invalidCredentialsMessage) {
		t.Fatalf("expected generic credentials message, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
