package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/apperror"
	"medistock/internal/core/id"
	"medistock/internal/domain/auth"
	"medistock/internal/infrastructure/storage/memory"
)

func newAuthFixture(t *testing.T) (*auth.Service, *auth.JWTService) {
	t.Helper()
	store := memory.NewStore()
	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	return auth.NewService(store.Users(), jwtSvc, auth.DefaultServiceConfig()), jwtSvc
}

func TestRegisterAndLogin(t *testing.T) {
	svc, jwtSvc := newAuthFixture(t)
	ctx := context.Background()
	companyID := id.New()

	user, err := svc.Register(ctx, auth.RegisterRequest{
		CompanyID: companyID,
		Username:  "pharmacist",
		Email:     "pharmacist@example.com",
		Password:  "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleCashier, user.Role)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	resp, err := svc.Login(ctx, auth.LoginRequest{Username: "pharmacist", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)

	uc, err := jwtSvc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, companyID.String(), uc.CompanyID)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterRequest{CompanyID: id.New(), Username: "u", Password: "short"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Register(ctx, auth.RegisterRequest{CompanyID: id.New(), Password: "long enough"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterRequest{CompanyID: id.New(), Username: "taken", Password: "long enough"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, auth.RegisterRequest{CompanyID: id.New(), Username: "taken", Password: "long enough"})
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterRequest{CompanyID: id.New(), Username: "pharmacist", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, auth.LoginRequest{Username: "pharmacist", Password: "wrong"})
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	_, err = svc.Login(ctx, auth.LoginRequest{Username: "nobody", Password: "wrong"})
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}
