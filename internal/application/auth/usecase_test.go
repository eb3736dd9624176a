package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-movements-api/internal/application/auth"
	"github.com/jhoicas/stock-movements-api/internal/application/dto"
	"github.com/jhoicas/stock-movements-api/internal/domain"
	"github.com/jhoicas/stock-movements-api/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/stock-movements-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func newAuthUC() *auth.AuthUseCase {
	repo := memory.NewUserRepository(memory.NewStore())
	return auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "test"}).
		WithBcryptCost(bcrypt.MinCost)
}

func TestRegisterUser_RolPorDefectoVendedor(t *testing.T) {
	uc := newAuthUC()
	user, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "Ana@Example.com", Password: "secreto123"})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "vendedor", user.Role)
	assert.Equal(t, "active", user.Status)
	assert.NotEmpty(t, user.ID)
}

func TestRegisterUser_EmailDuplicado(t *testing.T) {
	uc := newAuthUC()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ANA@example.com", Password: "otroSecreto"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegisterUser_EntradaInvalida(t *testing.T) {
	uc := newAuthUC()
	ctx := context.Background()
	cases := []dto.RegisterRequest{
		{Email: "", Password: "secreto123"},
		{Email: "sin-arroba", Password: "secreto123"},
		{Email: "ana@example.com", Password: "corto"},
		{Email: "ana@example.com", Password: "secreto123", Role: "superuser"},
	}
	for _, in := range cases {
		_, err := uc.RegisterUser(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "entrada %+v", in)
	}
}

func TestRegisterUser_RolElevadoRechazado(t *testing.T) {
	uc := newAuthUC()
	ctx := context.Background()
	for _, role := range []string{"admin", "bodeguero"} {
		_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: role + "@example.com", Password: "secreto123", Role: role})
		assert.ErrorIs(t, err, domain.ErrForbidden, "rol %s", role)
	}

	_, err := uc.Login(ctx, dto.LoginRequest{Email: "admin@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound, "el rechazo no deja usuario creado")
}

func TestCreateUser_AceptaCualquierRolValido(t *testing.T) {
	uc := newAuthUC()
	user, err := uc.CreateUser(context.Background(), dto.RegisterRequest{Email: "jefa@example.com", Password: "secreto123", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)

	_, err = uc.CreateUser(context.Background(), dto.RegisterRequest{Email: "x@example.com", Password: "secreto123", Role: "superuser"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEnsureAdmin_SoloLaPrimeraVez(t *testing.T) {
	uc := newAuthUC()
	ctx := context.Background()

	created, err := uc.EnsureAdmin(ctx, "root@example.com", "secreto123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.EnsureAdmin(ctx, "root@example.com", "otroSecreto")
	require.NoError(t, err)
	assert.False(t, created)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "root@example.com", Password: "secreto123"})
	require.NoError(t, err)
	_, role, err := pkgjwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	_, err = uc.EnsureAdmin(ctx, "root2@example.com", "corto")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_EmiteTokenConRole(t *testing.T) {
	uc := newAuthUC()
	ctx := context.Background()
	user, err := uc.CreateUser(ctx, dto.RegisterRequest{Email: "bodega@example.com", Password: "secreto123", Role: "bodeguero"})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "bodega@example.com", Password: "secreto123"})
	require.NoError(t, err)

	userID, role, err := pkgjwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, "bodeguero", role)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc := newAuthUC()
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "incorrecto"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
