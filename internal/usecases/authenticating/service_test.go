package authenticating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/sales-analytics-api/internal/config"
	"github.com/vfg2006/sales-analytics-api/internal/domain"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.Auth{Secret: "segredo-de-teste"},
	}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func activeUser(t *testing.T, password string) *domain.User {
	return &domain.User{
		ID:           1,
		Name:         "Ana",
		Lastname:     "Souza",
		Email:        "ana@exemplo.com",
		PasswordHash: hashOf(t, password),
		Active:       true,
		RoleID:       3,
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("Campos obrigatórios ausentes são rejeitados", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		user, err := service.CreateUser(&domain.User{Email: "ana@exemplo.com"})

		assert.Nil(t, user)
		assert.Error(t, err)
	})

	t.Run("Email já cadastrado é rejeitado", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		userRepo.EXPECT().
			GetUserByEmail("ana@exemplo.com").
			Return(&domain.User{ID: 1}, nil)

		user, err := service.CreateUser(&domain.User{
			Name:         "Ana",
			Lastname:     "Souza",
			Email:        "ana@exemplo.com",
			PasswordHash: "Senha@Forte1",
		})

		assert.Nil(t, user)
		assert.Error(t, err)
	})

	t.Run("Usuário novo nasce inativo com senha com hash e role default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		// Email com maiúsculas e espaços é normalizado antes da consulta
		userRepo.EXPECT().
			GetUserByEmail("ana@exemplo.com").
			Return(nil, nil)

		var created *domain.User
		userRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(user *domain.User) (*domain.User, error) {
				created = user
				return user, nil
			})

		user, err := service.CreateUser(&domain.User{
			Name:         "Ana",
			Lastname:     "Souza",
			Email:        " Ana@Exemplo.com ",
			PasswordHash: "Senha@Forte1",
		})

		require.NoError(t, err)
		require.NotNil(t, user)

		assert.Equal(t, "ana@exemplo.com", created.Email)
		assert.False(t, created.Active)
		assert.Equal(t, 3, created.RoleID)

		// A senha nunca é armazenada em texto puro
		assert.NotEqual(t, "Senha@Forte1", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(created.PasswordHash), []byte("Senha@Forte1"),
		))
	})
}

func TestLoginUser(t *testing.T) {
	t.Run("Email e senha são obrigatórios", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		token, err := service.LoginUser("", "")

		assert.Empty(t, token)
		assert.Error(t, err)
	})

	t.Run("Usuário inexistente não autentica", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		userRepo.EXPECT().
			GetUserByEmail("ana@exemplo.com").
			Return(nil, nil)

		token, err := service.LoginUser("ana@exemplo.com", "Senha@Forte1")

		assert.Empty(t, token)
		assert.Error(t, err)
	})

	t.Run("Conta desativada não autentica", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		disabled := activeUser(t, "Senha@Forte1")
		disabled.Active = false

		userRepo.EXPECT().
			GetUserByEmail("ana@exemplo.com").
			Return(disabled, nil)

		token, err := service.LoginUser("ana@exemplo.com", "Senha@Forte1")

		assert.Empty(t, token)
		assert.Error(t, err)
	})

	t.Run("Senha incorreta não autentica", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		userRepo.EXPECT().
			GetUserByEmail("ana@exemplo.com").
			Return(activeUser(t, "Senha@Forte1"), nil)

		token, err := service.LoginUser("ana@exemplo.com", "senha-errada")

		assert.Empty(t, token)
		assert.Error(t, err)
	})

	t.Run("Credenciais válidas geram token com as claims do usuário", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		userRepo.EXPECT().
			GetUserByEmail("ana@exemplo.com").
			Return(activeUser(t, "Senha@Forte1"), nil)

		token, err := service.LoginUser("Ana@Exemplo.com", "Senha@Forte1")

		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, 1, claims.UserID)
		assert.Equal(t, "Ana", claims.UserName)
		assert.Equal(t, "ana@exemplo.com", claims.UserEmail)
		assert.Equal(t, 3, claims.UserRoleID)
	})
}

func TestValidateToken_RejeitaTokenAdulterado(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := mocks.NewMockUserRepository(ctrl)

	// Token assinado com outro segredo não passa na validação
	otherCfg := &config.Config{Auth: config.Auth{Secret: "outro-segredo"}}
	issuer := NewService(userRepo, otherCfg)
	validator := NewService(userRepo, testConfig())

	userRepo.EXPECT().
		GetUserByEmail("ana@exemplo.com").
		Return(activeUser(t, "Senha@Forte1"), nil)

	token, err := issuer.LoginUser("ana@exemplo.com", "Senha@Forte1")
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewService(mocks.NewMockUserRepository(ctrl), testConfig())

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"Senha completa é aceita", "Senha@Forte1", true},
		{"Curta demais", "S@f1", false},
		{"Sem maiúscula", "senha@forte1", false},
		{"Sem minúscula", "SENHA@FORTE1", false},
		{"Sem número", "Senha@Forte", false},
		{"Sem caractere especial", "SenhaForte1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidatePasswordStrength(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	t.Run("Senha atual incorreta é rejeitada", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		userRepo.EXPECT().
			GetUserByID(1).
			Return(activeUser(t, "Senha@Forte1"), nil)

		err := service.ChangePassword(1, "senha-errada", "Nova@Senha1")

		assert.Error(t, err)
	})

	t.Run("Nova senha fraca é rejeitada", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		userRepo.EXPECT().
			GetUserByID(1).
			Return(activeUser(t, "Senha@Forte1"), nil)

		err := service.ChangePassword(1, "Senha@Forte1", "fraca")

		assert.Error(t, err)
	})

	t.Run("Troca válida persiste o novo hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		userRepo.EXPECT().
			GetUserByID(1).
			Return(activeUser(t, "Senha@Forte1"), nil)

		var updated *domain.User
		userRepo.EXPECT().
			UpdateUser(gomock.Any()).
			DoAndReturn(func(user *domain.User) error {
				updated = user
				return nil
			})

		err := service.ChangePassword(1, "Senha@Forte1", "Nova@Senha1")

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(updated.PasswordHash), []byte("Nova@Senha1"),
		))
	})
}

func TestGenerateStrongPassword(t *testing.T) {
	t.Run("Somente administradores podem gerar senhas", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		requester := activeUser(t, "Senha@Forte1")
		requester.RoleID = 3

		userRepo.EXPECT().GetUserByID(1).Return(requester, nil)

		password, err := service.GenerateStrongPassword(1, 2)

		assert.Empty(t, password)
		assert.Error(t, err)
	})

	t.Run("Administrador gera senha forte e persiste o hash", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		userRepo := mocks.NewMockUserRepository(ctrl)
		service := NewService(userRepo, testConfig())

		admin := activeUser(t, "Senha@Forte1")
		admin.RoleID = 1

		target := activeUser(t, "Outra@Senha1")
		target.ID = 2

		userRepo.EXPECT().GetUserByID(1).Return(admin, nil)
		userRepo.EXPECT().GetUserByID(2).Return(target, nil)

		var updated *domain.User
		userRepo.EXPECT().
			UpdateUser(gomock.Any()).
			DoAndReturn(func(user *domain.User) error {
				updated = user
				return nil
			})

		password, err := service.GenerateStrongPassword(1, 2)

		require.NoError(t, err)
		assert.Len(t, password, 12)

		// A senha gerada atende aos próprios requisitos de força
		assert.NoError(t, service.ValidatePasswordStrength(password))

		require.NotNil(t, updated)
		assert.Equal(t, 2, updated.ID)
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(updated.PasswordHash), []byte(password),
		))
	})
}

func TestHandleEmail(t *testing.T) {
	assert.Equal(t, "ana@exemplo.com", handleEmail(" Ana@Exemplo.COM "))
	assert.Equal(t, "ana@exemplo.com", handleEmail("ana @exemplo.com"))
}
