package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/mail"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/security"
	"task-tracker/backend/internal/store/gormstore"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Abcdef1!"

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type testEnv struct {
	db       *gorm.DB
	users    *gormstore.Repository[models.User]
	tasks    *gormstore.Repository[models.Task]
	tokens   *security.TokenService
	denylist *security.MemoryDenylist
	mailer   *recordingMailer
	auth     *AuthServiceImpl
	taskSvc  *TaskServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	env := &testEnv{
		db:       db,
		users:    gormstore.New[models.User](db),
		tasks:    gormstore.New[models.Task](db),
		tokens:   security.NewTokenService("test-secret", "task-tracker"),
		denylist: security.NewMemoryDenylist(),
		mailer:   &recordingMailer{},
	}

	env.auth = NewAuthService(
		env.users,
		security.NewBcryptHasher(bcrypt.MinCost),
		env.tokens,
		env.denylist,
		env.mailer,
		AuthConfig{
			SessionTTL: 2 * time.Hour,
			ResetTTL:   time.Hour,
			ResetURL:   "https://app.example.com/reset-password",
		},
		nil,
	)
	env.taskSvc = NewTaskService(env.tasks, nil)
	return env
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterInput{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Age:             36,
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	return user
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr), "expected *apperrors.Error, got %T", err)
	require.Equal(t, kind, appErr.Kind, "message: %s", appErr.Message)
}
