package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/teamroom/internal/auth"
	"github.com/yakoovad/teamroom/internal/repository"
)

func newTestAuthService(users *MockUserRepository, sessions *MockSessionRepository) *AuthService {
	tokens := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	hasher := auth.NewPasswordHasher(4)
	return NewAuthService(new(MockTransactor), tokens, hasher).
		WithUserRepo(users).
		WithSessionRepo(sessions)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         *RegisterInput
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name: "success",
			input: &RegisterInput{
				Email:     "john@example.com",
				FirstName: "John",
				LastName:  "Doe",
				Password:  "password123",
			},
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Create", mock.Anything, mock.MatchedBy(func(u *repository.User) bool {
					return u.Email == "john@example.com" && u.PasswordHash != "password123"
				})).Return("user1", nil)
			},
			expectedError: false,
		},
		{
			name: "duplicate email",
			input: &RegisterInput{
				Email:     "john@example.com",
				FirstName: "John",
				LastName:  "Doe",
				Password:  "password123",
			},
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Create", mock.Anything, mock.Anything).Return("", repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeConflict,
		},
		{
			name: "storage failure",
			input: &RegisterInput{
				Email:     "john@example.com",
				FirstName: "John",
				LastName:  "Doe",
				Password:  "password123",
			},
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Create", mock.Anything, mock.Anything).Return("", errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(MockUserRepository)
			mockSessions := new(MockSessionRepository)

			tt.setupMocks(mockUsers)

			service := newTestAuthService(mockUsers, mockSessions)

			email, err := service.Register(context.Background(), tt.input)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				assert.Equal(t, tt.input.Email, email)
			}

			mockUsers.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hasher := auth.NewPasswordHasher(4)
	hash, hashErr := hasher.Hash("password123")
	require.NoError(t, hashErr)

	tests := []struct {
		name          string
		email         string
		password      string
		setupMocks    func(*MockUserRepository, *MockSessionRepository)
		expectedError bool
		errorCode     ErrorCode
		errorMessage  string
	}{
		{
			name:     "success",
			email:    "john@example.com",
			password: "password123",
			setupMocks: func(ur *MockUserRepository, sr *MockSessionRepository) {
				ur.On("GetByEmail", mock.Anything, "john@example.com").Return(&repository.User{
					ID:           "user1",
					Email:        "john@example.com",
					PasswordHash: hash,
				}, nil)
				sr.On("Save", mock.Anything, mock.Anything, "user1", time.Hour).Return(nil)
			},
			expectedError: false,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "password123",
			setupMocks: func(ur *MockUserRepository, sr *MockSessionRepository) {
				ur.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeUnauthorized,
			errorMessage:  "invalid email or password",
		},
		{
			name:     "wrong password",
			email:    "john@example.com",
			password: "wrong-password",
			setupMocks: func(ur *MockUserRepository, sr *MockSessionRepository) {
				ur.On("GetByEmail", mock.Anything, "john@example.com").Return(&repository.User{
					ID:           "user1",
					Email:        "john@example.com",
					PasswordHash: hash,
				}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeUnauthorized,
			errorMessage:  "invalid email or password",
		},
		{
			name:     "deleted user",
			email:    "john@example.com",
			password: "password123",
			setupMocks: func(ur *MockUserRepository, sr *MockSessionRepository) {
				ur.On("GetByEmail", mock.Anything, "john@example.com").Return(&repository.User{
					ID:           "user1",
					Email:        "john@example.com",
					PasswordHash: hash,
					IsDeleted:    true,
				}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeUnauthorized,
			errorMessage:  "invalid email or password",
		},
		{
			name:     "session store failure",
			email:    "john@example.com",
			password: "password123",
			setupMocks: func(ur *MockUserRepository, sr *MockSessionRepository) {
				ur.On("GetByEmail", mock.Anything, "john@example.com").Return(&repository.User{
					ID:           "user1",
					Email:        "john@example.com",
					PasswordHash: hash,
				}, nil)
				sr.On("Save", mock.Anything, mock.Anything, "user1", time.Hour).Return(errors.New("redis down"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(MockUserRepository)
			mockSessions := new(MockSessionRepository)

			tt.setupMocks(mockUsers, mockSessions)

			service := newTestAuthService(mockUsers, mockSessions)

			pair, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				if tt.errorMessage != "" {
					assert.Equal(t, tt.errorMessage, err.Message)
				}
				assert.Nil(t, pair)
			} else {
				require.Nil(t, err)
				assert.NotEmpty(t, pair.AccessToken)
				assert.NotEmpty(t, pair.RefreshToken)
				assert.Equal(t, "bearer", pair.TokenType)
			}

			mockUsers.AssertExpectations(t)
			mockSessions.AssertExpectations(t)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	tests := []struct {
		name          string
		refreshToken  string
		setupMocks    func(*MockSessionRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:         "success",
			refreshToken: "live-token",
			setupMocks: func(sr *MockSessionRepository) {
				sr.On("Resolve", mock.Anything, "live-token").Return("user1", nil)
			},
			expectedError: false,
		},
		{
			name:         "revoked token",
			refreshToken: "revoked-token",
			setupMocks: func(sr *MockSessionRepository) {
				sr.On("Resolve", mock.Anything, "revoked-token").Return("", repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeUnauthorized,
		},
		{
			name:         "session store failure",
			refreshToken: "live-token",
			setupMocks: func(sr *MockSessionRepository) {
				sr.On("Resolve", mock.Anything, "live-token").Return("", errors.New("redis down"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSessions := new(MockSessionRepository)

			tt.setupMocks(mockSessions)

			service := newTestAuthService(new(MockUserRepository), mockSessions)

			accessToken, err := service.Refresh(context.Background(), tt.refreshToken)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				assert.NotEmpty(t, accessToken)
			}

			mockSessions.AssertExpectations(t)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	tests := []struct {
		name          string
		refreshToken  string
		setupMocks    func(*MockSessionRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:         "success",
			refreshToken: "live-token",
			setupMocks: func(sr *MockSessionRepository) {
				sr.On("Delete", mock.Anything, "live-token").Return(nil)
			},
			expectedError: false,
		},
		{
			name:          "empty token",
			refreshToken:  "",
			setupMocks:    func(sr *MockSessionRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:         "token not active",
			refreshToken: "stale-token",
			setupMocks: func(sr *MockSessionRepository) {
				sr.On("Delete", mock.Anything, "stale-token").Return(repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSessions := new(MockSessionRepository)

			tt.setupMocks(mockSessions)

			service := newTestAuthService(new(MockUserRepository), mockSessions)

			err := service.Logout(context.Background(), tt.refreshToken)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
			}

			mockSessions.AssertExpectations(t)
		})
	}
}

// A refresh token must stop working the moment the session is revoked.
func TestAuthService_RefreshAfterLogout(t *testing.T) {
	mockSessions := new(MockSessionRepository)
	mockSessions.On("Resolve", mock.Anything, "token").Return("user1", nil).Once()
	mockSessions.On("Delete", mock.Anything, "token").Return(nil).Once()
	mockSessions.On("Resolve", mock.Anything, "token").Return("", repository.ErrNotFound).Once()

	service := newTestAuthService(new(MockUserRepository), mockSessions)

	accessToken, err := service.Refresh(context.Background(), "token")
	require.Nil(t, err)
	assert.NotEmpty(t, accessToken)

	require.Nil(t, service.Logout(context.Background(), "token"))

	_, err = service.Refresh(context.Background(), "token")
	require.NotNil(t, err)
	assert.Equal(t, ErrorCodeUnauthorized, err.Code)

	mockSessions.AssertExpectations(t)
}

func TestAuthService_Deactivate(t *testing.T) {
	tests := []struct {
		name          string
		userID        string
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:   "success",
			userID: "user1",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("SoftDelete", mock.Anything, "user1").Return(nil)
			},
			expectedError: false,
		},
		{
			name:   "not found",
			userID: "user404",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("SoftDelete", mock.Anything, "user404").Return(repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(MockUserRepository)

			tt.setupMocks(mockUsers)

			service := newTestAuthService(mockUsers, new(MockSessionRepository))

			err := service.Deactivate(context.Background(), tt.userID)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
			}

			mockUsers.AssertExpectations(t)
		})
	}
}

func TestAuthService_UserInfo(t *testing.T) {
	tests := []struct {
		name          string
		userID        string
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:   "success",
			userID: "user1",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Get", mock.Anything, "user1").Return(&repository.User{
					ID:        "user1",
					Email:     "john@example.com",
					FirstName: "John",
					LastName:  "Doe",
					IsActive:  true,
				}, nil)
			},
			expectedError: false,
		},
		{
			name:   "not found",
			userID: "user2",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Get", mock.Anything, "user2").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:   "soft deleted",
			userID: "user3",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Get", mock.Anything, "user3").Return(&repository.User{
					ID:        "user3",
					IsDeleted: true,
				}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(MockUserRepository)

			tt.setupMocks(mockUsers)

			service := newTestAuthService(mockUsers, new(MockSessionRepository))

			user, err := service.UserInfo(context.Background(), tt.userID)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, user)
			} else {
				require.Nil(t, err)
				assert.Equal(t, "john@example.com", user.Email)
			}

			mockUsers.AssertExpectations(t)
		})
	}
}
