package service

import (
	"errors"
	"regexp"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/sellerstat/sellerstat_api/internal/config"
	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

// phoneRegexp matches a '+7' prefix followed by ten digits, eleven digits
// total. The phone number doubles as the username.
var phoneRegexp = regexp.MustCompile(`^\+7\d{10}$`)

// UserStore is the persistence surface the auth service needs.
// Implemented by repository.UserRepository.
type UserStore interface {
	GetByUsername(username string) (*models.User, error)
	GetByID(id int64) (*models.User, error)
	Create(u *models.User) error
	BindDevice(userID int64, deviceID string) error
	BumpTokenVersion(userID int64) (int64, error)
	ResetDevice(userID int64) error
	SetPaymentStatus(userID int64, status models.PaymentStatus) error
}

// TokenPair is the login/refresh response body. Field names are the
// canonical "access"/"refresh" pair.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthService owns registration, device-bound login and the token-version
// revocation protocol.
type AuthService struct {
	users UserStore
	jwt   config.JWTConfig
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, jwtCfg config.JWTConfig) *AuthService {
	return &AuthService{users: users, jwt: jwtCfg}
}

// Register creates an account with a hashed password, no bound device, and
// token version 1.
func (s *AuthService) Register(phone, password, firstName, lastName string) (*models.User, error) {
	if !phoneRegexp.MatchString(phone) {
		return nil, utils.ErrInvalidPhone
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:      phone,
		PhoneNumber:   phone,
		PasswordHash:  string(hash),
		FirstName:     firstName,
		LastName:      lastName,
		PaymentStatus: models.PaymentStatusNotPaid,
		TokenVersion:  1,
		IsActive:      true,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Msg("account registered")
	return user, nil
}

// Login verifies credentials, enforces the one-device-per-account binding,
// bumps the token version (revoking every outstanding token — single
// session per account), and issues a fresh token pair.
//
// An unknown username and a wrong password both surface as
// ErrInvalidCredentials; callers cannot tell which check failed.
func (s *AuthService) Login(username, password, deviceID string) (*models.User, *TokenPair, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			return nil, nil, utils.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, utils.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, utils.ErrAccountInactive
	}

	switch {
	case user.DeviceID == nil:
		// First login binds the device. Two concurrent first-logins race on
		// the unique index; the second writer gets ErrDeviceTaken.
		if err := s.users.BindDevice(user.ID, deviceID); err != nil {
			return nil, nil, err
		}
		user.DeviceID = &deviceID
	case *user.DeviceID != deviceID:
		// Strict binding: no silent device switch.
		return nil, nil, utils.ErrDeviceConflict
	}

	version, err := s.users.BumpTokenVersion(user.ID)
	if err != nil {
		return nil, nil, err
	}
	user.TokenVersion = version

	access, refresh, err := utils.GenerateTokenPair(
		s.jwt.Secret, s.jwt.AccessTTL, s.jwt.RefreshTTL,
		user.ID, deviceID, version,
	)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Int64("user_id", user.ID).Int64("token_version", version).Msg("login successful")
	return user, &TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess validates a bearer token and re-reads the account to compare
// token versions. A version mismatch means the token was revoked by a later
// login, logout, or device reset.
func (s *AuthService) VerifyAccess(tokenString string) (*models.User, *utils.TokenClaims, error) {
	claims, err := utils.ValidateToken(s.jwt.Secret, tokenString)
	if err != nil {
		return nil, nil, err
	}
	if claims.TokenType != utils.TokenTypeAccess {
		return nil, nil, utils.ErrTokenRevoked
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, utils.ErrAccountInactive
	}
	if claims.TokenVersion != user.TokenVersion {
		return nil, nil, utils.ErrTokenRevoked
	}
	return user, claims, nil
}

// Logout bumps the token version, revoking the session's own token along
// with any other outstanding tokens.
func (s *AuthService) Logout(userID int64) error {
	_, err := s.users.BumpTokenVersion(userID)
	return err
}

// Profile returns the account for the authenticated user.
func (s *AuthService) Profile(userID int64) (*models.User, error) {
	return s.users.GetByID(userID)
}

// ResetDevice is the operator action that clears the bound device and bumps
// the token version so the account can rebind on its next login.
func (s *AuthService) ResetDevice(userID int64) error {
	if err := s.users.ResetDevice(userID); err != nil {
		return err
	}
	log.Info().Int64("user_id", userID).Msg("device binding reset")
	return nil
}

// SetPaymentStatus is the operator action toggling paid/not-paid.
func (s *AuthService) SetPaymentStatus(userID int64, status models.PaymentStatus) error {
	return s.users.SetPaymentStatus(userID, status)
}
