package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
	"github.com/bharatabhiyan/marketplace-backend/internal/utils"
	"github.com/bharatabhiyan/marketplace-backend/pkg/jwt"
	"github.com/bharatabhiyan/marketplace-backend/pkg/validator"
)

var (
	// ErrIdentifierRequired indicates neither phone nor email was supplied
	ErrIdentifierRequired = fmt.Errorf("either phone or email is required")

	// ErrIdentifierTaken indicates the phone or email is already registered
	ErrIdentifierTaken = fmt.Errorf("phone or email is already registered")

	// ErrInvalidCredentials indicates the identifier/password pair is wrong
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// ErrAccountInactive indicates the registration fee has not been paid
	ErrAccountInactive = fmt.Errorf("account is not activated")

	// ErrCaptainNotVerified indicates the captain is awaiting admin verification
	ErrCaptainNotVerified = fmt.Errorf("captain account is awaiting admin verification")

	// ErrInvalidRefreshToken indicates the refresh token is invalid or revoked
	ErrInvalidRefreshToken = fmt.Errorf("invalid or revoked refresh token")
)

// captainCodeAttempts bounds the uniqueness retry loop for captain codes
const captainCodeAttempts = 5

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users      *database.UserRepository
	tokens     *database.RefreshTokenRepository
	jwtService *jwt.Service
	rateLimit  *RateLimitService
	audit      *AuditService
	phones     *validator.PhoneValidator
	emails     *validator.EmailValidator
	bcryptCost int
	logger     *logrus.Logger

	refreshExpiry time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *database.UserRepository,
	tokens *database.RefreshTokenRepository,
	jwtService *jwt.Service,
	rateLimit *RateLimitService,
	audit *AuditService,
	bcryptCost int,
	refreshExpiry time.Duration,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		jwtService:    jwtService,
		rateLimit:     rateLimit,
		audit:         audit,
		phones:        validator.NewPhoneValidator(),
		emails:        validator.NewEmailValidator(),
		bcryptCost:    bcryptCost,
		refreshExpiry: refreshExpiry,
		logger:        logger,
	}
}

// RegisterInput carries the registration fields. At least one of Phone or
// Email must be set.
type RegisterInput struct {
	Phone     string
	Email     string
	Name      string
	Password  string
	IsCaptain bool
}

// TokenPair carries a freshly issued access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account. Accounts start inactive until the
// registration fee is paid; captains additionally start unverified and
// receive a unique captain code.
func (s *AuthService) Register(input *RegisterInput) (*models.User, error) {
	if input.Phone == "" && input.Email == "" {
		return nil, ErrIdentifierRequired
	}

	user := &models.User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		IsUser:    true,
		IsCaptain: input.IsCaptain,
	}

	if input.Phone != "" {
		phone, err := s.phones.Validate(input.Phone)
		if err != nil {
			return nil, err
		}
		user.Phone = models.NewNullString(phone)
	}
	if input.Email != "" {
		email, err := s.emails.Validate(input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = models.NewNullString(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if input.IsCaptain {
		code, err := s.uniqueCaptainCode()
		if err != nil {
			return nil, err
		}
		user.CaptainCode = models.NewNullString(code)
	}

	created, err := s.users.CreateUser(user)
	if err != nil {
		if err == database.ErrDuplicate {
			return nil, ErrIdentifierTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    created.ID,
		"is_captain": created.IsCaptain,
	}).Info("User registered")

	return created, nil
}

func (s *AuthService) uniqueCaptainCode() (string, error) {
	for i := 0; i < captainCodeAttempts; i++ {
		code, err := utils.GenerateCaptainCode()
		if err != nil {
			return "", err
		}
		exists, err := s.users.CaptainCodeExists(code)
		if err != nil {
			return "", fmt.Errorf("failed to check captain code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to allocate a unique captain code")
}

// Login authenticates by phone or email plus password. Inactive accounts and
// unverified captains are refused even with correct credentials. Failed
// attempts count against the login rate limit.
func (s *AuthService) Login(identifier, password, ipAddress, userAgent string) (*models.User, *TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.rateLimit.CheckLoginLimit(identifier, ipAddress); err != nil {
		if rlErr, ok := err.(*RateLimitError); ok {
			_ = s.audit.LogRateLimitViolation(identifier, ipAddress, userAgent, rlErr.Type, rlErr.RetryAfter)
		}
		return nil, nil, err
	}

	user, err := s.lookupUser(identifier)
	if err != nil {
		if err == database.ErrNotFound {
			s.recordFailure(nil, identifier, ipAddress, userAgent, "unknown identifier")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(&user.ID, identifier, ipAddress, userAgent, "wrong password")
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.recordFailure(&user.ID, identifier, ipAddress, userAgent, "account inactive")
		return nil, nil, ErrAccountInactive
	}
	if user.IsCaptain && !user.AdminVerified {
		s.recordFailure(&user.ID, identifier, ipAddress, userAgent, "captain not verified")
		return nil, nil, ErrCaptainNotVerified
	}

	pair, err := s.issueTokens(user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	_ = s.audit.LogLogin(&user.ID, identifier, ipAddress, userAgent, true, "")

	return user, pair, nil
}

func (s *AuthService) lookupUser(identifier string) (*models.User, error) {
	if phone, err := s.phones.Validate(identifier); err == nil {
		return s.users.GetByPhone(phone)
	}
	if email, err := s.emails.Validate(identifier); err == nil {
		return s.users.GetByEmail(email)
	}
	if strings.HasPrefix(strings.ToUpper(identifier), "CAP") {
		return s.users.GetByCaptainCode(strings.ToUpper(identifier))
	}
	return nil, database.ErrNotFound
}

func (s *AuthService) recordFailure(userID *uuid.UUID, identifier, ipAddress, userAgent, reason string) {
	_ = s.rateLimit.RecordLoginAttempt(identifier, ipAddress)
	_ = s.audit.LogLogin(userID, identifier, ipAddress, userAgent, false, reason)
}

func (s *AuthService) issueTokens(user *models.User, ipAddress, userAgent string) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Roles(), user.IsActive, user.AdminVerified)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	deviceType := utils.GetDeviceTypeSimple(userAgent)
	expiresAt := time.Now().Add(s.refreshExpiry)
	if err := s.tokens.StoreRefreshToken(user.ID, refreshToken, deviceType, ipAddress, userAgent, expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh rotates a refresh token: the old token is revoked and a new pair is
// issued after re-checking the account gates.
func (s *AuthService) Refresh(refreshToken, ipAddress, userAgent string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := s.tokens.IsTokenRevoked(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if revoked {
		_ = s.audit.LogTokenRefresh(claims.UserID, ipAddress, userAgent, false)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if user.IsCaptain && !user.AdminVerified {
		return nil, ErrCaptainNotVerified
	}

	if err := s.tokens.RevokeToken(refreshToken); err != nil {
		s.logger.WithError(err).Warn("Failed to revoke rotated refresh token")
	}

	pair, err := s.issueTokens(user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	_ = s.audit.LogTokenRefresh(user.ID, ipAddress, userAgent, true)

	return pair, nil
}

// Logout revokes all of the user's refresh tokens
func (s *AuthService) Logout(userID uuid.UUID) error {
	return s.tokens.RevokeAllUserTokens(userID)
}

// GetUser loads a user by id
func (s *AuthService) GetUser(userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
