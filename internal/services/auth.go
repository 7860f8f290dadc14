package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/errs"
	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/repos"
	"github.com/jobhackerbot/backend/internal/requestdata"
	"github.com/jobhackerbot/backend/internal/types"
	"github.com/jobhackerbot/backend/internal/utils"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) error
	Login(ctx context.Context, email, password string) (string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context) error

	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || user.Password == "" {
		return errs.Validationf("email and password are required")
	}
	exists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return errs.Storage(err)
	}
	if exists {
		return errs.Validationf("email %s is already registered", user.Email)
	}
	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		return errs.Storage(err)
	}
	user.Password = hashed

	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.userRepo.Create(ctx, tx, user); err != nil {
			return errs.Storage(err)
		}
		as.log.Info("registered user", "userID", user.ID, "email", user.Email)
		return nil
	})
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", errs.Forbiddenf("invalid email or password")
		}
		return "", "", errs.Storage(err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return "", "", errs.Forbiddenf("invalid email or password")
	}

	var access, refresh string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		access, refresh, err = as.issueTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		return "", "", err
	}
	as.log.Debug("user logged in", "userID", user.ID)
	return access, refresh, nil
}

// Refresh rotates a token pair: the presented refresh token is revoked and a
// fresh pair is issued in the same transaction.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	stored, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", errs.Forbiddenf("unknown refresh token")
		}
		return "", "", errs.Storage(err)
	}
	if _, err := as.parseToken(refreshToken); err != nil {
		return "", "", errs.Forbiddenf("invalid refresh token: %v", err)
	}
	user, err := as.userRepo.GetByID(ctx, nil, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", errs.NotFoundf("user %s", stored.UserID)
		}
		return "", "", errs.Storage(err)
	}

	var access, refresh string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.FullDeleteByID(ctx, tx, stored.ID); err != nil {
			return errs.Storage(err)
		}
		access, refresh, err = as.issueTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Logout revokes every token the authenticated user holds.
func (as *authService) Logout(ctx context.Context) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if err := as.userTokenRepo.FullDeleteByUserID(ctx, nil, userID); err != nil {
		return errs.Storage(err)
	}
	as.log.Debug("user logged out", "userID", userID)
	return nil
}

func (as *authService) issueTokenPair(ctx context.Context, tx *gorm.DB, user *types.User) (string, string, error) {
	access, err := as.signToken(user.ID, as.accessTTL)
	if err != nil {
		return "", "", errs.Storage(err)
	}
	refresh, err := as.signToken(user.ID, as.refreshTTL)
	if err != nil {
		return "", "", errs.Storage(err)
	}
	token := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, token); err != nil {
		return "", "", errs.Storage(err)
	}
	return access, refresh, nil
}

func (as *authService) signToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) parseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// SetContextFromToken validates a bearer token and stores the caller's
// identity in the request context.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := as.parseToken(tokenString)
	if err != nil {
		return ctx, errs.Forbiddenf("invalid token: %v", err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, errs.Forbiddenf("invalid token subject")
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
