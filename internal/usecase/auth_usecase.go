package usecase

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"shop/internal/domain/apperr"
	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthUsecase struct {
	users     repo.UserRepository
	jwtSecret []byte
}

func NewAuthUsecase(users repo.UserRepository, jwtSecret string) *AuthUsecase {
	return &AuthUsecase{users: users, jwtSecret: []byte(jwtSecret)}
}

type TokenOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (u *AuthUsecase) Register(ctx context.Context, email, password string) (int64, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !emailPattern.MatchString(email) {
		return 0, apperr.New(apperr.KindValidation, "invalid email")
	}
	// パスワード最低文字数
	if len(password) < 8 {
		return 0, apperr.New(apperr.KindValidation, "password too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, err
	}

	id, err := u.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return 0, apperr.New(apperr.KindConflict, "email already used")
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (u *AuthUsecase) Login(ctx context.Context, email, password string) (TokenOutput, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenOutput{}, apperr.New(apperr.KindValidation, "email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return TokenOutput{}, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return TokenOutput{}, err
	}
	if !user.IsActive {
		return TokenOutput{}, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return TokenOutput{}, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	now := time.Now()
	expiresAt := now.Add(accessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.jwtSecret)
	if err != nil {
		return TokenOutput{}, err
	}

	return TokenOutput{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
