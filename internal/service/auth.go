package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/hash"
	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/repo"
)

const accessTokenTTL = 30 * time.Minute

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: username and password (8+ chars) required", ErrValidation)
	}

	if _, err := s.Repo.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username taken", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: pwHash, Role: "user"}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.Repo.GetUserByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("%w: bad credentials", ErrUnauthorized)
	}
	if err != nil {
		return "", nil, err
	}
	if !hash.CheckPassword(password, user.PasswordHash) {
		return "", nil, fmt.Errorf("%w: bad credentials", ErrUnauthorized)
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprint(user.ID),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
