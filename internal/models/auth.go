package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a student or admin.
type LoginRequest struct {
	RollNumber string `json:"roll_number" validate:"required"`
	Password   string `json:"password" validate:"required"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// LoginResponse returns the issued token and identity.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	IssuedAt    time.Time   `json:"issued_at"`
	Student     StudentInfo `json:"student"`
}

// StudentInfo describes the authenticated identity in responses.
type StudentInfo struct {
	RollNumber string   `json:"roll_number"`
	FullName   string   `json:"full_name"`
	ClassName  string   `json:"class_name"`
	Role       UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	RollNumber string   `json:"roll_number"`
	FullName   string   `json:"full_name"`
	ClassName  string   `json:"class_name"`
	Role       UserRole `json:"role"`
	jwt.RegisteredClaims
}
