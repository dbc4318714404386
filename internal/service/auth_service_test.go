package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classroll/classroll-api/internal/models"
	appErrors "github.com/classroll/classroll-api/pkg/errors"
)

type fakeAuthRepo struct {
	students map[string]*models.Student
}

func (f *fakeAuthRepo) FindByRoll(_ context.Context, roll string) (*models.Student, error) {
	student, ok := f.students[roll]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *student
	return &clone, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass7"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeAuthRepo{students: map[string]*models.Student{
		"7": {
			RollNumber:   "7",
			FullName:     "Student 7",
			ClassName:    "10",
			Role:         models.RoleStudent,
			PasswordHash: string(hash),
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test_secret",
		Expiration: time.Hour,
		Issuer:     "classroll-test",
	})
	return svc, repo
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{RollNumber: "7", Password: "pass7"})
	require.NoError(t, err)
	assert.Equal(t, "7", resp.Student.RollNumber)
	assert.Equal(t, models.RoleStudent, resp.Student.Role)
	assert.EqualValues(t, 3600, resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.RollNumber)
	assert.Equal(t, "Student 7", claims.FullName)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{RollNumber: "7", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginRejectsUnknownRoll(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{RollNumber: "404", Password: "pass7"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.students["7"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{RollNumber: "7", Password: "pass7"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{RollNumber: "7"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{RollNumber: "7", Password: "pass7"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(&fakeAuthRepo{}, nil, nil, AuthConfig{Secret: "other_secret", Expiration: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
