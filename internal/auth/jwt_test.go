package auth

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/guyr22/web-dev-final-project/internal/models"
)

const (
	testAccessSecret  = "access-secret-access-secret-1234"
	testRefreshSecret = "refresh-secret-refresh-secret-12"
)

func testUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "johndoe",
		Email:    "john@example.com",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	user := testUser()

	token, err := svc.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("userId = %q, want %q", claims.UserID, user.ID.Hex())
	}
	if claims.Email != user.Email {
		t.Errorf("email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Username != user.Username {
		t.Errorf("username = %q, want %q", claims.Username, user.Username)
	}
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, -time.Minute, 24*time.Hour)

	token, err := svc.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	_, err = svc.VerifyAccessToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("VerifyAccessToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestShortLivedTokenExpiresAfterSleep(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, time.Second, 24*time.Hour)

	token, err := svc.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if _, err := svc.VerifyAccessToken(token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	time.Sleep(2 * time.Second)

	_, err = svc.VerifyAccessToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("VerifyAccessToken() after expiry error = %v, want ErrTokenExpired", err)
	}
}

func TestMalformedTokenIsInvalid(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	_, err := svc.VerifyAccessToken("not-a-jwt")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("VerifyAccessToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	user := testUser()

	accessToken, err := svc.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	refreshToken, err := svc.IssueRefreshToken(user.ID.Hex())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if _, err := svc.VerifyRefreshToken(accessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("access token verified as refresh token: err = %v", err)
	}
	if _, err := svc.VerifyAccessToken(refreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("refresh token verified as access token: err = %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := primitive.NewObjectID().Hex()

	token, err := svc.IssueRefreshToken(userID)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	claims, err := svc.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("VerifyRefreshToken() error = %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("userId = %q, want %q", claims.UserID, userID)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := primitive.NewObjectID().Hex()

	first, err := svc.IssueRefreshToken(userID)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}
	second, err := svc.IssueRefreshToken(userID)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if first == second {
		t.Error("two issuances in the same instant produced identical tokens")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}
