package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rehna-jp/Louer/internal/config"
	"github.com/rehna-jp/Louer/internal/models"
	"github.com/rehna-jp/Louer/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		cost     int
		wantErr  bool
	}{
		{"valid password", "password123", bcrypt.MinCost, false},
		{"empty password", "", bcrypt.MinCost, false},
		{"max length password", strings.Repeat("a", 72), bcrypt.MinCost, false},
		{"out of range cost", "password123", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, tt.cost)
			if (err != nil) != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && hash == "" {
				t.Error("HashPassword() returned empty hash")
			}
		})
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "testpassword"
	hash1, _ := HashPassword(password, bcrypt.MinCost)
	hash2, _ := HashPassword(password, bcrypt.MinCost)

	if hash1 == hash2 {
		t.Error("HashPassword() should produce different hashes for same password")
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"correct password", hash, password, true},
		{"wrong password", hash, "wrongpassword", false},
		{"empty password", hash, "", false},
		{"invalid hash", "invalidhash", password, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAccessToken(t *testing.T) {
	secret := "test-secret-key"
	p := policy.Principal{ID: 42, Email: "amina@example.com", Role: models.RoleLandlord}

	token, err := GenerateAccessToken(p, secret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	zeroID, err := GenerateAccessToken(policy.Principal{Role: models.RoleTenant}, secret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 42})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{"valid token", token, secret, false},
		{"wrong secret", token, "wrong-secret", true},
		{"invalid token", "invalid.token.here", secret, true},
		{"empty token", "", secret, true},
		{"zero subject", zeroID, secret, true},
		{"alg none", unsigned, secret, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseAccessToken(tt.token, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAccessToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && claims.Principal() != p {
				t.Errorf("ParseAccessToken() principal = %+v, want %+v", claims.Principal(), p)
			}
		})
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateAccessToken(policy.Principal{ID: 1, Role: models.RoleTenant}, secret, -1)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseAccessToken(token, secret)
	if err == nil {
		t.Error("ParseAccessToken() should return error for expired token")
	}
	if claims != nil {
		t.Error("ParseAccessToken() should return nil claims for expired token")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	token1, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	token2, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if token1 == token2 {
		t.Error("GenerateRefreshToken() should generate unique tokens")
	}
	// hex encoded 32 bytes
	if len(token1) != 64 {
		t.Errorf("GenerateRefreshToken() token length = %d, want 64", len(token1))
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{JWTSecret: "mw-secret"}
	landlord := policy.Principal{ID: 7, Email: "l@example.com", Role: models.RoleLandlord}
	good, err := GenerateAccessToken(landlord, cfg.JWTSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	r := gin.New()
	r.GET("/me", AuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetPrincipal(c).Role})
	})
	r.GET("/landlord-only", AuthMiddleware(cfg), RequireRole(models.RoleLandlord, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/tenant-only", AuthMiddleware(cfg), RequireRole(models.RoleTenant), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + good, http.StatusOK},
		{"lowercase scheme", "/me", "bearer " + good, http.StatusOK},
		{"role allowed", "/landlord-only", "Bearer " + good, http.StatusNoContent},
		{"role rejected", "/tenant-only", "Bearer " + good, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
