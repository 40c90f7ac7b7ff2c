package mockserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const ctxUserID = "user_id"

type loginInput struct {
	Email    string `json:"Email" binding:"required,email"`
	Password string `json:"Password" binding:"required"`
}

type refreshInput struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Email and password are required", nil)
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(input.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(input.Password)) != nil {
		writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	access, expiresIn, err := s.issueAccessToken(u.id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to issue token", nil)
		return
	}
	refresh := s.issueRefreshToken(u.id)
	s.loginCount.Add(1)
	s.logger.Info("user logged in", "user_id", u.id)

	writeEnvelope(c, http.StatusOK, "Login successful", gin.H{
		"UserId":       u.id,
		"AccessToken":  access,
		"RefreshToken": refresh,
		"expiresIn":    expiresIn,
	})
}

// refresh rotates the refresh token: the presented one is consumed.
func (s *Server) refresh(c *gin.Context) {
	s.refreshCount.Add(1)

	var input refreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, http.StatusUnauthorized, "TOKEN_REQUIRED", "Refresh token required", nil)
		return
	}

	s.mu.Lock()
	grant, ok := s.grants[input.RefreshToken]
	delete(s.grants, input.RefreshToken)
	s.mu.Unlock()

	if !ok {
		writeError(c, http.StatusUnauthorized, "TOKEN_NOT_FOUND", "Invalid refresh token", nil)
		return
	}
	if time.Now().After(grant.expiresAt) {
		writeError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Refresh token expired", nil)
		return
	}

	access, expiresIn, err := s.issueAccessToken(grant.userID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Failed to issue token", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": s.issueRefreshToken(grant.userID),
		"expiresIn":    expiresIn,
	})
}

func (s *Server) logout(c *gin.Context) {
	if jti, ok := c.Get("jti"); ok {
		s.mu.Lock()
		s.revoked[jti.(string)] = struct{}{}
		s.mu.Unlock()
	}
	writeEnvelope(c, http.StatusOK, "Logged out", nil)
}

// requireAuth accepts only current-generation HS256 access tokens.
func (s *Server) requireAuth(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		abortUnauthorized(c, "missing authorization token")
		return
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		abortUnauthorized(c, "invalid or expired token")
		return
	}
	if typ, _ := claims["typ"].(string); typ != "access" {
		abortUnauthorized(c, "invalid token type")
		return
	}
	if gen, _ := claims["gen"].(float64); int64(gen) != s.tokenGeneration.Load() {
		abortUnauthorized(c, "token revoked")
		return
	}
	jti, _ := claims["jti"].(string)
	s.mu.Lock()
	_, revoked := s.revoked[jti]
	s.mu.Unlock()
	if revoked {
		abortUnauthorized(c, "token revoked")
		return
	}

	sub, _ := claims["sub"].(string)
	c.Set(ctxUserID, sub)
	c.Set("jti", jti)
	c.Next()
}

func (s *Server) issueAccessToken(userID string) (string, int64, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.AccessTTL).Unix(),
		"typ": "access",
		"gen": s.tokenGeneration.Load(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return encoded, int64(s.cfg.AccessTTL.Seconds()), nil
}

func (s *Server) issueRefreshToken(userID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.grants[token] = refreshGrant{userID: userID, expiresAt: time.Now().Add(s.cfg.RefreshTTL)}
	s.mu.Unlock()
	return token
}

func abortUnauthorized(c *gin.Context, msg string) {
	writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", msg, nil)
	c.Abort()
}
