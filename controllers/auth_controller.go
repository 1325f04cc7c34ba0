package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/qnahub/qna/config"
	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/services"
	"github.com/qnahub/qna/utils"
)

const tokenTTL = 72 * time.Hour

// AuthController handles authentication related endpoints including local and third-party providers.
type AuthController struct {
	db       *gorm.DB
	resolver *services.OAuthResolver
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db, resolver: services.NewOAuthResolver(db)}
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=72"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	var existing models.User
	if err := a.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicUser(user)})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenTTL)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, publicUser(user))
}

// OAuthRedirect generates a provider-specific authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := ctx.Param("provider")
	cfg, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for a user identity and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}

	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}

	cfg, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	token, err := cfg.Exchange(context.Background(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	assertion, err := fetchOAuthUser(provider, token)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, err.Error())
		return
	}

	user, err := a.resolver.FindForOAuth(*assertion)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to persist user")
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": jwtToken, "user": publicUser(*user)})
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	switch strings.ToLower(provider) {
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/google/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func fetchOAuthUser(provider string, token *oauth2.Token) (*services.OAuthAssertion, error) {
	switch strings.ToLower(provider) {
	case "github":
		return fetchGitHubUser(token)
	case "google":
		return fetchGoogleUser(token)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func fetchGitHubUser(token *oauth2.Token) (*services.OAuthAssertion, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token.AccessToken))
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	email, _ := fetchGitHubEmail(token.AccessToken)

	return &services.OAuthAssertion{
		Provider: "github",
		UID:      fmt.Sprintf("%d", payload.ID),
		Email:    email,
		Username: payload.Login,
		Avatar:   payload.AvatarURL,
	}, nil
}

func fetchGitHubEmail(accessToken string) (string, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user/emails", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github emails request failed: %s", resp.Status)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

func fetchGoogleUser(token *oauth2.Token) (*services.OAuthAssertion, error) {
	req, _ := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token.AccessToken))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &services.OAuthAssertion{
		Provider: "google",
		UID:      payload.ID,
		Email:    payload.Email,
		Username: payload.Email,
		Avatar:   payload.Picture,
	}, nil
}

func publicUser(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"avatar_url": user.AvatarURL,
		"created_at": user.CreatedAt,
	}
}
