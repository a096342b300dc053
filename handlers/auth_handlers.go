// api/handlers/auth_handlers.go
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gemstore/api/models"
	"gemstore/api/store"
	"gemstore/api/utils"
)

type AdminStore interface {
	CreateUser(ctx context.Context, email string, hashedPassword []byte) (*models.Admin, error)
	GetUserByEmail(ctx context.Context, email string) (*models.Admin, error)
}

// AuthHandlers registers dashboard administrators and hands out the token
// cookie the stats routes require.
type AuthHandlers struct {
	admins AdminStore
}

func NewAuthHandlers(admins AdminStore) *AuthHandlers {
	return &AuthHandlers{admins: admins}
}

// Signup creates an admin account. Duplicate emails are caught by the
// unique index on users.email and reported as 409.
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req models.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	admin, err := h.admins.CreateUser(c.Request.Context(), req.Email, hash)
	switch {
	case errors.Is(err, store.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "An admin with this email already exists"})
		return
	case err != nil:
		log.Printf("ERROR: Failed to register admin %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register admin"})
		return
	}

	log.Printf("Admin registered: ID=%d, Email=%s", admin.ID, admin.Email)
	c.JSON(http.StatusCreated, gin.H{"message": "Admin registered", "user_email": admin.Email})
}

// Login checks credentials and sets the token cookie. Unknown emails and
// wrong passwords get the same 401; store failures are 500.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	admin, err := h.admins.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		log.Printf("ERROR: Admin lookup failed for %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up admin"})
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(req.Password)) != nil {
		log.Printf("Rejected login for %s", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateJWT(admin)
	if err != nil {
		log.Printf("ERROR: Failed to sign token for admin %d: %v", admin.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	setTokenCookie(c, token, int(utils.TokenTTL.Seconds()))
	log.Printf("Admin logged in: ID=%d", admin.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user_email": admin.Email})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func setTokenCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.TokenCookie, value, maxAge, "/", "", false, true)
}
