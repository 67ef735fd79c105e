package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"timecard/config"
	"timecard/database"
	"timecard/middleware"
	"timecard/models"

	"gorm.io/gorm"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		config: cfg,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login accepts a JSON body or a urlencoded form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid form data")
			return
		}
		creds.Email = r.FormValue("email")
		creds.Password = r.FormValue("password")
	}

	user, ok := database.Authenticate(database.GetDB(), creds.Email, creds.Password)
	if !ok {
		writeFail(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.JWTExpiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	middleware.LoggerFrom(r.Context()).Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

type createUserRequest struct {
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// CreateUser adds an account. Admin only.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if !user.CanCreateUsers() {
		writeFail(w, http.StatusForbidden, "FORBIDDEN", "Forbidden")
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleEmployee
	}
	if _, ok := models.ParseRole(string(req.Role)); !ok {
		writeFail(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be ADMIN, MANAGER or EMPLOYEE")
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		writeFail(w, http.StatusBadRequest, "BAD_REQUEST", "Email and a password of at least 8 characters are required")
		return
	}

	created, err := database.CreateUser(database.GetDB().WithContext(r.Context()), req.Email, req.FullName, req.Password, req.Role)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		writeFail(w, http.StatusConflict, "EMAIL_TAKEN", "A user with this email already exists")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.LoggerFrom(r.Context()).Info("user created", "user_id", created.ID, "role", created.Role, "by", user.ID)
	writeJSON(w, http.StatusCreated, created)
}
