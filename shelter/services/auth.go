package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"pawhaven/shelter/auth"
	"pawhaven/shelter/schema"
	"pawhaven/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService struct {
	db             *gorm.DB
	auth           *auth.Authenticator
	adminSecretKey string
}

func (s *AuthService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/user", func(r chi.Router) {
		r.Post("/register", s.RegisterUser)
		r.Post("/login", s.LoginUser)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware()...)
			r.Get("/verify", s.Verify)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/register", s.RegisterAdmin)
		r.Post("/login", s.LoginAdmin)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware()...)
			r.Use(auth.AdminOnly())
			r.Get("/verify", s.Verify)
		})
	})

	return r
}

type principalInfo struct {
	Id       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Admin    bool      `json:"admin"`
	Status   string    `json:"status"`
}

func convertToPrincipalInfo(user *schema.User) principalInfo {
	return principalInfo{
		Id:       user.Id,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
		Admin:    user.IsAdmin,
		Status:   user.Status,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=6"`
}

type adminRegisterRequest struct {
	registerRequest
	SecretKey string `json:"secretKey"`
}

func (s *AuthService) register(w http.ResponseWriter, params registerRequest, isAdmin bool) {
	user, err := s.auth.Register(params.Username, params.Email, params.Name, params.Password, isAdmin)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUsernameAlreadyInUse), errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		}
		utils.WriteError(w, responseCode, fmt.Sprintf("error registering: %v", err))
		return
	}

	slog.Info("registered new principal", "user_id", user.Id, "admin", isAdmin)
	utils.WriteData(w, convertToPrincipalInfo(&user))
}

func (s *AuthService) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var params registerRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	s.register(w, params, false)
}

func (s *AuthService) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var params adminRegisterRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	// The secret key gate comes before any field validation: a bad key is
	// rejected regardless of the rest of the payload.
	if subtle.ConstantTimeCompare([]byte(params.SecretKey), []byte(s.adminSecretKey)) != 1 {
		utils.WriteError(w, http.StatusUnauthorized, "invalid admin secret key")
		return
	}

	if !validateRequest(w, params) {
		return
	}

	s.register(w, params.registerRequest, true)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  principalInfo `json:"user"`
}

func (s *AuthService) login(w http.ResponseWriter, r *http.Request, requireAdmin bool) {
	var params loginRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}
	if !validateRequest(w, params) {
		return
	}

	user, token, err := s.auth.Login(params.Username, params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.Error("error during login", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	// Same generic response as bad credentials so that the admin login
	// endpoint does not reveal which accounts hold the admin role.
	if requireAdmin && !user.IsAdmin {
		utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	utils.WriteData(w, loginResponse{Token: token, User: convertToPrincipalInfo(&user)})
}

func (s *AuthService) LoginUser(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, false)
}

func (s *AuthService) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, true)
}

func (s *AuthService) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteData(w, convertToPrincipalInfo(&user))
}
