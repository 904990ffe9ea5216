package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"pawhaven/shelter/schema"
	"pawhaven/utils"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type contextKey string

const userRequestContextKey contextKey = "pawhaven-user"

var (
	// Returned for wrong password, unknown username, and disabled
	// accounts alike so that callers cannot enumerate users.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUsernameAlreadyInUse = errors.New("username is already in use")
	ErrEmailAlreadyInUse    = errors.New("email is already in use")
	ErrGeneratingJwt        = errors.New("error generating access token")
)

// bcrypt hash of an arbitrary string, compared against when the username
// does not exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Authenticator owns token issuance, the request middleware chain, and
// credential verification against the users table.
type Authenticator struct {
	jwt      *JwtManager
	db       *gorm.DB
	auditLog AuditLogger
}

func NewAuthenticator(db *gorm.DB, secret []byte, expiry time.Duration, auditStream io.Writer) *Authenticator {
	return &Authenticator{
		jwt:      NewJwtManager(secret, expiry),
		db:       db,
		auditLog: NewAuditLogger(auditStream),
	}
}

func (a *Authenticator) addUserToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			userId, err := UserIdFromClaims(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			user, err := schema.GetUser(userId, a.db)
			if err != nil {
				if errors.Is(err, schema.ErrUserNotFound) {
					utils.WriteError(w, http.StatusUnauthorized, "account no longer exists")
					return
				}
				utils.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("unable to load user %v", userId))
				return
			}

			if user.Status != schema.UserActive {
				utils.WriteError(w, http.StatusUnauthorized, "account is not active")
				return
			}

			reqCtx := context.WithValue(r.Context(), userRequestContextKey, user)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		}

		return http.HandlerFunc(handler)
	}
}

// Middleware is the chain for any authenticated route: verify the bearer
// token, then load the principal and attach it to the request context.
func (a *Authenticator) Middleware() chi.Middlewares {
	return chi.Middlewares{a.jwt.Verifier(), a.jwt.Authenticator(), a.addUserToContext()}
}

// AdminMiddleware additionally gates on the admin role and records the
// request in the audit log.
func (a *Authenticator) AdminMiddleware() chi.Middlewares {
	return append(a.Middleware(), AdminOnly(), a.auditLog.Middleware)
}

// Verifier alone parses a token if one is present without rejecting the
// request. Used on public routes that capture the submitting user when
// they happen to be signed in.
func (a *Authenticator) OptionalVerifier() func(http.Handler) http.Handler {
	return a.jwt.Verifier()
}

// OptionalUserId returns the id of a validly authenticated caller, or nil
// when the request carried no usable token.
func (a *Authenticator) OptionalUserId(r *http.Request) *uuid.UUID {
	userId, err := UserIdFromClaims(r)
	if err != nil {
		return nil
	}
	if _, err := schema.GetUser(userId, a.db); err != nil {
		return nil
	}
	return &userId
}

func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				utils.WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}

			if !user.IsAdmin {
				utils.WriteError(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(handler)
	}
}

func (a *Authenticator) Login(username, password string) (schema.User, string, error) {
	user, err := schema.GetUserByUsername(username, a.db)
	if err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			// Burn a hash comparison so that unknown usernames are not
			// distinguishable by response time.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return schema.User{}, "", ErrInvalidCredentials
		}
		return schema.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		return schema.User{}, "", ErrInvalidCredentials
	}

	if user.Status != schema.UserActive {
		return schema.User{}, "", ErrInvalidCredentials
	}

	token, err := a.jwt.CreateUserJwt(user.Id)
	if err != nil {
		return schema.User{}, "", ErrGeneratingJwt
	}

	return user, token, nil
}

func (a *Authenticator) Register(username, email, name, password string, isAdmin bool) (schema.User, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return schema.User{}, fmt.Errorf("error encrypting password: %w", err)
	}

	newUser := schema.User{
		Id:       uuid.New(),
		Username: username,
		Email:    email,
		Name:     name,
		Password: hashedPwd,
		IsAdmin:  isAdmin,
		Status:   schema.UserActive,
	}

	err = a.db.Transaction(func(txn *gorm.DB) error {
		var existingUser schema.User
		result := txn.Limit(1).Find(&existingUser, "username = ? or email = ?", username, email)
		if result.Error != nil {
			slog.Error("sql error checking for existing username/email", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected != 0 {
			if existingUser.Username == username {
				return ErrUsernameAlreadyInUse
			}
			return ErrEmailAlreadyInUse
		}

		result = txn.Create(&newUser)
		if result.Error != nil {
			slog.Error("sql error creating new user entry", "error", result.Error)
			return schema.ErrDbAccessFailed
		}

		return nil
	})

	if err != nil {
		return schema.User{}, err
	}

	return newUser, nil
}
