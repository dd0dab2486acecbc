package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/domain/session"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/middleware"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/response"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/jwt"
)

type AuthHandler interface {
	CheckMobile(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	SetPassword(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	jwtService     jwt.Service
	userService    user.UserService
	sessionService session.SessionService
}

func NewAuthHandler(jwtService jwt.Service, userService user.UserService, sessionService session.SessionService) AuthHandler {
	return &AuthHandlerImpl{
		jwtService:     jwtService,
		userService:    userService,
		sessionService: sessionService,
	}
}

// CheckMobile implements AuthHandler. It is the first step of the wizard and
// tells the client whether to ask for a PIN or start registration.
func (a *AuthHandlerImpl) CheckMobile(w http.ResponseWriter, r *http.Request) {
	var req user.CheckMobileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CheckMobile decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	u, err := a.userService.GetUserByMobile(r.Context(), req.Mobile)
	if err != nil {
		slog.Error("CheckMobile service error", "error", err)
		response.HandleError(w, err)
		return
	}

	resp := user.CheckMobileResponse{}
	if u != nil {
		role := string(u.Role)
		resp.Exists = true
		resp.HasPassword = u.HasPassword()
		resp.Name = &u.Name
		resp.Role = &role
	}
	response.Success(w, resp)
}

// Register implements AuthHandler.
func (a *AuthHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Register decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	id, err := a.userService.CreateUser(r.Context(), req)
	if err != nil {
		slog.Error("Register service error", "error", err)
		response.HandleError(w, err)
		return
	}

	u, err := a.userService.GetUserByID(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if u == nil {
		response.HandleError(w, user.ErrUserNotFound)
		return
	}

	resp, err := a.signIn(r, *u)
	if err != nil {
		slog.Error("Register sign-in error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("User registered successfully", "user_id", id.String(), "is_local", id.IsLocal())
	response.Created(w, "User registered successfully", resp)
}

// Login implements AuthHandler.
func (a *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req user.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Login decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	u, err := a.userService.AuthenticateUser(r.Context(), req.Mobile, req.Password)
	if err != nil {
		slog.Warn("Login failed", "error", err)
		response.HandleError(w, err)
		return
	}

	resp, err := a.signIn(r, *u)
	if err != nil {
		slog.Error("Login sign-in error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("User logged in successfully", "user_id", u.ID.String())
	response.SuccessWithMessage(w, "User logged in successfully", resp)
}

func (a *AuthHandlerImpl) signIn(r *http.Request, u user.User) (user.AuthResponse, error) {
	if err := a.sessionService.SignIn(r.Context(), u); err != nil {
		return user.AuthResponse{}, err
	}

	token, expiresAt, err := a.jwtService.GenerateAccessToken(u.ID, u.Mobile, u.Role)
	if err != nil {
		return user.AuthResponse{}, err
	}

	return user.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt - time.Now().Unix(),
		User:        user.NewUserResponse(u),
	}, nil
}

// Logout implements AuthHandler.
func (a *AuthHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	a.jwtService.RevokeToken(claims.Token, claims.ExpiresAt)

	if active := a.sessionService.Current(); active != nil && active.ID == claims.UserID {
		if err := a.sessionService.SignOut(r.Context()); err != nil {
			slog.Error("Logout session error", "error", err)
			response.HandleError(w, err)
			return
		}
	}

	response.SuccessWithMessage(w, "User logged out successfully", nil)
}

// Me implements AuthHandler.
func (a *AuthHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	u, err := a.userService.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if u == nil {
		response.HandleError(w, user.ErrUserNotFound)
		return
	}
	response.Success(w, user.NewUserResponse(*u))
}

// SetPassword implements AuthHandler.
func (a *AuthHandlerImpl) SetPassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	var req user.SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := a.userService.SetPassword(r.Context(), claims.UserID, req.Password); err != nil {
		slog.Error("SetPassword service error", "error", err)
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "PIN updated successfully", nil)
}
