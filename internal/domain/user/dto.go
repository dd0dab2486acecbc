package user

import (
	"strings"
	"time"

	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/validator"
)

// UserResponse represents user data in API responses. The PIN hash never leaves the service.
type UserResponse struct {
	ID                   string  `json:"id"`
	IsLocal              bool    `json:"is_local"`
	Mobile               string  `json:"mobile"`
	Name                 string  `json:"name"`
	Role                 string  `json:"role"`
	Skill                *string `json:"skill,omitempty"`
	LinkedContractorCode *string `json:"linked_contractor_code,omitempty"`
	CompanyName          *string `json:"company_name,omitempty"`
	ContractorCode       *string `json:"contractor_code,omitempty"`
	HasPassword          bool    `json:"has_password"`
	CreatedAt            string  `json:"created_at"`
}

func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:                   u.ID.String(),
		IsLocal:              u.ID.IsLocal(),
		Mobile:               u.Mobile,
		Name:                 u.Name,
		Role:                 string(u.Role),
		Skill:                u.Skill,
		LinkedContractorCode: u.LinkedContractorCode,
		CompanyName:          u.CompanyName,
		ContractorCode:       u.ContractorCode,
		HasPassword:          u.HasPassword(),
		CreatedAt:            u.CreatedAt.Format(time.RFC3339),
	}
}

// CreateUserRequest represents the final step of the registration wizard
type CreateUserRequest struct {
	Mobile      string  `json:"mobile"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Password    string  `json:"password"`
	Skill       *string `json:"skill,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Name = strings.TrimSpace(r.Name)

	if validator.IsEmpty(r.Mobile) {
		errs = append(errs, validator.ValidationError{
			Field:   "mobile",
			Message: "mobile is required",
		})
	} else if !validator.IsValidMobile(r.Mobile) {
		errs = append(errs, validator.ValidationError{
			Field:   "mobile",
			Message: "mobile must be 10 digits",
		})
	}

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if validator.IsEmpty(r.Role) {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role is required",
		})
	} else if !Role(r.Role).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must be worker or contractor",
		})
	}

	// PIN is optional at registration; it can be set later from /me/password
	if r.Password != "" && !validator.IsValidPIN(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "PIN must be 4 to 6 digits",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LoginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Mobile = strings.TrimSpace(r.Mobile)

	if !validator.IsValidMobile(r.Mobile) {
		errs = append(errs, validator.ValidationError{
			Field:   "mobile",
			Message: "mobile must be 10 digits",
		})
	}
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "PIN is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CheckMobileRequest is the first step of the login/registration wizard
type CheckMobileRequest struct {
	Mobile string `json:"mobile"`
}

func (r *CheckMobileRequest) Validate() error {
	r.Mobile = strings.TrimSpace(r.Mobile)
	if !validator.IsValidMobile(r.Mobile) {
		return validator.ValidationErrors{{
			Field:   "mobile",
			Message: "mobile must be 10 digits",
		}}
	}
	return nil
}

type CheckMobileResponse struct {
	Exists      bool    `json:"exists"`
	HasPassword bool    `json:"has_password"`
	Name        *string `json:"name,omitempty"`
	Role        *string `json:"role,omitempty"`
}

type SetPasswordRequest struct {
	Password string `json:"password"`
}

func (r *SetPasswordRequest) Validate() error {
	if !validator.IsValidPIN(r.Password) {
		return validator.ValidationErrors{{
			Field:   "password",
			Message: "PIN must be 4 to 6 digits",
		}}
	}
	return nil
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}
