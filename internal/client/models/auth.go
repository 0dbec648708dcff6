package models

type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,pwd"`
	FirstName string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthResult is the data of signup, signin and verify-email responses.
// Token is empty when sign-up still requires email verification.
type AuthResult struct {
	User                 *User  `json:"user"`
	Token                string `json:"token,omitempty"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
}
