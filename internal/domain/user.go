package domain

type LoginRequest struct {
	UserName string `json:"user_name" validate:"required" label:"Username"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// LoginResponse is what the remote returns. Only the token is guaranteed;
// the user identifier may come back under several names.
type LoginResponse struct {
	Token    string   `json:"token"`
	UserID   RemoteID `json:"userId,omitempty"`
	ID       RemoteID `json:"id,omitempty"`
	UserName string   `json:"user_name,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	UserRole string   `json:"user_role,omitempty"`
}

func (r *LoginResponse) Identifier() string {
	if r.UserID != "" {
		return r.UserID.String()
	}
	return r.ID.String()
}

type RegisterRequest struct {
	UserName string `json:"user_name" validate:"required,min=3" label:"Username"`
	Password string `json:"password" validate:"required,min=6" label:"Password"`
	FullName string `json:"full_name" validate:"required" label:"Full Name"`
	UserRole string `json:"user_role" validate:"required" label:"Role"`
}

type Session struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Token    string `json:"-"`
}
