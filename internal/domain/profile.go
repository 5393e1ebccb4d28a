package domain

type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Image string `json:"image"`
	Bio   string `json:"bio"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,max=100" label:"Name"`
	Email string `json:"email" validate:"omitempty,email" label:"Email"`
	Phone string `json:"phone" validate:"omitempty,phone" label:"Phone"`
	Image string `json:"image"`
	Bio   string `json:"bio" validate:"omitempty,max=500" label:"Bio"`
}

type ProfileResult struct {
	Profile      *Profile `json:"profile"`
	Synced       bool     `json:"synced"`
	RemoteError  string   `json:"remoteError,omitempty"`
	AuthRequired bool     `json:"authRequired,omitempty"`
}
