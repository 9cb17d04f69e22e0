package model

type User struct {
	ID             string `json:"user_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PatronymicName string `json:"patronymic_name,omitempty"`
	IsActive       bool   `json:"is_active"`
	IsDeleted      bool   `json:"-"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
