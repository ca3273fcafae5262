package models

// TokenPair carries a freshly issued access/refresh token pair. It is never
// persisted as a document; the refresh token alone is stored on the user.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"` // access token lifetime in seconds
}

// TokenPayload is the identity embedded in both tokens.
type TokenPayload struct {
	UserID string   `json:"id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}
