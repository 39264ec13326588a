package eventmodels

import "time"

type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// IsValid reports whether the token is usable for at least another margin.
func (t *AccessToken) IsValid(now time.Time, margin time.Duration) bool {
	if t == nil || t.Token == "" {
		return false
	}

	return now.Before(t.ExpiresAt.Add(-margin))
}

type TokenRequestDTO struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

type TokenResponseDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (dto TokenResponseDTO) ToModel(now time.Time) AccessToken {
	return AccessToken{
		Token:     dto.AccessToken,
		ExpiresAt: now.Add(time.Duration(dto.ExpiresIn) * time.Second),
	}
}
