package identitysdk

import (
	"context"
	"net/http"
)

type loginResponse struct {
	envelope
	SessionGrant
	TwoFactorType string `json:"two_factor_type"`
}

// Login authenticates an identifier+password pair. When the account has a
// second factor configured and no code was supplied, the error is a
// *SecondFactorRequiredError naming the variant; call Login again with the
// code filled in.
func (c *Client) Login(ctx context.Context, kind IdentifierKind, value, password, twoFactorCode string) (SessionGrant, error) {
	body := map[string]string{
		"type":     string(kind),
		"value":    value,
		"password": password,
	}
	if twoFactorCode != "" {
		body["two_factor_code"] = twoFactorCode
	}

	var out loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/login", "", body, &out); err != nil {
		return SessionGrant{}, err
	}
	if out.Status == StatusChallenge {
		return SessionGrant{}, &SecondFactorRequiredError{Type: out.TwoFactorType}
	}
	return out.SessionGrant, nil
}

type registerResponse struct {
	envelope
	User Profile `json:"data"`
}

// Register creates an account. Every submitted channel must carry a live
// proof from VerifyCode bound to the submitted value.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Profile, error) {
	var out registerResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/register", "", req, &out); err != nil {
		return Profile{}, err
	}
	return out.User, nil
}

// ResetPassword replaces the password behind a verified identifier. The
// temp token from VerifyCode is mandatory and is consumed by this call.
func (c *Client) ResetPassword(ctx context.Context, kind IdentifierKind, value, newPassword, tempToken string) error {
	var out struct{ envelope }
	return c.doJSON(ctx, http.MethodPost, "/v1/password/reset", "", map[string]string{
		"identifier":      value,
		"identifier_type": string(kind),
		"password":        newPassword,
		"temp_token":      tempToken,
	}, &out)
}

type sessionResponse struct {
	envelope
	User Profile `json:"data"`
}

// GetSession reads the profile behind a bearer token. Revoked or expired
// sessions fail with a 401 *APIError.
func (c *Client) GetSession(ctx context.Context, token string) (Profile, error) {
	var out sessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/session", token, nil, &out); err != nil {
		return Profile{}, err
	}
	return out.User, nil
}

// Logout revokes the session behind the bearer token.
func (c *Client) Logout(ctx context.Context, token string) error {
	var out struct{ envelope }
	return c.doJSON(ctx, http.MethodPost, "/v1/logout", token, nil, &out)
}
