package identitysdk

import (
	"context"
	"net/http"
)

type otpRequestResponse struct {
	envelope
	ChallengeReceipt
}

// RequestCode asks the service to dispatch a one-time code to the
// identifier. A *RateLimitedError means the previous code's resend cooldown
// is still running; the prior challenge stays live.
func (c *Client) RequestCode(ctx context.Context, kind IdentifierKind, value string) (ChallengeReceipt, error) {
	var out otpRequestResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/otp/request", "", map[string]string{
		"type":  string(kind),
		"value": value,
	}, &out)
	if err != nil {
		return ChallengeReceipt{}, err
	}
	return out.ChallengeReceipt, nil
}

type otpVerifyResponse struct {
	envelope
	Token string `json:"token"`
}

// VerifyCode submits a received code. On success it returns the single-use
// verification proof token bound to the identifier; the proof is what
// Register and ResetPassword accept.
func (c *Client) VerifyCode(ctx context.Context, kind IdentifierKind, value, code string) (string, error) {
	var out otpVerifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/otp/verify", "", map[string]string{
		"type":  string(kind),
		"value": value,
		"otp":   code,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}
