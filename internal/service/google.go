package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleUserInfo is the verified identity extracted from a Google ID
// token assertion.
type GoogleUserInfo struct {
	Email         string
	SubjectID     string
	EmailVerified bool
}

// GoogleVerifier validates Google ID tokens against the tokeninfo
// endpoint and checks the assertion was issued for this service's
// registered client id.
type GoogleVerifier struct {
	clientID string
	endpoint string
	client   *http.Client
}

// NewGoogleVerifier returns a verifier bound to the given OAuth client id.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		endpoint: googleTokenInfoURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// tokenInfoResponse is the subset of the tokeninfo payload we rely on.
// Google returns every field as a string.
type tokenInfoResponse struct {
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	Sub           string `json:"sub"`
	EmailVerified string `json:"email_verified"`
}

// VerifyIDToken resolves the assertion to a verified identity. Any
// failure -- transport error, non-200 answer, audience mismatch, missing
// email or subject -- is ErrIdentityVerification; callers never learn
// which check failed.
func (g *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (GoogleUserInfo, error) {
	reqURL := g.endpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return GoogleUserInfo{}, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return GoogleUserInfo{}, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleUserInfo{}, fmt.Errorf("%w: tokeninfo status %d", ErrIdentityVerification, resp.StatusCode)
	}

	var body tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return GoogleUserInfo{}, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}
	if body.Aud != g.clientID {
		return GoogleUserInfo{}, fmt.Errorf("%w: audience mismatch", ErrIdentityVerification)
	}
	if body.Email == "" || body.Sub == "" {
		return GoogleUserInfo{}, fmt.Errorf("%w: incomplete payload", ErrIdentityVerification)
	}

	return GoogleUserInfo{
		Email:         body.Email,
		SubjectID:     body.Sub,
		EmailVerified: body.EmailVerified == "true",
	}, nil
}
