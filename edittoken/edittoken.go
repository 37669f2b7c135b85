// Package edittoken issues and verifies the time-limited tokens that let
// a respondent edit their own response after submitting.
package edittoken

import (
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const formIDClaim = "formId"

type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

// Issue signs a token authorizing edits to one response of one form
// until the TTL runs out.
func (i Issuer) Issue(formID, responseID string) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(responseID).
		Claim(formIDClaim, formID).
		IssuedAt(now).
		Expiration(now.Add(i.TTL)).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.Secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Verify checks signature and expiry and returns the response id the
// token was issued for.
func (i Issuer) Verify(token, formID string) (responseID string, err error) {
	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, i.Secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return "", err
	}

	claimed, ok := tok.Get(formIDClaim)
	if !ok || claimed != formID {
		return "", errors.New("token was issued for a different form")
	}
	return tok.Subject(), nil
}
