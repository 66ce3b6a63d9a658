package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"intuitive/config"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
)

const maxExchangeResponseBytes = 1 << 20

// AssertionExchanger trades custom tokens for ID tokens through the Identity
// Toolkit signInWithCustomToken endpoint.
type AssertionExchanger struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewAssertionExchanger creates an exchanger from the firebase config section.
func NewAssertionExchanger(cfg *config.Config) service.AssertionExchanger {
	return NewAssertionExchangerWithClient(
		&http.Client{Timeout: cfg.Firebase.RequestTimeout},
		cfg.Firebase.ExchangeURL,
		cfg.Firebase.APIKey,
	)
}

// NewAssertionExchangerWithClient creates an exchanger using the given client and endpoint.
func NewAssertionExchangerWithClient(client *http.Client, endpoint, apiKey string) *AssertionExchanger {
	return &AssertionExchanger{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

type exchangeRequest struct {
	Token             string `json:"token"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type exchangeResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// ExchangeAssertion posts the assertion and returns the issued ID token.
func (e *AssertionExchanger) ExchangeAssertion(ctx context.Context, assertion string) (string, error) {
	body, err := json.Marshal(exchangeRequest{Token: assertion, ReturnSecureToken: true})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode exchange request")
	}

	endpoint, err := e.endpointURL()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create exchange request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", domainerrors.ErrProviderUnavailable.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxExchangeResponseBytes))
	if err != nil {
		return "", domainerrors.ErrProviderUnavailable.WithDetails(err.Error())
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", domainerrors.ErrProviderUnavailable.WithDetails(resp.Status)
	case resp.StatusCode != http.StatusOK:
		return "", domainerrors.ErrInvalidAssertion.WithDetails(resp.Status + ": " + string(payload))
	}

	var out exchangeResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", domainerrors.ErrInvalidAssertion.WithDetails("malformed exchange response")
	}
	if out.IDToken == "" {
		return "", domainerrors.ErrInvalidAssertion.WithDetails("exchange response has no idToken")
	}

	return out.IDToken, nil
}

func (e *AssertionExchanger) endpointURL() (string, error) {
	u, err := url.Parse(e.endpoint)
	if err != nil {
		return "", errors.Wrap(err, "invalid exchange endpoint")
	}

	if e.apiKey != "" {
		q := u.Query()
		q.Set("key", e.apiKey)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
