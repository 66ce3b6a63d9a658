package firebase

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

const testServiceAccountEmail = "firebase-adminsdk@demo-project.iam.gserviceaccount.com"

func newTestServiceAccount(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return key, serviceAccountJSON(t, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func serviceAccountJSON(t *testing.T, keyPEM []byte) []byte {
	t.Helper()

	raw, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "demo-project",
		"private_key_id": "sa-key-1",
		"private_key":    string(keyPEM),
		"client_email":   testServiceAccountEmail,
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	require.NoError(t, err)

	return raw
}
