package mercari

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// signer produces DPoP proof JWTs (ES256) for search requests. The key is
// ephemeral and lives as long as the Client.
type signer struct {
	key      *ecdsa.PrivateKey
	jwk      jwk
	deviceID string
	now      func() time.Time
}

type jwk struct {
	Crv string `json:"crv"`
	Kty string `json:"kty"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

type proofClaims struct {
	HTU  string `json:"htu"`
	HTM  string `json:"htm"`
	UUID string `json:"uuid"`
	jwt.RegisteredClaims
}

func newSigner() (*signer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate dpop key: %w", err)
	}
	pub, err := key.PublicKey.ECDH()
	if err != nil {
		return nil, fmt.Errorf("export dpop key: %w", err)
	}
	// Uncompressed point: 0x04 || X || Y.
	raw := pub.Bytes()
	b64 := base64.RawURLEncoding
	return &signer{
		key: key,
		jwk: jwk{
			Crv: "P-256",
			Kty: "EC",
			X:   b64.EncodeToString(raw[1:33]),
			Y:   b64.EncodeToString(raw[33:65]),
		},
		deviceID: uuid.NewString(),
		now:      time.Now,
	}, nil
}

func (s *signer) proof(method, url string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, proofClaims{
		HTU:  url,
		HTM:  method,
		UUID: s.deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	})
	token.Header["typ"] = "dpop+jwt"
	token.Header["jwk"] = s.jwk

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign dpop proof: %w", err)
	}
	return signed, nil
}
