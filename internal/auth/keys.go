package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dealdesk/api-deals/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	keysOnce sync.Once
	keysErr  error
	settings config.Auth

	privKey   *rsa.PrivateKey
	pubKeys   = map[string]*rsa.PublicKey{} // kid -> pub
	activeKID string
	issuer    string
	audience  string
)

// Configure sets where the signing key lives. It must run before the first
// token is issued or validated.
func Configure(c config.Auth) {
	settings = c
}

func mustInitKeys() error {
	keysOnce.Do(func() {
		activeKID = settings.KID
		issuer = settings.Issuer
		audience = settings.Audience

		if settings.PrivateKeyPath == "" || activeKID == "" || issuer == "" || audience == "" {
			keysErr = errors.New("missing auth config: AUTH_RSA_PRIVATE_PATH/AUTH_KID/AUTH_ISSUER/AUTH_AUDIENCE")
			return
		}

		b, err := os.ReadFile(settings.PrivateKeyPath)
		if err != nil {
			keysErr = fmt.Errorf("read private key: %w", err)
			return
		}
		pk, err := parsePrivateKey(b)
		if err != nil {
			keysErr = err
			return
		}
		privKey = pk
		pubKeys[activeKID] = &privKey.PublicKey
	})
	return keysErr
}

// parsePrivateKey accepts PKCS#1 or PKCS#8 PEM.
func parsePrivateKey(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("pem decode private key failed")
	}

	var pk any
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		pk = k
	} else if k8, err2 := x509.ParsePKCS8PrivateKey(block.Bytes); err2 == nil {
		pk = k8
	} else {
		return nil, fmt.Errorf("parse private key: %v / %v", err, err2)
	}

	rk, ok := pk.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rk, nil
}

func getPriv() *rsa.PrivateKey                 { return privKey }
func getPub(kid string) (*rsa.PublicKey, bool) { p, ok := pubKeys[kid]; return p, ok }
func getKID() string                           { return activeKID }
func getIssuer() string                        { return issuer }
func getAudience() string                      { return audience }
func signMethod() jwt.SigningMethod            { return jwt.SigningMethodRS256 }
