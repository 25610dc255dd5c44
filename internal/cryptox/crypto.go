// Package cryptox stores account passwords at rest. A stored password
// carries its scheme as a prefix ("{ENCRYPTED}...", "{BASE64}..."); values
// without a prefix are plain text. Decryption dispatches on the prefix, so
// changing the configured scheme does not break existing rows.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SchemePlain     = "plain"
	SchemeBase64    = "base64"
	SchemeEncrypted = "encrypted"
)

const (
	prefixBase64    = "{BASE64}"
	prefixEncrypted = "{ENCRYPTED}"
)

var keySalt = []byte("carddavsync/password-key/v1")

// DeriveKey derives a 256-bit AES key from a secret using argon2id.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

type PasswordCodec struct {
	scheme string
	gcm    cipher.AEAD
}

// NewPasswordCodec returns a codec that encrypts with scheme. The secret is
// required for the encrypted scheme and is also used to decrypt encrypted
// values under any scheme.
func NewPasswordCodec(scheme, secret string) (*PasswordCodec, error) {
	switch scheme {
	case SchemePlain, SchemeBase64, SchemeEncrypted:
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
	if scheme == SchemeEncrypted && secret == "" {
		return nil, errors.New("password scheme encrypted requires a secret")
	}

	c := &PasswordCodec{scheme: scheme}
	if secret != "" {
		key := DeriveKey([]byte(secret), keySalt)
		defer common.WipeByteArray(key)

		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		c.gcm, err = cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *PasswordCodec) Encrypt(clear string) (string, error) {
	switch c.scheme {
	case SchemeBase64:
		return prefixBase64 + base64.StdEncoding.EncodeToString([]byte(clear)), nil
	case SchemeEncrypted:
		nonce := common.GenerateRandByteArray(c.gcm.NonceSize())
		sealed := c.gcm.Seal(nonce, nonce, []byte(clear), nil)
		return prefixEncrypted + base64.StdEncoding.EncodeToString(sealed), nil
	default:
		return clear, nil
	}
}

func (c *PasswordCodec) Decrypt(stored string) (string, error) {
	switch {
	case strings.HasPrefix(stored, prefixBase64):
		b, err := base64.StdEncoding.DecodeString(stored[len(prefixBase64):])
		if err != nil {
			return "", fmt.Errorf("decode base64 password: %w", err)
		}
		return string(b), nil

	case strings.HasPrefix(stored, prefixEncrypted):
		if c.gcm == nil {
			return "", errors.New("encrypted password found but no secret is configured")
		}
		b, err := base64.StdEncoding.DecodeString(stored[len(prefixEncrypted):])
		if err != nil {
			return "", fmt.Errorf("decode encrypted password: %w", err)
		}
		ns := c.gcm.NonceSize()
		if len(b) < ns {
			return "", errors.New("encrypted password too short")
		}
		clear, err := c.gcm.Open(nil, b[:ns], b[ns:], nil)
		if err != nil {
			return "", fmt.Errorf("decrypt password: %w", err)
		}
		return string(clear), nil

	default:
		return stored, nil
	}
}
