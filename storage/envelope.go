package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/hkdf"
)

const (
	envelopeVersion = 1
	envelopeScheme  = "aes256gcm"
	sealKeySize     = 32
	sealKeyInfo     = "algenord-portal:storage-seal:v1"
)

// Envelope is a sealed value containing AES-256-GCM encrypted data.
type Envelope struct {
	Ver        int    `json:"ver"`
	Scheme     string `json:"scheme"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeriveSealKey stretches an operator-provided secret into a 32-byte
// sealing key with HKDF-SHA256.
func DeriveSealKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("seal secret must not be empty")
	}
	h := hkdf.New(sha256.New, secret, nil, []byte(sealKeyInfo))
	k := make([]byte, sealKeySize)
	if _, err := io.ReadFull(h, k); err != nil {
		return nil, fmt.Errorf("reading from HKDF: %w", err)
	}
	return k, nil
}

// SealRecord encrypts plaintext into an Envelope bound to aad.
func SealRecord(key, plaintext, aad []byte) (*Envelope, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return &Envelope{
		Ver:        envelopeVersion,
		Scheme:     envelopeScheme,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, aad),
	}, nil
}

// OpenRecord decrypts an Envelope sealed with the same key and aad.
func OpenRecord(key []byte, env *Envelope, aad []byte) ([]byte, error) {
	if env.Ver != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Ver)
	}
	if env.Scheme != envelopeScheme {
		return nil, fmt.Errorf("unsupported envelope scheme: %s", env.Scheme)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size: %d", len(env.Nonce))
	}
	plain, err := gcm.Open(nil, env.Nonce, env.Ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("decrypting ciphertext: %w", err)
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != sealKeySize {
		return nil, fmt.Errorf("invalid AES key size: got %d, want %d", len(key), sealKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}

// Sealed wraps a Store so that values are encrypted at rest. The key name
// is used as additional authenticated data, so a value copied to another
// key fails to open.
//
// The key is copied into a memguard enclave and only decrypted into locked
// memory for the duration of one Get or Put. The caller's slice is left
// untouched and should be wiped once Sealed returns.
func Sealed(s Store, key []byte) Store {
	var enclave *memguard.Enclave
	if len(key) > 0 {
		k := make([]byte, len(key))
		copy(k, key)
		enclave = memguard.NewEnclave(k)
	}
	return &sealed{inner: s, key: enclave}
}

type sealed struct {
	inner Store
	key   *memguard.Enclave
}

// withKey runs fn with the plaintext key, destroying it afterwards.
func (s *sealed) withKey(fn func(key []byte) error) error {
	if s.key == nil {
		return fmt.Errorf("invalid AES key size: got 0, want %d", sealKeySize)
	}
	buf, err := s.key.Open()
	if err != nil {
		return fmt.Errorf("opening seal key enclave: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

func (s *sealed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope for %s: %w", key, err)
	}
	var plain []byte
	err = s.withKey(func(k []byte) error {
		var openErr error
		plain, openErr = OpenRecord(k, &env, []byte(key))
		return openErr
	})
	return plain, err
}

func (s *sealed) Put(ctx context.Context, key string, value []byte) error {
	var env *Envelope
	err := s.withKey(func(k []byte) error {
		var err error
		env, err = SealRecord(k, value, []byte(key))
		return err
	})
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, key, raw)
}

func (s *sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
