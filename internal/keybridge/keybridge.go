package keybridge

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
)

// Scope selects where the model API key lives
type Scope string

const (
	ScopeDurable Scope = "durable" // encrypted file, survives restarts
	ScopeSession Scope = "session" // process memory only
	ScopeNone    Scope = "none"
)

// Capabilities reports which scopes are usable
type Capabilities struct {
	Durable bool `json:"durable"`
	Session bool `json:"session"`
}

// Snapshot describes the stored key without revealing it
type Snapshot struct {
	Present      bool         `json:"present"`
	Scope        Scope        `json:"scope"`
	Capabilities Capabilities `json:"capabilities"`
}

// Bridge stores the single model API key across a durable scope and a
// session scope. The durable copy is encrypted at rest. Setting the key
// in one scope clears the other so exactly one copy exists.
type Bridge struct {
	mu        sync.RWMutex
	file      string
	aead      interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
	session   string
	durableOK bool
	logger    *zap.Logger
}

// New creates a bridge. secret derives the at-rest encryption key; the
// durable scope is probed once and disabled if the file location is not
// writable.
func New(file, secret string, logger *zap.Logger) (*Bridge, error) {
	sum := sha256.Sum256([]byte(secret))
	aead, err := chacha20poly1305.New(sum[:])
	if err != nil {
		return nil, err
	}

	b := &Bridge{file: file, aead: aead, logger: logger}
	b.durableOK = b.probeDurable()
	if !b.durableOK {
		logger.Warn("durable key scope unavailable, session scope only", zap.String("file", file))
	}
	return b, nil
}

func (b *Bridge) probeDurable() bool {
	probe := b.file + ".probe"
	if err := os.WriteFile(probe, []byte("1"), 0o600); err != nil {
		return false
	}
	os.Remove(probe)
	return true
}

// Set stores the key in the preferred scope, falling back to the other
// when the preferred one is unavailable. An empty value clears both
// scopes. Returns the scope actually used.
func (b *Bridge) Set(value string, preferred Scope) (Scope, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		b.Clear()
		return ScopeNone, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if preferred != ScopeSession && b.durableOK {
		if err := b.writeDurable(value); err != nil {
			b.logger.Warn("durable key write failed, using session scope", zap.Error(err))
			b.session = value
			return ScopeSession, nil
		}
		b.session = ""
		return ScopeDurable, nil
	}

	b.session = value
	b.removeDurable()
	return ScopeSession, nil
}

// Credential returns the stored key, durable scope first. Implements
// the credential source consumed by the model client.
func (b *Bridge) Credential() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.durableOK {
		if key, err := b.readDurable(); err == nil && key != "" {
			return key
		}
	}
	return b.session
}

// Snapshot reports presence and scope without exposing the key
func (b *Bridge) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	caps := Capabilities{Durable: b.durableOK, Session: true}

	if b.durableOK {
		if key, err := b.readDurable(); err == nil && key != "" {
			return Snapshot{Present: true, Scope: ScopeDurable, Capabilities: caps}
		}
	}
	if b.session != "" {
		return Snapshot{Present: true, Scope: ScopeSession, Capabilities: caps}
	}
	return Snapshot{Present: false, Scope: ScopeNone, Capabilities: caps}
}

// Clear removes the key from both scopes
func (b *Bridge) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = ""
	b.removeDurable()
}

func (b *Bridge) writeDurable(value string) error {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(value), nil)
	return os.WriteFile(b.file, sealed, 0o600)
}

func (b *Bridge) readDurable() (string, error) {
	sealed, err := os.ReadFile(b.file)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(sealed) < chacha20poly1305.NonceSize {
		return "", fmt.Errorf("key file truncated")
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSize], sealed[chacha20poly1305.NonceSize:]
	plain, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (b *Bridge) removeDurable() {
	if err := os.Remove(b.file); err != nil && !os.IsNotExist(err) {
		b.logger.Warn("failed to remove durable key file", zap.Error(err))
	}
}
