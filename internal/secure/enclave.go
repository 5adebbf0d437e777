package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer provides memory-safe storage for sensitive data.
// It wraps memguard.Enclave to encrypt secrets at rest in memory
// and protect them from swapping via mlock.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// NewSecureBuffer seals data into an enclave. memguard wipes the source
// slice, so callers must not reuse it.
func NewSecureBuffer(data []byte) *SecureBuffer {
	buf := &SecureBuffer{}
	if len(data) > 0 {
		buf.enclave = memguard.NewEnclave(data)
	}
	return buf
}

// NewSecureString seals a string value.
func NewSecureString(s string) *SecureBuffer {
	return NewSecureBuffer([]byte(s))
}

// Empty reports whether the buffer holds no secret.
func (s *SecureBuffer) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed || s.enclave == nil
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed || s.enclave == nil {
		return memguard.NewBuffer(0), nil
	}
	return s.enclave.Open()
}

// WithString decrypts the secret, passes it to fn and wipes the plaintext
// buffer afterwards. The string aliases the locked buffer, so fn must not
// keep it past its return; use strings.Clone for anything that outlives fn.
func (s *SecureBuffer) WithString(fn func(string) error) error {
	locked, err := s.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.String())
}

// Destroy marks this SecureBuffer as destroyed. It is idempotent.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}

// Purge wipes every memguard-managed region. Call once at process exit.
func Purge() {
	memguard.Purge()
}
