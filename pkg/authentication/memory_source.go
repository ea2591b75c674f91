package authentication

import "sync"

// MemoryProvider authenticates against an in-memory table of password hashes.
// PasswdFile keeps its parsed file in one and swaps the table on reload.
type MemoryProvider struct {
	verifier PasswordVerifier

	mu     sync.RWMutex
	hashes map[string]string
}

// NewMemoryProvider creates a MemoryProvider holding a copy of hashes
// (user -> hash). A nil verifier means NewMultiHashVerifier.
func NewMemoryProvider(hashes map[string]string, verifier PasswordVerifier) *MemoryProvider {
	if verifier == nil {
		verifier = NewMultiHashVerifier()
	}
	p := &MemoryProvider{verifier: verifier}
	p.Replace(hashes)
	return p
}

// Replace swaps in a copy of hashes as the whole table
func (p *MemoryProvider) Replace(hashes map[string]string) {
	table := make(map[string]string, len(hashes))
	for user, hash := range hashes {
		table[user] = hash
	}
	p.mu.Lock()
	p.hashes = table
	p.mu.Unlock()
}

// Len returns the number of users in the table
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hashes)
}

// Authenticate implements Provider
func (p *MemoryProvider) Authenticate(user, password string) error {
	p.mu.RLock()
	hash, ok := p.hashes[user]
	p.mu.RUnlock()

	return verifyHash(p.verifier, user, password, hash, ok)
}

// verifyHash is shared by the table-backed providers. Unknown users and wrong
// passwords get the same reason so clients cannot enumerate accounts.
func verifyHash(verifier PasswordVerifier, user, password, hash string, known bool) error {
	if !known {
		return Reject(user, ErrInvalidCredentials.Error(), ErrUnknownUser)
	}
	if err := verifier.VerifyPassword(password, hash); err != nil {
		return Reject(user, ErrInvalidCredentials.Error(), ErrInvalidCredentials)
	}
	return nil
}
