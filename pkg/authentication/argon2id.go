package authentication

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2ID verifies Argon2id PHC-formatted password hashes.
// Example format: $argon2id$v=19$m=65536,t=2,p=1$<salt_b64>$<hash_b64>
type Argon2ID struct{}

// NewArgon2ID returns an Argon2ID verifier.
func NewArgon2ID() *Argon2ID { return &Argon2ID{} }

// VerifyPassword verifies a password against a PHC-formatted argon2id hash.
func (a *Argon2ID) VerifyPassword(password, hashedPassword string) error {
	params, salt, expected, err := parseArgon2ID(hashedPassword)
	if err != nil {
		return err
	}

	derived := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(expected)))
	if subtle.ConstantTimeCompare(derived, expected) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

var errArgon2Format = errors.New("unsupported or invalid argon2id format")

// parseArgon2ID splits a PHC string. The v= segment is optional.
func parseArgon2ID(s string) (argon2Params, []byte, []byte, error) {
	params := argon2Params{memory: 64 * 1024, time: 2, threads: 1}

	parts := strings.Split(s, "$")
	if len(parts) < 2 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, errArgon2Format
	}
	parts = parts[2:]
	if len(parts) > 0 && strings.HasPrefix(parts[0], "v=") {
		if _, err := strconv.Atoi(strings.TrimPrefix(parts[0], "v=")); err != nil {
			return params, nil, nil, fmt.Errorf("invalid argon2id version: %w", err)
		}
		parts = parts[1:]
	}
	// params, salt, hash
	if len(parts) != 3 {
		return params, nil, nil, errArgon2Format
	}

	seen := 0
	for _, kv := range strings.Split(parts[0], ",") {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return params, nil, nil, fmt.Errorf("invalid argon2id parameter %q", kv)
		}
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil || n == 0 {
			return params, nil, nil, fmt.Errorf("invalid argon2id parameter %q", kv)
		}
		switch key {
		case "m":
			params.memory = uint32(n)
		case "t":
			params.time = uint32(n)
		case "p":
			if n > 255 {
				return params, nil, nil, fmt.Errorf("invalid argon2id parameter %q", kv)
			}
			params.threads = uint8(n)
		default:
			return params, nil, nil, fmt.Errorf("unknown argon2id parameter %q", key)
		}
		seen++
	}
	if seen != 3 {
		return params, nil, nil, errors.New("argon2id requires m, t and p parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return params, nil, nil, fmt.Errorf("invalid argon2id salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return params, nil, nil, fmt.Errorf("invalid argon2id hash: %w", err)
	}
	if len(hash) == 0 {
		return params, nil, nil, errors.New("invalid argon2id hash: empty")
	}
	return params, salt, hash, nil
}
