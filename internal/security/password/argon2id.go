// Package password verifica credenciales de usuarios locales.
// Las contraseñas configuradas pueden venir en claro (demo) o como PHC argon2id.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

const phcPrefix = "$argon2id$"

// Límites aceptados al leer un PHC de la config. argon2.IDKey entra en panic
// con t o p en cero y no acota la memoria.
const (
	maxMemoryKiB = 1 << 21 // 2 GiB
	maxTime      = 64
	minSaltLen   = 8
	minKeyLen    = 16
)

func (p Params) valid() bool {
	return p.Time >= 1 && p.Time <= maxTime &&
		p.Parallelism >= 1 &&
		p.Memory >= 8*uint32(p.Parallelism) && p.Memory <= maxMemoryKiB &&
		p.KeyLen >= minKeyLen
}

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	if !p.valid() {
		return "", fmt.Errorf("argon2id: invalid params m=%d t=%d p=%d keylen=%d", p.Memory, p.Time, p.Parallelism, p.KeyLen)
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// IsHashed indica si stored es un PHC argon2id.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, phcPrefix)
}

// Verify compara plain contra un PHC argon2id.
func Verify(plain, phc string) bool {
	parts := strings.Split(phc, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, dk
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != 19 {
		return false
	}
	var m, t, p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	if m < 0 || m > maxMemoryKiB || t < 1 || t > maxTime || p < 1 || p > 255 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minSaltLen {
		return false
	}
	dkStored, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(dkStored) < minKeyLen || len(dkStored) > 1024 {
		return false
	}
	params := Params{Memory: uint32(m), Time: uint32(t), Parallelism: uint8(p), KeyLen: uint32(len(dkStored))}
	if !params.valid() {
		return false
	}
	key := argon2.IDKey([]byte(plain), salt, params.Time, params.Memory, params.Parallelism, params.KeyLen)
	return subtle.ConstantTimeCompare(key, dkStored) == 1
}

// Check acepta tanto un PHC como un secreto en claro. El caso en claro
// también compara en tiempo constante.
func Check(plain, stored string) bool {
	if stored == "" {
		return false
	}
	if IsHashed(stored) {
		return Verify(plain, stored)
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1
}
