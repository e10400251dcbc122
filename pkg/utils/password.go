package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher 是密码落库前唯一的处理入口；换算法只改配置，不动调用方
type Hasher interface {
	Hash(pw string) (string, error)
	Verify(pw, stored string) bool
}

// ErrPasswordRejected 密码本身不被算法接受（如 bcrypt 超过 72 字节），属于调用方输入错误
var ErrPasswordRejected = errors.New("password rejected")

// NewHasher plain / bcrypt / argon2id
func NewHasher(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", "plain":
		return PlainHasher{}, nil
	case "bcrypt":
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	case "argon2id":
		return Argon2Hasher{}, nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", name)
}

// PlainHasher 明文存储（沿用旧系统行为，已知缺陷，生产请换 bcrypt / argon2id）
type PlainHasher struct{}

func (PlainHasher) Hash(pw string) (string, error) { return pw, nil }
func (PlainHasher) Verify(pw, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(pw), []byte(stored)) == 1
}

type BcryptHasher struct{ Cost int }

func (h BcryptHasher) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: longer than 72 bytes", ErrPasswordRejected)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (BcryptHasher) Verify(pw, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pw)) == nil
}

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Argon2Hasher 输出 $argon2id$v=19$m=65536,t=1,p=4$salt$hash
type Argon2Hasher struct{}

func (Argon2Hasher) Hash(pw string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(pw), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (Argon2Hasher) Verify(pw, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory uint32
	var iters uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iters, &threads); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(pw), salt, iters, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
