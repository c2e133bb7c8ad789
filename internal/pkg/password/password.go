// password — хэширование паролей по схеме argon2id.
//
// Формат хранения — PHC-строка с параметрами внутри хэша:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt-b64>$<digest-b64>
//
// Параметры стоимости хранятся рядом с хэшем, а не глобально:
// Verify всегда выводит дайджест с параметрами из строки, поэтому
// стоимость можно повышать без инвалидирования старых хэшей.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrPasswordTooLong — длина пароля превышает разумный предел (см. maxPasswordLen).
	ErrPasswordTooLong = errors.New("password too long")

	// ErrMalformedHash — сохранённый хэш не разбирается как PHC-строка argon2id.
	// Вызывающая сторона маппит это во внутреннюю ошибку, а не в "неверный пароль".
	ErrMalformedHash = errors.New("malformed password hash")
)

// maxPasswordLen — верхняя граница длины пароля в байтах.
const maxPasswordLen = 1024

// Params — параметры стоимости argon2id.
type Params struct {
	MemoryKiB   uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultParams — параметры по умолчанию: 64 MiB, 1 проход, 4 потока.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Time:        1,
		Parallelism: 4,
		SaltLen:     16,
		KeyLen:      32,
	}
}

// Hasher хэширует и проверяет пароли.
// Экземпляр иммутабелен и безопасен для конкурентного использования.
type Hasher struct {
	params Params
}

// New создаёт Hasher с заданными параметрами выпуска.
// Нулевые поля заменяются значениями из DefaultParams.
func New(p Params) *Hasher {
	def := DefaultParams()
	if p.MemoryKiB == 0 {
		p.MemoryKiB = def.MemoryKiB
	}
	if p.Time == 0 {
		p.Time = def.Time
	}
	if p.Parallelism == 0 {
		p.Parallelism = def.Parallelism
	}
	if p.SaltLen == 0 {
		p.SaltLen = def.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = def.KeyLen
	}

	return &Hasher{params: p}
}

// Hash хэширует пароль со свежей случайной солью и текущими параметрами.
func (h *Hasher) Hash(plaintext string) (string, error) {
	const op = "password.Hash"

	if len(plaintext) > maxPasswordLen {
		return "", fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	digest := argon2.IDKey([]byte(plaintext), salt,
		h.params.Time, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)

	return encoded, nil
}

// Verify перевыводит дайджест из plaintext с солью и параметрами из stored
// и сравнивает за константное время.
//
// Несовпадение — обычный (false, nil); ошибка возвращается только если
// stored не разбирается (ErrMalformedHash) или пароль вне допустимой длины.
func (h *Hasher) Verify(plaintext, stored string) (bool, error) {
	const op = "password.Verify"

	if len(plaintext) > maxPasswordLen {
		return false, fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	p, salt, digest, err := decode(stored)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	derived := argon2.IDKey([]byte(plaintext), salt,
		p.Time, p.MemoryKiB, p.Parallelism, uint32(len(digest)))

	return subtle.ConstantTimeCompare(digest, derived) == 1, nil
}

// decode разбирает PHC-строку argon2id на параметры, соль и дайджест.
func decode(stored string) (Params, []byte, []byte, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&p.MemoryKiB, &p.Time, &p.Parallelism); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	if p.MemoryKiB == 0 || p.Time == 0 || p.Parallelism == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	return p, salt, digest, nil
}
