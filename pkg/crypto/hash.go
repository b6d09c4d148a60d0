package crypto

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Ошибки хеширования
var (
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordMismatch = errors.New("password does not match hash")
	ErrInvalidHash      = errors.New("invalid password hash format")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// DefaultCost - стоимость хеширования по умолчанию
const DefaultCost = 12

// MaxPasswordLength - максимальная длина пароля для bcrypt (72 байта)
const MaxPasswordLength = 72

// HashPassword хеширует пароль с указанной стоимостью
//
// cost вне [bcrypt.MinCost, bcrypt.MaxCost] приводится к границе.
// Используется для генерации METRICS_PASSWORD_HASH.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword проверяет соответствие пароля хешу
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if hash == "" {
		return ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return ErrInvalidHash
	}
	return nil
}

// Credentials - учетные данные для HTTP Basic Auth
//
// Пароль хранится только в виде bcrypt хеша.
type Credentials struct {
	Username     string
	PasswordHash string
}

// Enabled возвращает true если учетные данные заданы
func (c Credentials) Enabled() bool {
	return c.Username != "" && c.PasswordHash != ""
}

// Validate проверяет формат хеша
func (c Credentials) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
		return ErrInvalidHash
	}
	return nil
}

// Check сравнивает имя пользователя за постоянное время и проверяет пароль
func (c Credentials) Check(username, password string) bool {
	if !c.Enabled() {
		return false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passErr := VerifyPassword(password, c.PasswordHash)
	return userMatch && passErr == nil
}
