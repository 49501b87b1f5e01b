// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strconv"
	"strings"
)

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// UserID is assigned by the server at login and carried in media packet headers.
type UserID uint32

func (id UserID) String() string { return strconv.FormatUint(uint64(id), 10) }

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

func NormalizeUsername(username string) (string, error) {
	name := strings.TrimSpace(username)
	if len(name) == 0 {
		return "", ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return name, nil
}
