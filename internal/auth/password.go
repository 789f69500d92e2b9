package auth

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/zephyrtronium/arith/internal/store"
)

var (
	// ErrBadCredentials is returned from Login for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned from Register for an empty or malformed
	// email.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrEmptyPassword is returned from Register for an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// HashPassword hashes a password with bcrypt at the given cost. A cost of 0
// uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Users is the part of the store that authentication needs.
type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (store.User, error)
	UserByEmail(ctx context.Context, email string) (store.User, error)
}

// Authenticator registers and logs in users.
type Authenticator struct {
	users Users
	cost  int
	// dummy is hashed at cost so that logins for unknown emails take as long
	// as logins with wrong passwords.
	dummy string
}

// New creates an Authenticator hashing passwords at the given bcrypt cost.
// A cost of 0 uses bcrypt.DefaultCost.
func New(users Users, cost int) (*Authenticator, error) {
	dummy, err := HashPassword("arith", cost)
	if err != nil {
		return nil, err
	}
	return &Authenticator{users: users, cost: cost, dummy: dummy}, nil
}

// Register creates a user. Emails are compared after trimming spaces.
func (a *Authenticator) Register(ctx context.Context, email, password string) (store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return store.User{}, ErrInvalidEmail
	}
	if password == "" {
		return store.User{}, ErrEmptyPassword
	}
	hash, err := HashPassword(password, a.cost)
	if err != nil {
		return store.User{}, err
	}
	return a.users.CreateUser(ctx, email, hash)
}

// Login checks a user's credentials.
func (a *Authenticator) Login(ctx context.Context, email, password string) (store.User, error) {
	u, err := a.users.UserByEmail(ctx, strings.TrimSpace(email))
	switch {
	case err == nil:
		if !CheckPassword(u.PasswordHash, password) {
			return store.User{}, ErrBadCredentials
		}
		return u, nil
	case errors.Is(err, store.ErrNotFound):
		CheckPassword(a.dummy, password)
		return store.User{}, ErrBadCredentials
	default:
		return store.User{}, errors.Wrap(err, "looking up user")
	}
}
