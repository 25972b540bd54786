package dao

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/pngcrypt-go/internal/storage"
)

const (
	passwordIterations = 10000
	passwordSaltSize   = 16
	passwordHashSize   = 32

	// DefaultUsername and DefaultPassword seed an empty store
	DefaultUsername = "admin"
	DefaultPassword = "admin"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserExists      = errors.New("user already exists")
)

// User is an account allowed to call the API
type User struct {
	Username     string    `json:"username"`
	Salt         string    `json:"salt"`
	PasswordHash string    `json:"password_hash"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserDAO handles user data access
type UserDAO struct {
	store storage.Backend
}

// NewUserDAO creates a new user DAO
func NewUserDAO(store storage.Backend) *UserDAO {
	return &UserDAO{store: store}
}

// setPassword stores a fresh salt and the PBKDF2 hash of password
func (u *User) setPassword(password string) error {
	salt := make([]byte, passwordSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	u.Salt = hex.EncodeToString(salt)
	u.PasswordHash = hashPassword(password, salt)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) checkPassword(password string) bool {
	salt, err := hex.DecodeString(u.Salt)
	if err != nil {
		return false
	}
	want := []byte(u.PasswordHash)
	got := []byte(hashPassword(password, salt))
	return subtle.ConstantTimeCompare(want, got) == 1
}

func hashPassword(password string, salt []byte) string {
	return hex.EncodeToString(pbkdf2.Key([]byte(password), salt, passwordIterations, passwordHashSize, sha256.New))
}

// Create creates a new user
func (d *UserDAO) Create(username, password string) error {
	if _, err := d.Get(username); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	user := &User{Username: username}
	if err := user.setPassword(password); err != nil {
		return err
	}
	return storage.SetJSON(d.store, storage.BucketUsers, username, user)
}

// Validate checks user credentials
func (d *UserDAO) Validate(username, password string) error {
	user, err := d.Get(username)
	if err != nil {
		return err
	}
	if !user.checkPassword(password) {
		return ErrInvalidPassword
	}
	return nil
}

// Get retrieves a user
func (d *UserDAO) Get(username string) (*User, error) {
	var user User
	found, err := storage.GetJSON(d.store, storage.BucketUsers, username, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// UpdatePassword replaces a user's password and salt
func (d *UserDAO) UpdatePassword(username, newPassword string) error {
	user, err := d.Get(username)
	if err != nil {
		return err
	}
	if err := user.setPassword(newPassword); err != nil {
		return err
	}
	return storage.SetJSON(d.store, storage.BucketUsers, username, user)
}

// EnsureDefaultUser creates admin/admin when no admin account exists
func (d *UserDAO) EnsureDefaultUser() error {
	_, err := d.Get(DefaultUsername)
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	return d.Create(DefaultUsername, DefaultPassword)
}
