package service

import (
	"errors"
	"testing"

	"controme_bridge"

	"golang.org/x/crypto/bcrypt"
)

type fakeAuthRepo struct {
	users     map[string]*controme_bridge.User
	nextID    int
	createErr error
	getErr    error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[string]*controme_bridge.User), nextID: 1}
}

func (f *fakeAuthRepo) Create(username, hash string) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	id := f.nextID
	f.nextID++
	f.users[username] = &controme_bridge.User{ID: id, Username: username, PasswordHash: hash}
	return id, nil
}

func (f *fakeAuthRepo) GetByUsername(username string) (*controme_bridge.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.users[username], nil
}

func TestAuthService_SignUpHashesPassword(t *testing.T) {
	t.Parallel()
	repo := newFakeAuthRepo()
	s := NewAuthService(repo, "secret")

	id, err := s.SignUp("alice", "pa55word")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	u := repo.users["alice"]
	if u == nil {
		t.Fatalf("user not stored")
	}
	if u.PasswordHash == "pa55word" {
		t.Fatalf("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pa55word")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_SignUpRejectsEmptyPassword(t *testing.T) {
	t.Parallel()
	s := NewAuthService(newFakeAuthRepo(), "secret")
	if _, err := s.SignUp("alice", "   "); err == nil {
		t.Fatalf("expected error for blank password")
	}
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	t.Parallel()
	repo := newFakeAuthRepo()
	s := NewAuthService(repo, "secret")

	id, err := s.SignUp("bob", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := s.GenerateToken("bob", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gotID, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != id {
		t.Fatalf("user id: got %d, want %d", gotID, id)
	}
}

func TestAuthService_GenerateTokenFailures(t *testing.T) {
	t.Parallel()
	repo := newFakeAuthRepo()
	s := NewAuthService(repo, "secret")
	if _, err := s.SignUp("carol", "right"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.GenerateToken("carol", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if _, err := s.GenerateToken("nobody", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_ParseTokenRejectsForeignKey(t *testing.T) {
	t.Parallel()
	repo := newFakeAuthRepo()
	issuer := NewAuthService(repo, "key-a")
	verifier := NewAuthService(repo, "key-b")

	if _, err := issuer.SignUp("dave", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := issuer.GenerateToken("dave", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("token signed with a different key must be rejected")
	}
}
