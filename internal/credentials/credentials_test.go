package credentials

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

const server = "http://localhost:25252"

func TestSetAndGetPassword(t *testing.T) {
	gokeyring.MockInit()

	if err := SetPassword(server, "123456"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}

	got, err := GetPassword(server)
	if err != nil {
		t.Fatalf("GetPassword() failed: %v", err)
	}
	if got != "123456" {
		t.Errorf("GetPassword() = %q, want 123456", got)
	}
	if LookupPassword(server) != "123456" {
		t.Error("LookupPassword() should find the stored password")
	}
}

func TestPasswordsAreScopedByServer(t *testing.T) {
	gokeyring.MockInit()

	if err := SetPassword(server, "one"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if _, err := GetPassword("https://diary.example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other server: got %v, want ErrNotFound", err)
	}
}

func TestSetPasswordEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetPassword(server, ""); err == nil {
		t.Error("SetPassword with empty password should fail")
	}
}

func TestDeletePassword(t *testing.T) {
	gokeyring.MockInit()

	if err := SetPassword(server, "123456"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := DeletePassword(server); err != nil {
		t.Fatalf("DeletePassword() failed: %v", err)
	}
	if _, err := GetPassword(server); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
	if err := DeletePassword(server); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	if LookupPassword(server) != "" {
		t.Error("LookupPassword() should be empty after delete")
	}
}
