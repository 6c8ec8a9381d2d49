package page

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"testing"
)

func sri(alg string, body []byte) string {
	var sum []byte
	switch alg {
	case "sha256":
		s := sha256.Sum256(body)
		sum = s[:]
	case "sha384":
		s := sha512.Sum384(body)
		sum = s[:]
	case "sha512":
		s := sha512.Sum512(body)
		sum = s[:]
	}
	return alg + "-" + base64.StdEncoding.EncodeToString(sum)
}

func TestVerifyIntegrity(t *testing.T) {
	body := []byte("alert(1)")
	other := []byte("alert(2)")

	tests := []struct {
		name     string
		metadata string
		wantErr  bool
	}{
		{"empty", "", false},
		{"sha256 match", sri("sha256", body), false},
		{"sha384 match", sri("sha384", body), false},
		{"sha512 match", sri("sha512", body), false},
		{"mismatch", sri("sha384", other), true},
		{"any of same strength", sri("sha384", other) + " " + sri("sha384", body), false},
		{"strongest wins", sri("sha256", body) + " " + sri("sha512", other), true},
		{"unknown algorithm only", "md5-abc", false},
		{"options ignored", sri("sha256", body) + "?ct=application/javascript", false},
		{"malformed base64 skipped", "sha512-!!! " + sri("sha256", body), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyIntegrity(body, tt.metadata)
			if (err != nil) != tt.wantErr {
				t.Errorf("verifyIntegrity() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIntegrity) {
				t.Errorf("error = %v, want ErrIntegrity", err)
			}
		})
	}
}

func TestIntegrity(t *testing.T) {
	body := []byte("window.x = 1")
	if got, want := Integrity(body), sri("sha384", body); got != want {
		t.Errorf("Integrity() = %q, want %q", got, want)
	}
}
