package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	cases := map[string]bool{
		":8080":           true,
		"localhost:3000":  true,
		"127.0.0.1:80":    true,
		"[::1]:443":       true,
		"":                false,
		"localhost":       false,
		":0":              false,
		":70000":          false,
		"-bad-host-:8080": false,
		"bad_host:8080":   false,
	}
	for addr, want := range cases {
		assert.Equal(t, want, ValidateAddress(addr), addr)
	}
}
