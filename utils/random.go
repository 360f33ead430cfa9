package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateCode returns n random bytes as an upper-case hex string.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateTicketNumber returns a ticket reference like "TKT-9F2A11C4".
func GenerateTicketNumber() (string, error) {
	code, err := GenerateCode(4)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("TKT-%s", code), nil
}
