package user

import (
	"crypto/rand"
	"strings"
)

// ContractorCodeLength is the length of a generated contractor code.
const ContractorCodeLength = 6

const contractorCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewContractorCode returns a random uppercase alphanumeric code.
func NewContractorCode() (string, error) {
	buf := make([]byte, ContractorCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = contractorCodeAlphabet[int(b)%len(contractorCodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeContractorCode trims and upper-cases a code typed by a worker.
func NormalizeContractorCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
