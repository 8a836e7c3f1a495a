package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSupportedLanguage(t *testing.T) {
	assert.Equal(t, "solidity", GetSupportedLanguage("contracts/src/Counter.sol"))
	assert.Equal(t, "typescript", GetSupportedLanguage("frontend/src/wagmi.TS"))
	assert.Equal(t, "tsx", GetSupportedLanguage("frontend/src/App.tsx"))
	assert.Equal(t, "", GetSupportedLanguage("LICENSE"))
}
