package identity

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// GenerateRecoveryPhrase produces a 24-word BIP-39 mnemonic from 256 bits of
// OS entropy. The phrase is meant to be attached to a device identity so the
// identity blob can be reconstructed from cold storage.
func GenerateRecoveryPhrase() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", newIdentityError("generate recovery phrase",
			fmt.Errorf("%w: %v", ErrGenerationFailed, err))
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", newIdentityError("generate recovery phrase",
			fmt.Errorf("%w: %v", ErrGenerationFailed, err))
	}

	return mnemonic, nil
}

// ValidateRecoveryPhrase reports whether a phrase is a well-formed BIP-39
// mnemonic with a valid checksum.
func ValidateRecoveryPhrase(phrase string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(phrase))
}

// SetRecoveryPhrase attaches a recovery phrase to the identity. The phrase
// must be a valid mnemonic; it is carried in the serialized identity blob.
func (d *DeviceIdentity) SetRecoveryPhrase(phrase string) error {
	if !ValidateRecoveryPhrase(phrase) {
		return newIdentityError("set recovery phrase",
			fmt.Errorf("%w: malformed mnemonic", ErrCorrupted))
	}
	d.phrase = []byte(strings.TrimSpace(phrase))
	return nil
}

// RecoveryPhrase returns the attached recovery phrase, or "" when none is
// set.
func (d *DeviceIdentity) RecoveryPhrase() string {
	return string(d.phrase)
}
