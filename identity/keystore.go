package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"

	"github.com/kizuna-net/kizuna/crypto"
)

const (
	// KeystoreIterations is the PBKDF2 iteration count for deriving the
	// at-rest encryption key from the master password.
	KeystoreIterations = 100000
	// KeystoreVersion is the current on-disk encryption format version.
	KeystoreVersion = 1
	// KeystoreSaltSize is the PBKDF2 salt size in bytes.
	KeystoreSaltSize = 32

	identityFile = "device_identity"
	saltFile     = ".salt"
)

// Keystore persists device identities encrypted at rest with AES-256-GCM.
// The encryption key is derived from a master password via PBKDF2, with the
// salt stored alongside the data. The identity blob itself is hex-encoded
// before encryption so the plaintext format stays printable for export.
type Keystore struct {
	encryptionKey [32]byte
	dataDir       string
	saltPath      string
}

// NewKeystore opens or initializes an encrypted keystore at dataDir.
// masterPassword is wiped before returning.
func NewKeystore(dataDir string, masterPassword []byte) (*Keystore, error) {
	if len(masterPassword) == 0 {
		return nil, newIdentityError("open keystore",
			fmt.Errorf("%w: master password cannot be empty", ErrKeystore))
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, newIdentityError("open keystore",
			fmt.Errorf("%w: create data directory: %v", ErrKeystore, err))
	}

	ks := &Keystore{
		dataDir:  dataDir,
		saltPath: filepath.Join(dataDir, saltFile),
	}

	salt, err := ks.loadOrGenerateSalt()
	if err != nil {
		return nil, err
	}

	derivedKey := pbkdf2.Key(masterPassword, salt, KeystoreIterations, 32, sha256.New)
	copy(ks.encryptionKey[:], derivedKey)

	crypto.SecureWipe(derivedKey)
	crypto.SecureWipe(masterPassword)

	return ks, nil
}

func (ks *Keystore) loadOrGenerateSalt() ([]byte, error) {
	salt := make([]byte, KeystoreSaltSize)

	data, err := os.ReadFile(ks.saltPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, newIdentityError("open keystore",
				fmt.Errorf("%w: read salt file: %v", ErrKeystore, err))
		}

		if _, err := rand.Read(salt); err != nil {
			return nil, newIdentityError("open keystore",
				fmt.Errorf("%w: generate salt: %v", ErrKeystore, err))
		}

		if err := os.WriteFile(ks.saltPath, salt, 0o600); err != nil {
			return nil, newIdentityError("open keystore",
				fmt.Errorf("%w: save salt: %v", ErrKeystore, err))
		}

		return salt, nil
	}

	if len(data) != KeystoreSaltSize {
		return nil, newIdentityError("open keystore",
			fmt.Errorf("%w: invalid salt file size: got %d, want %d",
				ErrCorrupted, len(data), KeystoreSaltSize))
	}

	copy(salt, data)
	return salt, nil
}

// SaveIdentity serializes, hex-encodes, encrypts and writes the device
// identity. The write is atomic: a temporary file is renamed into place.
func (ks *Keystore) SaveIdentity(identity *DeviceIdentity) error {
	blob := identity.ToBytes()
	encoded := []byte(hex.EncodeToString(blob))
	crypto.SecureWipe(blob)
	defer crypto.SecureWipe(encoded)

	if err := ks.writeEncrypted(identityFile, encoded); err != nil {
		return newIdentityError("save identity",
			fmt.Errorf("%w: %v", ErrSaveFailed, err))
	}

	logrus.WithFields(logrus.Fields{
		"function": "SaveIdentity",
		"peer_id":  identity.DerivePeerID().DisplayName(),
	}).Debug("Persisted device identity")

	return nil
}

// LoadIdentity reads, decrypts and deserializes the stored device identity.
func (ks *Keystore) LoadIdentity() (*DeviceIdentity, error) {
	encoded, err := ks.readEncrypted(identityFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newIdentityError("load identity",
				fmt.Errorf("%w: no stored identity", ErrLoadFailed))
		}
		return nil, newIdentityError("load identity",
			fmt.Errorf("%w: %v", ErrLoadFailed, err))
	}
	defer crypto.SecureWipe(encoded)

	blob, err := hex.DecodeString(string(encoded))
	if err != nil {
		return nil, newIdentityError("load identity",
			fmt.Errorf("%w: malformed identity encoding", ErrCorrupted))
	}
	defer crypto.SecureWipe(blob)

	return FromBytes(blob)
}

// HasIdentity reports whether a device identity is stored.
func (ks *Keystore) HasIdentity() bool {
	_, err := os.Stat(filepath.Join(ks.dataDir, identityFile))
	return err == nil
}

// GetOrCreateIdentity loads the stored identity, generating and persisting
// a fresh one when none exists.
func (ks *Keystore) GetOrCreateIdentity() (*DeviceIdentity, error) {
	if ks.HasIdentity() {
		return ks.LoadIdentity()
	}

	identity, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := ks.SaveIdentity(identity); err != nil {
		identity.Wipe()
		return nil, err
	}
	return identity, nil
}

// DeleteIdentity removes the stored identity, overwriting the file with
// zeros first on a best-effort basis.
func (ks *Keystore) DeleteIdentity() error {
	filePath := filepath.Join(ks.dataDir, identityFile)

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return newIdentityError("delete identity",
			fmt.Errorf("%w: %v", ErrKeystore, err))
	}

	zeros := make([]byte, info.Size())
	if err := os.WriteFile(filePath, zeros, 0o600); err != nil {
		// Overwrite is best-effort; still remove the file.
		if err := os.Remove(filePath); err != nil {
			return newIdentityError("delete identity",
				fmt.Errorf("%w: %v", ErrKeystore, err))
		}
		return nil
	}

	if err := os.Remove(filePath); err != nil {
		return newIdentityError("delete identity",
			fmt.Errorf("%w: %v", ErrKeystore, err))
	}
	return nil
}

// Close wipes the at-rest encryption key. The keystore must not be used
// afterwards.
func (ks *Keystore) Close() error {
	crypto.ZeroBytes(ks.encryptionKey[:])
	return nil
}

// writeEncrypted encrypts plaintext and writes it atomically.
// On-disk format: version_be[2] || nonce[12] || ciphertext+tag.
func (ks *Keystore) writeEncrypted(filename string, plaintext []byte) error {
	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	output := make([]byte, 2+len(nonce)+len(ciphertext))
	binary.BigEndian.PutUint16(output[0:2], KeystoreVersion)
	copy(output[2:2+len(nonce)], nonce)
	copy(output[2+len(nonce):], ciphertext)

	tmpFile := filepath.Join(ks.dataDir, filename+".tmp")
	finalFile := filepath.Join(ks.dataDir, filename)

	if err := os.WriteFile(tmpFile, output, 0o600); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tmpFile, finalFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// readEncrypted reads and decrypts a stored file. A missing file is
// reported with the underlying os error so callers can distinguish it.
func (ks *Keystore) readEncrypted(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(ks.dataDir, filename))
	if err != nil {
		return nil, err
	}

	if len(data) < 2+12+16 {
		return nil, fmt.Errorf("file too short: %d bytes", len(data))
	}

	version := binary.BigEndian.Uint16(data[0:2])
	if version != KeystoreVersion {
		return nil, fmt.Errorf("unsupported encryption version: %d", version)
	}

	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	nonce := data[2 : 2+nonceSize]
	ciphertext := data[2+nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}

	return plaintext, nil
}
