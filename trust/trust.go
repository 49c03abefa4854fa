package trust

import (
	"time"

	"github.com/kizuna-net/kizuna/identity"
)

// Level classifies how a peer came to be trusted.
type Level string

const (
	// LevelVerified means the peer completed pairing-code verification.
	LevelVerified Level = "verified"
	// LevelTrusted means the user trusted the peer manually.
	LevelTrusted Level = "trusted"
	// LevelAllowlisted means the peer is allowlisted but not verified.
	LevelAllowlisted Level = "allowlisted"
)

// Service names a capability a peer may be granted.
type Service string

const (
	ServiceClipboard    Service = "clipboard"
	ServiceFileTransfer Service = "file_transfer"
	ServiceCamera       Service = "camera"
	ServiceCommands     Service = "commands"
)

// Permissions controls which services a trusted peer may use.
type Permissions struct {
	Clipboard    bool `json:"clipboard"`
	FileTransfer bool `json:"file_transfer"`
	Camera       bool `json:"camera"`
	Commands     bool `json:"commands"`
}

// Allows reports whether the given service is granted. Unknown services are
// denied.
func (p Permissions) Allows(service Service) bool {
	switch service {
	case ServiceClipboard:
		return p.Clipboard
	case ServiceFileTransfer:
		return p.FileTransfer
	case ServiceCamera:
		return p.Camera
	case ServiceCommands:
		return p.Commands
	default:
		return false
	}
}

// DefaultPermissions grants the low-risk services and withholds the rest.
func DefaultPermissions() Permissions {
	return Permissions{
		Clipboard:    true,
		FileTransfer: true,
		Camera:       false,
		Commands:     false,
	}
}

// Entry is one peer's trust record.
type Entry struct {
	PeerID      identity.PeerID `json:"peer_id"`
	Nickname    string          `json:"nickname"`
	FirstSeen   uint64          `json:"first_seen"`
	LastSeen    uint64          `json:"last_seen"`
	Level       Level           `json:"trust_level"`
	Permissions Permissions     `json:"permissions"`
}

// NewEntry creates a trust entry stamped with the current time and default
// permissions.
func NewEntry(peerID identity.PeerID, nickname string, level Level) Entry {
	now := uint64(time.Now().Unix())
	return Entry{
		PeerID:      peerID,
		Nickname:    nickname,
		FirstSeen:   now,
		LastSeen:    now,
		Level:       level,
		Permissions: DefaultPermissions(),
	}
}

// Store is the persistence contract for trust entries.
type Store interface {
	// AddPeer inserts or replaces a trust entry.
	AddPeer(entry Entry) error
	// RemovePeer deletes a peer's entry. Removing an unknown peer is a
	// no-op.
	RemovePeer(peerID identity.PeerID) error
	// GetPeer returns a peer's entry, or ErrPeerNotFound.
	GetPeer(peerID identity.PeerID) (Entry, error)
	// IsTrusted reports whether the peer has any trust entry.
	IsTrusted(peerID identity.PeerID) bool
	// AllPeers returns every trust entry.
	AllPeers() ([]Entry, error)
	// UpdateLastSeen stamps a peer's last-seen time with now.
	UpdateLastSeen(peerID identity.PeerID) error
	// UpdatePermissions replaces a peer's service permissions.
	UpdatePermissions(peerID identity.PeerID, permissions Permissions) error
	// UpdateLevel replaces a peer's trust level.
	UpdateLevel(peerID identity.PeerID, level Level) error
}
