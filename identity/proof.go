package identity

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"time"
)

// ProofMaxAge is the window within which an identity proof is accepted.
const ProofMaxAge = 300 * time.Second

// Proof is a signed, timestamped claim that the holder of a verifying key
// owns the stated peer ID. The signature covers fingerprint || timestamp.
type Proof struct {
	PeerID    PeerID
	Timestamp uint64
	Signature Signature
	PublicKey [ed25519.PublicKeySize]byte
}

// NewProof signs a fresh proof of ownership for the device's peer ID.
func (d *DeviceIdentity) NewProof() *Proof {
	return d.newProofAt(uint64(time.Now().Unix()))
}

func (d *DeviceIdentity) newProofAt(timestamp uint64) *Proof {
	peerID := d.DerivePeerID()

	proof := &Proof{
		PeerID:    peerID,
		Timestamp: timestamp,
	}
	copy(proof.PublicKey[:], d.publicKey)
	proof.Signature = d.Sign(proofMessage(peerID, timestamp))
	return proof
}

// proofMessage builds the signed payload: fingerprint[32] || timestamp_le[8].
func proofMessage(peerID PeerID, timestamp uint64) []byte {
	fp := peerID.Fingerprint()
	msg := make([]byte, FingerprintSize+8)
	copy(msg, fp[:])
	binary.LittleEndian.PutUint64(msg[FingerprintSize:], timestamp)
	return msg
}

// IsExpired reports whether the proof is older than ProofMaxAge.
func (p *Proof) IsExpired() bool {
	return p.IsExpiredAt(uint64(time.Now().Unix()))
}

// IsExpiredAt reports expiry against an explicit clock reading.
func (p *Proof) IsExpiredAt(now uint64) bool {
	if now < p.Timestamp {
		// Timestamps from the future are treated as expired rather than
		// granting an extended window.
		return true
	}
	return now-p.Timestamp > uint64(ProofMaxAge.Seconds())
}

// Verify checks the proof end to end: the embedded verifying key must hash
// to the claimed peer ID, the signature must verify, and the proof must not
// have expired.
func (p *Proof) Verify() error {
	return p.VerifyAt(uint64(time.Now().Unix()))
}

// VerifyAt verifies against an explicit clock reading.
func (p *Proof) VerifyAt(now uint64) error {
	derived := FromPublicKey(p.PublicKey[:])
	if !derived.Equal(p.PeerID) {
		return newIdentityError("verify proof",
			fmt.Errorf("%w: public key does not match claimed peer ID", ErrVerificationFailed))
	}

	if !Verify(p.PublicKey[:], proofMessage(p.PeerID, p.Timestamp), p.Signature) {
		return newIdentityError("verify proof",
			fmt.Errorf("%w: proof signature check failed", ErrInvalidSignature))
	}

	if p.IsExpiredAt(now) {
		return newIdentityError("verify proof",
			fmt.Errorf("%w: proof expired", ErrVerificationFailed))
	}

	return nil
}

// VerifyPeerID verifies the proof and additionally checks that it claims the
// expected peer ID.
func (p *Proof) VerifyPeerID(expected PeerID) error {
	if err := p.Verify(); err != nil {
		return err
	}
	if !p.PeerID.Equal(expected) {
		return newIdentityError("verify proof",
			fmt.Errorf("%w: proof claims a different peer ID", ErrVerificationFailed))
	}
	return nil
}
