// Package kizuna implements the cryptographic core of a peer-to-peer secure
// communication system: device identities with fingerprint-derived peer IDs,
// ephemeral key agreement feeding per-peer encrypted sessions, an
// authenticated encryption pipeline with replay protection and key rotation,
// and a trust database with pairing-code verification.
//
// The top-level Kizuna type ties the pieces together. A minimal exchange
// between two devices looks like:
//
//	k, err := kizuna.New(&kizuna.Options{
//		DataDir:        "/var/lib/kizuna",
//		MasterPassword: password,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer k.Close()
//
//	kx, err := k.BeginKeyExchange()
//	if err != nil {
//		log.Fatal(err)
//	}
//	// send kx.PublicKey() to the peer, receive theirs...
//	sid, err := k.EstablishSession(peerID, kx, peerPublic)
//	if err != nil {
//		log.Fatal(err)
//	}
//	frame, err := k.EncryptMessage(sid, []byte("hello"))
//
// The subpackages can also be used directly: crypto holds the constant-time
// primitives and secure-memory containers, identity the device and
// disposable identities, encryption the session engine, and trust the peer
// trust database and pairing service.
package kizuna
