package persist

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefix for save checksums.
// Version suffix enables future algorithm migration.
const DomainSave = "upgrades/save/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Checksum returns the checksum stored alongside a canonical state document.
func Checksum(canonicalState []byte) string {
	return hashWithDomain(DomainSave, canonicalState)
}
