package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// VerifySignature checks the platform's HMAC signature over the exact raw
// request body. The header arrives as "sha256=<hex>" (current deliveries) or
// "sha1=<hex>" (legacy apps); a bare hex digest is accepted against both.
//
// An empty secret means verification is not configured and the check is
// permissive - the caller logs a warning instead of rejecting, so deliveries
// keep flowing during onboarding. A mismatch returns false, never an error;
// the caller decides whether to log-and-continue or drop.
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	sec := strings.TrimSpace(secret)
	if sec == "" {
		return true
	}

	sig := strings.TrimSpace(signatureHeader)
	algo := ""
	if i := strings.IndexByte(sig, '='); i >= 0 {
		algo = strings.ToLower(sig[:i])
		sig = sig[i+1:]
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil || len(decoded) == 0 {
		return false
	}

	switch algo {
	case "sha256":
		return verifyHMAC(payload, decoded, []byte(sec), sha256.New)
	case "sha1":
		return verifyHMAC(payload, decoded, []byte(sec), sha1.New)
	}

	// No recognized prefix: check both digests.
	if verifyHMAC(payload, decoded, []byte(sec), sha256.New) {
		return true
	}
	return verifyHMAC(payload, decoded, []byte(sec), sha1.New)
}

func verifyHMAC(payload, expectedSig, secret []byte, hashFunc func() hash.Hash) bool {
	mac := hmac.New(hashFunc, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expectedSig)
}

// SignPayload computes the "sha256=<hex>" header value for a body. Used by
// operator tooling and tests to produce valid deliveries.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
