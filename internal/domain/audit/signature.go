package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"
)

type signaturePayload struct {
	AuditID  string `json:"auditId"`
	RecordID string `json:"recordId"`
	Action   string `json:"action"`
	Actor    string `json:"actor,omitempty"`
	Detail   string `json:"detail,omitempty"`
	At       string `json:"at"`
}

func buildSignaturePayload(e *Entry) signaturePayload {
	p := signaturePayload{
		AuditID:  e.AuditID.String(),
		RecordID: e.RecordID,
		Action:   string(e.Action),
		Actor:    e.Actor,
		At:       e.At.UTC().Format(time.RFC3339Nano),
	}
	if len(e.Detail) > 0 {
		p.Detail = base64.StdEncoding.EncodeToString(e.Detail)
	}
	return p
}

// Sign computes an HMAC-SHA256 signature over the entry's canonical form.
func Sign(e *Entry, key []byte) ([]byte, error) {
	data, err := json.Marshal(buildSignaturePayload(e))
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// Verify reports whether the entry's signature matches the key.
func Verify(e *Entry, key []byte) (bool, error) {
	expected, err := Sign(e, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, e.Signature), nil
}
