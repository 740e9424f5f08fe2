package audit

import (
	"encoding/json"
	"testing"
)

func TestSignAndVerify(t *testing.T) {
	key := []byte("0123456789abcdef")
	entry := NewEntry("rec-1", ActionDecisionRecorded, "user:alice", json.RawMessage(`{"decision":"APPROVE"}`))

	sig, err := Sign(entry, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	entry.Signature = sig

	ok, err := Verify(entry, key)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("signature must verify with the signing key")
	}

	ok, err = Verify(entry, []byte("another-key-0000"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("signature must not verify with a different key")
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	key := []byte("0123456789abcdef")
	entry := NewEntry("rec-1", ActionDecisionRecorded, "user:alice", nil)
	sig, err := Sign(entry, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	entry.Signature = sig
	entry.Actor = "user:mallory"

	ok, err := Verify(entry, key)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("tampered entry must not verify")
	}
}
