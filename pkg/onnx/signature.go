package onnx

import (
	"encoding/json"

	"github.com/modelyard/onnx-runner/pkg/registry"
)

// signatureMetadataKey is the reserved metadata key under which a model's
// input/output signature is persisted at save time.
const signatureMetadataKey = "io_signature"

// EmbedSignature returns a copy of metadata with the model's input/output
// signature recorded under the adapter's reserved key. The underlying runtime
// binding cannot introspect a loaded graph, so the signature captured here is
// what loaded sessions report.
func EmbedSignature(metadata map[string]any, signature Signature) map[string]any {
	embedded := make(map[string]any, len(metadata)+1)
	for key, value := range metadata {
		embedded[key] = value
	}
	embedded[signatureMetadataKey] = signature
	return embedded
}

// RecordSignature extracts the signature persisted in a stored record, if
// one was recorded at save time. Record metadata round-trips through JSON, so
// the value is decoded structurally rather than type-asserted.
func RecordSignature(record *registry.Record) (Signature, bool) {
	raw, ok := record.Metadata[signatureMetadataKey]
	if !ok {
		return Signature{}, false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Signature{}, false
	}
	var signature Signature
	if err := json.Unmarshal(data, &signature); err != nil {
		return Signature{}, false
	}
	if len(signature.Inputs) == 0 && len(signature.Outputs) == 0 {
		return Signature{}, false
	}
	return signature, true
}

// signatureSession overlays a persisted signature on a session whose runtime
// cannot report one of its own.
type signatureSession struct {
	Session
	signature Signature
}

// Signature implements Session.Signature. The runtime's own report wins when
// it has one.
func (s *signatureSession) Signature() Signature {
	if reported := s.Session.Signature(); len(reported.Inputs) > 0 || len(reported.Outputs) > 0 {
		return reported
	}
	return s.signature
}

// withRecordedSignature wraps a session with the record's persisted
// signature, when present.
func withRecordedSignature(session Session, record *registry.Record) Session {
	signature, ok := RecordSignature(record)
	if !ok {
		return session
	}
	return &signatureSession{Session: session, signature: signature}
}
