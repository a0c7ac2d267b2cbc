package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Protobuf binary codec for the message structs in messages.go, built on
// the low-level protowire package. Unknown fields are skipped on decode so
// the client tolerates servers running a newer minor schema.

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt32Field(b []byte, num protowire.Number, v int32) []byte {
	return appendVarintField(b, num, uint64(int64(v)))
}

func appendInt64Field(b []byte, num protowire.Number, v int64) []byte {
	return appendVarintField(b, num, uint64(v))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	return appendVarintField(b, num, protowire.EncodeBool(v))
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

type fieldFunc func(num protowire.Number, typ protowire.Type, v []byte) (bool, error)

// walkFields iterates the wire fields of b. For each field the callback
// receives the bytes following the tag (for BytesType still carrying the
// length prefix; the consume helpers below decode the value) and returns
// how many of them it consumed. Fields the callback declines by returning
// a negative count are skipped.
func walkFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		consumed, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if consumed < 0 {
			consumed = protowire.ConsumeFieldValue(num, typ, b)
			if consumed < 0 {
				return protowire.ParseError(consumed)
			}
		}
		b = b[consumed:]
	}
	return nil
}

func consumeVarint(b []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("unexpected wire type %d for varint field", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeBytes(b []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("unexpected wire type %d for bytes field", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

// Version

func (self *Version) appendFields(b []byte) []byte {
	b = appendInt32Field(b, 1, self.MajorVersion)
	b = appendInt32Field(b, 2, self.MinorVersion)
	return b
}

func (self *Version) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.MajorVersion = int32(v)
			return n, nil
		case 2:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.MinorVersion = int32(v)
			return n, nil
		}
		return -1, nil
	})
}

// ProtocolVersion

func (self *ProtocolVersion) appendFields(b []byte) []byte {
	return appendBytesField(b, 1, self.Version.appendFields(nil))
}

func (self *ProtocolVersion) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.Version.unmarshal(v)
		}
		return -1, nil
	})
}

// ClientVersion

func (self *ClientVersion) appendFields(b []byte) []byte {
	b = appendBytesField(b, 1, self.Version.appendFields(nil))
	b = appendStringField(b, 2, self.Platform)
	b = appendStringField(b, 3, self.Language)
	b = appendStringField(b, 4, self.ApplicationInfo)
	return b
}

func (self *ClientVersion) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.Version.unmarshal(v)
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Platform = string(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Language = string(v)
			return n, nil
		case 4:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.ApplicationInfo = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// ObjectId

func (self *ObjectId) appendFields(b []byte) []byte {
	b = appendInt32Field(b, 1, self.Source)
	b = appendStringField(b, 2, self.Name)
	return b
}

// Marshal returns the standalone wire encoding of the object id, used for
// digest computation.
func (self *ObjectId) Marshal() []byte {
	return self.appendFields(nil)
}

func (self *ObjectId) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.Source = int32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Name = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// Invalidation

func (self *Invalidation) appendFields(b []byte) []byte {
	b = appendBytesField(b, 1, self.ObjectId.appendFields(nil))
	b = appendBoolField(b, 2, self.IsKnownVersion)
	b = appendInt64Field(b, 3, self.Version)
	if self.Payload != "" {
		b = appendStringField(b, 4, self.Payload)
	}
	return b
}

func (self *Invalidation) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.ObjectId.unmarshal(v)
		case 2:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.IsKnownVersion = protowire.DecodeBool(v)
			return n, nil
		case 3:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.Version = int64(v)
			return n, nil
		case 4:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Payload = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// Registration

func (self *Registration) appendFields(b []byte) []byte {
	b = appendBytesField(b, 1, self.ObjectId.appendFields(nil))
	b = appendInt32Field(b, 2, int32(self.OpType))
	return b
}

func (self *Registration) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.ObjectId.unmarshal(v)
		case 2:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.OpType = OpType(v)
			return n, nil
		}
		return -1, nil
	})
}

// Status

func (self *Status) appendFields(b []byte) []byte {
	b = appendInt32Field(b, 1, int32(self.Code))
	if self.Description != "" {
		b = appendStringField(b, 2, self.Description)
	}
	return b
}

func (self *Status) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.Code = StatusCode(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Description = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// RegistrationStatus

func (self *RegistrationStatus) appendFields(b []byte) []byte {
	b = appendBytesField(b, 1, self.Registration.appendFields(nil))
	b = appendBytesField(b, 2, self.Status.appendFields(nil))
	return b
}

func (self *RegistrationStatus) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.Registration.unmarshal(v)
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.Status.unmarshal(v)
		}
		return -1, nil
	})
}

// RegistrationSummary

func (self *RegistrationSummary) appendFields(b []byte) []byte {
	b = appendInt32Field(b, 1, self.NumRegistrations)
	b = appendStringField(b, 2, self.RegistrationDigest)
	return b
}

func (self *RegistrationSummary) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.NumRegistrations = int32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.RegistrationDigest = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// RegistrationSubtree

func (self *RegistrationSubtree) appendFields(b []byte) []byte {
	for i := range self.RegisteredObjects {
		b = appendBytesField(b, 1, self.RegisteredObjects[i].appendFields(nil))
	}
	return b
}

// Marshal returns the standalone wire encoding of the subtree. The encoding
// is deterministic for a fixed object order, which makes it usable as a
// dedup key for pending subtrees.
func (self *RegistrationSubtree) Marshal() []byte {
	return self.appendFields(nil)
}

func (self *RegistrationSubtree) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			var oid ObjectId
			if err := oid.unmarshal(v); err != nil {
				return 0, err
			}
			self.RegisteredObjects = append(self.RegisteredObjects, oid)
			return n, nil
		}
		return -1, nil
	})
}

// UnmarshalRegistrationSubtree parses a standalone subtree encoding.
func UnmarshalRegistrationSubtree(b []byte) (*RegistrationSubtree, error) {
	subtree := &RegistrationSubtree{}
	if err := subtree.unmarshal(b); err != nil {
		return nil, err
	}
	return subtree, nil
}

// ApplicationClientId

func (self *ApplicationClientId) appendFields(b []byte) []byte {
	return appendStringField(b, 1, self.ClientName)
}

func (self *ApplicationClientId) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.ClientName = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// ClientHeader

func (self *ClientHeader) appendFields(b []byte) []byte {
	b = appendBytesField(b, 1, self.ProtocolVersion.appendFields(nil))
	if self.ClientToken != "" {
		b = appendStringField(b, 2, self.ClientToken)
	}
	if self.RegistrationSummary != nil {
		b = appendBytesField(b, 3, self.RegistrationSummary.appendFields(nil))
	}
	b = appendInt64Field(b, 4, self.ClientTimeMs)
	b = appendInt64Field(b, 5, self.MaxKnownServerTimeMs)
	if self.MessageId != "" {
		b = appendStringField(b, 6, self.MessageId)
	}
	return b
}

func (self *ClientHeader) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.ProtocolVersion.unmarshal(v)
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.ClientToken = string(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			summary := &RegistrationSummary{}
			if err := summary.unmarshal(v); err != nil {
				return 0, err
			}
			self.RegistrationSummary = summary
			return n, nil
		case 4:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.ClientTimeMs = int64(v)
			return n, nil
		case 5:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.MaxKnownServerTimeMs = int64(v)
			return n, nil
		case 6:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.MessageId = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// ServerHeader

func (self *ServerHeader) appendFields(b []byte) []byte {
	b = appendBytesField(b, 1, self.ProtocolVersion.appendFields(nil))
	if self.ClientToken != "" {
		b = appendStringField(b, 2, self.ClientToken)
	}
	if self.RegistrationSummary != nil {
		b = appendBytesField(b, 3, self.RegistrationSummary.appendFields(nil))
	}
	b = appendInt64Field(b, 4, self.ServerTimeMs)
	if self.MessageId != "" {
		b = appendStringField(b, 5, self.MessageId)
	}
	return b
}

func (self *ServerHeader) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.ProtocolVersion.unmarshal(v)
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.ClientToken = string(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			summary := &RegistrationSummary{}
			if err := summary.unmarshal(v); err != nil {
				return 0, err
			}
			self.RegistrationSummary = summary
			return n, nil
		case 4:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.ServerTimeMs = int64(v)
			return n, nil
		case 5:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.MessageId = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// InitializeMessage

func (self *InitializeMessage) appendFields(b []byte) []byte {
	b = appendInt32Field(b, 1, self.ClientType)
	b = appendStringField(b, 2, self.Nonce)
	b = appendBytesField(b, 3, self.ApplicationClientId.appendFields(nil))
	b = appendInt32Field(b, 4, int32(self.DigestSerializationType))
	return b
}

func (self *InitializeMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.ClientType = int32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Nonce = string(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.ApplicationClientId.unmarshal(v)
		case 4:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.DigestSerializationType = DigestSerializationType(v)
			return n, nil
		}
		return -1, nil
	})
}

// PropertyRecord

func (self *PropertyRecord) appendFields(b []byte) []byte {
	b = appendStringField(b, 1, self.Name)
	b = appendInt32Field(b, 2, self.Value)
	return b
}

func (self *PropertyRecord) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Name = string(v)
			return n, nil
		case 2:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.Value = int32(v)
			return n, nil
		}
		return -1, nil
	})
}

// InfoMessage

func (self *InfoMessage) appendFields(b []byte) []byte {
	b = appendBytesField(b, 1, self.ClientVersion.appendFields(nil))
	for i := range self.ConfigParameter {
		b = appendBytesField(b, 2, self.ConfigParameter[i].appendFields(nil))
	}
	for i := range self.PerformanceCounter {
		b = appendBytesField(b, 3, self.PerformanceCounter[i].appendFields(nil))
	}
	if self.ServerRegistrationSummaryRequested {
		b = appendBoolField(b, 4, true)
	}
	return b
}

func (self *InfoMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.ClientVersion.unmarshal(v)
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			var record PropertyRecord
			if err := record.unmarshal(v); err != nil {
				return 0, err
			}
			self.ConfigParameter = append(self.ConfigParameter, record)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			var record PropertyRecord
			if err := record.unmarshal(v); err != nil {
				return 0, err
			}
			self.PerformanceCounter = append(self.PerformanceCounter, record)
			return n, nil
		case 4:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.ServerRegistrationSummaryRequested = protowire.DecodeBool(v)
			return n, nil
		}
		return -1, nil
	})
}

// InfoRequestMessage

func (self *InfoRequestMessage) appendFields(b []byte) []byte {
	for _, infoType := range self.InfoType {
		b = appendInt32Field(b, 1, int32(infoType))
	}
	return b
}

func (self *InfoRequestMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.InfoType = append(self.InfoType, InfoType(v))
			return n, nil
		}
		return -1, nil
	})
}

// RegistrationMessage

func (self *RegistrationMessage) appendFields(b []byte) []byte {
	for i := range self.Registration {
		b = appendBytesField(b, 1, self.Registration[i].appendFields(nil))
	}
	return b
}

func (self *RegistrationMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			var registration Registration
			if err := registration.unmarshal(v); err != nil {
				return 0, err
			}
			self.Registration = append(self.Registration, registration)
			return n, nil
		}
		return -1, nil
	})
}

// RegistrationSyncMessage

func (self *RegistrationSyncMessage) appendFields(b []byte) []byte {
	for i := range self.Subtree {
		b = appendBytesField(b, 1, self.Subtree[i].appendFields(nil))
	}
	return b
}

func (self *RegistrationSyncMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			var subtree RegistrationSubtree
			if err := subtree.unmarshal(v); err != nil {
				return 0, err
			}
			self.Subtree = append(self.Subtree, subtree)
			return n, nil
		}
		return -1, nil
	})
}

// InvalidationMessage

func (self *InvalidationMessage) appendFields(b []byte) []byte {
	for i := range self.Invalidation {
		b = appendBytesField(b, 1, self.Invalidation[i].appendFields(nil))
	}
	return b
}

func (self *InvalidationMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			var invalidation Invalidation
			if err := invalidation.unmarshal(v); err != nil {
				return 0, err
			}
			self.Invalidation = append(self.Invalidation, invalidation)
			return n, nil
		}
		return -1, nil
	})
}

// RegistrationStatusMessage

func (self *RegistrationStatusMessage) appendFields(b []byte) []byte {
	for i := range self.RegistrationStatus {
		b = appendBytesField(b, 1, self.RegistrationStatus[i].appendFields(nil))
	}
	return b
}

func (self *RegistrationStatusMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			var status RegistrationStatus
			if err := status.unmarshal(v); err != nil {
				return 0, err
			}
			self.RegistrationStatus = append(self.RegistrationStatus, status)
			return n, nil
		}
		return -1, nil
	})
}

// ConfigChangeMessage

func (self *ConfigChangeMessage) appendFields(b []byte) []byte {
	if self.NextMessageDelayMs != 0 {
		b = appendInt64Field(b, 1, self.NextMessageDelayMs)
	}
	return b
}

func (self *ConfigChangeMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.NextMessageDelayMs = int64(v)
			return n, nil
		}
		return -1, nil
	})
}

// TokenControlMessage

func (self *TokenControlMessage) appendFields(b []byte) []byte {
	if self.NewToken != "" {
		b = appendStringField(b, 1, self.NewToken)
	}
	b = appendBytesField(b, 2, self.Status.appendFields(nil))
	return b
}

func (self *TokenControlMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.NewToken = string(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, self.Status.unmarshal(v)
		}
		return -1, nil
	})
}

// ErrorMessage

func (self *ErrorMessage) appendFields(b []byte) []byte {
	b = appendInt32Field(b, 1, self.Code)
	b = appendStringField(b, 2, self.Description)
	return b
}

func (self *ErrorMessage) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			self.Code = int32(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			self.Description = string(v)
			return n, nil
		}
		return -1, nil
	})
}

// ClientToServerMessage

func (self *ClientToServerMessage) Marshal() []byte {
	b := appendBytesField(nil, 1, self.Header.appendFields(nil))
	if self.Action != Action_NONE {
		b = appendInt32Field(b, 2, int32(self.Action))
	}
	if self.InitializeMessage != nil {
		b = appendBytesField(b, 3, self.InitializeMessage.appendFields(nil))
	}
	if self.RegistrationMessage != nil {
		b = appendBytesField(b, 4, self.RegistrationMessage.appendFields(nil))
	}
	if self.RegistrationSyncMessage != nil {
		b = appendBytesField(b, 5, self.RegistrationSyncMessage.appendFields(nil))
	}
	if self.InvalidationAckMessage != nil {
		b = appendBytesField(b, 6, self.InvalidationAckMessage.appendFields(nil))
	}
	if self.InfoMessage != nil {
		b = appendBytesField(b, 7, self.InfoMessage.appendFields(nil))
	}
	return b
}

func UnmarshalClientToServerMessage(b []byte) (*ClientToServerMessage, error) {
	message := &ClientToServerMessage{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, message.Header.unmarshal(v)
		case 2:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			message.Action = Action(v)
			return n, nil
		case 3:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.InitializeMessage = &InitializeMessage{}
			return n, message.InitializeMessage.unmarshal(v)
		case 4:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.RegistrationMessage = &RegistrationMessage{}
			return n, message.RegistrationMessage.unmarshal(v)
		case 5:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.RegistrationSyncMessage = &RegistrationSyncMessage{}
			return n, message.RegistrationSyncMessage.unmarshal(v)
		case 6:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.InvalidationAckMessage = &InvalidationMessage{}
			return n, message.InvalidationAckMessage.unmarshal(v)
		case 7:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.InfoMessage = &InfoMessage{}
			return n, message.InfoMessage.unmarshal(v)
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// ServerToClientMessage

func (self *ServerToClientMessage) Marshal() []byte {
	b := appendBytesField(nil, 1, self.Header.appendFields(nil))
	if self.TokenControlMessage != nil {
		b = appendBytesField(b, 2, self.TokenControlMessage.appendFields(nil))
	}
	if self.InvalidationMessage != nil {
		b = appendBytesField(b, 3, self.InvalidationMessage.appendFields(nil))
	}
	if self.RegistrationStatusMessage != nil {
		b = appendBytesField(b, 4, self.RegistrationStatusMessage.appendFields(nil))
	}
	if self.RegistrationSyncRequestMessage != nil {
		b = appendBytesField(b, 5, nil)
	}
	if self.InfoRequestMessage != nil {
		b = appendBytesField(b, 6, self.InfoRequestMessage.appendFields(nil))
	}
	if self.ConfigChangeMessage != nil {
		b = appendBytesField(b, 7, self.ConfigChangeMessage.appendFields(nil))
	}
	if self.ErrorMessage != nil {
		b = appendBytesField(b, 8, self.ErrorMessage.appendFields(nil))
	}
	if self.HeartbeatIntervalMs != 0 {
		b = appendInt64Field(b, 9, self.HeartbeatIntervalMs)
	}
	if self.PollIntervalMs != 0 {
		b = appendInt64Field(b, 10, self.PollIntervalMs)
	}
	return b
}

func UnmarshalServerToClientMessage(b []byte) (*ServerToClientMessage, error) {
	message := &ServerToClientMessage{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			return n, message.Header.unmarshal(v)
		case 2:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.TokenControlMessage = &TokenControlMessage{}
			return n, message.TokenControlMessage.unmarshal(v)
		case 3:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.InvalidationMessage = &InvalidationMessage{}
			return n, message.InvalidationMessage.unmarshal(v)
		case 4:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.RegistrationStatusMessage = &RegistrationStatusMessage{}
			return n, message.RegistrationStatusMessage.unmarshal(v)
		case 5:
			_, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.RegistrationSyncRequestMessage = &RegistrationSyncRequestMessage{}
			return n, nil
		case 6:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.InfoRequestMessage = &InfoRequestMessage{}
			return n, message.InfoRequestMessage.unmarshal(v)
		case 7:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.ConfigChangeMessage = &ConfigChangeMessage{}
			return n, message.ConfigChangeMessage.unmarshal(v)
		case 8:
			v, n, err := consumeBytes(b, typ)
			if err != nil {
				return 0, err
			}
			message.ErrorMessage = &ErrorMessage{}
			return n, message.ErrorMessage.unmarshal(v)
		case 9:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			message.HeartbeatIntervalMs = int64(v)
			return n, nil
		case 10:
			v, n, err := consumeVarint(b, typ)
			if err != nil {
				return 0, err
			}
			message.PollIntervalMs = int64(v)
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}
