package protocol

import (
	"fmt"
)

// Hand-maintained mirror of the invalidation wire schema.
// The structs here are plain values so they can be compared, hashed, and
// used as map keys; `wire.go` round-trips them to protobuf binary format.

type OpType int32

const (
	OpType_REGISTER   OpType = 1
	OpType_UNREGISTER OpType = 2
)

func (self OpType) String() string {
	switch self {
	case OpType_REGISTER:
		return "REGISTER"
	case OpType_UNREGISTER:
		return "UNREGISTER"
	default:
		return fmt.Sprintf("OpType(%d)", int32(self))
	}
}

type StatusCode int32

const (
	StatusCode_SUCCESS           StatusCode = 1
	StatusCode_TRANSIENT_FAILURE StatusCode = 2
	StatusCode_PERMANENT_FAILURE StatusCode = 3
)

type DigestSerializationType int32

const (
	DigestSerializationType_BYTE_BASED   DigestSerializationType = 1
	DigestSerializationType_NUMBER_BASED DigestSerializationType = 2
)

type InfoType int32

const (
	InfoType_GET_PERFORMANCE_COUNTERS InfoType = 1
)

type Action int32

const (
	Action_NONE               Action = 0
	Action_POLL_INVALIDATIONS Action = 1
)

// comparable
type Version struct {
	MajorVersion int32
	MinorVersion int32
}

// comparable
type ProtocolVersion struct {
	Version Version
}

// comparable
type ClientVersion struct {
	Version         Version
	Platform        string
	Language        string
	ApplicationInfo string
}

// comparable
// Name holds the object name bytes. It is a string rather than []byte so
// that ObjectId can key maps and sets.
type ObjectId struct {
	Source int32
	Name   string
}

func (self ObjectId) String() string {
	return fmt.Sprintf("Obj(%d,%q)", self.Source, self.Name)
}

// comparable
type Invalidation struct {
	ObjectId       ObjectId
	IsKnownVersion bool
	Version        int64
	Payload        string
}

func (self Invalidation) String() string {
	return fmt.Sprintf("Inv(%s,v=%d)", self.ObjectId, self.Version)
}

// comparable
type Registration struct {
	ObjectId ObjectId
	OpType   OpType
}

// comparable
type Status struct {
	Code        StatusCode
	Description string
}

func (self Status) IsSuccess() bool {
	return self.Code == StatusCode_SUCCESS
}

// comparable
type RegistrationStatus struct {
	Registration Registration
	Status       Status
}

// comparable
// Digest is a string rather than []byte for comparability; it holds raw
// digest bytes, not hex.
type RegistrationSummary struct {
	NumRegistrations   int32
	RegistrationDigest string
}

type RegistrationSubtree struct {
	RegisteredObjects []ObjectId
}

// comparable
type ApplicationClientId struct {
	ClientName string
}

type ClientHeader struct {
	ProtocolVersion      ProtocolVersion
	ClientToken          string
	RegistrationSummary  *RegistrationSummary
	ClientTimeMs         int64
	MaxKnownServerTimeMs int64
	MessageId            string
}

type ServerHeader struct {
	ProtocolVersion     ProtocolVersion
	ClientToken         string
	RegistrationSummary *RegistrationSummary
	ServerTimeMs        int64
	MessageId           string
}

type InitializeMessage struct {
	ClientType              int32
	Nonce                   string
	ApplicationClientId     ApplicationClientId
	DigestSerializationType DigestSerializationType
}

// comparable
type PropertyRecord struct {
	Name  string
	Value int32
}

type InfoMessage struct {
	ClientVersion ClientVersion
	// carried as ConfigParameter; the source schema misspelled the field
	// name but the field number is unchanged
	ConfigParameter                    []PropertyRecord
	PerformanceCounter                 []PropertyRecord
	ServerRegistrationSummaryRequested bool
}

type InfoRequestMessage struct {
	InfoType []InfoType
}

type RegistrationMessage struct {
	Registration []Registration
}

type RegistrationSyncMessage struct {
	Subtree []RegistrationSubtree
}

type RegistrationSyncRequestMessage struct {
}

type InvalidationMessage struct {
	Invalidation []Invalidation
}

type RegistrationStatusMessage struct {
	RegistrationStatus []RegistrationStatus
}

type ConfigChangeMessage struct {
	NextMessageDelayMs int64
}

type TokenControlMessage struct {
	NewToken string
	Status   Status
}

type ErrorMessage struct {
	Code        int32
	Description string
}

type ClientToServerMessage struct {
	Header                  ClientHeader
	Action                  Action
	InitializeMessage       *InitializeMessage
	RegistrationMessage     *RegistrationMessage
	RegistrationSyncMessage *RegistrationSyncMessage
	InvalidationAckMessage  *InvalidationMessage
	InfoMessage             *InfoMessage
}

type ServerToClientMessage struct {
	Header                         ServerHeader
	TokenControlMessage            *TokenControlMessage
	InvalidationMessage            *InvalidationMessage
	RegistrationStatusMessage      *RegistrationStatusMessage
	RegistrationSyncRequestMessage *RegistrationSyncRequestMessage
	InfoRequestMessage             *InfoRequestMessage
	ConfigChangeMessage            *ConfigChangeMessage
	ErrorMessage                   *ErrorMessage
	HeartbeatIntervalMs            int64
	PollIntervalMs                 int64
}
