package protocol

import (
	"testing"

	"github.com/go-playground/assert/v2"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestClientToServerRoundTrip(t *testing.T) {
	summary := &RegistrationSummary{
		NumRegistrations:   2,
		RegistrationDigest: "\x01\x02\x03",
	}
	message := &ClientToServerMessage{
		Header: ClientHeader{
			ProtocolVersion: ProtocolVersion{
				Version: Version{MajorVersion: 3, MinorVersion: 2},
			},
			ClientToken:          "T",
			RegistrationSummary:  summary,
			ClientTimeMs:         12345,
			MaxKnownServerTimeMs: 999,
			MessageId:            "7",
		},
		Action: Action_POLL_INVALIDATIONS,
		InitializeMessage: &InitializeMessage{
			ClientType:              4,
			Nonce:                   "N",
			ApplicationClientId:     ApplicationClientId{ClientName: "app"},
			DigestSerializationType: DigestSerializationType_BYTE_BASED,
		},
		RegistrationMessage: &RegistrationMessage{
			Registration: []Registration{
				{
					ObjectId: ObjectId{Source: 1, Name: "a"},
					OpType:   OpType_REGISTER,
				},
				{
					ObjectId: ObjectId{Source: 2, Name: "b"},
					OpType:   OpType_UNREGISTER,
				},
			},
		},
		InvalidationAckMessage: &InvalidationMessage{
			Invalidation: []Invalidation{
				{
					ObjectId:       ObjectId{Source: 1, Name: "a"},
					IsKnownVersion: true,
					Version:        42,
					Payload:        "p",
				},
			},
		},
		RegistrationSyncMessage: &RegistrationSyncMessage{
			Subtree: []RegistrationSubtree{
				{
					RegisteredObjects: []ObjectId{
						{Source: 1, Name: "a"},
						{Source: 2, Name: "b"},
					},
				},
			},
		},
		InfoMessage: &InfoMessage{
			ClientVersion: ClientVersion{
				Version:         Version{MajorVersion: 3, MinorVersion: 2},
				Platform:        "go",
				Language:        "Go",
				ApplicationInfo: "test",
			},
			ConfigParameter: []PropertyRecord{
				{Name: "batchingDelayMs", Value: 500},
			},
			PerformanceCounter: []PropertyRecord{
				{Name: "SentMessageType.TOTAL", Value: 3},
			},
			ServerRegistrationSummaryRequested: true,
		},
	}

	decoded, err := UnmarshalClientToServerMessage(message.Marshal())
	assert.Equal(t, nil, err)
	assert.Equal(t, message.Header, decoded.Header)
	assert.Equal(t, message.Action, decoded.Action)
	assert.Equal(t, message.InitializeMessage, decoded.InitializeMessage)
	assert.Equal(t, message.RegistrationMessage, decoded.RegistrationMessage)
	assert.Equal(t, message.InvalidationAckMessage, decoded.InvalidationAckMessage)
	assert.Equal(t, message.RegistrationSyncMessage, decoded.RegistrationSyncMessage)
	assert.Equal(t, message.InfoMessage, decoded.InfoMessage)
}

func TestServerToClientRoundTrip(t *testing.T) {
	message := &ServerToClientMessage{
		Header: ServerHeader{
			ProtocolVersion: ProtocolVersion{
				Version: Version{MajorVersion: 3, MinorVersion: 2},
			},
			ClientToken: "T",
			RegistrationSummary: &RegistrationSummary{
				NumRegistrations:   1,
				RegistrationDigest: "\xaa",
			},
			ServerTimeMs: 777,
			MessageId:    "s9",
		},
		TokenControlMessage: &TokenControlMessage{
			NewToken: "T2",
			Status:   Status{Code: StatusCode_SUCCESS, Description: "ok"},
		},
		InvalidationMessage: &InvalidationMessage{
			Invalidation: []Invalidation{
				{
					ObjectId:       ObjectId{Source: 5, Name: "obj"},
					IsKnownVersion: true,
					Version:        10,
				},
			},
		},
		RegistrationStatusMessage: &RegistrationStatusMessage{
			RegistrationStatus: []RegistrationStatus{
				{
					Registration: Registration{
						ObjectId: ObjectId{Source: 5, Name: "obj"},
						OpType:   OpType_REGISTER,
					},
					Status: Status{Code: StatusCode_TRANSIENT_FAILURE, Description: "retry"},
				},
			},
		},
		RegistrationSyncRequestMessage: &RegistrationSyncRequestMessage{},
		InfoRequestMessage: &InfoRequestMessage{
			InfoType: []InfoType{InfoType_GET_PERFORMANCE_COUNTERS},
		},
		ConfigChangeMessage: &ConfigChangeMessage{
			NextMessageDelayMs: 5000,
		},
		ErrorMessage: &ErrorMessage{
			Code:        1,
			Description: "bad",
		},
		HeartbeatIntervalMs: 60000,
		PollIntervalMs:      120000,
	}

	decoded, err := UnmarshalServerToClientMessage(message.Marshal())
	assert.Equal(t, nil, err)
	assert.Equal(t, message.Header, decoded.Header)
	assert.Equal(t, message.TokenControlMessage, decoded.TokenControlMessage)
	assert.Equal(t, message.InvalidationMessage, decoded.InvalidationMessage)
	assert.Equal(t, message.RegistrationStatusMessage, decoded.RegistrationStatusMessage)
	assert.NotEqual(t, nil, decoded.RegistrationSyncRequestMessage)
	assert.Equal(t, message.InfoRequestMessage, decoded.InfoRequestMessage)
	assert.Equal(t, message.ConfigChangeMessage, decoded.ConfigChangeMessage)
	assert.Equal(t, message.ErrorMessage, decoded.ErrorMessage)
	assert.Equal(t, message.HeartbeatIntervalMs, decoded.HeartbeatIntervalMs)
	assert.Equal(t, message.PollIntervalMs, decoded.PollIntervalMs)
}

func TestUnknownFieldsSkipped(t *testing.T) {
	message := &ServerToClientMessage{
		Header: ServerHeader{
			ProtocolVersion: ProtocolVersion{
				Version: Version{MajorVersion: 3, MinorVersion: 2},
			},
			ClientToken: "T",
			MessageId:   "1",
		},
		HeartbeatIntervalMs: 1000,
	}

	// a newer server may append fields this schema does not know
	b := message.Marshal()
	b = protowire.AppendTag(b, 500, protowire.VarintType)
	b = protowire.AppendVarint(b, 17)
	b = protowire.AppendTag(b, 501, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))

	decoded, err := UnmarshalServerToClientMessage(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, message.Header, decoded.Header)
	assert.Equal(t, message.HeartbeatIntervalMs, decoded.HeartbeatIntervalMs)
}

func TestMalformedBytesFail(t *testing.T) {
	_, err := UnmarshalServerToClientMessage([]byte{0xff, 0xff, 0xff, 0xff})
	assert.NotEqual(t, nil, err)

	// a truncated valid message also fails
	message := &ServerToClientMessage{
		Header: ServerHeader{
			ProtocolVersion: ProtocolVersion{
				Version: Version{MajorVersion: 3, MinorVersion: 2},
			},
			ClientToken: "some-long-client-token",
			MessageId:   "1",
		},
	}
	b := message.Marshal()
	_, err = UnmarshalServerToClientMessage(b[:len(b)-3])
	assert.NotEqual(t, nil, err)
}

func TestObjectIdDigestInputStable(t *testing.T) {
	a := ObjectId{Source: 1, Name: "alpha"}
	b := ObjectId{Source: 1, Name: "alpha"}
	assert.Equal(t, a.Marshal(), b.Marshal())
	c := ObjectId{Source: 2, Name: "alpha"}
	assert.NotEqual(t, a.Marshal(), c.Marshal())
}

func TestRegistrationSubtreeRoundTrip(t *testing.T) {
	subtree := &RegistrationSubtree{
		RegisteredObjects: []ObjectId{
			{Source: 1, Name: "a"},
			{Source: 1, Name: "b"},
		},
	}
	decoded, err := UnmarshalRegistrationSubtree(subtree.Marshal())
	assert.Equal(t, nil, err)
	assert.Equal(t, subtree.RegisteredObjects, decoded.RegisteredObjects)
}
