package ticl

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"ticl.dev/ticl/protocol"
)

type SentMessageType int

const (
	SentMessageType_INFO SentMessageType = iota
	SentMessageType_INITIALIZE
	SentMessageType_INVALIDATION_ACK
	SentMessageType_REGISTRATION
	SentMessageType_REGISTRATION_SYNC
	SentMessageType_TOTAL
)

func (self SentMessageType) String() string {
	switch self {
	case SentMessageType_INFO:
		return "INFO"
	case SentMessageType_INITIALIZE:
		return "INITIALIZE"
	case SentMessageType_INVALIDATION_ACK:
		return "INVALIDATION_ACK"
	case SentMessageType_REGISTRATION:
		return "REGISTRATION"
	case SentMessageType_REGISTRATION_SYNC:
		return "REGISTRATION_SYNC"
	case SentMessageType_TOTAL:
		return "TOTAL"
	default:
		return fmt.Sprintf("SentMessageType(%d)", int(self))
	}
}

type ReceivedMessageType int

const (
	ReceivedMessageType_CONFIG_CHANGE ReceivedMessageType = iota
	ReceivedMessageType_ERROR
	ReceivedMessageType_INFO_REQUEST
	ReceivedMessageType_INVALIDATION
	ReceivedMessageType_REGISTRATION_STATUS
	ReceivedMessageType_REGISTRATION_SYNC_REQUEST
	ReceivedMessageType_TOKEN_CONTROL
	ReceivedMessageType_TOTAL
)

func (self ReceivedMessageType) String() string {
	switch self {
	case ReceivedMessageType_CONFIG_CHANGE:
		return "CONFIG_CHANGE"
	case ReceivedMessageType_ERROR:
		return "ERROR"
	case ReceivedMessageType_INFO_REQUEST:
		return "INFO_REQUEST"
	case ReceivedMessageType_INVALIDATION:
		return "INVALIDATION"
	case ReceivedMessageType_REGISTRATION_STATUS:
		return "REGISTRATION_STATUS"
	case ReceivedMessageType_REGISTRATION_SYNC_REQUEST:
		return "REGISTRATION_SYNC_REQUEST"
	case ReceivedMessageType_TOKEN_CONTROL:
		return "TOKEN_CONTROL"
	case ReceivedMessageType_TOTAL:
		return "TOTAL"
	default:
		return fmt.Sprintf("ReceivedMessageType(%d)", int(self))
	}
}

type ClientErrorType int

const (
	ClientErrorType_INCOMING_MESSAGE_FAILURE ClientErrorType = iota
	ClientErrorType_OUTGOING_MESSAGE_FAILURE
	ClientErrorType_PROTOCOL_VERSION_FAILURE
	ClientErrorType_REGISTRATION_DISCREPANCY
	ClientErrorType_TOKEN_MISMATCH
	ClientErrorType_TOKEN_MISSING_FAILURE
)

func (self ClientErrorType) String() string {
	switch self {
	case ClientErrorType_INCOMING_MESSAGE_FAILURE:
		return "INCOMING_MESSAGE_FAILURE"
	case ClientErrorType_OUTGOING_MESSAGE_FAILURE:
		return "OUTGOING_MESSAGE_FAILURE"
	case ClientErrorType_PROTOCOL_VERSION_FAILURE:
		return "PROTOCOL_VERSION_FAILURE"
	case ClientErrorType_REGISTRATION_DISCREPANCY:
		return "REGISTRATION_DISCREPANCY"
	case ClientErrorType_TOKEN_MISMATCH:
		return "TOKEN_MISMATCH"
	case ClientErrorType_TOKEN_MISSING_FAILURE:
		return "TOKEN_MISSING_FAILURE"
	default:
		return fmt.Sprintf("ClientErrorType(%d)", int(self))
	}
}

// Statistics is a counter registry for protocol events. Errors are
// recorded here instead of being raised; the snapshot feeds outbound info
// messages.
type Statistics struct {
	stateLock        sync.Mutex
	sentMessages     map[SentMessageType]int32
	receivedMessages map[ReceivedMessageType]int32
	clientErrors     map[ClientErrorType]int32
}

func NewStatistics() *Statistics {
	return &Statistics{
		sentMessages:     map[SentMessageType]int32{},
		receivedMessages: map[ReceivedMessageType]int32{},
		clientErrors:     map[ClientErrorType]int32{},
	}
}

func (self *Statistics) RecordSentMessage(sentType SentMessageType) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.sentMessages[sentType] += 1
}

func (self *Statistics) RecordReceivedMessage(receivedType ReceivedMessageType) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.receivedMessages[receivedType] += 1
}

func (self *Statistics) RecordError(errorType ClientErrorType) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.clientErrors[errorType] += 1
}

func (self *Statistics) SentMessageCount(sentType SentMessageType) int32 {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.sentMessages[sentType]
}

func (self *Statistics) ReceivedMessageCount(receivedType ReceivedMessageType) int32 {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.receivedMessages[receivedType]
}

func (self *Statistics) ErrorCount(errorType ClientErrorType) int32 {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.clientErrors[errorType]
}

// PerformanceCounters returns all non-zero counters as name/value records:
// sent, then received, then error counters, each group sorted by name.
func (self *Statistics) PerformanceCounters() []protocol.PropertyRecord {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	records := []protocol.PropertyRecord{}
	for _, sentType := range sortedKeys(self.sentMessages) {
		records = append(records, protocol.PropertyRecord{
			Name:  fmt.Sprintf("SentMessageType.%s", sentType),
			Value: self.sentMessages[sentType],
		})
	}
	for _, receivedType := range sortedKeys(self.receivedMessages) {
		records = append(records, protocol.PropertyRecord{
			Name:  fmt.Sprintf("ReceivedMessageType.%s", receivedType),
			Value: self.receivedMessages[receivedType],
		})
	}
	for _, errorType := range sortedKeys(self.clientErrors) {
		records = append(records, protocol.PropertyRecord{
			Name:  fmt.Sprintf("ClientErrorType.%s", errorType),
			Value: self.clientErrors[errorType],
		})
	}
	return records
}

func sortedKeys[K interface {
	~int
	fmt.Stringer
}, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
