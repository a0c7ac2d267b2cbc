package ticl

import (
	"sync"

	"golang.org/x/exp/slices"
)

type MessageReceiver func(message []byte)

type NetworkStatusReceiver func(online bool)

// Network is the byte-oriented transport beneath the client. Sends are
// fire and forget; inbound bytes and connectivity changes are delivered to
// the registered receivers on an arbitrary goroutine.
type Network interface {
	SendMessage(message []byte)
	SetMessageReceiver(receiver MessageReceiver)
	AddNetworkStatusReceiver(receiver NetworkStatusReceiver)
}

// MemoryNetwork is an in-process Network that records outbound messages
// and lets the caller inject inbound messages and status changes.
type MemoryNetwork struct {
	stateLock       sync.Mutex
	sent            [][]byte
	receiver        MessageReceiver
	statusReceivers []NetworkStatusReceiver
}

func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{}
}

func (self *MemoryNetwork) SendMessage(message []byte) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.sent = append(self.sent, slices.Clone(message))
}

func (self *MemoryNetwork) SetMessageReceiver(receiver MessageReceiver) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.receiver = receiver
}

func (self *MemoryNetwork) AddNetworkStatusReceiver(receiver NetworkStatusReceiver) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.statusReceivers = append(self.statusReceivers, receiver)
}

// DeliverInbound hands `message` to the message receiver, as if it arrived
// from the wire.
func (self *MemoryNetwork) DeliverInbound(message []byte) {
	self.stateLock.Lock()
	receiver := self.receiver
	self.stateLock.Unlock()
	if receiver != nil {
		receiver(message)
	}
}

func (self *MemoryNetwork) SetNetworkStatus(online bool) {
	self.stateLock.Lock()
	statusReceivers := slices.Clone(self.statusReceivers)
	self.stateLock.Unlock()
	for _, receiver := range statusReceivers {
		receiver(online)
	}
}

func (self *MemoryNetwork) SentMessages() [][]byte {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return slices.Clone(self.sent)
}

// TakeSentMessages returns the recorded outbound messages and clears the
// record.
func (self *MemoryNetwork) TakeSentMessages() [][]byte {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	sent := self.sent
	self.sent = nil
	return sent
}
