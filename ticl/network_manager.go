package ticl

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"ticl.dev/ticl/protocol"
)

// NetworkManager tracks outbound-data readiness, the heartbeat interval,
// and the invalidation poll interval. The outbound listener is informed
// through a throttle so a burst of ready signals collapses into one
// notification.
type NetworkManager struct {
	scheduler Scheduler
	config    *Config

	throttle *Throttle

	stateLock        sync.Mutex
	hasOutboundData  bool
	listenerInformed bool
	outboundListener func()
	lastPollMs       int64
	lastSendMs       int64
	pollDelay        time.Duration
	heartbeatDelay   time.Duration
}

func NewNetworkManager(scheduler Scheduler, config *Config) *NetworkManager {
	networkManager := &NetworkManager{
		scheduler:      scheduler,
		config:         config,
		pollDelay:      config.InitialPollDelay,
		heartbeatDelay: config.InitialHeartbeatDelay,
	}
	networkManager.throttle = NewThrottle(
		scheduler,
		config.ThrottleWindow,
		networkManager.doInformOutboundListener,
	)
	return networkManager
}

// HandleOutboundMessage stamps the poll action on the outgoing envelope
// when a session is held and the poll interval has elapsed, and clears the
// outbound-ready state.
func (self *NetworkManager) HandleOutboundMessage(message *protocol.ClientToServerMessage, hasClientToken bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	nowMs := self.scheduler.CurrentTimeMs()
	if hasClientToken && self.lastPollMs+self.pollDelay.Milliseconds() <= nowMs {
		message.Action = protocol.Action_POLL_INVALIDATIONS
		self.lastPollMs = nowMs
	}
	self.hasOutboundData = false
	self.listenerInformed = false
}

// HandleInboundMessage adopts server-supplied heartbeat and poll
// intervals.
func (self *NetworkManager) HandleInboundMessage(message *protocol.ServerToClientMessage) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if 0 < message.HeartbeatIntervalMs {
		self.heartbeatDelay = self.config.SmearDelay(
			time.Duration(message.HeartbeatIntervalMs) * time.Millisecond)
		glog.V(2).Infof("[netmgr]heartbeat delay = %s\n", self.heartbeatDelay)
	}
	if 0 < message.PollIntervalMs {
		self.pollDelay = self.config.SmearDelay(
			time.Duration(message.PollIntervalMs) * time.Millisecond)
		glog.V(2).Infof("[netmgr]poll delay = %s\n", self.pollDelay)
	}
}

// HandleMessageSent records the moment bytes were handed to the transport.
func (self *NetworkManager) HandleMessageSent() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.lastSendMs = self.scheduler.CurrentTimeMs()
}

func (self *NetworkManager) HeartbeatNeeded() bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.lastSendMs+self.heartbeatDelay.Milliseconds() <= self.scheduler.CurrentTimeMs()
}

func (self *NetworkManager) HasOutboundData() bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.hasOutboundData
}

// OutboundDataReady marks that the client has data waiting to be sent and
// informs the listener unless it was already informed since the last
// drain.
func (self *NetworkManager) OutboundDataReady() {
	self.stateLock.Lock()
	self.hasOutboundData = true
	inform := self.outboundListener != nil && !self.listenerInformed
	self.stateLock.Unlock()

	if inform {
		self.informOutboundListener()
	}
}

// RegisterOutboundListener records the listener to poke when outbound data
// is waiting. If data is already waiting the listener is informed
// immediately.
func (self *NetworkManager) RegisterOutboundListener(listener func()) {
	self.stateLock.Lock()
	self.outboundListener = listener
	inform := self.hasOutboundData
	self.stateLock.Unlock()

	if inform {
		self.informOutboundListener()
	}
}

func (self *NetworkManager) informOutboundListener() {
	self.throttle.Fire()
}

func (self *NetworkManager) doInformOutboundListener() {
	self.scheduler.Post(func() {
		self.stateLock.Lock()
		listener := self.outboundListener
		self.listenerInformed = true
		self.stateLock.Unlock()
		if listener != nil {
			listener()
		}
	})
}
