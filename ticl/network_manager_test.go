package ticl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"ticl.dev/ticl/protocol"
)

func TestNetworkManagerIntervals(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	config := DefaultConfig()
	networkManager := NewNetworkManager(scheduler, config)

	// nothing was ever sent, so a heartbeat is due
	assert.Equal(t, true, networkManager.HeartbeatNeeded())

	networkManager.HandleMessageSent()
	assert.Equal(t, false, networkManager.HeartbeatNeeded())

	// the server shortens the heartbeat interval to zero-ish
	networkManager.HandleInboundMessage(&protocol.ServerToClientMessage{
		HeartbeatIntervalMs: 1,
	})
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, true, networkManager.HeartbeatNeeded())
}

func TestNetworkManagerPollStamp(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	config := DefaultConfig()
	config.InitialPollDelay = 1 * time.Hour
	networkManager := NewNetworkManager(scheduler, config)

	// without a session the poll action is never stamped
	message := &protocol.ClientToServerMessage{}
	networkManager.HandleOutboundMessage(message, false)
	assert.Equal(t, protocol.Action_NONE, message.Action)

	// first stamped poll
	message = &protocol.ClientToServerMessage{}
	networkManager.HandleOutboundMessage(message, true)
	assert.Equal(t, protocol.Action_POLL_INVALIDATIONS, message.Action)

	// within the poll interval the action is not stamped again
	message = &protocol.ClientToServerMessage{}
	networkManager.HandleOutboundMessage(message, true)
	assert.Equal(t, protocol.Action_NONE, message.Action)
}

func TestNetworkManagerOutboundListener(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	config := DefaultConfig()
	config.ThrottleWindow = 20 * time.Millisecond
	networkManager := NewNetworkManager(scheduler, config)

	var stateLock sync.Mutex
	informCount := 0
	networkManager.RegisterOutboundListener(func() {
		stateLock.Lock()
		informCount += 1
		stateLock.Unlock()
	})

	networkManager.OutboundDataReady()
	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return informCount == 1
	})
	assert.Equal(t, true, networkManager.HasOutboundData())

	// once informed, repeated ready signals do not re-inform until a drain
	networkManager.OutboundDataReady()
	networkManager.OutboundDataReady()
	time.Sleep(100 * time.Millisecond)
	stateLock.Lock()
	assert.Equal(t, 1, informCount)
	stateLock.Unlock()

	// draining clears the informed state, the next ready re-informs
	networkManager.HandleOutboundMessage(&protocol.ClientToServerMessage{}, false)
	assert.Equal(t, false, networkManager.HasOutboundData())
	networkManager.OutboundDataReady()
	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return informCount == 2
	})
}

func TestNetworkManagerListenerAfterDataReady(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	networkManager := NewNetworkManager(scheduler, DefaultConfig())
	networkManager.OutboundDataReady()

	var stateLock sync.Mutex
	informCount := 0
	networkManager.RegisterOutboundListener(func() {
		stateLock.Lock()
		informCount += 1
		stateLock.Unlock()
	})

	// data was already waiting when the listener registered
	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return informCount == 1
	})
}
