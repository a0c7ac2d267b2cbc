package ticl

import (
	"math/rand"
	"time"

	"ticl.dev/ticl/protocol"
)

const (
	ProtocolMajorVersion = int32(3)
	ProtocolMinorVersion = int32(2)
	ClientMajorVersion   = int32(3)
	ClientMinorVersion   = int32(2)
)

type Config struct {
	// minimum gap between outbound batched messages
	BatchingDelay time.Duration
	// inbound envelopes with a different major version are dropped
	ProtocolMajorVersion int32
	ProtocolMinorVersion int32
	ClientMajorVersion   int32
	ClientMinorVersion   int32
	// defaults until the server supplies its own intervals
	InitialHeartbeatDelay time.Duration
	InitialPollDelay      time.Duration
	// window for the outbound-listener throttle
	ThrottleWindow time.Duration
	// server-supplied heartbeat and poll intervals are randomized by up
	// to this percent in either direction so client fleets do not
	// synchronize
	SmearPercent int
	Platform     string
}

func DefaultConfig() *Config {
	return &Config{
		BatchingDelay:         500 * time.Millisecond,
		ProtocolMajorVersion:  ProtocolMajorVersion,
		ProtocolMinorVersion:  ProtocolMinorVersion,
		ClientMajorVersion:    ClientMajorVersion,
		ClientMinorVersion:    ClientMinorVersion,
		InitialHeartbeatDelay: 20 * time.Minute,
		InitialPollDelay:      60 * time.Minute,
		ThrottleWindow:        1 * time.Second,
		SmearPercent:          20,
		Platform:              "go",
	}
}

// ConfigParameters dumps the config as name/value records for outbound
// info messages.
func (self *Config) ConfigParameters() []protocol.PropertyRecord {
	return []protocol.PropertyRecord{
		{Name: "batchingDelayMs", Value: int32(self.BatchingDelay.Milliseconds())},
		{Name: "heartbeatDelayMs", Value: int32(self.InitialHeartbeatDelay.Milliseconds())},
		{Name: "pollDelayMs", Value: int32(self.InitialPollDelay.Milliseconds())},
		{Name: "throttleWindowMs", Value: int32(self.ThrottleWindow.Milliseconds())},
		{Name: "smearPercent", Value: int32(self.SmearPercent)},
	}
}

// SmearDelay randomizes a delay by up to SmearPercent in either direction.
func (self *Config) SmearDelay(delay time.Duration) time.Duration {
	if self.SmearPercent <= 0 {
		return delay
	}
	smear := int64(delay) * int64(self.SmearPercent) / 100
	if smear <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(2*smear+1)-smear)
}

func (self *Config) ProtocolVersion() protocol.ProtocolVersion {
	return protocol.ProtocolVersion{
		Version: protocol.Version{
			MajorVersion: self.ProtocolMajorVersion,
			MinorVersion: self.ProtocolMinorVersion,
		},
	}
}

func (self *Config) ClientVersion(applicationInfo string) protocol.ClientVersion {
	return protocol.ClientVersion{
		Version: protocol.Version{
			MajorVersion: self.ClientMajorVersion,
			MinorVersion: self.ClientMinorVersion,
		},
		Platform:        self.Platform,
		Language:        "Go",
		ApplicationInfo: applicationInfo,
	}
}
