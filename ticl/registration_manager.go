package ticl

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang/glog"

	"ticl.dev/ticl/protocol"
)

// RegistrationManager owns the desired-registration set: the single source
// of truth for the objects the client wants invalidations for. It computes
// the set's summary digest and reconciles server-reported registration
// status against the set.
type RegistrationManager struct {
	statistics *Statistics

	stateLock sync.Mutex
	desired   mapset.Set[protocol.ObjectId]
	// summary the server most recently proved it holds
	lastKnownServerSummary protocol.RegistrationSummary
}

func NewRegistrationManager(statistics *Statistics) *RegistrationManager {
	return &RegistrationManager{
		statistics: statistics,
		desired:    mapset.NewThreadUnsafeSet[protocol.ObjectId](),
		// the summary of the empty set, so the first comparison against a
		// server summary is meaningful
		lastKnownServerSummary: summaryOf(nil),
	}
}

func summaryOf(objectIds []protocol.ObjectId) protocol.RegistrationSummary {
	digests := make([][]byte, 0, len(objectIds))
	for _, objectId := range objectIds {
		digests = append(digests, ObjectIdDigest(objectId))
	}
	return protocol.RegistrationSummary{
		NumRegistrations:   int32(len(objectIds)),
		RegistrationDigest: string(setDigest(digests)),
	}
}

// PerformOperations adds (REGISTER) or removes (UNREGISTER) the object ids
// from the desired set.
func (self *RegistrationManager) PerformOperations(objectIds []protocol.ObjectId, opType protocol.OpType) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	switch opType {
	case protocol.OpType_REGISTER:
		for _, objectId := range objectIds {
			self.desired.Add(objectId)
		}
	case protocol.OpType_UNREGISTER:
		for _, objectId := range objectIds {
			self.desired.Remove(objectId)
		}
	default:
		panic(fmt.Sprintf("Unknown op type %v.", opType))
	}
}

// GetRegistrations returns the desired objects whose digest starts with
// the first `prefixLen` bits of `digestPrefix`.
func (self *RegistrationManager) GetRegistrations(digestPrefix []byte, prefixLen int) *protocol.RegistrationSubtree {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	subtree := &protocol.RegistrationSubtree{}
	self.desired.Each(func(objectId protocol.ObjectId) bool {
		if digestPrefixMatch(ObjectIdDigest(objectId), digestPrefix, prefixLen) {
			subtree.RegisteredObjects = append(subtree.RegisteredObjects, objectId)
		}
		return false
	})
	return subtree
}

// HandleRegistrationStatus reconciles each server-reported status against
// the desired set and returns one success flag per status.
//
// A SUCCESS status whose operation disagrees with the desired set (the
// server confirms a registration the client no longer wants, or an
// unregistration for an object it still wants) is a discrepancy: the local
// assertion is dropped and the entry reported as failed so the application
// can renegotiate.
func (self *RegistrationManager) HandleRegistrationStatus(statuses []protocol.RegistrationStatus) []bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	results := make([]bool, 0, len(statuses))
	for _, status := range statuses {
		objectId := status.Registration.ObjectId
		inDesired := self.desired.Contains(objectId)
		isRegister := status.Registration.OpType == protocol.OpType_REGISTER

		if !status.Status.IsSuccess() {
			self.desired.Remove(objectId)
			results = append(results, false)
			continue
		}

		if isRegister != inDesired {
			self.desired.Remove(objectId)
			self.statistics.RecordError(ClientErrorType_REGISTRATION_DISCREPANCY)
			glog.Warningf("[reg]discrepancy for %s: op = %s, desired = %t\n",
				objectId, status.Registration.OpType, inDesired)
			results = append(results, false)
			continue
		}

		results = append(results, true)
	}
	return results
}

// GetClientSummary returns the (count, digest) summary of the desired set.
func (self *RegistrationManager) GetClientSummary() protocol.RegistrationSummary {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return summaryOf(self.desired.ToSlice())
}

// InformServerRegistrationSummary records the latest summary the server
// reported holding.
func (self *RegistrationManager) InformServerRegistrationSummary(summary *protocol.RegistrationSummary) {
	if summary == nil {
		return
	}
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.lastKnownServerSummary = *summary
}

// IsStateInSyncWithServer is true when the server's last reported summary
// matches the client's current summary.
func (self *RegistrationManager) IsStateInSyncWithServer() bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.lastKnownServerSummary == summaryOf(self.desired.ToSlice())
}

func (self *RegistrationManager) String() string {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	summary := summaryOf(self.desired.ToSlice())
	return fmt.Sprintf(
		"RegistrationManager(desired=%d, digest=%x, server=(%d,%x))",
		self.desired.Cardinality(),
		summary.RegistrationDigest,
		self.lastKnownServerSummary.NumRegistrations,
		self.lastKnownServerSummary.RegistrationDigest,
	)
}
