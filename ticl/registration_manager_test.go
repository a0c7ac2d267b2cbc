package ticl

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"ticl.dev/ticl/protocol"
)

func testObjectId(source int32, name string) protocol.ObjectId {
	return protocol.ObjectId{
		Source: source,
		Name:   name,
	}
}

func TestSummaryOrderIndependent(t *testing.T) {
	objectIds := []protocol.ObjectId{
		testObjectId(1, "alpha"),
		testObjectId(1, "beta"),
		testObjectId(2, "gamma"),
		testObjectId(7, "delta"),
	}

	forward := NewRegistrationManager(NewStatistics())
	forward.PerformOperations(objectIds, protocol.OpType_REGISTER)

	backward := NewRegistrationManager(NewStatistics())
	for i := len(objectIds) - 1; 0 <= i; i -= 1 {
		backward.PerformOperations(objectIds[i:i+1], protocol.OpType_REGISTER)
	}

	assert.Equal(t, forward.GetClientSummary(), backward.GetClientSummary())
	assert.Equal(t, int32(4), forward.GetClientSummary().NumRegistrations)
}

func TestSummaryTracksMutations(t *testing.T) {
	registrationManager := NewRegistrationManager(NewStatistics())
	emptySummary := registrationManager.GetClientSummary()
	assert.Equal(t, int32(0), emptySummary.NumRegistrations)

	objectId := testObjectId(1, "alpha")
	registrationManager.PerformOperations([]protocol.ObjectId{objectId}, protocol.OpType_REGISTER)
	oneSummary := registrationManager.GetClientSummary()
	assert.Equal(t, int32(1), oneSummary.NumRegistrations)
	assert.NotEqual(t, emptySummary, oneSummary)

	// re-adding is a no-op on the set
	registrationManager.PerformOperations([]protocol.ObjectId{objectId}, protocol.OpType_REGISTER)
	assert.Equal(t, oneSummary, registrationManager.GetClientSummary())

	registrationManager.PerformOperations([]protocol.ObjectId{objectId}, protocol.OpType_UNREGISTER)
	assert.Equal(t, emptySummary, registrationManager.GetClientSummary())
}

func TestRegistrationDiscrepancy(t *testing.T) {
	statistics := NewStatistics()
	registrationManager := NewRegistrationManager(statistics)

	objectId := testObjectId(3, "x")
	registrationManager.PerformOperations([]protocol.ObjectId{objectId}, protocol.OpType_REGISTER)

	// the server confirms an unregistration for an object the client still
	// wants
	results := registrationManager.HandleRegistrationStatus([]protocol.RegistrationStatus{
		{
			Registration: protocol.Registration{
				ObjectId: objectId,
				OpType:   protocol.OpType_UNREGISTER,
			},
			Status: protocol.Status{
				Code: protocol.StatusCode_SUCCESS,
			},
		},
	})

	assert.Equal(t, []bool{false}, results)
	assert.Equal(t, int32(0), registrationManager.GetClientSummary().NumRegistrations)
	assert.Equal(t, int32(1), statistics.ErrorCount(ClientErrorType_REGISTRATION_DISCREPANCY))
}

func TestRegistrationStatusAgreement(t *testing.T) {
	statistics := NewStatistics()
	registrationManager := NewRegistrationManager(statistics)

	registered := testObjectId(3, "in")
	unregistered := testObjectId(3, "out")
	registrationManager.PerformOperations([]protocol.ObjectId{registered}, protocol.OpType_REGISTER)

	results := registrationManager.HandleRegistrationStatus([]protocol.RegistrationStatus{
		{
			Registration: protocol.Registration{
				ObjectId: registered,
				OpType:   protocol.OpType_REGISTER,
			},
			Status: protocol.Status{Code: protocol.StatusCode_SUCCESS},
		},
		{
			Registration: protocol.Registration{
				ObjectId: unregistered,
				OpType:   protocol.OpType_UNREGISTER,
			},
			Status: protocol.Status{Code: protocol.StatusCode_SUCCESS},
		},
	})

	assert.Equal(t, []bool{true, true}, results)
	assert.Equal(t, int32(1), registrationManager.GetClientSummary().NumRegistrations)
	assert.Equal(t, int32(0), statistics.ErrorCount(ClientErrorType_REGISTRATION_DISCREPANCY))
}

func TestRegistrationStatusFailure(t *testing.T) {
	registrationManager := NewRegistrationManager(NewStatistics())

	objectId := testObjectId(3, "x")
	registrationManager.PerformOperations([]protocol.ObjectId{objectId}, protocol.OpType_REGISTER)

	results := registrationManager.HandleRegistrationStatus([]protocol.RegistrationStatus{
		{
			Registration: protocol.Registration{
				ObjectId: objectId,
				OpType:   protocol.OpType_REGISTER,
			},
			Status: protocol.Status{
				Code:        protocol.StatusCode_PERMANENT_FAILURE,
				Description: "no",
			},
		},
	})

	assert.Equal(t, []bool{false}, results)
	assert.Equal(t, int32(0), registrationManager.GetClientSummary().NumRegistrations)
}

func TestGetRegistrationsByPrefix(t *testing.T) {
	registrationManager := NewRegistrationManager(NewStatistics())

	objectIds := []protocol.ObjectId{
		testObjectId(1, "a"),
		testObjectId(1, "b"),
		testObjectId(1, "c"),
	}
	registrationManager.PerformOperations(objectIds, protocol.OpType_REGISTER)

	all := registrationManager.GetRegistrations(nil, 0)
	assert.Equal(t, 3, len(all.RegisteredObjects))

	// an 8 bit prefix from one object's digest matches at least that object
	target := objectIds[1]
	digest := ObjectIdDigest(target)
	subtree := registrationManager.GetRegistrations(digest[:1], 8)
	found := false
	for _, objectId := range subtree.RegisteredObjects {
		assert.Equal(t, digest[0], ObjectIdDigest(objectId)[0])
		if objectId == target {
			found = true
		}
	}
	assert.Equal(t, true, found)
}

func TestServerSummarySync(t *testing.T) {
	registrationManager := NewRegistrationManager(NewStatistics())

	// empty desired set matches the initial server summary of the empty set
	assert.Equal(t, true, registrationManager.IsStateInSyncWithServer())

	objectId := testObjectId(1, "a")
	registrationManager.PerformOperations([]protocol.ObjectId{objectId}, protocol.OpType_REGISTER)
	assert.Equal(t, false, registrationManager.IsStateInSyncWithServer())

	clientSummary := registrationManager.GetClientSummary()
	registrationManager.InformServerRegistrationSummary(&clientSummary)
	assert.Equal(t, true, registrationManager.IsStateInSyncWithServer())
}
