package ticl

import (
	"fmt"

	"ticl.dev/ticl/protocol"
)

// ServerMessageHeader is the part of an inbound envelope header handed to
// the listener: the server's token and its view of the registration
// summary.
type ServerMessageHeader struct {
	Token               string
	RegistrationSummary *protocol.RegistrationSummary
}

func (self ServerMessageHeader) String() string {
	if self.RegistrationSummary == nil {
		return fmt.Sprintf("Header(token=%q)", self.Token)
	}
	return fmt.Sprintf(
		"Header(token=%q, summary=(%d,%x))",
		self.Token,
		self.RegistrationSummary.NumRegistrations,
		self.RegistrationSummary.RegistrationDigest,
	)
}

// ProtocolListener is the callback surface between the protocol handler
// and the embedding client. The listener owns the client token; the
// handler only reads it. All callbacks run on the internal scheduler
// goroutine.
type ProtocolListener interface {
	GetClientToken() string
	GetRegistrationSummary() protocol.RegistrationSummary
	HandleTokenChanged(header ServerMessageHeader, newToken string, status protocol.Status)
	HandleInvalidations(header ServerMessageHeader, invalidations []protocol.Invalidation)
	HandleRegistrationStatus(header ServerMessageHeader, statuses []protocol.RegistrationStatus)
	HandleRegistrationSyncRequest(header ServerMessageHeader)
	HandleInfoMessage(header ServerMessageHeader, infoTypes []protocol.InfoType)
	HandleErrorMessage(header ServerMessageHeader, code int32, description string)
	HandleNetworkStatusChange(online bool)
}
