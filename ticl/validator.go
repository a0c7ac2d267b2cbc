package ticl

import (
	"fmt"

	"ticl.dev/ticl/protocol"
)

// MessageValidator checks the structural validity of envelopes in both
// directions. Validation failures are recorded and dropped, never raised.
type MessageValidator interface {
	ValidateInbound(message *protocol.ServerToClientMessage) error
	ValidateOutbound(message *protocol.ClientToServerMessage) error
}

type defaultMessageValidator struct {
}

func NewDefaultMessageValidator() MessageValidator {
	return &defaultMessageValidator{}
}

func (self *defaultMessageValidator) ValidateInbound(message *protocol.ServerToClientMessage) error {
	header := &message.Header
	if header.ProtocolVersion.Version.MajorVersion < 0 {
		return fmt.Errorf("negative protocol major version %d", header.ProtocolVersion.Version.MajorVersion)
	}
	if header.ServerTimeMs < 0 {
		return fmt.Errorf("negative server time %d", header.ServerTimeMs)
	}
	if err := validateSummary(header.RegistrationSummary); err != nil {
		return err
	}
	if message.TokenControlMessage != nil {
		if !message.TokenControlMessage.Status.IsSuccess() && message.TokenControlMessage.NewToken != "" {
			return fmt.Errorf("token control carries a token with failure status")
		}
	}
	if message.InvalidationMessage != nil {
		if len(message.InvalidationMessage.Invalidation) == 0 {
			return fmt.Errorf("empty invalidation message")
		}
		for _, invalidation := range message.InvalidationMessage.Invalidation {
			if err := validateObjectId(invalidation.ObjectId); err != nil {
				return err
			}
			if invalidation.Version < 0 {
				return fmt.Errorf("negative invalidation version %d for %s", invalidation.Version, invalidation.ObjectId)
			}
		}
	}
	if message.RegistrationStatusMessage != nil {
		for _, status := range message.RegistrationStatusMessage.RegistrationStatus {
			if err := validateObjectId(status.Registration.ObjectId); err != nil {
				return err
			}
		}
	}
	if message.ConfigChangeMessage != nil {
		if message.ConfigChangeMessage.NextMessageDelayMs < 0 {
			return fmt.Errorf("negative next message delay %d", message.ConfigChangeMessage.NextMessageDelayMs)
		}
	}
	if message.HeartbeatIntervalMs < 0 || message.PollIntervalMs < 0 {
		return fmt.Errorf("negative interval")
	}
	return nil
}

func (self *defaultMessageValidator) ValidateOutbound(message *protocol.ClientToServerMessage) error {
	header := &message.Header
	if header.ClientTimeMs < 0 {
		return fmt.Errorf("negative client time %d", header.ClientTimeMs)
	}
	if header.MaxKnownServerTimeMs < 0 {
		return fmt.Errorf("negative max known server time %d", header.MaxKnownServerTimeMs)
	}
	if header.MessageId == "" {
		return fmt.Errorf("missing message id")
	}
	if err := validateSummary(header.RegistrationSummary); err != nil {
		return err
	}
	if message.InitializeMessage != nil {
		if message.InitializeMessage.Nonce == "" {
			return fmt.Errorf("initialize message without nonce")
		}
		if message.InitializeMessage.ApplicationClientId.ClientName == "" {
			return fmt.Errorf("initialize message without client name")
		}
	}
	if message.RegistrationMessage != nil {
		for _, registration := range message.RegistrationMessage.Registration {
			if err := validateObjectId(registration.ObjectId); err != nil {
				return err
			}
		}
	}
	if message.InvalidationAckMessage != nil {
		for _, invalidation := range message.InvalidationAckMessage.Invalidation {
			if err := validateObjectId(invalidation.ObjectId); err != nil {
				return err
			}
			if invalidation.Version < 0 {
				return fmt.Errorf("negative ack version %d for %s", invalidation.Version, invalidation.ObjectId)
			}
		}
	}
	return nil
}

func validateObjectId(objectId protocol.ObjectId) error {
	if objectId.Name == "" {
		return fmt.Errorf("empty object name for source %d", objectId.Source)
	}
	return nil
}

func validateSummary(summary *protocol.RegistrationSummary) error {
	if summary == nil {
		return nil
	}
	if summary.NumRegistrations < 0 {
		return fmt.Errorf("negative registration count %d", summary.NumRegistrations)
	}
	return nil
}
