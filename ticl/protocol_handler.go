package ticl

import (
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang/glog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"ticl.dev/ticl/protocol"
)

// ProtocolHandler is the single entry point for wire messages in both
// directions. Inbound envelopes are parsed, validated, gated on protocol
// version and client token, and dispatched to the listener in a fixed
// order. Outbound sub-messages are batched and drained into one envelope
// by the batching task.
//
// All handler state is owned by the internal scheduler goroutine. Every
// entry point that touches that state asserts it; ScheduleBatchingTask
// only hands the batching task to the operation scheduler and does not.
type ProtocolHandler struct {
	config     *Config
	scheduler  Scheduler
	network    Network
	statistics *Statistics
	listener   ProtocolListener
	validator  MessageValidator

	operationScheduler *OperationScheduler
	networkManager     *NetworkManager

	clientVersion protocol.ClientVersion

	messageId             int64
	lastKnownServerTimeMs int64
	// earliest time an outbound message is permitted; set by inbound
	// ConfigChangeMessage
	nextMessageSendTimeMs int64

	// object id -> latest requested op
	pendingRegistrations map[protocol.ObjectId]protocol.OpType
	ackedInvalidations   mapset.Set[protocol.Invalidation]
	// keyed by wire encoding since subtrees are not comparable
	registrationSubtrees map[string]*protocol.RegistrationSubtree

	batchingTask *Operation
}

func NewProtocolHandler(
	config *Config,
	scheduler Scheduler,
	network Network,
	statistics *Statistics,
	applicationName string,
	listener ProtocolListener,
	validator MessageValidator,
) *ProtocolHandler {
	protocolHandler := &ProtocolHandler{
		config:               config,
		scheduler:            scheduler,
		network:              network,
		statistics:           statistics,
		listener:             listener,
		validator:            validator,
		operationScheduler:   NewOperationScheduler(scheduler),
		networkManager:       NewNetworkManager(scheduler, config),
		clientVersion:        config.ClientVersion(applicationName),
		pendingRegistrations: map[protocol.ObjectId]protocol.OpType{},
		ackedInvalidations:   mapset.NewThreadUnsafeSet[protocol.Invalidation](),
		registrationSubtrees: map[string]*protocol.RegistrationSubtree{},
	}

	protocolHandler.batchingTask = &Operation{
		Name: "Batching",
		Run: func() {
			builder := &protocol.ClientToServerMessage{}
			protocolHandler.sendMessageToServer(builder, "batching")
		},
	}
	protocolHandler.operationScheduler.Register(protocolHandler.batchingTask, config.BatchingDelay)

	network.SetMessageReceiver(func(message []byte) {
		scheduler.Post(func() {
			protocolHandler.HandleIncomingMessage(message)
		})
	})
	network.AddNetworkStatusReceiver(func(online bool) {
		scheduler.Post(func() {
			listener.HandleNetworkStatusChange(online)
		})
	})

	return protocolHandler
}

func (self *ProtocolHandler) NetworkManager() *NetworkManager {
	return self.networkManager
}

func (self *ProtocolHandler) assertOnThread() {
	if !self.scheduler.IsRunningOnThread() {
		panic("Not running on the internal scheduler goroutine.")
	}
}

// HandleIncomingMessage runs the inbound pipeline on one envelope's bytes.
func (self *ProtocolHandler) HandleIncomingMessage(messageBytes []byte) {
	self.assertOnThread()

	message, err := protocol.UnmarshalServerToClientMessage(messageBytes)
	if err != nil {
		glog.Warningf("[handler]unparseable inbound message = %s\n", err)
		return
	}
	if err := self.validator.ValidateInbound(message); err != nil {
		self.statistics.RecordError(ClientErrorType_INCOMING_MESSAGE_FAILURE)
		glog.Warningf("[handler]invalid inbound message = %s\n", err)
		return
	}
	self.statistics.RecordReceivedMessage(ReceivedMessageType_TOTAL)

	header := ServerMessageHeader{
		Token:               message.Header.ClientToken,
		RegistrationSummary: message.Header.RegistrationSummary,
	}

	if message.Header.ProtocolVersion.Version.MajorVersion != self.config.ProtocolMajorVersion {
		self.statistics.RecordError(ClientErrorType_PROTOCOL_VERSION_FAILURE)
		glog.Warningf("[handler]protocol version mismatch %d\n",
			message.Header.ProtocolVersion.Version.MajorVersion)
		return
	}

	// A config change overrides everything else in the envelope. Checking
	// it before the token gate means server backpressure cannot be evaded
	// with a stale token.
	if message.ConfigChangeMessage != nil {
		self.statistics.RecordReceivedMessage(ReceivedMessageType_CONFIG_CHANGE)
		if 0 < message.ConfigChangeMessage.NextMessageDelayMs {
			self.nextMessageSendTimeMs =
				self.scheduler.CurrentTimeMs() + message.ConfigChangeMessage.NextMessageDelayMs
			glog.V(2).Infof("[handler]quiet period until %d\n", self.nextMessageSendTimeMs)
		}
		return
	}

	if !self.checkServerToken(header.Token) {
		return
	}

	self.networkManager.HandleInboundMessage(message)

	if self.lastKnownServerTimeMs < message.Header.ServerTimeMs {
		self.lastKnownServerTimeMs = message.Header.ServerTimeMs
	}

	if message.TokenControlMessage != nil {
		self.statistics.RecordReceivedMessage(ReceivedMessageType_TOKEN_CONTROL)
		self.listener.HandleTokenChanged(
			header,
			message.TokenControlMessage.NewToken,
			message.TokenControlMessage.Status,
		)
	}
	// the token-control dispatch may have issued, revoked, or rejected a
	// token, and the token gate passes envelopes while no token is held;
	// without one now, nothing further may be dispatched
	if self.listener.GetClientToken() == "" {
		glog.V(2).Infof("[handler]no client token, stopping dispatch\n")
		return
	}
	if message.InvalidationMessage != nil {
		self.statistics.RecordReceivedMessage(ReceivedMessageType_INVALIDATION)
		self.listener.HandleInvalidations(header, message.InvalidationMessage.Invalidation)
	}
	if message.RegistrationStatusMessage != nil {
		self.statistics.RecordReceivedMessage(ReceivedMessageType_REGISTRATION_STATUS)
		self.listener.HandleRegistrationStatus(header, message.RegistrationStatusMessage.RegistrationStatus)
	}
	if message.RegistrationSyncRequestMessage != nil {
		self.statistics.RecordReceivedMessage(ReceivedMessageType_REGISTRATION_SYNC_REQUEST)
		self.listener.HandleRegistrationSyncRequest(header)
	}
	if message.InfoRequestMessage != nil {
		self.statistics.RecordReceivedMessage(ReceivedMessageType_INFO_REQUEST)
		self.listener.HandleInfoMessage(header, message.InfoRequestMessage.InfoType)
	}
	if message.ErrorMessage != nil {
		self.statistics.RecordReceivedMessage(ReceivedMessageType_ERROR)
		self.listener.HandleErrorMessage(header, message.ErrorMessage.Code, message.ErrorMessage.Description)
	}
}

// checkServerToken is true when the envelope may be processed: either the
// client has no token yet (a token-control message may be on the way) or
// the tokens agree.
func (self *ProtocolHandler) checkServerToken(token string) bool {
	clientToken := self.listener.GetClientToken()
	if clientToken == "" {
		return true
	}
	if clientToken != token {
		self.statistics.RecordError(ClientErrorType_TOKEN_MISMATCH)
		glog.Warningf("[handler]token mismatch: have %q, message has %q\n", clientToken, token)
		return false
	}
	return true
}

// SendInitializeMessage starts a session. This is the only message allowed
// to travel without a client token.
func (self *ProtocolHandler) SendInitializeMessage(
	clientType int32,
	applicationClientId protocol.ApplicationClientId,
	nonce string,
	debugString string,
) {
	self.assertOnThread()

	builder := &protocol.ClientToServerMessage{
		InitializeMessage: &protocol.InitializeMessage{
			ClientType:              clientType,
			Nonce:                   nonce,
			ApplicationClientId:     applicationClientId,
			DigestSerializationType: protocol.DigestSerializationType_BYTE_BASED,
		},
	}
	self.statistics.RecordSentMessage(SentMessageType_INITIALIZE)
	self.sendMessageToServer(builder, debugString)
}

func (self *ProtocolHandler) SendInfoMessage(
	performanceCounters []protocol.PropertyRecord,
	configParameters []protocol.PropertyRecord,
	requestServerSummary bool,
) {
	self.assertOnThread()

	builder := &protocol.ClientToServerMessage{
		InfoMessage: &protocol.InfoMessage{
			ClientVersion:                      self.clientVersion,
			ConfigParameter:                    configParameters,
			PerformanceCounter:                 performanceCounters,
			ServerRegistrationSummaryRequested: requestServerSummary,
		},
	}
	self.statistics.RecordSentMessage(SentMessageType_INFO)
	self.sendMessageToServer(builder, "info")
}

// SendRegistrations queues (un)registrations for the next batched
// message. The latest op wins per object id.
func (self *ProtocolHandler) SendRegistrations(objectIds []protocol.ObjectId, opType protocol.OpType) {
	self.assertOnThread()

	for _, objectId := range objectIds {
		self.pendingRegistrations[objectId] = opType
	}
	self.outboundDataReady()
}

// SendInvalidationAck queues an ack for the next batched message. Acks are
// deduplicated by value.
func (self *ProtocolHandler) SendInvalidationAck(invalidation protocol.Invalidation) {
	self.assertOnThread()

	self.ackedInvalidations.Add(invalidation)
	self.outboundDataReady()
}

// SendRegistrationSyncSubtree queues a reconciliation subtree for the next
// batched message.
func (self *ProtocolHandler) SendRegistrationSyncSubtree(subtree *protocol.RegistrationSubtree) {
	self.assertOnThread()

	self.registrationSubtrees[string(subtree.Marshal())] = subtree
	self.outboundDataReady()
}

func (self *ProtocolHandler) outboundDataReady() {
	self.operationScheduler.Schedule(self.batchingTask)
	self.networkManager.OutboundDataReady()
}

// ScheduleBatchingTask forces an envelope out on the next batching window
// even when no batches are pending, e.g. for a heartbeat contact.
func (self *ProtocolHandler) ScheduleBatchingTask() {
	self.operationScheduler.Schedule(self.batchingTask)
}

func (self *ProtocolHandler) sendMessageToServer(builder *protocol.ClientToServerMessage, debugString string) {
	self.assertOnThread()

	nowMs := self.scheduler.CurrentTimeMs()
	if nowMs < self.nextMessageSendTimeMs {
		glog.Warningf("[handler]in quiet period until %d, not sending %s\n",
			self.nextMessageSendTimeMs, debugString)
		return
	}

	clientToken := self.listener.GetClientToken()
	if clientToken == "" && builder.InitializeMessage == nil {
		self.statistics.RecordError(ClientErrorType_TOKEN_MISSING_FAILURE)
		glog.Warningf("[handler]no token and no initialize message, not sending %s\n", debugString)
		return
	}

	self.initClientHeader(&builder.Header, clientToken, nowMs)

	if 0 < self.ackedInvalidations.Cardinality() {
		invalidations := self.ackedInvalidations.ToSlice()
		slices.SortFunc(invalidations, compareInvalidations)
		builder.InvalidationAckMessage = &protocol.InvalidationMessage{
			Invalidation: invalidations,
		}
		self.ackedInvalidations.Clear()
		self.statistics.RecordSentMessage(SentMessageType_INVALIDATION_ACK)
	}

	if 0 < len(self.pendingRegistrations) {
		objectIds := maps.Keys(self.pendingRegistrations)
		slices.SortFunc(objectIds, compareObjectIds)
		registrations := make([]protocol.Registration, 0, len(objectIds))
		for _, objectId := range objectIds {
			registrations = append(registrations, protocol.Registration{
				ObjectId: objectId,
				OpType:   self.pendingRegistrations[objectId],
			})
		}
		builder.RegistrationMessage = &protocol.RegistrationMessage{
			Registration: registrations,
		}
		maps.Clear(self.pendingRegistrations)
		self.statistics.RecordSentMessage(SentMessageType_REGISTRATION)
	}

	if 0 < len(self.registrationSubtrees) {
		keys := maps.Keys(self.registrationSubtrees)
		slices.Sort(keys)
		subtrees := make([]protocol.RegistrationSubtree, 0, len(keys))
		for _, key := range keys {
			subtrees = append(subtrees, *self.registrationSubtrees[key])
		}
		builder.RegistrationSyncMessage = &protocol.RegistrationSyncMessage{
			Subtree: subtrees,
		}
		maps.Clear(self.registrationSubtrees)
		self.statistics.RecordSentMessage(SentMessageType_REGISTRATION_SYNC)
	}

	self.networkManager.HandleOutboundMessage(builder, clientToken != "")

	if err := self.validator.ValidateOutbound(builder); err != nil {
		self.statistics.RecordError(ClientErrorType_OUTGOING_MESSAGE_FAILURE)
		glog.Warningf("[handler]invalid outbound message %s = %s\n", debugString, err)
		return
	}

	self.statistics.RecordSentMessage(SentMessageType_TOTAL)
	messageBytes := builder.Marshal()
	self.network.SendMessage(messageBytes)
	self.networkManager.HandleMessageSent()
	glog.V(2).Infof("[handler]sent %s (%d bytes, id %s)\n",
		debugString, len(messageBytes), builder.Header.MessageId)
}

func (self *ProtocolHandler) initClientHeader(header *protocol.ClientHeader, clientToken string, nowMs int64) {
	header.ProtocolVersion = self.config.ProtocolVersion()
	header.ClientTimeMs = nowMs
	header.MaxKnownServerTimeMs = self.lastKnownServerTimeMs
	// one increment per assembled message, so ids on the wire are
	// contiguous
	self.messageId += 1
	header.MessageId = strconv.FormatInt(self.messageId, 10)
	summary := self.listener.GetRegistrationSummary()
	header.RegistrationSummary = &summary
	if clientToken != "" {
		header.ClientToken = clientToken
	}
}

func compareObjectIds(a protocol.ObjectId, b protocol.ObjectId) int {
	if a.Source != b.Source {
		if a.Source < b.Source {
			return -1
		}
		return 1
	}
	switch {
	case a.Name < b.Name:
		return -1
	case b.Name < a.Name:
		return 1
	default:
		return 0
	}
}

func compareInvalidations(a protocol.Invalidation, b protocol.Invalidation) int {
	if c := compareObjectIds(a.ObjectId, b.ObjectId); c != 0 {
		return c
	}
	switch {
	case a.Version < b.Version:
		return -1
	case b.Version < a.Version:
		return 1
	default:
		return 0
	}
}
