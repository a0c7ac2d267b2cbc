package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/oklog/ulid/v2"

	"ticl.dev/ticl/protocol"
	"ticl.dev/ticl/ticl"
)

const TiclCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Ticl control.

Runs an invalidation client against a server endpoint, registers the
named objects, and acks the invalidations it receives.

Usage:
    ticlctl run --connect_url=<connect_url>
        --source=<source>
        --name=<name>...
        [--client_type=<client_type>]
        [--db=<db>]

Options:
    -h --help                    Show this screen.
    --version                    Show version.
    --connect_url=<connect_url>  Websocket url of the invalidation server.
    --source=<source>            Object source number.
    --name=<name>                Object name. May be repeated.
    --client_type=<client_type>  Client type number [default: 4].
    --db=<db>                    Sqlite path for persisted client state.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], TiclCtlVersion)
	if err != nil {
		panic(err)
	}

	if run_, _ := opts.Bool("run"); run_ {
		run(opts)
	}
}

type runClient struct {
	scheduler           ticl.Scheduler
	config              *ticl.Config
	statistics          *ticl.Statistics
	registrationManager *ticl.RegistrationManager
	storage             *ticl.SafeStorage

	protocolHandler *ticl.ProtocolHandler

	objects    []protocol.ObjectId
	clientType int32
	clientName string

	clientToken string
	nonce       string
}

// ticl.ProtocolListener implementation

func (self *runClient) GetClientToken() string {
	return self.clientToken
}

func (self *runClient) GetRegistrationSummary() protocol.RegistrationSummary {
	return self.registrationManager.GetClientSummary()
}

func (self *runClient) HandleTokenChanged(header ticl.ServerMessageHeader, newToken string, status protocol.Status) {
	if !status.IsSuccess() {
		Err.Printf("Token control failed: %s", status.Description)
		self.clientToken = ""
		return
	}
	hadToken := self.clientToken != ""
	self.clientToken = newToken
	if newToken == "" {
		Out.Printf("Token revoked")
		return
	}
	Out.Printf("Token assigned")
	if self.storage != nil {
		self.storage.WriteKey("client_token", []byte(newToken), func(err error) {
			if err != nil {
				Err.Printf("Token write failed: %s", err)
			}
		})
	}
	if !hadToken {
		self.registrationManager.PerformOperations(self.objects, protocol.OpType_REGISTER)
		self.protocolHandler.SendRegistrations(self.objects, protocol.OpType_REGISTER)
	}
}

func (self *runClient) HandleInvalidations(header ticl.ServerMessageHeader, invalidations []protocol.Invalidation) {
	self.registrationManager.InformServerRegistrationSummary(header.RegistrationSummary)
	for _, invalidation := range invalidations {
		Out.Printf("Invalidation %s", invalidation)
		self.protocolHandler.SendInvalidationAck(invalidation)
	}
}

func (self *runClient) HandleRegistrationStatus(header ticl.ServerMessageHeader, statuses []protocol.RegistrationStatus) {
	self.registrationManager.InformServerRegistrationSummary(header.RegistrationSummary)
	results := self.registrationManager.HandleRegistrationStatus(statuses)
	for i, status := range statuses {
		Out.Printf("Registration %s %s = %t", status.Registration.ObjectId, status.Registration.OpType, results[i])
	}
}

func (self *runClient) HandleRegistrationSyncRequest(header ticl.ServerMessageHeader) {
	subtree := self.registrationManager.GetRegistrations(nil, 0)
	self.protocolHandler.SendRegistrationSyncSubtree(subtree)
}

func (self *runClient) HandleInfoMessage(header ticl.ServerMessageHeader, infoTypes []protocol.InfoType) {
	for _, infoType := range infoTypes {
		if infoType == protocol.InfoType_GET_PERFORMANCE_COUNTERS {
			self.protocolHandler.SendInfoMessage(
				self.statistics.PerformanceCounters(),
				self.config.ConfigParameters(),
				true,
			)
		}
	}
}

func (self *runClient) HandleErrorMessage(header ticl.ServerMessageHeader, code int32, description string) {
	Err.Printf("Server error %d: %s", code, description)
}

func (self *runClient) HandleNetworkStatusChange(online bool) {
	Out.Printf("Network online = %t", online)
	if online && self.clientToken == "" {
		self.sendInitialize()
	}
}

func (self *runClient) sendInitialize() {
	self.nonce = ulid.Make().String()
	self.protocolHandler.SendInitializeMessage(
		self.clientType,
		protocol.ApplicationClientId{
			ClientName: self.clientName,
		},
		self.nonce,
		"init",
	)
}

func run(opts docopt.Opts) {
	connectUrl, _ := opts.String("--connect_url")
	sourceStr, _ := opts.String("--source")
	source, err := strconv.ParseInt(sourceStr, 10, 32)
	if err != nil {
		fmt.Printf("Invalid source (%s).\n", err)
		return
	}
	clientTypeStr, _ := opts.String("--client_type")
	clientType, err := strconv.ParseInt(clientTypeStr, 10, 32)
	if err != nil {
		fmt.Printf("Invalid client_type (%s).\n", err)
		return
	}
	names := opts["--name"].([]string)

	objects := []protocol.ObjectId{}
	for _, name := range names {
		objects = append(objects, protocol.ObjectId{
			Source: int32(source),
			Name:   name,
		})
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := ticl.NewRunScheduler(cancelCtx)
	defer scheduler.Close()

	config := ticl.DefaultConfig()
	statistics := ticl.NewStatistics()

	client := &runClient{
		scheduler:           scheduler,
		config:              config,
		statistics:          statistics,
		registrationManager: ticl.NewRegistrationManager(statistics),
		objects:             objects,
		clientType:          int32(clientType),
		clientName:          fmt.Sprintf("ticlctl-%s", ulid.Make()),
	}

	if dbPath, err := opts.String("--db"); err == nil && dbPath != "" {
		sqliteStorage, err := ticl.OpenSqliteStorage(dbPath)
		if err != nil {
			fmt.Printf("Cannot open db (%s).\n", err)
			return
		}
		defer sqliteStorage.Close()
		client.storage = ticl.NewSafeStorage(scheduler, sqliteStorage)
	}

	network := ticl.NewWebsocketNetworkWithDefaults(cancelCtx, connectUrl)
	defer network.Close()

	client.protocolHandler = ticl.NewProtocolHandler(
		config,
		scheduler,
		network,
		statistics,
		client.clientName,
		client,
		ticl.NewDefaultMessageValidator(),
	)

	if client.storage != nil {
		client.storage.ReadKey("client_token", func(value []byte, err error) {
			if err == nil {
				Out.Printf("Previously persisted token found (%d bytes)", len(value))
			}
		})
	}

	heartbeatTicker := time.NewTicker(config.InitialHeartbeatDelay / 4)
	defer heartbeatTicker.Stop()
	go func() {
		for {
			select {
			case <-cancelCtx.Done():
				return
			case <-heartbeatTicker.C:
				scheduler.Post(func() {
					if client.protocolHandler.NetworkManager().HeartbeatNeeded() {
						client.protocolHandler.ScheduleBatchingTask()
					}
				})
			}
		}
	}()

	select {}
}
