package ticl

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"golang.org/x/exp/slices"
)

const websocketSendBufferSize = 32

type WebsocketNetworkSettings struct {
	WsHandshakeTimeout    time.Duration
	PingTimeout           time.Duration
	WriteTimeout          time.Duration
	ReadTimeout           time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxFactor    int
}

func DefaultWebsocketNetworkSettings() *WebsocketNetworkSettings {
	return &WebsocketNetworkSettings{
		WsHandshakeTimeout:    2 * time.Second,
		PingTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
		ReadTimeout:           15 * time.Second,
		ReconnectInitialDelay: 1 * time.Second,
		ReconnectMaxFactor:    32,
	}
}

// WebsocketNetwork is a Network over a reconnecting websocket. Messages
// are binary frames. Reconnects are paced by an exponential backoff
// generator that resets after each successful dial.
type WebsocketNetwork struct {
	ctx    context.Context
	cancel context.CancelFunc

	connectUrl string
	settings   *WebsocketNetworkSettings

	send chan []byte

	stateLock       sync.Mutex
	receiver        MessageReceiver
	statusReceivers []NetworkStatusReceiver
}

func NewWebsocketNetworkWithDefaults(ctx context.Context, connectUrl string) *WebsocketNetwork {
	return NewWebsocketNetwork(ctx, connectUrl, DefaultWebsocketNetworkSettings())
}

func NewWebsocketNetwork(ctx context.Context, connectUrl string, settings *WebsocketNetworkSettings) *WebsocketNetwork {
	cancelCtx, cancel := context.WithCancel(ctx)
	network := &WebsocketNetwork{
		ctx:        cancelCtx,
		cancel:     cancel,
		connectUrl: connectUrl,
		settings:   settings,
		send:       make(chan []byte, websocketSendBufferSize),
	}
	go network.run()
	return network
}

func (self *WebsocketNetwork) run() {
	defer self.cancel()

	backoff := NewExponentialBackoffDelayGenerator(
		self.settings.ReconnectInitialDelay,
		self.settings.ReconnectMaxFactor,
	)

	for {
		select {
		case <-self.ctx.Done():
			return
		default:
		}

		if delay := backoff.GetNextDelay(); 0 < delay {
			select {
			case <-self.ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		dialer := &websocket.Dialer{
			HandshakeTimeout: self.settings.WsHandshakeTimeout,
		}
		ws, _, err := dialer.DialContext(self.ctx, self.connectUrl, nil)
		if err != nil {
			glog.Infof("[net]connect error %s = %s\n", self.connectUrl, err)
			continue
		}

		backoff.Reset()
		self.setNetworkStatus(true)
		self.handle(ws)
		self.setNetworkStatus(false)
	}
}

func (self *WebsocketNetwork) handle(ws *websocket.Conn) {
	defer ws.Close()

	handleCtx, handleCancel := context.WithCancel(self.ctx)
	defer handleCancel()

	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
	})

	go func() {
		defer handleCancel()

		pingTicker := time.NewTicker(self.settings.PingTimeout)
		defer pingTicker.Stop()

		for {
			select {
			case <-handleCtx.Done():
				return
			case message := <-self.send:
				ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.BinaryMessage, message); err != nil {
					glog.Infof("[net]write error = %s\n", err)
					return
				}
			case <-pingTicker.C:
				deadline := time.Now().Add(self.settings.WriteTimeout)
				if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					glog.Infof("[net]ping error = %s\n", err)
					return
				}
			}
		}
	}()

	for {
		ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			glog.Infof("[net]read error = %s\n", err)
			return
		}
		switch messageType {
		case websocket.BinaryMessage:
			self.stateLock.Lock()
			receiver := self.receiver
			self.stateLock.Unlock()
			if receiver != nil {
				receiver(message)
			}
		default:
			// text frames are not part of the protocol
			glog.V(2).Infof("[net]drop frame type %d\n", messageType)
		}

		select {
		case <-handleCtx.Done():
			return
		default:
		}
	}
}

// SendMessage enqueues a binary frame. While the connection is down the
// frame waits in the queue for the next connection; if the queue is full
// the message is dropped.
func (self *WebsocketNetwork) SendMessage(message []byte) {
	select {
	case self.send <- message:
	default:
		glog.Warningf("[net]send queue full, dropping %d bytes\n", len(message))
	}
}

func (self *WebsocketNetwork) SetMessageReceiver(receiver MessageReceiver) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.receiver = receiver
}

func (self *WebsocketNetwork) AddNetworkStatusReceiver(receiver NetworkStatusReceiver) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.statusReceivers = append(self.statusReceivers, receiver)
}

func (self *WebsocketNetwork) setNetworkStatus(online bool) {
	self.stateLock.Lock()
	statusReceivers := slices.Clone(self.statusReceivers)
	self.stateLock.Unlock()
	for _, receiver := range statusReceivers {
		receiver(online)
	}
}

func (self *WebsocketNetwork) Close() {
	self.cancel()
}
