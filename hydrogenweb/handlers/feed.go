package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxwycdh/rxhash"

	"hydrogen/hydrogen"
	"hydrogen/hydrogenweb/util"
)

const feedWriteWait = 5 * time.Second

var (
	feedConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hydrogenweb",
			Name:      "feed_connections_active",
			Help:      "Active VM feed websocket connections",
		})

	feedPushes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hydrogenweb",
			Name:      "feed_pushes_total",
			Help:      "VM lists pushed to feed clients",
		},
	)
)

func init() {
	prometheus.MustRegister(feedConnections)
	prometheus.MustRegister(feedPushes)
}

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// feedState is what a client sees. Last seen times move on every poll and
// are left out so that only state changes are pushed.
type feedState struct {
	VMs []hydrogen.VM
}

func vmsHash(entries []hydrogen.VMEntry) (string, error) {
	if len(entries) == 0 {
		return "empty", nil
	}

	state := feedState{VMs: make([]hydrogen.VM, 0, len(entries))}
	for _, entry := range entries {
		state.VMs = append(state.VMs, entry.VM)
	}

	hash, err := rxhash.HashStruct(state)
	if err != nil {
		return "", fmt.Errorf("error hashing VM list: %w", err)
	}

	return hash, nil
}

// VMsFeedHandler pushes the VM list over a websocket whenever it changes.
type VMsFeedHandler struct {
	GetVMs   func(context.Context) ([]hydrogen.VMEntry, error)
	Interval time.Duration
}

func NewVMsFeedHandler(interval time.Duration) VMsFeedHandler {
	return VMsFeedHandler{
		GetVMs:   GetVMs,
		Interval: interval,
	}
}

// readLoop drains client frames so close messages are seen, and cancels ctx
// once the client goes away.
func readLoop(wsConn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	for {
		if _, _, err := wsConn.NextReader(); err != nil {
			return
		}
	}
}

func (v VMsFeedHandler) push(ctx context.Context, wsConn *websocket.Conn, lastHash string) (string, error) {
	entries, err := v.GetVMs(ctx)
	if err != nil {
		return lastHash, err
	}

	hash, err := vmsHash(entries)
	if err != nil {
		return lastHash, err
	}

	if hash == lastHash {
		return lastHash, nil
	}

	_ = wsConn.SetWriteDeadline(time.Now().Add(feedWriteWait))

	err = wsConn.WriteJSON(entries)
	if err != nil {
		return lastHash, fmt.Errorf("error writing VM list: %w", err)
	}

	feedPushes.Inc()

	return hash, nil
}

func (v VMsFeedHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	wsConn, err := feedUpgrader.Upgrade(writer, request, nil)
	if err != nil {
		util.LogError(err, request.RemoteAddr)

		return
	}

	defer func(wsConn *websocket.Conn) {
		_ = wsConn.Close()
	}(wsConn)

	feedConnections.Inc()
	defer feedConnections.Dec()

	ctx, cancel := context.WithCancel(request.Context())
	defer cancel()

	go readLoop(wsConn, cancel)

	interval := v.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastHash string

	for {
		lastHash, err = v.push(ctx, wsConn, lastHash)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			slog.Debug("vm feed push failed", "remote", request.RemoteAddr, "err", err)

			_ = wsConn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, util.GetErrDesc(err)),
				time.Now().Add(feedWriteWait))

			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
