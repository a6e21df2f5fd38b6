// Command oscmonitor listens for the tracker's outbound events and logs them.
// It can also register a point of interest on a running tracker.
//
//	oscmonitor -listen :3000
//	oscmonitor -add zoneA,0.5,0.5,20 -host localhost -port 3001
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/lmittmann/tint"
	"github.com/nvr-ai/go-depthtrack/events"
)

func main() {
	var (
		listen string
		host   string
		port   int
		add    string
	)
	flag.StringVar(&listen, "listen", ":3000", "Address to receive tracker events on")
	flag.StringVar(&host, "host", "localhost", "Tracker host for commands")
	flag.IntVar(&port, "port", 3001, "Tracker command port")
	flag.StringVar(&add, "add", "", "Register a point of interest: id,x,y,radius")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: "15:04:05.000"}))

	if add != "" {
		cmd, err := parseAdd(add)
		if err != nil {
			logger.Error("invalid -add", "error", err)
			os.Exit(2)
		}
		if err := osc.NewClient(host, port).Send(cmd.Message()); err != nil {
			logger.Error("failed to send command", "error", err)
			os.Exit(1)
		}
		logger.Info("point of interest sent", "id", cmd.ID, "x", cmd.X, "y", cmd.Y, "radius", cmd.Radius)
		return
	}

	inbox := events.NewInbox(events.DefaultInboxSize, logger)
	if err := inbox.Listen(listen); err != nil {
		logger.Error("failed to listen", "error", err)
		os.Exit(1)
	}
	defer inbox.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	counts := make(map[string]int)
	for {
		select {
		case <-ctx.Done():
			logger.Info("monitor stopped", "received", counts, "dropped", inbox.Dropped())
			return
		case <-ticker.C:
			inbox.Drain(func(msg *osc.Message) {
				counts[msg.Address]++
				logEvent(logger, msg)
			})
		}
	}
}

func logEvent(logger *slog.Logger, msg *osc.Message) {
	switch msg.Address {
	case events.AddressActivity:
		logger.Info("activity", "value", arg(msg, 0))
	case events.AddressBlobs:
		logger.Info("blobs", "count", arg(msg, 0), "farthest_y", arg(msg, 1))
	case events.AddressTriggerFire:
		logger.Info("trigger", "id", arg(msg, 0))
	default:
		logger.Warn("unexpected message", "address", msg.Address, "arguments", msg.Arguments)
	}
}

func arg(msg *osc.Message, i int) interface{} {
	if i >= len(msg.Arguments) {
		return nil
	}
	return msg.Arguments[i]
}

// parseAdd reads "id,x,y,radius".
func parseAdd(s string) (events.AddPOI, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return events.AddPOI{}, fmt.Errorf("expected id,x,y,radius, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 32)
	if err != nil {
		return events.AddPOI{}, fmt.Errorf("bad x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 32)
	if err != nil {
		return events.AddPOI{}, fmt.Errorf("bad y: %w", err)
	}
	r, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 32)
	if err != nil {
		return events.AddPOI{}, fmt.Errorf("bad radius: %w", err)
	}
	return events.AddPOI{
		ID:     strings.TrimSpace(parts[0]),
		X:      float32(x),
		Y:      float32(y),
		Radius: int32(r),
	}, nil
}
