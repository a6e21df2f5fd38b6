// Package events - Mapping of analysis results to outbound OSC messages and
// decoding of inbound commands.
package events

import (
	"log/slog"

	"github.com/hypebeast/go-osc/osc"
	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/nvr-ai/go-depthtrack/images"
	"github.com/nvr-ai/go-depthtrack/poi"
)

// OSC addresses understood by the listener.
const (
	AddressActivity    = "/mimodek/activity/"
	AddressBlobs       = "/mimodek/blobs/"
	AddressTriggerFire = "/mimodek/trigger/fire"
	AddressTriggerAdd  = "/mimodek/trigger/add"
)

const (
	// ActivityFloor is the scaled activity (value * 100) below which activity
	// is treated as sensor noise and not published.
	ActivityFloor = 0.8
	// edgeRows is the number of top rows whose contour points are ignored when
	// locating the farthest blob.
	edgeRows = 2
)

// Sender delivers one OSC packet. *osc.Client satisfies it.
type Sender interface {
	Send(packet osc.Packet) error
}

// ActivityMessage builds the activity message.
//
// Returns:
//   - *osc.Message: The message, or nil when the value is below the noise floor.
//   - bool: Whether a message should be sent.
func ActivityMessage(value float32) (*osc.Message, bool) {
	if value*100 < ActivityFloor {
		return nil, false
	}
	return osc.NewMessage(AddressActivity, value), true
}

// SummarizeBlobs computes the blob summary sent to the listener.
//
// Arguments:
//   - blobs: The aggregated contours of one frame.
//   - height: Frame height used to normalize the vertical position.
//
// Returns:
//   - int32: Number of contours minus the full-frame boundary artifact.
//   - float32: Smallest normalized y over all points at y >= 2, clamped to 1
//     when no point qualifies.
//   - bool: False when the set holds one contour or fewer.
func SummarizeBlobs(blobs images.BlobSet, height int) (int32, float32, bool) {
	if blobs.Count() <= 1 || height <= 0 {
		return 0, 0, false
	}

	farthest := height + 1
	for _, contour := range blobs {
		for _, pt := range contour {
			if pt.Y < edgeRows {
				continue
			}
			if pt.Y < farthest {
				farthest = pt.Y
			}
		}
	}

	y := float32(farthest) / float32(height)
	if y > 1 {
		y = 1
	}
	return int32(blobs.Count() - 1), y, true
}

// BlobsMessage builds the blob summary message, or reports false when there is
// nothing to publish.
func BlobsMessage(blobs images.BlobSet, height int) (*osc.Message, bool) {
	count, farthest, ok := SummarizeBlobs(blobs, height)
	if !ok {
		return nil, false
	}
	return osc.NewMessage(AddressBlobs, count, farthest), true
}

// TriggerMessage builds the trigger-fired message for a point of interest.
func TriggerMessage(point poi.PointOfInterest) *osc.Message {
	return osc.NewMessage(AddressTriggerFire, point.ID)
}

// Publisher sends one message per concern per frame. Sends are fire and
// forget: failures are logged and never retried.
type Publisher struct {
	sender Sender
	height int
	logger *slog.Logger
	sent   map[string]int
}

// NewPublisher creates a publisher for frames of the fixed sensor height.
// A nil logger uses slog.Default().
func NewPublisher(sender Sender, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		sender: sender,
		height: depth.Height,
		logger: logger,
		sent:   make(map[string]int),
	}
}

// PublishActivity sends the activity value unless it is below the noise floor.
func (p *Publisher) PublishActivity(value float32) bool {
	msg, ok := ActivityMessage(value)
	if !ok {
		return false
	}
	return p.send(msg)
}

// PublishBlobs sends the blob summary unless the set holds one contour or
// fewer.
func (p *Publisher) PublishBlobs(blobs images.BlobSet) bool {
	msg, ok := BlobsMessage(blobs, p.height)
	if !ok {
		p.logger.Debug("skipping blob summary", "contours", blobs.Count())
		return false
	}
	return p.send(msg)
}

// PublishTriggers sends one message for every armed point of interest and
// returns how many were sent.
func (p *Publisher) PublishTriggers(armed []poi.PointOfInterest) int {
	n := 0
	for _, point := range armed {
		if p.send(TriggerMessage(point)) {
			n++
		}
	}
	return n
}

// Sent returns how many messages were delivered per address.
func (p *Publisher) Sent() map[string]int {
	out := make(map[string]int, len(p.sent))
	for k, v := range p.sent {
		out[k] = v
	}
	return out
}

func (p *Publisher) send(msg *osc.Message) bool {
	if p.sender == nil {
		return false
	}
	if err := p.sender.Send(msg); err != nil {
		p.logger.Error("failed to send OSC message", "address", msg.Address, "error", err)
		return false
	}
	p.sent[msg.Address]++
	return true
}
