package facade

import (
	"context"

	"github.com/litra-tech/ldcp-go/pkg/ldcperr"
)

// StartMeasurement implements scan/startMeasurement: the device begins
// producing scan packets on whatever data channel was previously opened.
func (c *Client) StartMeasurement(ctx context.Context) ldcperr.Code {
	_, code := c.call(ctx, MethodScanStartMeasurement, nil)
	return code
}

// StopMeasurement implements scan/stopMeasurement.
func (c *Client) StopMeasurement(ctx context.Context) ldcperr.Code {
	_, code := c.call(ctx, MethodScanStopMeasurement, nil)
	return code
}

type streamingParams struct {
	// FrameCount is omitted for continuous streaming, matching the
	// zero-argument startStreaming() overload in include/ldcp/device.h;
	// a positive value matches the startStreaming(int frame_count)
	// overload for a bounded capture.
	FrameCount int `json:"frame_count,omitempty"`
}

// StartStreaming implements scan/startStreaming. frameCount of 0 streams
// continuously until StopStreaming; a positive value requests that many
// frames and then stops on its own, mirroring the two C++ overloads.
func (c *Client) StartStreaming(ctx context.Context, frameCount int) ldcperr.Code {
	var params interface{}
	if frameCount > 0 {
		params = streamingParams{FrameCount: frameCount}
	}
	_, code := c.call(ctx, MethodScanStartStreaming, params)
	return code
}

// StopStreaming implements scan/stopStreaming.
func (c *Client) StopStreaming(ctx context.Context) ldcperr.Code {
	_, code := c.call(ctx, MethodScanStopStreaming, nil)
	return code
}
