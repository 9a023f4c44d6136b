package client

import (
	"time"

	"github.com/breezeiot/cellmqtt/packet"
)

// OnPoll drives the keep-alive scheduler (spec.md §4.7, C7). It is
// expected to be called on a roughly-periodic tick (see
// transport.Transport.Poll's doc comment) — the schedule itself is
// computed from wall-clock elapsed time, not tick counts, so it tolerates
// whatever cadence the transport actually manages.
//
// When no send has completed for a full KeepAlive interval (received
// traffic does not count), a PINGREQ is sent. If Options.PingTimeout is set
// and that many consecutive keep-alive intervals pass with no PINGRESP,
// the connection is treated as dead and torn down — an addition beyond
// the bare MQTT keep-alive rule, sourced from the original C
// implementation's connection-liveness watchdog (SPEC_FULL.md §4.5).
func (c *Client) OnPoll() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state != Connected || c.keepAliveSecs == 0 {
		return
	}

	interval := time.Duration(c.keepAliveSecs) * time.Second
	elapsed := time.Since(c.lastActivity)
	if elapsed < interval {
		return
	}

	if c.opts.PingTimeout > 0 && c.pingOutstand >= c.opts.PingTimeout {
		c.logger.Printf("cellmqtt: keep-alive timeout: %d PINGREQs unanswered", c.pingOutstand)
		c.forceClose()
		return
	}

	var req packet.Pingreq
	buf := make([]byte, req.Len())
	n, err := req.Encode(buf)
	if err != nil {
		return
	}
	if err := c.stageAndFlush(buf[:n]); err != nil {
		c.logger.Printf("cellmqtt: could not stage PINGREQ: %v", err)
		return
	}
	c.lastActivity = time.Now()
	c.pingOutstand++
}
