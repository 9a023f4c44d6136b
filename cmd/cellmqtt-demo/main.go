// Command cellmqtt-demo drives a client.Client over a real TCP or
// WebSocket connection from the command line, exercising the session
// engine the way an embedded application would: one process, one
// session, Publish/Subscribe calls triggered from CLI subcommands and
// Events logged as they arrive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/breezeiot/cellmqtt/client"
	"github.com/breezeiot/cellmqtt/internal/applog"
	"github.com/breezeiot/cellmqtt/internal/config"
	"github.com/breezeiot/cellmqtt/packet"
	"github.com/breezeiot/cellmqtt/transport"
)

func main() {
	cmd := &cli.Command{
		Name:    "cellmqtt-demo",
		Usage:   "connect to an MQTT broker and publish or subscribe",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to YAML config file"},
			&cli.StringFlag{Name: "host", Usage: "broker host, overrides config"},
			&cli.IntFlag{Name: "port", Usage: "broker port, overrides config"},
			&cli.StringFlag{Name: "client-id", Usage: "MQTT client id, defaults to a random uuid"},
			&cli.BoolFlag{Name: "websocket", Usage: "connect over WebSocket instead of raw TCP"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			publishCommand,
			subscribeCommand,
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cellmqtt-demo:", err)
		os.Exit(1)
	}
}

var publishCommand = &cli.Command{
	Name:      "publish",
	Usage:     "publish one message and exit",
	ArgsUsage: "<topic> <payload>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "qos", Value: 0, Usage: "QoS level (0, 1 or 2)"},
		&cli.BoolFlag{Name: "retain", Usage: "set the retain flag"},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		topic := cmd.Args().Get(0)
		payload := cmd.Args().Get(1)
		if topic == "" {
			return fmt.Errorf("publish: missing <topic> <payload>")
		}

		done := make(chan error, 1)
		c, cleanup, err := connectFromCommand(cmd, func(ev client.Event) {
			switch ev.Type {
			case client.EventConnect:
				if ev.ConnectStatus != client.Accepted {
					done <- fmt.Errorf("connect refused: %v", ev.ConnectStatus)
					return
				}
				done <- nil
			case client.EventPublish:
				if ev.Result == client.ResultOK {
					done <- nil
				} else {
					done <- fmt.Errorf("publish failed")
				}
			case client.EventDisconnect:
				done <- fmt.Errorf("disconnected before publish completed")
			}
		})
		if err != nil {
			return err
		}
		defer cleanup()

		qos := packet.QoS(cmd.Int("qos")).Clamp()
		if err := waitConnected(done); err != nil {
			return err
		}
		if err := c.Publish(topic, []byte(payload), qos, cmd.Bool("retain"), nil); err != nil {
			return fmt.Errorf("publish: %w", err)
		}

		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			return fmt.Errorf("publish: timed out waiting for acknowledgement")
		}
	},
}

var subscribeCommand = &cli.Command{
	Name:      "subscribe",
	Usage:     "subscribe to a topic and print incoming messages until interrupted",
	ArgsUsage: "<topic>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "qos", Value: 0, Usage: "requested QoS level (0, 1 or 2)"},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		topic := cmd.Args().Get(0)
		if topic == "" {
			return fmt.Errorf("subscribe: missing <topic>")
		}

		connected := make(chan error, 1)
		subscribed := make(chan error, 1)
		c, cleanup, err := connectFromCommand(cmd, func(ev client.Event) {
			switch ev.Type {
			case client.EventConnect:
				if ev.ConnectStatus == client.Accepted {
					connected <- nil
				} else {
					connected <- fmt.Errorf("connect refused: %v", ev.ConnectStatus)
				}
			case client.EventSubscribe:
				if ev.Result == client.ResultOK {
					subscribed <- nil
				} else {
					subscribed <- fmt.Errorf("subscription refused")
				}
			case client.EventPublishReceived:
				fmt.Printf("%s: %s\n", ev.Topic, string(ev.Payload))
			}
		})
		if err != nil {
			return err
		}
		defer cleanup()

		if err := waitConnected(connected); err != nil {
			return err
		}
		qos := packet.QoS(cmd.Int("qos")).Clamp()
		if err := c.Subscribe(topic, qos, nil); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		select {
		case err := <-subscribed:
			if err != nil {
				return err
			}
		case <-time.After(10 * time.Second):
			return fmt.Errorf("subscribe: timed out waiting for SUBACK")
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		return nil
	},
}

// connectFromCommand builds a Client wired to a TCPTransport or
// WebSocketTransport per the resolved config/flags, starts connecting,
// and returns it along with a cleanup func that disconnects it.
func connectFromCommand(cmd *cli.Command, handler client.EventHandler) (*client.Client, func(), error) {
	cfg := config.Config{}
	if p := cmd.String("config"); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	if h := cmd.String("host"); h != "" {
		cfg.Broker.Host = h
	}
	if p := cmd.Int("port"); p != 0 {
		cfg.Broker.Port = int(p)
	}
	if cfg.Broker.Host == "" {
		cfg.Broker.Host = "localhost"
	}
	if cfg.Broker.Port == 0 {
		cfg.Broker.Port = 1883
	}
	if cmd.Bool("websocket") {
		cfg.Broker.WebSocket = true
	}

	clientID := cmd.String("client-id")
	if clientID == "" {
		clientID = cfg.Client.ID
	}
	if clientID == "" {
		clientID = "cellmqtt-" + uuid.NewString()
	}

	c := client.New(nil, handler)
	logger := applog.New(cmd.Bool("debug"))
	c.SetLogger(logger)

	var t transport.Transport
	if cfg.Broker.WebSocket {
		t = transport.NewWebSocketTransport(c, time.Second)
	} else {
		t = transport.NewTCPTransport(c, time.Second)
	}
	c.SetTransport(t)

	opts := client.NewOptions(clientID).WithKeepAlive(uint16(cfg.Client.KeepAlive))
	if cfg.Client.Username != "" {
		opts = opts.WithAuth(cfg.Client.Username, cfg.Client.Password)
	}
	if cfg.Client.PingTimeout > 0 {
		opts = opts.WithPingTimeout(cfg.Client.PingTimeout)
	}

	if err := c.Connect(cfg.Broker.Host, cfg.Broker.Port, opts); err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	cleanup := func() {
		c.Disconnect()
	}
	return c, cleanup, nil
}

// waitConnected blocks until either the done channel reports the
// EventConnect outcome or five seconds elapse.
func waitConnected(done chan error) error {
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timed out waiting for CONNACK")
	}
}
