package thirdparty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"rental/house"
)

// syncReply is the answer the system of record sends on the reply subject.
type syncReply struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// NATSClient publishes listings as NATS requests and waits for the reply.
type NATSClient struct {
	conn    *nats.Conn
	subject string
	log     *zap.Logger
}

// ConnectNATS dials url and returns a client publishing on subject.
func ConnectNATS(url, subject, appName string, log *zap.Logger) (*NATSClient, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("sync_nats")

	conn, err := nats.Connect(url,
		nats.Name(appName+" house sync"),
		nats.Timeout(10*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("thirdparty: connect nats %s: %w", url, err)
	}
	log.Info("nats connected", zap.String("url", conn.ConnectedUrl()), zap.String("subject", subject))

	return NewNATSClient(conn, subject, log), nil
}

// NewNATSClient wraps an existing connection.
func NewNATSClient(conn *nats.Conn, subject string, log *zap.Logger) *NATSClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &NATSClient{conn: conn, subject: subject, log: log}
}

// Publish sends the listing and waits for the reply until ctx is done.
func (c *NATSClient) Publish(ctx context.Context, h house.House) (bool, error) {
	data, err := json.Marshal(newPayload(h))
	if err != nil {
		return false, fmt.Errorf("thirdparty: encode house: %w", err)
	}

	msg := nats.NewMsg(c.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())

	resp, err := c.conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return false, fmt.Errorf("thirdparty: request %s for house %d: %w", c.subject, h.ID, err)
	}

	accepted, reason, err := decodeReply(resp.Data)
	if err != nil {
		return false, err
	}
	if !accepted {
		c.log.Info("house rejected by system of record", zap.Int64("house_id", h.ID), zap.String("reason", reason))
	}
	return accepted, nil
}

// Close drains the connection.
func (c *NATSClient) Close() {
	if c.conn == nil || c.conn.IsClosed() {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.log.Warn("nats drain failed", zap.Error(err))
		c.conn.Close()
	}
}

func decodeReply(data []byte) (bool, string, error) {
	var reply syncReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return false, "", fmt.Errorf("thirdparty: decode reply: %w", err)
	}
	return reply.Accepted, reply.Reason, nil
}
