package thirdparty

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReply(t *testing.T) {
	accepted, reason, err := decodeReply([]byte(`{"accepted":false,"reason":"duplicate"}`))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, "duplicate", reason)

	accepted, _, err = decodeReply([]byte(`{"accepted":true}`))
	require.NoError(t, err)
	assert.True(t, accepted)

	_, _, err = decodeReply([]byte(`not json`))
	require.Error(t, err)
}

// natsURL returns the server used by the round trip tests or skips.
func natsURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping nats test in short mode")
	}
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	return url
}

func TestNATSClient_RoundTrip(t *testing.T) {
	url := natsURL(t)
	subject := "houses.house.test." + time.Now().Format("150405.000000")

	responder, err := nats.Connect(url)
	require.NoError(t, err)
	defer responder.Close()

	msgIDs := make(chan string, 2)
	sub, err := responder.Subscribe(subject, func(msg *nats.Msg) {
		msgIDs <- msg.Header.Get(nats.MsgIdHdr)
		var body map[string]any
		_ = json.Unmarshal(msg.Data, &body)
		reply, _ := json.Marshal(syncReply{Accepted: body["location"] == "Chengdu"})
		_ = msg.Respond(reply)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, responder.Flush())

	client, err := ConnectNATS(url, subject, "rental-test", nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	accepted, err := client.Publish(ctx, sampleHouse())
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.NotEmpty(t, <-msgIDs)

	h := sampleHouse()
	h.Location = "Beijing"
	accepted, err = client.Publish(ctx, h)
	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestNATSClient_NoResponder(t *testing.T) {
	url := natsURL(t)

	client, err := ConnectNATS(url, "houses.house.nobody."+time.Now().Format("150405.000000"), "rental-test", nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	accepted, err := client.Publish(ctx, sampleHouse())
	require.Error(t, err)
	assert.False(t, accepted)
}
