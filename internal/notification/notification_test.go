package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blnkfinance/bulkdelete/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackPayload(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := slackPayload("Bulk Delete Snap-in", errors.New("works.list: RATE_LIMITED"), at)

	require.Len(t, msg.Blocks, 3)
	assert.Equal(t, "Error From Bulk Delete Snap-in 🐞", msg.Blocks[0].Text.Text)
	assert.Equal(t, "*Error:*\nworks.list: RATE_LIMITED", msg.Blocks[1].Fields[0].Text)
	assert.Equal(t, "*Time:*\n"+at.Format(time.RFC822), msg.Blocks[2].Fields[0].Text)
}

func TestSlackNotification(t *testing.T) {
	received := make(chan slackMessage, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg slackMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		received <- msg
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	cnf := config.Defaults()
	cnf.Notification.Slack.WebhookUrl = server.URL
	config.MockConfig(cnf)

	NotifyError(errors.New("driver failed"))

	select {
	case msg := <-received:
		require.Len(t, msg.Blocks, 3)
		assert.Contains(t, msg.Blocks[1].Fields[0].Text, "driver failed")
	case <-time.After(5 * time.Second):
		t.Fatal("slack webhook was not called")
	}
}

func TestNotifyErrorWithoutWebhook(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer server.Close()

	config.MockConfig(config.Defaults())
	NotifyError(errors.New("ignored"))
	time.Sleep(50 * time.Millisecond)
	assert.False(t, called.Load())
}
