//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"casework/internal/notification"
	"casework/internal/notification/kafka"
	"casework/pkg/testutil/containers"
)

func TestDispatcherPublishesToRedpanda(t *testing.T) {
	ctx := context.Background()
	broker := containers.NewRedpandaContainer(t)

	d, err := kafka.New(broker.Brokers, "probation-case-events-test", slog.Default())
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.EnsureTopic(ctx, 1, 1))

	err = d.Notify(ctx, notification.EventCustodyUpdated, map[string]string{
		"offenderId": "2500343964",
		"nomsNumber": "G9542VP",
	})
	require.NoError(t, err)
	require.NoError(t, d.Flush(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics("probation-case-events-test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "2500343964", string(records[0].Key))

	var got struct {
		ID         string            `json:"id"`
		Event      string            `json:"event"`
		Attributes map[string]string `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.NotEmpty(t, got.ID)
	require.Equal(t, notification.EventCustodyUpdated, got.Event)
	require.Equal(t, "G9542VP", got.Attributes["nomsNumber"])
}
