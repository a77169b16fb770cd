//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/checkin-geofence-service/internal/adapter/http"
	"github.com/couchcryptid/checkin-geofence-service/internal/adapter/kafka"
	"github.com/couchcryptid/checkin-geofence-service/internal/checkin"
	"github.com/couchcryptid/checkin-geofence-service/internal/config"
	"github.com/couchcryptid/checkin-geofence-service/internal/domain"
	"github.com/couchcryptid/checkin-geofence-service/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testTopic  = "test-checkin-decisions"
	testSecret = "integration-secret"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("checkin-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestDecisionEventsReachKafka drives the HTTP endpoint and verifies that each
// decision is published to the decision topic.
func TestDecisionEventsReachKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{
		KafkaEnabled:       true,
		KafkaBrokers:       []string{broker},
		KafkaDecisionTopic: testTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	require.NoError(t, writer.CheckReadiness(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	svc := checkin.New(checkin.Settings{
		Secret:       []byte(testSecret),
		RadiusMeters: 200,
		Sites:        domain.DefaultSites(),
	}, clockwork.NewFakeClockAt(now), writer, discardLogger(), observability.NewMetricsForTesting())
	srv := httpadapter.NewServer(":0", svc, svc, 1<<10, discardLogger())

	token := domain.SignToken(now.Add(time.Minute), []byte(testSecret))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate?token="+token,
		strings.NewReader(`{"lat":11.23625,"lng":-74.18786}`)))
	require.JSONEq(t, `{"ok":true,"sede":"CAN CLL 22","distance_m":0,"radio_m":200}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/validate?token="+token, nil))
	require.JSONEq(t, `{"ok":false,"reason":"use_post"}`, rec.Body.String())

	// Close flushes the async writer.
	require.NoError(t, writer.Close())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := make(map[string]domain.DecisionEvent)
	headers := make(map[string]string)
	for range 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from decision topic")

		var event domain.DecisionEvent
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		got[string(msg.Key)] = event
		for _, h := range msg.Headers {
			headers[string(msg.Key)+"/"+h.Key] = string(h.Value)
		}
	}

	accepted, ok := got["CAN CLL 22"]
	require.True(t, ok, "accepted decision keyed by site")
	assert.True(t, accepted.OK)
	require.NotNil(t, accepted.DistanceMeters)
	assert.Equal(t, 0, *accepted.DistanceMeters)
	require.NotNil(t, accepted.Lat)
	assert.Equal(t, 11.23625, *accepted.Lat)
	assert.True(t, now.Add(time.Minute).Equal(accepted.TokenExpiresAt))
	assert.Equal(t, "accepted", headers["CAN CLL 22/outcome"])

	rejected, ok := got["use_post"]
	require.True(t, ok, "rejected decision keyed by reason")
	assert.False(t, rejected.OK)
	assert.Equal(t, domain.ReasonUsePost, rejected.Reason)
	assert.Equal(t, http.MethodGet, rejected.Method)
	assert.Equal(t, "rejected", headers["use_post/outcome"])
}
