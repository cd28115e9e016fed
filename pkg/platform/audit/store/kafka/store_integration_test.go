//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"docverify/internal/platform/config"
	platformkafka "docverify/internal/platform/kafka"
	audit "docverify/pkg/platform/audit"
	auditkafka "docverify/pkg/platform/audit/store/kafka"
	"docverify/pkg/testutil/containers"
)

func TestKafkaStore_AppendProducesKeyedRecord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rp := containers.GetManager().GetRedpanda(t)
	cfg := config.KafkaConfig{Brokers: rp.Brokers, AuditTopic: "docverify.audit.test", Partitions: 1}

	producer, err := platformkafka.New(ctx, cfg)
	require.NoError(t, err)
	defer producer.Close()

	store := auditkafka.New(producer, cfg.AuditTopic)
	event := audit.Event{
		ID:            "evt-1",
		Category:      audit.CategoryCompliance,
		Timestamp:     time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
		Action:        string(audit.EventVerificationCompleted),
		ApplicantID:   "app-7",
		Decision:      "Accept",
		Reason:        "all fields matched",
		SubjectIDHash: audit.HashSubjectID("123412341234"),
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(cfg.AuditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollRecords(ctx, 1)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "app-7", string(records[0].Key))
	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event, got)
}
