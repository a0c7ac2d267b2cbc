package ticl

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestStatisticsCounters(t *testing.T) {
	statistics := NewStatistics()

	statistics.RecordSentMessage(SentMessageType_TOTAL)
	statistics.RecordSentMessage(SentMessageType_TOTAL)
	statistics.RecordReceivedMessage(ReceivedMessageType_INVALIDATION)
	statistics.RecordError(ClientErrorType_TOKEN_MISMATCH)

	assert.Equal(t, int32(2), statistics.SentMessageCount(SentMessageType_TOTAL))
	assert.Equal(t, int32(1), statistics.ReceivedMessageCount(ReceivedMessageType_INVALIDATION))
	assert.Equal(t, int32(1), statistics.ErrorCount(ClientErrorType_TOKEN_MISMATCH))
	assert.Equal(t, int32(0), statistics.ErrorCount(ClientErrorType_TOKEN_MISSING_FAILURE))
}

func TestStatisticsPerformanceCounters(t *testing.T) {
	statistics := NewStatistics()
	statistics.RecordSentMessage(SentMessageType_INITIALIZE)
	statistics.RecordReceivedMessage(ReceivedMessageType_TOKEN_CONTROL)
	statistics.RecordError(ClientErrorType_REGISTRATION_DISCREPANCY)

	records := statistics.PerformanceCounters()
	assert.Equal(t, 3, len(records))

	names := map[string]int32{}
	for _, record := range records {
		names[record.Name] = record.Value
	}
	assert.Equal(t, int32(1), names["SentMessageType.INITIALIZE"])
	assert.Equal(t, int32(1), names["ReceivedMessageType.TOKEN_CONTROL"])
	assert.Equal(t, int32(1), names["ClientErrorType.REGISTRATION_DISCREPANCY"])

	for _, record := range records {
		assert.Equal(t, true, strings.Contains(record.Name, "."))
	}
}
