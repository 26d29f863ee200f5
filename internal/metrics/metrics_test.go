package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordInteraction(t *testing.T) {
	before := testutil.ToFloat64(Interactions.WithLabelValues("like", OutcomeNoop))
	RecordInteraction("like", OutcomeNoop)
	RecordInteraction("like", OutcomeNoop)
	assert.Equal(t, before+2, testutil.ToFloat64(Interactions.WithLabelValues("like", OutcomeNoop)))
}

func TestRecordFanOut(t *testing.T) {
	before := testutil.ToFloat64(NotificationsFannedOut.WithLabelValues("follow"))
	RecordFanOut("follow")
	assert.Equal(t, before+1, testutil.ToFloat64(NotificationsFannedOut.WithLabelValues("follow")))
}

func TestObserveFeed(t *testing.T) {
	ObserveFeed("global", "trending", time.Now())
	assert.GreaterOrEqual(t, testutil.CollectAndCount(FeedAssembly), 1)
}
