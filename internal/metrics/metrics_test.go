package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetOnline(t *testing.T) {
	SetOnline(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(NetworkOnline))

	SetOnline(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(NetworkOnline))
}

func TestRecordSyncPass(t *testing.T) {
	completedBefore := testutil.ToFloat64(SyncPasses.WithLabelValues("completed"))
	failedBefore := testutil.ToFloat64(SyncPasses.WithLabelValues("failed"))
	okBefore := testutil.ToFloat64(SyncChanges.WithLabelValues("success"))
	deferredBefore := testutil.ToFloat64(SyncChanges.WithLabelValues("deferred"))

	RecordSyncPass(true, 3, 2, 1, 120*time.Millisecond)
	RecordSyncPass(false, 0, 0, 0, time.Millisecond)

	assert.Equal(t, completedBefore+1, testutil.ToFloat64(SyncPasses.WithLabelValues("completed")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(SyncPasses.WithLabelValues("failed")))
	assert.Equal(t, okBefore+3, testutil.ToFloat64(SyncChanges.WithLabelValues("success")))
	assert.Equal(t, deferredBefore+1, testutil.ToFloat64(SyncChanges.WithLabelValues("deferred")))
	assert.NotZero(t, testutil.ToFloat64(SyncLastSuccess))
}

func TestRecordProbe(t *testing.T) {
	RecordProbe(true, 10*time.Millisecond)
	RecordProbe(false, time.Second)
	assert.Equal(t, 2, testutil.CollectAndCount(ProbeDuration))
}
