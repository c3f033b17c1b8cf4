package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coin_shop/pkg/logging"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
	"github.com/Skotchmaster/coin_shop/pkg/ratelimit"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) Sweep(context.Context) (int64, int64, error) {
	f.calls++
	return 1, 2, f.err
}

func TestScheduler_RunsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.New()
	s := New(logging.NewWithWriter(&buf, "debug"), m)

	ok := &fakeSweeper{}
	bad := &fakeSweeper{err: errors.New("db down")}
	require.NoError(t, s.Add("sweep_ok", "@every 1h", CampaignSweep(ok)))
	require.NoError(t, s.Add("sweep_bad", "@every 1h", CampaignSweep(bad)))
	require.Error(t, s.Add("broken", "not a spec", CampaignSweep(ok)))
	assert.Equal(t, 2, s.Len())

	for _, e := range s.cron.Entries() {
		e.Job.Run()
	}

	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, bad.calls)
	assert.Contains(t, buf.String(), "campaigns_swept")
	assert.Contains(t, buf.String(), "job_failed")

	out, err := testutil.GatherAndCount(m.Registry, "coin_shop_jobs_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, nil)
	require.NoError(t, s.Add("noop", "@every 1h", func(context.Context) error { return nil }))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}

func TestLimiterSweep(t *testing.T) {
	k := ratelimit.NewKeyed(ratelimit.Limit{PerMinute: 60, Burst: 1}, time.Nanosecond)
	k.Allow("u1")
	time.Sleep(time.Millisecond)

	require.NoError(t, LimiterSweep(k)(context.Background()))
	assert.Zero(t, k.Len())
}
