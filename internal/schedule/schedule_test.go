package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-backend/config"
)

type countingExpirer struct {
	calls atomic.Int32
}

func (e *countingExpirer) ExpireAll(ctx context.Context, now time.Time) ([]int64, error) {
	e.calls.Add(1)
	return nil, nil
}

func TestRegister(t *testing.T) {
	testCases := []struct {
		name      string
		analytics bool
		coupons   bool
		expected  int
	}{
		{name: "Nothing enabled", expected: 0},
		{name: "Analytics only", analytics: true, expected: 1},
		{name: "Both", analytics: true, coupons: true, expected: 2},
	}

	t.Run("Defaults run both jobs", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.WorkerPool.Size = 1
		cfg.ApplyDefaults()

		s := New(time.UTC)
		collector := CollectorFunc(func(ctx context.Context) error { return nil })
		require.NoError(t, Register(s, cfg, collector, &countingExpirer{}))
		assert.Equal(t, 2, s.Len())
	})

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.WorkerPool.Size = 1
			cfg.ApplyDefaults()
			cfg.Analytics.Enabled = config.Bool(tc.analytics)
			cfg.Coupons.Enabled = config.Bool(tc.coupons)

			s := New(time.UTC)
			collector := CollectorFunc(func(ctx context.Context) error { return nil })
			require.NoError(t, Register(s, cfg, collector, &countingExpirer{}))
			assert.Equal(t, tc.expected, s.Len())
		})
	}
}

func TestRegisterInvalidSchedule(t *testing.T) {
	cfg := &config.Config{}
	cfg.WorkerPool.Size = 1
	cfg.ApplyDefaults()
	cfg.Analytics.Enabled = config.Bool(false)
	cfg.Coupons.Schedule = "every minute please"

	err := Register(New(time.UTC), cfg, nil, &countingExpirer{})
	assert.ErrorContains(t, err, "coupons")
}

func TestScheduler_Run(t *testing.T) {
	s := New(time.UTC)

	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	}))

	expirer := &countingExpirer{}
	cfg := &config.Config{}
	cfg.WorkerPool.Size = 1
	cfg.ApplyDefaults()
	cfg.Analytics.Enabled = config.Bool(false)
	cfg.Coupons.Schedule = "@every 1s"
	require.NoError(t, Register(s, cfg, nil, expirer))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2 && expirer.calls.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
