package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name     string
	err      error
	optional bool
}

func (s *stubChecker) Name() string                  { return s.name }
func (s *stubChecker) Check(_ context.Context) error { return s.err }
func (s *stubChecker) Optional() bool                { return s.optional }

type slowChecker struct{ name string }

func (c *slowChecker) Name() string { return c.name }

func (c *slowChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func TestRegister_DuplicateName(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&stubChecker{name: "database"}))

	err := registry.Register(&stubChecker{name: "database"})
	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "database")
	assert.Len(t, registry.checkers, 1)
}

func TestCheckAll(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus HealthStatus
		wantChecks map[string]HealthStatus
	}{
		{
			name:       "no checkers",
			wantStatus: HealthStatusHealthy,
			wantChecks: map[string]HealthStatus{},
		},
		{
			name: "all healthy",
			checkers: []HealthChecker{
				&stubChecker{name: "database"},
				&stubChecker{name: "redis", optional: true},
			},
			wantStatus: HealthStatusHealthy,
			wantChecks: map[string]HealthStatus{"database": HealthStatusHealthy, "redis": HealthStatusHealthy},
		},
		{
			name: "optional failure degrades",
			checkers: []HealthChecker{
				&stubChecker{name: "database"},
				&stubChecker{name: "rabbitmq", optional: true, err: errors.New("connection refused")},
			},
			wantStatus: HealthStatusDegraded,
			wantChecks: map[string]HealthStatus{"database": HealthStatusHealthy, "rabbitmq": HealthStatusDegraded},
		},
		{
			name: "required failure wins over degraded",
			checkers: []HealthChecker{
				&stubChecker{name: "database", err: errors.New("timeout")},
				&stubChecker{name: "redis", optional: true, err: errors.New("down")},
			},
			wantStatus: HealthStatusUnhealthy,
			wantChecks: map[string]HealthStatus{"database": HealthStatusUnhealthy, "redis": HealthStatusDegraded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			require.NotNil(t, result)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.False(t, result.Timestamp.IsZero())
			require.Len(t, result.Checks, len(tt.wantChecks))

			for name, status := range tt.wantChecks {
				assert.Equal(t, status, result.Checks[name].Status, name)
			}
		})
	}
}

func TestCheckAll_CapturesMessage(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&stubChecker{name: "database", err: errors.New("connection timeout")}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, "connection timeout", result.Checks["database"].Message)
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&slowChecker{name: "quotation-api"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["quotation-api"].Message, "context canceled")
}

func TestSystemClock(t *testing.T) {
	now := SystemClock.Now()

	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, ClockFunc(func() time.Time { return fixed }).Now())
}
