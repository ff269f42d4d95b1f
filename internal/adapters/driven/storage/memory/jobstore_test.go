package memory

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

func newRecord(id string) domain.JobRecord {
	now := time.Now()
	return domain.JobRecord{
		ID:        id,
		Channel:   domain.ChannelEmail,
		State:     domain.JobCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestJobStore_CreateAndGet(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newRecord("job-1")))

	rec, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCreated, rec.State)
	assert.Equal(t, domain.ChannelEmail, rec.Channel)

	err = store.Create(ctx, newRecord("job-1"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = store.Create(ctx, domain.JobRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobStore_Transition(t *testing.T) {
	tests := []struct {
		name    string
		steps   [][2]domain.JobState
		wantErr error
	}{
		{
			name: "full email lifecycle",
			steps: [][2]domain.JobState{
				{domain.JobCreated, domain.JobClassifying},
				{domain.JobClassifying, domain.JobClassified},
				{domain.JobClassified, domain.JobDispatching},
				{domain.JobDispatching, domain.JobDelivered},
			},
		},
		{
			name: "second claim",
			steps: [][2]domain.JobState{
				{domain.JobCreated, domain.JobClassifying},
				{domain.JobClassifying, domain.JobClassified},
				{domain.JobClassified, domain.JobDispatching},
				{domain.JobClassified, domain.JobDispatching},
			},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name: "claim after delivery",
			steps: [][2]domain.JobState{
				{domain.JobCreated, domain.JobClassifying},
				{domain.JobClassifying, domain.JobClassified},
				{domain.JobClassified, domain.JobDispatching},
				{domain.JobDispatching, domain.JobDelivered},
				{domain.JobClassified, domain.JobDispatching},
			},
			wantErr: domain.ErrJobTerminal,
		},
		{
			name: "skip classification",
			steps: [][2]domain.JobState{
				{domain.JobCreated, domain.JobClassified},
			},
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewJobStore()
			ctx := context.Background()
			require.NoError(t, store.Create(ctx, newRecord("job")))

			var err error
			for _, step := range tt.steps {
				if err = store.Transition(ctx, "job", step[0], step[1]); err != nil {
					break
				}
			}
			if tt.wantErr == nil {
				require.NoError(t, err)
				rec, getErr := store.Get(ctx, "job")
				require.NoError(t, getErr)
				assert.Equal(t, tt.steps[len(tt.steps)-1][1], rec.State)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJobStore_Transition_NotFound(t *testing.T) {
	store := NewJobStore()
	err := store.Transition(context.Background(), "missing", domain.JobCreated, domain.JobClassifying)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobStore_ConcurrentClaim(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	rec := newRecord("job")
	rec.State = domain.JobClassified
	require.NoError(t, store.Create(ctx, rec))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Transition(ctx, "job", domain.JobClassified, domain.JobDispatching) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestJobStore_ListAndPrune(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, state := range []domain.JobState{domain.JobDelivered, domain.JobClassified, domain.JobDeliveryFailed} {
		rec := newRecord(string(rune('a' + i)))
		rec.State = state
		rec.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Create(ctx, rec))
	}

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	limited, err := store.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	delivered, err := store.List(ctx, domain.JobDelivered, 10)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "a", delivered[0].ID)

	// only terminal jobs older than the cutoff go
	n, err := store.Prune(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Get(ctx, "b")
	assert.NoError(t, err)
}

func deliver(t *testing.T, store *JobStore, id string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newRecord(id)))
	steps := []domain.JobState{domain.JobCreated, domain.JobClassifying, domain.JobClassified, domain.JobDispatching, domain.JobDelivered}
	for i := 1; i < len(steps); i++ {
		require.NoError(t, store.Transition(ctx, id, steps[i-1], steps[i]))
	}
}

func TestJobStore_FinishedJobsBounded(t *testing.T) {
	store := NewJobStoreWithLimit(10)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newRecord("live")))
	for i := 0; i < 1000; i++ {
		deliver(t, store, "job-"+strconv.Itoa(i))
	}

	delivered, err := store.List(ctx, domain.JobDelivered, 2000)
	require.NoError(t, err)
	assert.Len(t, delivered, 10)

	_, err = store.Get(ctx, "job-999")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "job-0")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	live, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCreated, live.State)
}

func TestJobStore_PruneKeepsRetentionConsistent(t *testing.T) {
	store := NewJobStoreWithLimit(3)
	ctx := context.Background()

	deliver(t, store, "a")
	deliver(t, store, "b")
	n, err := store.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []string{"c", "d", "e"} {
		deliver(t, store, id)
	}
	jobs, err := store.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}
