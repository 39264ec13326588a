package execution

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

func TestPositionTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("update publishes held positions and persists them", func(t *testing.T) {
		// arrange
		broker := &MockBroker{positions: []eventmodels.Position{
			{Symbol: "B", Quantity: 5, MarketValue: 500_000},
			{Symbol: "A", Quantity: 10, MarketValue: 700_000},
			{Symbol: "C", Quantity: 0},
		}}
		store := NewMockStore()
		tracker := NewPositionTracker(broker, store)

		// act
		positions, err := tracker.UpdatePositions(ctx)

		// assert
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.Equal(t, "A", positions[0].Symbol)
		assert.Equal(t, int64(1_200_000), tracker.GetTotalExposure())

		p, found := tracker.GetCurrentPosition("B")
		assert.True(t, found)
		assert.Equal(t, int64(5), p.Quantity)

		_, found = tracker.GetCurrentPosition("C")
		assert.False(t, found)

		assert.Len(t, store.positions, 2)
		assert.Equal(t, []string{"C"}, store.deleted)
	})

	t.Run("failed update keeps the previous snapshot", func(t *testing.T) {
		// arrange
		broker := &MockBroker{positions: []eventmodels.Position{{Symbol: "A", Quantity: 10, MarketValue: 700_000}}}
		tracker := NewPositionTracker(broker, NewMockStore())
		_, err := tracker.UpdatePositions(ctx)
		require.NoError(t, err)
		before := tracker.GetAllPositions()

		broker.fetchErr = fmt.Errorf("broker down")

		// act
		_, err = tracker.UpdatePositions(ctx)

		// assert
		require.Error(t, err)
		assert.Equal(t, before, tracker.GetAllPositions())
		assert.Equal(t, int64(700_000), tracker.GetTotalExposure())
	})

	t.Run("closed positions are removed from cache and store", func(t *testing.T) {
		// arrange
		broker := &MockBroker{positions: []eventmodels.Position{
			{Symbol: "A", Quantity: 10, MarketValue: 700_000},
			{Symbol: "B", Quantity: 1, MarketValue: 100_000},
		}}
		store := NewMockStore()
		tracker := NewPositionTracker(broker, store)
		_, err := tracker.UpdatePositions(ctx)
		require.NoError(t, err)

		broker.positions = []eventmodels.Position{{Symbol: "A", Quantity: 10, MarketValue: 710_000}}

		// act
		_, err = tracker.UpdatePositions(ctx)

		// assert
		require.NoError(t, err)
		_, found := tracker.GetCurrentPosition("B")
		assert.False(t, found)
		assert.Contains(t, store.deleted, "B")
		_, stored := store.positions["B"]
		assert.False(t, stored)
	})

	t.Run("empty tracker reports nothing", func(t *testing.T) {
		// arrange
		tracker := NewPositionTracker(&MockBroker{}, NewMockStore())

		// act
		all := tracker.GetAllPositions()

		// assert
		assert.Empty(t, all)
		assert.Equal(t, int64(0), tracker.GetTotalExposure())
	})

	t.Run("readers never observe a partial snapshot", func(t *testing.T) {
		// arrange
		snapshotA := []eventmodels.Position{{Symbol: "A", Quantity: 1, MarketValue: 100}, {Symbol: "B", Quantity: 1, MarketValue: 100}}
		snapshotB := []eventmodels.Position{{Symbol: "C", Quantity: 1, MarketValue: 300}, {Symbol: "D", Quantity: 1, MarketValue: 300}}
		broker := &MockBroker{positions: snapshotA}
		tracker := NewPositionTracker(broker, NewMockStore())
		_, err := tracker.UpdatePositions(ctx)
		require.NoError(t, err)

		var wg sync.WaitGroup
		done := make(chan struct{})

		// act
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				broker.mu.Lock()
				if i%2 == 0 {
					broker.positions = snapshotB
				} else {
					broker.positions = snapshotA
				}
				broker.mu.Unlock()

				_, err := tracker.UpdatePositions(ctx)
				assert.NoError(t, err)
			}
			close(done)
		}()

		// assert
	loop:
		for {
			select {
			case <-done:
				break loop
			default:
				all := tracker.GetAllPositions()
				require.Len(t, all, 2)
				total := all[0].MarketValue + all[1].MarketValue
				assert.Contains(t, []int64{200, 600}, total)
			}
		}

		wg.Wait()
	})
}
