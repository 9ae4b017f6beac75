package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
)

func benchItem(i int) model.Item {
	ratings := ranking.Ratings{
		CustomerImpact: 1 + i%10,
		TeamEnergy:     1 + (i*3)%10,
		Frequency:      1 + (i*7)%10,
		Ease:           1 + (i*11)%10,
	}
	res, _ := ranking.Compute(ratings)
	item := model.Item{
		ID:        uuid.New(),
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second),
		Content:   fmt.Sprintf("bench item %d", i),
		Stage:     model.StageCapture,
	}
	item.ApplyRanking(ratings, res)
	return item
}

func seedStore(b *testing.B, store *TreapStore, n int) []model.Item {
	b.Helper()
	ctx := context.Background()
	items := make([]model.Item, 0, n)
	for i := 0; i < n; i++ {
		item := benchItem(i)
		if err := store.Create(ctx, item); err != nil {
			b.Fatalf("seed failed: %v", err)
		}
		items = append(items, item)
	}
	return items
}

func BenchmarkTreapStore_Create(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Create(ctx, benchItem(i)); err != nil {
			b.Fatalf("create failed: %v", err)
		}
	}
}

func BenchmarkTreapStore_Get(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()
	items := seedStore(b, store, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Get(ctx, items[i%len(items)].ID); err != nil {
			b.Fatalf("get failed: %v", err)
		}
	}
}

func BenchmarkTreapStore_ListByRank(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			ctx := context.Background()
			store := NewTreapStore(ctx)
			defer store.Close()
			seedStore(b, store, size)

			query := types.ListQuery{Sort: types.SortRank, Limit: 50}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := store.List(ctx, query); err != nil {
					b.Fatalf("list failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkTreapStore_ListByNewest(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()
	seedStore(b, store, 10000)

	query := types.ListQuery{Sort: types.SortNewest, Limit: 50}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.List(ctx, query); err != nil {
			b.Fatalf("list failed: %v", err)
		}
	}
}

func BenchmarkTreapStore_UpdateRatings(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()
	items := seedStore(b, store, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ratings := ranking.Ratings{
			CustomerImpact: 1 + i%10,
			TeamEnergy:     1 + (i*5)%10,
			Frequency:      1 + (i*3)%10,
			Ease:           1 + (i*7)%10,
		}
		res, err := ranking.Compute(ratings)
		if err != nil {
			b.Fatalf("ranking failed: %v", err)
		}
		if _, err := store.UpdateRatings(ctx, items[i%len(items)].ID, ratings, res); err != nil {
			b.Fatalf("update failed: %v", err)
		}
	}
}

func BenchmarkTreapStore_MixedWorkload(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()
	items := seedStore(b, store, 1000)
	query := types.ListQuery{Sort: types.SortRank, Limit: 20}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			switch i % 4 {
			case 0:
				_ = store.Create(ctx, benchItem(1000+i))
			case 1, 2:
				_, _ = store.List(ctx, query)
			case 3:
				_, _ = store.Get(ctx, items[i%len(items)].ID)
			}
			i++
		}
	})
}
