package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flight-system/config"
	"flight-system/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/redis/go-redis/v9"
)

const activeDealsKey = "active_deals"
const dealSyncKey = "deal-sync"

// DealService mirrors the set of currently valid deal ids into Redis so the
// metrics collector and operational tooling can read it without hitting the
// store. Record hooks on the deals collection trigger a resync; the
// debouncer coalesces bursts of edits into one sync.
type DealService struct {
	app      core.App
	redis    *redis.Client
	debounce *utils.Debouncer
}

func NewDealService(app core.App, redisClient *redis.Client, cfg *config.Config) *DealService {
	return &DealService{
		app:      app,
		redis:    redisClient,
		debounce: utils.NewDebouncer(cfg.DealSyncDebounce),
	}
}

// Sync replaces the Redis active-deal set with the deal ids whose validity
// window still covers now.
func (s *DealService) Sync(ctx context.Context) error {
	now := types.NowDateTime()

	ids := []string{}
	err := s.app.DB().
		Select("id").
		From("deals").
		Where(dbx.NewExp("valid_until > {:now}", dbx.Params{"now": now.String()})).
		WithContext(ctx).
		Column(&ids)
	if err != nil {
		return fmt.Errorf("load active deals: %w", err)
	}

	if err := s.writeActiveDeals(ctx, ids); err != nil {
		return err
	}

	slog.Info("synced active deals to Redis", "count", len(ids))
	return nil
}

func (s *DealService) writeActiveDeals(ctx context.Context, ids []string) error {
	if err := s.redis.Del(ctx, activeDealsKey).Err(); err != nil {
		return fmt.Errorf("clear active deals: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	if err := s.redis.SAdd(ctx, activeDealsKey, members...).Err(); err != nil {
		return fmt.Errorf("write active deals: %w", err)
	}

	return nil
}

// RegisterHooks wires deal record changes to a debounced resync. Hook
// failures only log; a Redis outage must not fail the originating request.
func (s *DealService) RegisterHooks(app core.App) {
	resync := func() {
		s.debounce.Trigger(dealSyncKey, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := s.Sync(ctx); err != nil {
				slog.Error("deal resync failed", "error", err)
			}
		})
	}

	app.OnRecordCreateRequest("deals").BindFunc(func(e *core.RecordRequestEvent) error {
		resync()
		return e.Next()
	})
	app.OnRecordUpdateRequest("deals").BindFunc(func(e *core.RecordRequestEvent) error {
		resync()
		return e.Next()
	})
	app.OnRecordDeleteRequest("deals").BindFunc(func(e *core.RecordRequestEvent) error {
		resync()
		return e.Next()
	})
}

// RunPeriodicSync resyncs on an interval to catch deals expiring by clock
// alone, with no record change to fire a hook.
func (s *DealService) RunPeriodicSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.debounce.Stop()
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				slog.Error("periodic deal sync failed", "error", err)
			}
		}
	}
}
