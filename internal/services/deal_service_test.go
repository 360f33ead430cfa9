package services

import (
	"context"
	"testing"
	"time"

	"flight-system/config"
	"flight-system/utils"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDealService() (*DealService, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()

	service := &DealService{
		redis:    db,
		debounce: utils.NewDebouncer(10 * time.Millisecond),
	}

	return service, mock
}

func TestDealService_WriteActiveDeals(t *testing.T) {
	service, mock := setupTestDealService()
	defer mock.ClearExpect()

	ctx := context.Background()

	mock.ExpectDel("active_deals").SetVal(1)
	mock.ExpectSAdd("active_deals", "deal-1", "deal-2").SetVal(2)

	err := service.writeActiveDeals(ctx, []string{"deal-1", "deal-2"})

	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDealService_WriteActiveDeals_EmptyClearsSet(t *testing.T) {
	service, mock := setupTestDealService()
	defer mock.ClearExpect()

	ctx := context.Background()

	// No active deals: the stale set is cleared, nothing is added.
	mock.ExpectDel("active_deals").SetVal(1)

	err := service.writeActiveDeals(ctx, nil)

	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDealService_ConfigurableDebounce(t *testing.T) {
	db, _ := redismock.NewClientMock()
	cfg := &config.Config{DealSyncDebounce: 2 * time.Second}

	service := NewDealService(nil, db, cfg)

	assert.NotNil(t, service.debounce)
}
