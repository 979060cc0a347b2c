package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spectrumleads/formgate/internal/cache"
	"github.com/spectrumleads/formgate/internal/database"
)

func openStore(t *testing.T) *cache.DatabaseStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return cache.NewDatabaseStore(db)
}

func TestRunOncePurgesExpiredRows(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "stale", []byte("x"), time.Millisecond))
	require.NoError(t, store.Set(ctx, "fresh", []byte("y"), time.Hour))

	cleaner := NewCleaner(store, WithNow(func() time.Time { return time.Now().Add(time.Minute) }))
	require.NoError(t, cleaner.RunOnce(ctx))

	_, found, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, found)

	_, found, err = store.Get(ctx, "stale")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRunOnceWithoutStore(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))
	require.NoError(t, cleaner.Start())
	cleaner.Stop()
}

func TestStartSchedulesPurge(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "stale", []byte("x"), time.Millisecond))

	cleaner := NewCleaner(store,
		WithSchedule("@every 10ms"),
		WithNow(func() time.Time { return time.Now().Add(time.Minute) }),
	)
	require.NoError(t, cleaner.Start())
	defer cleaner.Stop()

	require.Eventually(t, func() bool {
		_, found, err := store.Get(ctx, "stale")
		return err == nil && !found
	}, 2*time.Second, 20*time.Millisecond)
}
