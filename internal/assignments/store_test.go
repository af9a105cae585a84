package assignments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openmakers/badgegate/internal/database/testutil"
	"github.com/openmakers/badgegate/internal/models"
)

func TestExistsRespectsStatus(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.BadgeRequest{MemberID: 1, BadgeID: 2, Status: "pending"}).Error)

	ok, err := store.Exists(ctx, 1, 2, true)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.Exists(ctx, 1, 2, false)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Create(&models.BadgeRequest{MemberID: 1, BadgeID: 2, Status: models.BadgeRequestStatusActive}).Error)

	ok, err = store.Exists(ctx, 1, 2, true)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Exists(ctx, 2, 2, false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListForExport(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := NewStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	requests := []models.BadgeRequest{
		{MemberID: 1, BadgeID: 10, Status: models.BadgeRequestStatusActive},
		{MemberID: 2, BadgeID: 10, Status: "revoked"},
		{MemberID: 1, BadgeID: 10, Status: models.BadgeRequestStatusActive},
		{MemberID: 3, BadgeID: 20, Status: models.BadgeRequestStatusActive},
	}
	require.NoError(t, db.Create(&requests).Error)

	active, err := store.ListForExport(ctx, []uint{10}, true)
	require.NoError(t, err)
	require.Equal(t, []Pair{{MemberID: 1, BadgeID: 10}, {MemberID: 1, BadgeID: 10}}, active)

	all, err := store.ListForExport(ctx, []uint{10, 20}, false)
	require.NoError(t, err)
	require.Len(t, all, 4)

	none, err := store.ListForExport(ctx, nil, true)
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}
