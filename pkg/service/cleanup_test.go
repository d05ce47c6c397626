package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/service"
	"github.com/hrdemo/company/pkg/store"
)

func ptr[T any](v T) *T { return &v }

func TestStaleRegistration(t *testing.T) {
	cutoff := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	old := cutoff.Add(-time.Minute)
	recent := cutoff.Add(time.Minute)

	tests := []struct {
		name string
		user models.User
		want bool
	}{
		{"pending and old", models.User{ActivationKey: ptr("k"), CreatedDate: &old}, true},
		{"pending and recent", models.User{ActivationKey: ptr("k"), CreatedDate: &recent}, false},
		{"created at cutoff", models.User{ActivationKey: ptr("k"), CreatedDate: &cutoff}, false},
		{"activated", models.User{Activated: true, ActivationKey: ptr("k"), CreatedDate: &old}, false},
		{"no activation key", models.User{CreatedDate: &old}, false},
		{"no creation date", models.User{ActivationKey: ptr("k")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.StaleRegistration(&tt.user, cutoff))
		})
	}
}

func TestRemoveNotActivatedUsers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)
	f := newFixture(t, models.UserKind, service.WithClock(func() time.Time { return now }))

	create := func(login string, activated bool, key *string, age time.Duration) models.ID {
		created := now.Add(-age)
		u, err := f.svc.Create(ctx, &models.User{
			Login:         login,
			Activated:     activated,
			ActivationKey: key,
			CreatedDate:   &created,
		})
		require.NoError(t, err)
		return u.ID
	}

	stale := create("stale", false, ptr("abc"), 4*24*time.Hour)
	fresh := create("fresh", false, ptr("def"), 24*time.Hour)
	active := create("active", true, nil, 30*24*time.Hour)

	removed := service.RemoveNotActivatedUsers(ctx, f.svc)
	assert.Equal(t, 1, removed)

	users, err := store.Collect(f.svc.FindAll(ctx, nil))
	require.NoError(t, err)
	var left []models.ID
	for _, u := range users {
		left = append(left, u.ID)
	}
	assert.ElementsMatch(t, []models.ID{fresh, active}, left)
	assert.Empty(t, searchIDs(t, f.svc, "id:"+stale.String()))

	assert.Zero(t, service.RemoveNotActivatedUsers(ctx, f.svc))
}

func TestRemoveNotActivatedUsersSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)
	f := newFixture(t, models.UserKind, service.WithClock(func() time.Time { return now }))

	created := now.Add(-5 * 24 * time.Hour)
	_, err := f.svc.Create(ctx, &models.User{Login: "stale", ActivationKey: ptr("abc"), CreatedDate: &created})
	require.NoError(t, err)

	f.repo.failDelete = true
	assert.Zero(t, service.RemoveNotActivatedUsers(ctx, f.svc))

	f.repo.failRead = true
	assert.Zero(t, service.RemoveNotActivatedUsers(ctx, f.svc))
}
