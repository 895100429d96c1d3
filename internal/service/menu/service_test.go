package menu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/repository/memory"
)

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), clock.NewFixed(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)), nil)

	off := false
	_, err := svc.Create(ctx, CreateInput{Name: "Masala Dosa", Price: 120, Category: "Breakfast"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Filter Coffee", Price: 40, Category: "Drinks"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Rava Idli", Price: 80, Category: "Breakfast", Available: &off})
	require.NoError(t, err)

	all, err := svc.List(ctx, models.MenuFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	breakfast, err := svc.List(ctx, models.MenuFilter{Category: "breakfast", AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, breakfast, 1)
	assert.Equal(t, "Masala Dosa", breakfast[0].Name)
	assert.NotEmpty(t, breakfast[0].ID)
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(memory.NewStore(), clock.NewFixed(time.Now()), nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "  ", Price: 10})
	assert.ErrorIs(t, err, models.ErrInvalidState)

	_, err = svc.Create(context.Background(), CreateInput{Name: "Lassi", Price: -1})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), clock.NewFixed(time.Now()), nil)
	item, err := svc.Create(ctx, CreateInput{Name: "Thali", Price: 250, Category: "Mains"})
	require.NoError(t, err)

	price := 275.0
	off := false
	updated, err := svc.Update(ctx, item.ID, models.MenuItemPatch{Price: &price, Available: &off})
	require.NoError(t, err)
	assert.Equal(t, 275.0, updated.Price)
	assert.False(t, updated.Available)

	_, err = svc.Update(ctx, "missing", models.MenuItemPatch{Price: &price})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
