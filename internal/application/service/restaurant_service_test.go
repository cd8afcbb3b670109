package service

import (
	"testing"

	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRestaurant_Timezone(t *testing.T) {
	f := newFixture(t, "0")
	restaurants := NewRestaurantService(infraRepo.NewRestaurantRepository(f.db))

	zone := " Africa/Nairobi "
	updated, err := restaurants.UpdateRestaurant(f.ctx, f.restaurant.ID, &UpdateRestaurantInput{Timezone: &zone})
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", updated.Timezone)

	bogus := "Mars/Olympus"
	_, err = restaurants.UpdateRestaurant(f.ctx, f.restaurant.ID, &UpdateRestaurantInput{Timezone: &bogus})
	require.True(t, apperror.IsType(err, apperror.TypeValidation), "got %v", err)
	assert.Equal(t, "timezone", apperror.GetAppError(err).Errors[0].Field)

	reloaded, err := restaurants.GetRestaurant(f.ctx, f.restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", reloaded.Timezone)
	assert.Equal(t, "Africa/Nairobi", reloaded.Location().String())
}
