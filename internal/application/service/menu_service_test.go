package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/enum"
	"github.com/sangkips/tableside-api/internal/domain/repository"
	"github.com/sangkips/tableside-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMenuItem_RecipeLines(t *testing.T) {
	f := newFixture(t, "0")
	flour := f.stock(t, "Flour", "20")

	chapati, err := f.menu.CreateMenuItem(f.ctx, &CreateMenuItemInput{
		Name:     " Chapati ",
		Category: "Sides",
		Price:    0.5,
		Recipe: []RecipeIngredientInput{
			ingredient(flour, "0.2"),
			{Name: "Ghee", QuantityPerUnit: dec("0.01"), Unit: "kg"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Chapati", chapati.Name)
	assert.Equal(t, int64(50), chapati.Price)
	assert.True(t, chapati.IsAvailable)

	loaded, err := f.menu.GetMenuItem(f.ctx, chapati.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Recipe, 2)
	assert.Equal(t, "Flour", loaded.Recipe[0].Name, "tracked lines take the stock item name")
	assert.True(t, loaded.Recipe[0].Tracked())
	assert.Equal(t, "Ghee", loaded.Recipe[1].Name)
	assert.False(t, loaded.Recipe[1].Tracked())
}

func TestCreateMenuItem_Validation(t *testing.T) {
	f := newFixture(t, "0")
	missing := uuid.New()

	cases := []struct {
		name  string
		input CreateMenuItemInput
		typ   string
	}{
		{"blank name", CreateMenuItemInput{Name: " ", Price: 1}, apperror.TypeValidation},
		{"negative price", CreateMenuItemInput{Name: "Soup", Price: -1}, apperror.TypeValidation},
		{"zero quantity", CreateMenuItemInput{Name: "Soup", Recipe: []RecipeIngredientInput{{Name: "Salt", QuantityPerUnit: dec("0")}}}, apperror.TypeValidation},
		{"unnamed manual line", CreateMenuItemInput{Name: "Soup", Recipe: []RecipeIngredientInput{{QuantityPerUnit: dec("1")}}}, apperror.TypeValidation},
		{"unknown stock item", CreateMenuItemInput{Name: "Soup", Recipe: []RecipeIngredientInput{{InventoryItemID: &missing, QuantityPerUnit: dec("1")}}}, apperror.TypeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			_, err := f.menu.CreateMenuItem(f.ctx, &input)
			assert.True(t, apperror.IsType(err, tc.typ), "got %v", err)
		})
	}

	list, err := f.menu.ListMenuItems(f.ctx, &repository.MenuFilterParams{})
	require.NoError(t, err)
	assert.Empty(t, list.Items, "failed creates leave nothing behind")

	_, err = f.menu.CreateMenuItem(context.Background(), &CreateMenuItemInput{Name: "Soup"})
	assert.ErrorIs(t, err, apperror.ErrRestaurantRequired)
}

func TestSetRecipe_ReplacesLines(t *testing.T) {
	f := newFixture(t, "0")
	beans := f.stock(t, "Beans", "10")
	maize := f.stock(t, "Maize", "10")
	githeri := f.dish(t, "Githeri", 3, ingredient(beans, "0.3"))

	updated, err := f.menu.SetRecipe(f.ctx, githeri.ID, []RecipeIngredientInput{
		ingredient(maize, "0.2"),
		ingredient(beans, "0.2"),
	})
	require.NoError(t, err)
	require.Len(t, updated.Recipe, 2)

	loaded, err := f.menu.GetMenuItem(f.ctx, githeri.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Recipe, 2)
	assert.Equal(t, maize.ID, *loaded.Recipe[0].InventoryItemID)
	assert.True(t, loaded.Recipe[1].QuantityPerUnit.Equal(dec("0.2")))

	_, err = f.menu.SetRecipe(f.ctx, uuid.New(), nil)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
}

func TestUnavailableDishCannotBeOrdered(t *testing.T) {
	f := newFixture(t, "0")
	soup := f.dish(t, "Soup", 4)
	stew := f.dish(t, "Stew", 6)

	_, err := f.menu.SetAvailability(f.ctx, soup.ID, false)
	require.NoError(t, err)

	menu, err := f.menu.ListMenuItems(f.ctx, &repository.MenuFilterParams{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, menu.Items, 1)
	assert.Equal(t, stew.ID, menu.Items[0].ID)

	_, err = f.orders.CreateOrder(f.ctx, &CreateOrderInput{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []OrderItemInput{{MenuItemID: stew.ID, Quantity: 1}, {MenuItemID: soup.ID, Quantity: 1}},
	})
	require.True(t, apperror.IsType(err, apperror.TypeValidation), "got %v", err)
	assert.Equal(t, "items[1].menu_item_id", apperror.GetAppError(err).Errors[0].Field)
}

func TestDeductForOrder_SkipsCancelledLines(t *testing.T) {
	f := newFixture(t, "0")
	rice := f.stock(t, "Rice", "10")
	pilau := f.dish(t, "Pilau", 8, ingredient(rice, "0.25"))

	order := &entity.Order{
		ID: uuid.New(),
		Items: []entity.OrderItem{
			{MenuItemID: pilau.ID, Quantity: 4, Status: enum.ItemStatusServed},
			{MenuItemID: pilau.ID, Quantity: 8, Status: enum.ItemStatusCancelled},
		},
	}
	result := f.inventory.DeductForOrder(f.ctx, order, nil)

	assert.Equal(t, 1, result.Applied)
	assert.Empty(t, result.Failures)
	assert.True(t, f.reloadStock(t, rice.ID).Quantity.Equal(dec("9")))
}
