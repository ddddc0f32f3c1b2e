package repository

import (
	"context"
	"testing"

	"polleria/internal/model"
	"polleria/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestimonialRepository(t *testing.T) {
	pool := testutil.StartPostgres(t)
	repo := NewTestimonialRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := int64(7)
	reviews := []*model.Testimonial{
		{Name: "Ana", Rating: 5, Comment: "El mejor pollo de Lima", Location: "Miraflores", UserID: &userID},
		{Name: "Luis", Rating: 2, Comment: "Demoró mucho"},
		{Name: "Rosa", Email: "rosa@example.com", Rating: 4, Comment: "Muy rica la chicha"},
		{Name: "Carla", Rating: 3, Comment: "Correcto"},
	}
	for _, r := range reviews {
		require.NoError(t, repo.Create(ctx, r))
		assert.Positive(t, r.ID)
	}

	t.Run("ListRecent skips low ratings", func(t *testing.T) {
		list, err := repo.ListRecent(ctx, 3, 10)

		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Carla", list[0].Name)
		assert.Equal(t, "Ana", list[2].Name)
		require.NotNil(t, list[2].UserID)
		assert.Equal(t, userID, *list[2].UserID)
	})

	t.Run("ListRecent honours the limit", func(t *testing.T) {
		list, err := repo.ListRecent(ctx, 3, 2)

		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("Rating out of range is rejected by the schema", func(t *testing.T) {
		err := repo.Create(ctx, &model.Testimonial{Name: "X", Rating: 9, Comment: "?"})

		require.Error(t, err)
		assert.Equal(t, model.ErrCodePersistenceFailure, model.CodeOf(err))
	})
}
