package policy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custos/pkg/domain"
	"custos/pkg/requestcontext"
)

func TestService_GetReturnsDefaultForUnknownDependent(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	dependentID := id.DependentID(uuid.New())

	p, err := svc.Get(context.Background(), dependentID)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, p.Version)
	for _, c := range id.Categories {
		assert.True(t, p.Enabled(c), "default enables %s", c)
		assert.True(t, p.WithinPerTxCap(c, dec("999999")), "default has no caps")
	}
	assert.Empty(t, p.AllowedTokens)
}

func TestService_UpdateUpsertsAndMerges(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	dependentID := id.DependentID(uuid.New())
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	enabled := false
	first, err := svc.Update(ctx, dependentID, Patch{
		Categories: map[id.Category]CategoryRulePatch{
			id.CategoryNFT: {Enabled: &enabled, DailyCap: decPtr("50")},
		},
	})
	require.NoError(t, err)
	assert.False(t, first.Enabled(id.CategoryNFT))

	// Second patch touches a different field; the first survives.
	tokens := []string{"USDC"}
	second, err := svc.Update(ctx, dependentID, Patch{AllowedTokens: &tokens})
	require.NoError(t, err)
	assert.False(t, second.Enabled(id.CategoryNFT))
	require.NotNil(t, second.DailyCap(id.CategoryNFT))
	assert.True(t, second.DailyCap(id.CategoryNFT).Equal(dec("50")))
	assert.Equal(t, []string{"USDC"}, second.AllowedTokens)
	assert.Equal(t, now, second.UpdatedAt)
}

func TestService_AtMostOnePolicyPerDependent(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store)
	dependentID := id.DependentID(uuid.New())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Update(ctx, dependentID, Patch{})
		require.NoError(t, err)
	}

	stored, err := store.Get(ctx, dependentID)
	require.NoError(t, err)
	assert.Equal(t, dependentID, stored.DependentID)
}
