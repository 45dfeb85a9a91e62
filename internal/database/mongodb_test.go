package database

import (
	"testing"

	"github.com/inkbloom/inkbloom/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIndexSpecsSlugUnique(t *testing.T) {
	specs := IndexSpecs()

	blogs := specs[models.BlogsCollection]
	require.NotEmpty(t, blogs)

	var found bool
	for _, ix := range blogs {
		keys, ok := ix.Keys.(bson.D)
		require.True(t, ok)
		if len(keys) == 1 && keys[0].Key == "slug" {
			found = true
			require.NotNil(t, ix.Options.Unique)
			require.True(t, *ix.Options.Unique)
		}
	}
	require.True(t, found, "slug index missing")
}

func TestIndexSpecsTokenTTL(t *testing.T) {
	for _, ix := range IndexSpecs()[models.TokensCollection] {
		if ix.Options.ExpireAfterSeconds != nil {
			require.Equal(t, int32(0), *ix.Options.ExpireAfterSeconds)
			return
		}
	}
	t.Fatal("tokens collection has no TTL index")
}
