package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/webshop-agent/server/internal/core/error"
)

func TestDecodeSearchArgsDefaults(t *testing.T) {
	args, err := DecodeSearchArgs(`{"query":"štapni usisivač"}`)
	require.NoError(t, err)
	assert.Equal(t, "štapni usisivač", args.Query)
	assert.Equal(t, defaultSearchLimit, args.Limit)
	assert.Nil(t, args.PriceLowerLimit)
	assert.Nil(t, args.PriceUpperLimit)
	assert.False(t, args.SortAscendingByPrice)
}

func TestDecodeSearchArgsMissingQueryIsSchemaViolation(t *testing.T) {
	for name, raw := range map[string]string{
		"absent": `{"limit":3}`,
		"blank":  `{"query":"   "}`,
		"null":   `{"query":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSearchArgs(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errx.ErrSchemaViolation))
		})
	}
}

func TestDecodeSearchArgsRejectsNonObject(t *testing.T) {
	for _, raw := range []string{``, `"query"`, `[1,2]`, `{invalid`} {
		_, err := DecodeSearchArgs(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errx.ErrSchemaViolation))
	}
}

func TestDecodeSearchArgsClampsLimit(t *testing.T) {
	args, err := DecodeSearchArgs(`{"query":"alat","limit":50}`)
	require.NoError(t, err)
	assert.Equal(t, maxSearchLimit, args.Limit)

	args, err = DecodeSearchArgs(`{"query":"alat","limit":-2}`)
	require.NoError(t, err)
	assert.Equal(t, defaultSearchLimit, args.Limit)
}

func TestDecodeSearchArgsDropsInvertedPriceRange(t *testing.T) {
	args, err := DecodeSearchArgs(`{"query":"alat","price_lower_limit":500,"price_upper_limit":100}`)
	require.NoError(t, err)
	assert.Nil(t, args.PriceLowerLimit)
	assert.Nil(t, args.PriceUpperLimit)
}

func TestDecodeSearchArgsKeepsValidPriceRange(t *testing.T) {
	args, err := DecodeSearchArgs(`{"query":"alat","price_lower_limit":100,"price_upper_limit":500}`)
	require.NoError(t, err)
	require.NotNil(t, args.PriceLowerLimit)
	require.NotNil(t, args.PriceUpperLimit)
	assert.Equal(t, 100, *args.PriceLowerLimit)
	assert.Equal(t, 500, *args.PriceUpperLimit)
}

func TestDecodeLookupArgsAcceptsNumbersAndStrings(t *testing.T) {
	args, err := DecodeLookupArgs(`{"product_ids":[42,"77",3]}`)
	require.NoError(t, err)
	assert.Equal(t, []ProductID{42, 77, 3}, args.ProductIDs)
}

func TestDecodeLookupArgsMissingOrEmptyIDs(t *testing.T) {
	for name, raw := range map[string]string{
		"absent": `{}`,
		"empty":  `{"product_ids":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeLookupArgs(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errx.ErrSchemaViolation))
		})
	}
}

func TestDecodeLookupArgsRejectsNonNumericID(t *testing.T) {
	_, err := DecodeLookupArgs(`{"product_ids":["abc"]}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrSchemaViolation))
}

func TestInfosDeclareBothTools(t *testing.T) {
	infos := Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, ToolSearchProductsVectorized, infos[0].Name)
	assert.Equal(t, ToolGetProductsByIDs, infos[1].Name)
}
