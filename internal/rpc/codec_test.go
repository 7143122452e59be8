package rpc

import (
	"testing"

	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestUpsertRequest_RoundTrip(t *testing.T) {
	p := models.Payload{
		"id":      "tt0133093",
		"title":   "The Matrix",
		"year":    1999,
		"genres":  []string{"sci-fi", "action"},
		"watched": true,
		"nested":  models.Payload{"source": "imdb"},
	}

	req, err := NewUpsertRequest("movie", p)
	require.NoError(t, err)

	typ, got, err := ParseUpsertRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "movie", typ)
	assert.Equal(t, "The Matrix", got["title"])
	assert.Equal(t, float64(1999), got["year"])
	assert.Equal(t, []any{"sci-fi", "action"}, got["genres"])
	assert.Equal(t, map[string]any{"source": "imdb"}, got["nested"])
	assert.Equal(t, "tt0133093", models.PrimaryKey(got))
}

func TestParseUpsertRequest_Malformed(t *testing.T) {
	_, _, err := ParseUpsertRequest(&structpb.Struct{})
	require.ErrorIs(t, err, ErrMalformedRequest)
}

func TestDeleteRequest_RoundTrip(t *testing.T) {
	typ, id, err := ParseDeleteRequest(NewDeleteRequest("book", "b-12"))
	require.NoError(t, err)
	assert.Equal(t, "book", typ)
	assert.Equal(t, "b-12", id)

	_, _, err = ParseDeleteRequest(NewDeleteRequest("book", ""))
	require.ErrorIs(t, err, ErrMalformedRequest)
}

func TestPayloadsList_RoundTrip(t *testing.T) {
	l, err := PayloadsToList([]models.Payload{{"id": "1"}, {"id": "2"}})
	require.NoError(t, err)
	l.Values = append(l.Values, structpb.NewStringValue("ignored"))

	got := ListToPayloads(l)
	require.Len(t, got, 2)
	assert.Equal(t, "2", models.PrimaryKey(got[1]))
}
