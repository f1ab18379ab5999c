package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	c := NewCollection().
		Add(Descriptor{ID: "A", Title: "Shirt", ImageRef: "https://img/a.png", UnitPrice: 10.5}).
		Add(Descriptor{ID: "A", Title: "Shirt", ImageRef: "https://img/a.png", UnitPrice: 10.5}).
		Add(Descriptor{ID: "B", Title: "Mug", ImageRef: "https://img/b.png", UnitPrice: 5})

	blob, err := EncodeSnapshot(c)
	require.NoError(t, err)

	restored, err := DecodeSnapshot(blob)
	require.NoError(t, err)
	require.ElementsMatch(t, c.Entries(), restored.Entries())
}

func TestSnapshot_EmptyCollectionEncodesEmptyList(t *testing.T) {
	blob, err := EncodeSnapshot(NewCollection())
	require.NoError(t, err)
	require.JSONEq(t, `{"version":1,"products":[]}`, string(blob))

	restored, err := DecodeSnapshot(blob)
	require.NoError(t, err)
	require.Equal(t, 0, restored.Len())
}

func TestSnapshot_DecodeLegacyArray(t *testing.T) {
	legacy := `[
		{"id":"1","title":"Camiseta","image_url":"https://img/1.png","price":19.9,"quantity":2},
		{"id":"2","title":"Caneca","image_url":"https://img/2.png","price":5,"quantity":1}
	]`

	c, err := DecodeSnapshot([]byte(legacy))
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{ID: "1", Title: "Camiseta", ImageRef: "https://img/1.png", UnitPrice: 19.9, Quantity: 2},
		{ID: "2", Title: "Caneca", ImageRef: "https://img/2.png", UnitPrice: 5, Quantity: 1},
	}, c.Entries())
}

func TestSnapshot_DecodeRejectsCorruptBlobs(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "empty", blob: "   "},
		{name: "not json", blob: "{{nope"},
		{name: "wrong shape", blob: `"just a string"`},
		{name: "future version", blob: `{"version":99,"products":[]}`},
		{name: "missing version", blob: `{"products":[]}`},
		{name: "zero quantity", blob: `{"version":1,"products":[{"id":"A","price":1,"quantity":0}]}`},
		{name: "negative price", blob: `{"version":1,"products":[{"id":"A","price":-1,"quantity":1}]}`},
		{name: "empty id", blob: `[{"id":"","price":1,"quantity":1}]`},
		{name: "duplicate id", blob: `[{"id":"A","price":1,"quantity":1},{"id":"A","price":1,"quantity":2}]`},
		{name: "fractional quantity", blob: `[{"id":"A","price":1,"quantity":1.5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.blob))
			require.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}
