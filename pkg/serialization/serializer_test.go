package serialization_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/tablestore/pkg/db"
	"github.com/eigerco/tablestore/pkg/serialization"
	"github.com/eigerco/tablestore/pkg/serialization/codec"
)

type PayloadExample struct {
	ID   int    `json:"id"`
	Data []byte `json:"data"`
}

func TestJSONSerializer(t *testing.T) {
	serializer := serialization.NewSerializer[PayloadExample](codec.NewJSON[PayloadExample]())

	example := PayloadExample{ID: 1, Data: []byte{1, 2, 3}}

	encoded, err := serializer.Encode("save", "k", example)
	require.NoError(t, err)
	require.NotNil(t, encoded)

	decoded, err := serializer.Decode("find", "k", encoded)
	require.NoError(t, err)
	assert.Equal(t, example, decoded)
}

func TestSerializerWrapsCodecErrors(t *testing.T) {
	serializer := serialization.NewSerializer[PayloadExample](codec.NewJSON[PayloadExample]())

	_, err := serializer.Decode("find", "user1", []byte("not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrCodec)
	assert.NotErrorIs(t, err, db.ErrStorageRead)

	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "find", dbErr.Op)
	assert.Equal(t, "user1", dbErr.Key)

	// channels cannot be marshalled
	chSerializer := serialization.NewSerializer[chan int](codec.NewJSON[chan int]())
	_, err = chSerializer.Encode("save", "k", make(chan int))
	assert.ErrorIs(t, err, db.ErrCodec)
}
