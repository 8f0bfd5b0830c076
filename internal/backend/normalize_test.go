package backend

import (
	"testing"

	"github.com/opchat/opchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalCollectionBareArray(t *testing.T) {
	var msgs []*domain.Message
	err := unmarshalCollection([]byte(` [{"id":"m1"},{"id":"m2"}] `), "messages", &msgs)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestUnmarshalCollectionEnvelope(t *testing.T) {
	var msgs []*domain.Message
	err := unmarshalCollection([]byte(`{"total":1,"messages":[{"id":"m1"}]}`), "messages", &msgs)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestUnmarshalCollectionMissingField(t *testing.T) {
	var msgs []*domain.Message
	err := unmarshalCollection([]byte(`{"items":[]}`), "messages", &msgs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messages")
}

func TestUnmarshalCollectionGarbage(t *testing.T) {
	var msgs []*domain.Message
	assert.Error(t, unmarshalCollection([]byte(`not json`), "messages", &msgs))
	assert.Error(t, unmarshalCollection(nil, "messages", &msgs))
}
