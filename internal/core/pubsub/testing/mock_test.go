package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	data := []byte(`{"id":"id:1"}`)
	require.NoError(t, m.Publish(context.Background(), "tags.reset", data))
	data[0] = 'x'

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, `{"id":"id:1"}`, string(msgs[0].Data))
	assert.Equal(t, []string{"tags.reset"}, m.Subjects())

	m.SetError(errors.New("down"))
	assert.Error(t, m.Publish(context.Background(), "tags.merge", nil))
	assert.Len(t, m.Messages(), 1)

	assert.False(t, m.IsClosed())
	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())
}
