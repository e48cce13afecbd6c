package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job, err := NewJob("cashback_confirmed", map[string]string{"to": "user@example.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "cashback_confirmed", job.Type)
	assert.Equal(t, 0, job.Attempts)
	assert.False(t, job.CreatedAt.IsZero())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "user@example.com", payload["to"])
}

func TestJobEncodeDecode(t *testing.T) {
	job, err := NewJob("welcome", map[string]interface{}{"user_name": "Priya"})
	require.NoError(t, err)
	job.Attempts = 2

	raw, err := job.Encode()
	require.NoError(t, err)

	decoded, err := DecodeJob(raw)
	require.NoError(t, err)
	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, "welcome", decoded.Type)
	assert.Equal(t, 2, decoded.Attempts)
}

func TestDecodeJobInvalid(t *testing.T) {
	_, err := DecodeJob("{broken")
	require.Error(t, err)
}
