package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_RepliesInOrder(t *testing.T) {
	m := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"feedback":"one"}`), Usage: Usage{InputTokens: 3}},
		MockResponse{Content: json.RawMessage(`{"feedback":"two"}`)},
	)

	resp, err := m.Generate(context.Background(), Request{System: "first"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"feedback":"one"}`, string(resp.Content))
	assert.Equal(t, 3, resp.Usage.InputTokens)

	resp, err = m.Generate(context.Background(), Request{System: "second"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"feedback":"two"}`, string(resp.Content))

	_, err = m.Generate(context.Background(), Request{})
	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable, "exhausted queue")

	require.Equal(t, 3, m.CallCount())
	assert.Equal(t, "second", m.Calls[1].System)
}

func TestMockProvider_ConfiguredError(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockProvider(MockResponse{Err: boom})
	_, err := m.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	m := NewMockProvider()
	m.AddResponse(MockResponse{Content: json.RawMessage(`{"hint":"no feedback"}`)})

	_, err := m.Generate(context.Background(), Request{Schema: coachSchema()})
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, "mock", m.ModelID())
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Equal(t, "coach", PurposeFrom(WithPurpose(ctx, "coach")))
	assert.Equal(t, "unknown", PurposeFrom(WithPurpose(ctx, "")))
}
