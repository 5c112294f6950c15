package bot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	body := `{
		"messenger_id": "wa-1",
		"outgoing": false,
		"sender": "4915112345",
		"recipient": "num-1",
		"payload": {"text": "hi", "user": {"id": "u-1", "name": "Alice"}}
	}`

	ev, err := ParseEvent([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "wa-1", ev.MessengerID)
	require.NotNil(t, ev.Outgoing)
	assert.False(t, *ev.Outgoing)
	assert.Equal(t, "4915112345", ev.Sender)
	assert.Equal(t, "num-1", ev.Recipient)
	require.NotNil(t, ev.Payload)
	require.NotNil(t, ev.Payload.Text)
	assert.Equal(t, "hi", *ev.Payload.Text)
	require.NotNil(t, ev.Payload.User)
	assert.Equal(t, "u-1", ev.Payload.User.ID)
	assert.Equal(t, "Alice", ev.Payload.User.Name)
	assert.Contains(t, ev.Raw(), "payload")
}

func TestParseEvent_OptionalFields(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantOutgoing *bool
		wantPayload  bool
		wantText     bool
	}{
		{
			name: "empty object",
			body: `{}`,
		},
		{
			name: "outgoing as string is not a boolean",
			body: `{"outgoing": "false"}`,
		},
		{
			name:        "payload without text",
			body:        `{"payload": {}}`,
			wantPayload: true,
		},
		{
			name:        "null text is absent",
			body:        `{"payload": {"text": null}}`,
			wantPayload: true,
		},
		{
			name:        "empty text is present",
			body:        `{"payload": {"text": ""}}`,
			wantPayload: true,
			wantText:    true,
		},
		{
			name: "payload as string is ignored",
			body: `{"payload": "hi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Nil(t, ev.Outgoing)
			assert.Equal(t, tt.wantPayload, ev.Payload != nil)
			if ev.Payload != nil {
				assert.Equal(t, tt.wantText, ev.Payload.Text != nil)
			}
		})
	}
}

func TestParseEvent_NumericIDs(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"sender": 4915112345678, "recipient": 42, "payload": {"text": 7}}`))
	require.NoError(t, err)

	assert.Equal(t, "4915112345678", ev.Sender)
	assert.Equal(t, "42", ev.Recipient)
	require.NotNil(t, ev.Payload.Text)
	assert.Equal(t, "7", *ev.Payload.Text)
}

func TestParseEvent_InvalidBody(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2]`, `"text"`, `null`} {
		t.Run(body, func(t *testing.T) {
			_, err := ParseEvent([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidBody)
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"empty string", "", false},
		{"zero string", "0", false},
		{"string", "abc", true},
		{"zero number", json.Number("0"), false},
		{"zero float number", json.Number("0.0"), false},
		{"number", json.Number("12"), true},
		{"float zero", float64(0), false},
		{"float", float64(1.5), true},
		{"empty map", map[string]any{}, false},
		{"map", map[string]any{"a": 1}, true},
		{"empty slice", []any{}, false},
		{"slice", []any{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truthy(tt.value))
		})
	}
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "abc", stringValue("abc"))
	assert.Equal(t, "123", stringValue(json.Number("123")))
	assert.Equal(t, "1.5", stringValue(float64(1.5)))
	assert.Equal(t, "true", stringValue(true))
	assert.Equal(t, "", stringValue(nil))
	assert.Equal(t, "", stringValue(map[string]any{"a": "b"}))
}
