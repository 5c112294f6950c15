package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ParseEvent parses a webhook body into an InboundEvent.
// Numbers are kept as json.Number so long platform ids survive unchanged.
func ParseEvent(body []byte) (*InboundEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if raw == nil {
		return nil, ErrInvalidBody
	}

	ev := &InboundEvent{
		MessengerID:       raw["messenger_id"],
		Challenge:         raw["challenge"],
		VerificationToken: raw["verification_token"],
		Sender:            stringValue(raw["sender"]),
		Recipient:         stringValue(raw["recipient"]),
		raw:               raw,
	}

	if outgoing, ok := raw["outgoing"].(bool); ok {
		ev.Outgoing = &outgoing
	}

	if payload, ok := raw["payload"].(map[string]any); ok {
		ev.Payload = parseEventPayload(payload)
	}

	return ev, nil
}

func parseEventPayload(payload map[string]any) *EventPayload {
	p := &EventPayload{}

	if text, ok := payload["text"]; ok && text != nil {
		s := stringValue(text)
		p.Text = &s
	}

	if user, ok := payload["user"].(map[string]any); ok {
		p.User = &EventUser{
			ID:   stringValue(user["id"]),
			Name: stringValue(user["name"]),
		}
	}

	return p
}

// stringValue renders a scalar JSON value as a string; objects and arrays yield ""
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// truthy applies the platform's loose truthiness to a decoded JSON value:
// null, false, "", "0", zero numbers and empty collections are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t != ""
		}
		return f != 0
	case float64:
		return t != 0
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
