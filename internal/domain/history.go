package domain

import "encoding/json"

// StringList accepts either a single JSON string or an array of strings.
// Webhook history payloads use both shapes interchangeably.
type StringList []string

// UnmarshalJSON implements the string-or-array decoding.
func (s *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = StringList(many)
		return nil
	}
	// Unexpected shape (number, object, null): treat as absent rather
	// than failing the whole history response.
	*s = nil
	return nil
}

// HistoryKwargs carries the content payload of one historical record.
// Content is kept raw because the webhook emits it as a string, an array
// of strings, or occasionally something else entirely; normalization
// happens in the session manager.
type HistoryKwargs struct {
	Content json.RawMessage `json:"content"`
}

// HistoryRecord is one persisted message as returned by the webhook.
// The ID field doubles as the sender classifier: records authored by the
// human carry a "HumanMessage" marker in at least one ID element.
type HistoryRecord struct {
	ID     StringList    `json:"id"`
	Kwargs HistoryKwargs `json:"kwargs"`
}

// HistoryResponse is the webhook's answer to a loadPreviousSession call.
type HistoryResponse struct {
	Data []HistoryRecord `json:"data"`
}
