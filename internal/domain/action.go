package domain

// ActionType identifies the kind of affordance a bot message offers.
// The set is open; servers add new variants over time, and unknown types
// pass through to the presentation layer untouched.
type ActionType string

const (
	ActionButton         ActionType = "button"
	ActionCheckbox       ActionType = "checkbox"
	ActionPrivacy        ActionType = "privacy"
	ActionCallback       ActionType = "callback"
	ActionSelectProvince ActionType = "select_province"
	ActionDatePicker     ActionType = "datepicker"
)

// ChatAction is a structured affordance attached to a bot message.
// Label and Action are opaque to the engine; Value is meaningful only
// for callback-typed actions.
type ChatAction struct {
	Type   ActionType `json:"type"`
	Label  string     `json:"label,omitempty"`
	Action string     `json:"action,omitempty"`
	Value  string     `json:"value,omitempty"`
}
