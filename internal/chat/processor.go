package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/logging"
)

// MessageProcessor owns transcript mutation and response interpretation.
type MessageProcessor struct {
	state *State
	log   *logging.Logger
}

// NewMessageProcessor creates a processor over shared state.
func NewMessageProcessor(state *State, log *logging.Logger) *MessageProcessor {
	return &MessageProcessor{state: state, log: log.Sub("processor")}
}

func newMessage(sender domain.Sender, text string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        uuid.New().String(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	}
}

// AddUserMessage appends a user message when it has any content. A call
// with blank text and no files is a no-op, never a blank transcript entry.
func (p *MessageProcessor) AddUserMessage(text string, files []domain.Attachment) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && len(files) == 0 {
		return
	}
	msg := newMessage(domain.SenderUser, trimmed)
	msg.Files = files
	p.state.appendMessages(msg)
}

// AddErrorMessage appends a bot-styled message carrying a failure
// explanation. All failure paths surface through here.
func (p *MessageProcessor) AddErrorMessage(text string) {
	p.state.appendMessages(newMessage(domain.SenderBot, text))
}

// ExtractResponseTexts normalizes a response payload into display strings.
// Precedence: output array (non-blank string elements only), output string,
// text string, then a pretty-printed JSON dump of the whole payload as a
// last resort so unexpected shapes stay visible. The dump is suppressed
// when the payload carries actions, so action-only responses don't also
// print raw JSON.
func (p *MessageProcessor) ExtractResponseTexts(resp map[string]any) []string {
	switch output := resp["output"].(type) {
	case []any:
		var texts []string
		for _, v := range output {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				texts = append(texts, s)
			}
		}
		return texts
	case string:
		if strings.TrimSpace(output) != "" {
			return []string{output}
		}
	}

	if text, ok := resp["text"].(string); ok && strings.TrimSpace(text) != "" {
		return []string{text}
	}

	if len(resp) > 0 && !hasActions(resp) {
		pretty, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return nil
		}
		return []string{string(pretty)}
	}

	return nil
}

func hasActions(resp map[string]any) bool {
	actions, ok := resp["actions"].([]any)
	return ok && len(actions) > 0
}

// DecodeActions extracts the actions list from a response payload.
// Undecodable actions are dropped, not errored.
func (p *MessageProcessor) DecodeActions(resp map[string]any) []domain.ChatAction {
	rawActions, ok := resp["actions"]
	if !ok {
		return nil
	}
	data, err := json.Marshal(rawActions)
	if err != nil {
		return nil
	}
	var actions []domain.ChatAction
	if err := json.Unmarshal(data, &actions); err != nil {
		p.log.Warn().Err(err).Msg("discarding undecodable actions")
		return nil
	}
	return actions
}

// ProcessActions stores the value of the first callback-typed action for
// the next outgoing send. The transcript is not touched.
func (p *MessageProcessor) ProcessActions(actions []domain.ChatAction) {
	for _, action := range actions {
		if action.Type == domain.ActionCallback && strings.TrimSpace(action.Value) != "" {
			p.log.Debug().Str("value", action.Value).Msg("callback action received, storing for next send")
			p.state.setPendingCallback(action.Value)
			return
		}
	}
}

// AddBotMessages appends one bot message per text. Actions attach to the
// first message only and are processed exactly once; when there is no text
// at all, a single empty-text message is synthesized to carry them.
func (p *MessageProcessor) AddBotMessages(texts []string, actions []domain.ChatAction) {
	for i, text := range texts {
		msg := newMessage(domain.SenderBot, text)
		if i == 0 && len(actions) > 0 {
			msg.Actions = actions
			p.ProcessActions(actions)
		}
		p.state.appendMessages(msg)
	}

	if len(texts) == 0 && len(actions) > 0 {
		msg := newMessage(domain.SenderBot, "")
		msg.Actions = actions
		p.ProcessActions(actions)
		p.state.appendMessages(msg)
	}
}
