package validation

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Level classifies a validation message.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Message is one finding from the validator report.
type Message struct {
	ID       string `json:"id"`
	Level    Level  `json:"level"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

type reportXML struct {
	Messages []messageXML `xml:"message"`
}

type messageXML struct {
	ID       string `xml:"id,attr"`
	Level    string `xml:"level,attr"`
	Code     string `xml:"code,attr"`
	Location string `xml:"location,attr"`
	Text     string `xml:",chardata"`
}

// ParseReport parses the validator's XML report into messages. Unknown
// levels are treated as errors so that nothing gets silently downgraded.
func ParseReport(data []byte) ([]Message, error) {
	var report reportXML
	if err := xml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse validation report: %w", err)
	}

	messages := make([]Message, 0, len(report.Messages))
	for i, m := range report.Messages {
		level := LevelError
		if Level(m.Level) == LevelWarning {
			level = LevelWarning
		}
		id := m.ID
		if id == "" {
			id = fmt.Sprintf("m%d", i+1)
		}
		messages = append(messages, Message{
			ID:       id,
			Level:    level,
			Code:     m.Code,
			Message:  strings.TrimSpace(m.Text),
			Location: m.Location,
		})
	}
	return messages, nil
}

// Errors returns only the error-level messages.
func Errors(messages []Message) []Message {
	var out []Message
	for _, m := range messages {
		if m.Level == LevelError {
			out = append(out, m)
		}
	}
	return out
}
