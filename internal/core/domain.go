package core

import (
	"encoding/json"
	"fmt"
)

// VerificationRequest carries the hub.* query parameters of a subscription handshake
type VerificationRequest struct {
	Mode      string
	Token     string
	Challenge string
}

// Envelope is the top-level webhook POST payload. Entries stay raw so a
// malformed entry can be skipped without losing its siblings.
type Envelope struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

// NewEnvelope builds an envelope from typed entries
func NewEnvelope(object string, entries ...Entry) (*Envelope, error) {
	env := &Envelope{Object: object, Entry: make([]json.RawMessage, 0, len(entries))}
	for i := range entries {
		raw, err := json.Marshal(entries[i])
		if err != nil {
			return nil, fmt.Errorf("encode entry %q: %w", entries[i].ID, err)
		}
		env.Entry = append(env.Entry, raw)
	}
	return env, nil
}

// UnmarshalJSON decodes only the envelope frame. A non-object body or a
// non-array entry yields an envelope that fails Validate or has no entries;
// syntax errors are still reported by json.Unmarshal before this runs.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var frame struct {
		Object json.RawMessage `json:"object"`
		Entry  json.RawMessage `json:"entry"`
	}
	*e = Envelope{}
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil
	}

	e.Object = objectName(frame.Object)
	if len(frame.Entry) > 0 {
		if err := json.Unmarshal(frame.Entry, &e.Entry); err != nil {
			e.Entry = nil
		}
	}
	return nil
}

// objectName returns object as text. Falsy JSON values give an empty name.
func objectName(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	switch text := string(raw); text {
	case "", "null", "false", "0":
		return ""
	default:
		return text
	}
}

// Validate rejects envelopes that do not name the subscribed object.
func (e *Envelope) Validate() error {
	if e == nil || e.Object == "" {
		return fmt.Errorf("envelope has no object: %w", ErrNotFound)
	}
	return nil
}

// Entry is one unit of batched delivery. Messaging and Changes are independent
// and either, both, or neither may be present.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time,omitempty"`
	Messaging []MessengerEvent `json:"messaging,omitempty"`
	Changes   []Change         `json:"changes,omitempty"`
}

// EntryFrame is an entry as received. Its events are decoded one at a time
// with DecodeMessengerEvent and DecodeChange.
type EntryFrame struct {
	ID        string            `json:"id"`
	Time      int64             `json:"time,omitempty"`
	Messaging []json.RawMessage `json:"messaging,omitempty"`
	Changes   []json.RawMessage `json:"changes,omitempty"`
}

// DecodeEntry decodes the frame of one raw entry.
func DecodeEntry(raw json.RawMessage) (*EntryFrame, error) {
	var frame EntryFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &frame, nil
}

// DecodeMessengerEvent decodes one element of entry.messaging.
func DecodeMessengerEvent(raw json.RawMessage) (*MessengerEvent, error) {
	var event MessengerEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("decode messaging event: %w", err)
	}
	return &event, nil
}

// DecodeChange decodes one element of entry.changes.
func DecodeChange(raw json.RawMessage) (*Change, error) {
	var change Change
	if err := json.Unmarshal(raw, &change); err != nil {
		return nil, fmt.Errorf("decode change: %w", err)
	}
	return &change, nil
}

// Participant identifies a Messenger sender or recipient (PSID or page ID)
type Participant struct {
	ID string `json:"id"`
}

// MessengerEvent is a single element of entry.messaging
type MessengerEvent struct {
	Sender    Participant       `json:"sender"`
	Recipient Participant       `json:"recipient"`
	Timestamp int64             `json:"timestamp"`
	Message   *MessengerMessage `json:"message,omitempty"`
	Postback  *Postback         `json:"postback,omitempty"`
}

// MessengerMessage is the message body of a Messenger event
type MessengerMessage struct {
	MID  string `json:"mid,omitempty"`
	Text string `json:"text"`
}

// Postback is a button tap delivered through Messenger
type Postback struct {
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload"`
}

// Change is a field-scoped event. Value stays raw until its Kind is known.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// Kind maps the change field onto the closed set of known change kinds.
func (c Change) Kind() ChangeKind {
	return ParseChangeKind(c.Field)
}

// BusinessMessageValue decodes the value of a "messages" change.
func (c Change) BusinessMessageValue() (*BusinessMessageValue, error) {
	if len(c.Value) == 0 || string(c.Value) == "null" {
		return nil, fmt.Errorf("change %q has no value: %w", c.Field, ErrUnhandledEventShape)
	}
	var v BusinessMessageValue
	if err := json.Unmarshal(c.Value, &v); err != nil {
		return nil, fmt.Errorf("decode %q change value: %w", c.Field, err)
	}
	return &v, nil
}

// ChangeKind is the closed set of change fields the router distinguishes
type ChangeKind int

const (
	ChangeUnhandled ChangeKind = iota
	ChangeFeed
	ChangeComments
	ChangeMessages
)

// ParseChangeKind maps a change field to its kind. Unknown fields map to ChangeUnhandled.
func ParseChangeKind(field string) ChangeKind {
	switch field {
	case "feed":
		return ChangeFeed
	case "comments":
		return ChangeComments
	case "messages":
		return ChangeMessages
	default:
		return ChangeUnhandled
	}
}

func (k ChangeKind) String() string {
	switch k {
	case ChangeFeed:
		return "feed"
	case ChangeComments:
		return "comments"
	case ChangeMessages:
		return "messages"
	default:
		return "unhandled"
	}
}

// Metadata identifies the business phone number that received the event
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is the sender profile attached to business messages
type Contact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

// BusinessMessageValue is the value of a "messages" change from the WhatsApp Business API
type BusinessMessageValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         Metadata         `json:"metadata"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []StatusUpdate   `json:"statuses,omitempty"`
}

// TextBody is the text payload of a business message
type TextBody struct {
	Body string `json:"body"`
}

// InboundMessage is a message received by the business phone number
type InboundMessage struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
}

// Kind maps the message type onto the closed set of known message kinds.
func (m InboundMessage) Kind() MessageKind {
	return ParseMessageKind(m.Type)
}

// TextBody returns the text body, or "" when the message carries none.
func (m InboundMessage) TextBody() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// MessageKind is the closed set of inbound message types the handler distinguishes
type MessageKind int

const (
	MessageUnhandled MessageKind = iota
	MessageText
	MessageImage
	MessageDocument
)

// ParseMessageKind maps a message type to its kind. Unknown types map to MessageUnhandled.
func ParseMessageKind(messageType string) MessageKind {
	switch messageType {
	case "text":
		return MessageText
	case "image":
		return MessageImage
	case "document":
		return MessageDocument
	default:
		return MessageUnhandled
	}
}

func (k MessageKind) String() string {
	switch k {
	case MessageText:
		return "text"
	case MessageImage:
		return "image"
	case MessageDocument:
		return "document"
	default:
		return "unhandled"
	}
}

// StatusUpdate reports delivery progress of a message the business sent.
// Status is one of sent, delivered, read, failed.
type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
}
