package domain

// EventKind represents the kind of normalized event received from the
// messaging transport
type EventKind string

const (
	// EventKindText - Free-text message from the user
	EventKindText EventKind = "text"
	// EventKindButtonPress - Inline keyboard button press
	EventKindButtonPress EventKind = "button_press"
	// EventKindCommand - Slash command such as /start
	EventKindCommand EventKind = "command"
)

// DirectiveKind represents the kind of response directive emitted for
// the messaging transport to render
type DirectiveKind string

const (
	// DirectiveSendText - Send a plain text message
	DirectiveSendText DirectiveKind = "send_text"
	// DirectiveSendPhoto - Send a photo with a caption
	DirectiveSendPhoto DirectiveKind = "send_photo_with_caption"
	// DirectiveEditText - Edit the previously sent message in place
	DirectiveEditText DirectiveKind = "edit_text"
	// DirectiveDeleteMessage - Delete the previously sent message
	DirectiveDeleteMessage DirectiveKind = "delete_message"
)

// ResetCommand is the command payload that forces the session back to
// the initial state regardless of any stored value.
const ResetCommand = "/start"

// Event represents a normalized inbound event (domain entity).
// The transport collapses messages, button presses and commands into
// this shape; the session key identifies the conversation.
type Event struct {
	SessionKey string
	Kind       EventKind
	Payload    string
}

// IsReset reports whether the event is the explicit reset command that
// short-circuits state lookup.
func (e Event) IsReset() bool {
	return e.Kind == EventKindCommand && e.Payload == ResetCommand
}

// Button represents one inline keyboard button
type Button struct {
	Label         string `json:"label"`
	CallbackValue string `json:"callback_value"`
}

// Keyboard is an ordered list of ordered button rows
type Keyboard [][]Button

// Directive represents one user-visible response the transport should
// render. PhotoURL is set only for send_photo_with_caption.
type Directive struct {
	Kind     DirectiveKind `json:"kind"`
	Content  string        `json:"content,omitempty"`
	PhotoURL string        `json:"photo_url,omitempty"`
	Keyboard Keyboard      `json:"keyboard,omitempty"`
}
