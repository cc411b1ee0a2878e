package services

import (
	"strings"

	"orderbot/internal/core/domain/model/session"
)

// EventKind distinguishes the three payloads an inbound message can carry.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventText
	EventContact
	EventCommand
)

// Command is a locale-independent conversation command. Localized button
// labels and slash commands are mapped to commands before reaching the machine.
type Command string

const (
	CommandStart    Command = "start"
	CommandOrder    Command = "order"
	CommandCancel   Command = "cancel"
	CommandConfirm  Command = "confirm"
	CommandEdit     Command = "edit"
	CommandSkip     Command = "skip"
	CommandLanguage Command = "lang"
)

var conversationCommands = map[Command]struct{}{
	CommandStart: {}, CommandOrder: {}, CommandCancel: {}, CommandConfirm: {},
	CommandEdit: {}, CommandSkip: {}, CommandLanguage: {},
}

// Contact is a shared contact card.
type Contact struct {
	Name  string
	Phone string
}

// Event is one inbound message from a customer, already classified.
type Event struct {
	Kind    EventKind
	Text    string
	Contact Contact
	Command Command
	// Arg qualifies Edit (field name) and Language (locale) commands.
	Arg string
}

func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

func ContactEvent(name, phone string) Event {
	return Event{Kind: EventContact, Contact: Contact{Name: name, Phone: phone}}
}

func CommandEvent(cmd Command, arg string) Event {
	return Event{Kind: EventCommand, Command: cmd, Arg: arg}
}

// Token renders a command with its argument, e.g. "edit:phone".
func Token(cmd Command, arg string) string {
	if arg == "" {
		return string(cmd)
	}
	return string(cmd) + ":" + arg
}

// EditToken is the button token that jumps back to a field from review.
func EditToken(f session.Field) string {
	return Token(CommandEdit, f.String())
}

// ParseToken maps a button token back to a conversation command.
func ParseToken(token string) (Command, string, bool) {
	name, arg, _ := strings.Cut(strings.TrimSpace(token), ":")
	cmd := Command(strings.ToLower(name))
	if _, ok := conversationCommands[cmd]; !ok {
		return "", "", false
	}
	return cmd, arg, true
}
