package commands

import (
	"regexp"
	"strconv"
	"strings"

	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/pkg/i18n"
)

// StaffAction is a staff-only request recognized in an inbound message.
type StaffAction int

const (
	StaffSetStatus StaffAction = iota + 1
	StaffStats
	StaffExport
	StaffUsage
)

// StaffRequest is a parsed staff command.
type StaffRequest struct {
	Action  StaffAction
	OrderID uint64
	Status  order.Status
}

var (
	actionPattern = regexp.MustCompile(`(?i)^(ack|work|done|reject)[:\s]+#?(\d+)$`)
	statusPattern = regexp.MustCompile(`(?i)^/status\s+#?(\d+)\s+(\S+)$`)
)

var slashCommands = map[string]services.Command{
	"/start":   services.CommandStart,
	"/order":   services.CommandOrder,
	"/cancel":  services.CommandCancel,
	"/confirm": services.CommandConfirm,
	"/skip":    services.CommandSkip,
	"/lang":    services.CommandLanguage,
}

// Classifier maps raw inbound messages to machine events or staff requests.
// Button payloads carry command tokens directly; typed text is matched
// against localized button labels, then slash commands.
type Classifier struct {
	catalog *i18n.Catalog
}

func NewClassifier(catalog *i18n.Catalog) Classifier {
	return Classifier{catalog: catalog}
}

func (c Classifier) Classify(msg InboundMessage) (services.Event, *StaffRequest) {
	if msg.ContactPhone != "" {
		return services.ContactEvent(msg.ContactName, msg.ContactPhone), nil
	}

	raw := strings.TrimSpace(msg.Payload)
	fromButton := raw != ""
	if !fromButton {
		raw = strings.TrimSpace(msg.Text)
	}

	if req := parseStaff(raw); req != nil {
		return services.Event{}, req
	}

	if fromButton {
		if cmd, arg, ok := services.ParseToken(raw); ok {
			return services.CommandEvent(cmd, arg), nil
		}
	}
	if token, ok := c.catalog.Token(raw); ok {
		if cmd, arg, ok := services.ParseToken(token); ok {
			return services.CommandEvent(cmd, arg), nil
		}
	}
	if strings.HasPrefix(raw, "/") {
		name, arg, _ := strings.Cut(raw, " ")
		if cmd, ok := slashCommands[strings.ToLower(name)]; ok {
			return services.CommandEvent(cmd, strings.TrimSpace(arg)), nil
		}
	}
	return services.TextEvent(msg.Text), nil
}

func parseStaff(raw string) *StaffRequest {
	if m := actionPattern.FindStringSubmatch(raw); m != nil {
		id, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return &StaffRequest{Action: StaffUsage}
		}
		return &StaffRequest{
			Action:  StaffSetStatus,
			OrderID: id,
			Status:  notifications.ActionStatuses[strings.ToLower(m[1])],
		}
	}

	lower := strings.ToLower(raw)
	switch {
	case lower == "/stats":
		return &StaffRequest{Action: StaffStats}
	case lower == "/export":
		return &StaffRequest{Action: StaffExport}
	case lower == "/status" || strings.HasPrefix(lower, "/status "):
		m := statusPattern.FindStringSubmatch(raw)
		if m == nil {
			return &StaffRequest{Action: StaffUsage}
		}
		id, idErr := strconv.ParseUint(m[1], 10, 64)
		status, statusErr := order.ParseStatus(m[2])
		if idErr != nil || statusErr != nil {
			return &StaffRequest{Action: StaffUsage}
		}
		return &StaffRequest{Action: StaffSetStatus, OrderID: id, Status: status}
	}
	return nil
}
