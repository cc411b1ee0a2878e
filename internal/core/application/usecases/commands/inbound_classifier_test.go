package commands_test

import (
	"testing"

	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/pkg/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Events(t *testing.T) {
	catalog, err := i18n.Default()
	require.NoError(t, err)
	c := commands.NewClassifier(catalog)

	tests := []struct {
		name string
		msg  commands.InboundMessage
		want services.Event
	}{
		{
			name: "contact card",
			msg:  commands.InboundMessage{ContactName: "Анна", ContactPhone: "+998901234567"},
			want: services.ContactEvent("Анна", "+998901234567"),
		},
		{
			name: "button payload",
			msg:  commands.InboundMessage{Payload: "edit:phone", Text: "whatever"},
			want: services.CommandEvent(services.CommandEdit, "phone"),
		},
		{
			name: "typed russian label",
			msg:  commands.InboundMessage{Text: catalog.Label("ru", "confirm")},
			want: services.CommandEvent(services.CommandConfirm, ""),
		},
		{
			name: "typed uzbek label",
			msg:  commands.InboundMessage{Text: catalog.Label("uz", "cancel")},
			want: services.CommandEvent(services.CommandCancel, ""),
		},
		{
			name: "slash command with argument",
			msg:  commands.InboundMessage{Text: "/lang uz"},
			want: services.CommandEvent(services.CommandLanguage, "uz"),
		},
		{
			name: "unknown slash stays text",
			msg:  commands.InboundMessage{Text: "/help"},
			want: services.TextEvent("/help"),
		},
		{
			name: "plain text",
			msg:  commands.InboundMessage{Text: "7 лет, 125 см"},
			want: services.TextEvent("7 лет, 125 см"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, staff := c.Classify(tt.msg)
			assert.Nil(t, staff)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifier_StaffRequests(t *testing.T) {
	catalog, err := i18n.Default()
	require.NoError(t, err)
	c := commands.NewClassifier(catalog)

	tests := []struct {
		name string
		msg  commands.InboundMessage
		want commands.StaffRequest
	}{
		{"ack button", commands.InboundMessage{Payload: "ack:12"}, commands.StaffRequest{
			Action: commands.StaffSetStatus, OrderID: 12, Status: order.Acknowledged,
		}},
		{"typed work", commands.InboundMessage{Text: "WORK #12"}, commands.StaffRequest{
			Action: commands.StaffSetStatus, OrderID: 12, Status: order.InProgress,
		}},
		{"reject cancels", commands.InboundMessage{Text: "reject:3"}, commands.StaffRequest{
			Action: commands.StaffSetStatus, OrderID: 3, Status: order.Cancelled,
		}},
		{"status command", commands.InboundMessage{Text: "/status 5 fulfilled"}, commands.StaffRequest{
			Action: commands.StaffSetStatus, OrderID: 5, Status: order.Fulfilled,
		}},
		{"status bad value", commands.InboundMessage{Text: "/status 5 shipped"}, commands.StaffRequest{
			Action: commands.StaffUsage,
		}},
		{"status missing args", commands.InboundMessage{Text: "/status"}, commands.StaffRequest{
			Action: commands.StaffUsage,
		}},
		{"stats", commands.InboundMessage{Text: "/STATS"}, commands.StaffRequest{Action: commands.StaffStats}},
		{"export", commands.InboundMessage{Text: "/export"}, commands.StaffRequest{Action: commands.StaffExport}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, staff := c.Classify(tt.msg)
			require.NotNil(t, staff)
			assert.Equal(t, tt.want, *staff)
		})
	}
}
