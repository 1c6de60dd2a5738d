package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailTestEvent struct {
	Name   string
	Date   string
	Starts string
	Ends   string
	Venue  string
	Amount int
}

func TestEmailMessage_Render(t *testing.T) {
	t.Run("plain body passes through", func(t *testing.T) {
		msg := &EmailMessage{
			To:      []mail.Address{{Name: "Asha", Address: "asha@test.in"}},
			Subject: "hello",
			BodyStr: "just text",
		}
		require.NoError(t, msg.Render())
		assert.Equal(t, "just text", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
		assert.True(t, msg.HasRecipients())
		assert.True(t, msg.HasContent())
	})

	t.Run("templated submission mail", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Name: "Asha", Address: "asha@test.in"}},
			Subject:      "Registration received",
			TemplateName: "registration_submitted",
			TemplateData: struct {
				Events []mailTestEvent
				Total  int
			}{
				Events: []mailTestEvent{
					{Name: "Robo Race", Date: "Sat, 14 Mar 2026", Starts: "09:00", Ends: "10:00", Venue: "Main Block", Amount: 200},
				},
				Total: 200,
			},
		}
		require.NoError(t, msg.Render())
		require.True(t, msg.HasContent())
		assert.Contains(t, msg.TextContent, "Robo Race")
		assert.Contains(t, msg.TextContent, "Total: Rs. 200")
		assert.Contains(t, msg.TextContent, Conf.AppName)
		assert.Contains(t, msg.HTMLContent, "<strong>Total: Rs. 200</strong>")
	})

	t.Run("templated transition mails", func(t *testing.T) {
		data := struct {
			EventName     string
			Amount        int
			RejectionNote string
		}{EventName: "Robo Race", Amount: 150, RejectionNote: "blurry screenshot"}

		confirmed := &EmailMessage{
			To:           []mail.Address{{Address: "asha@test.in"}},
			Subject:      "Registration confirmed",
			TemplateName: "registration_confirmed",
			TemplateData: data,
		}
		require.NoError(t, confirmed.Render())
		assert.Contains(t, confirmed.TextContent, "Rs. 150")
		assert.Contains(t, confirmed.TextContent, "Robo Race")

		rejected := &EmailMessage{
			To:           []mail.Address{{Address: "asha@test.in"}},
			Subject:      "Registration rejected",
			TemplateName: "registration_rejected",
			TemplateData: data,
		}
		require.NoError(t, rejected.Render())
		assert.Contains(t, rejected.TextContent, "blurry screenshot")
	})

	t.Run("unknown template renders nothing", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Address: "asha@test.in"}},
			Subject:      "hmm",
			TemplateName: "does_not_exist",
		}
		require.NoError(t, msg.Render())
		assert.False(t, msg.HasContent())
	})
}
