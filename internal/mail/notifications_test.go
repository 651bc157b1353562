package mail_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/velora-dev/backend-velora/internal/mail"
	"github.com/velora-dev/backend-velora/internal/repo"
)

func testLead() repo.Lead {
	return repo.Lead{
		ID:           "a4f0c3a2-5dc8-4f6d-9b7e-000000000001",
		TenantID:     1,
		FullName:     "Dana Reyes",
		Email:        "dana@client.dev",
		BusinessName: "Reyes Consulting",
		Service:      "website",
		BudgetRange:  "$2k-$5k",
	}
}

func brandedStore() stubStore {
	return stubStore{
		names: map[int64]string{1: "Acme Studio"},
		configs: map[int64]json.RawMessage{1: json.RawMessage(`{
			"branding": {
				"logoUrl": "https://cdn.acme.dev/logo.png",
				"primaryColor": "#112233",
				"contactEmail": "hello@acme.dev",
				"adminEmail": "owner@acme.dev",
				"address": "1 Main St, Springfield"
			}
		}`)},
	}
}

func newNotifier(t *testing.T, store mail.TenantStore, channel mail.Transport) *mail.Notifier {
	t.Helper()
	renderer, err := mail.NewRenderer()
	require.NoError(t, err)
	return &mail.Notifier{
		Store:            store,
		Channel:          channel,
		Renderer:         renderer,
		FromEmail:        "notifications@velora.dev",
		FromName:         "Velora",
		ReplyTo:          "support@velora.dev",
		DashboardBaseURL: "https://app.velora.dev",
		Log:              zerolog.Nop(),
	}
}

func TestSendLeadNotificationsDeliversBoth(t *testing.T) {
	t.Parallel()

	channel := &recordingTransport{}
	n := newNotifier(t, brandedStore(), channel)

	n.SendLeadNotifications(context.Background(), testLead())

	sent := channel.envelopes()
	require.Len(t, sent, 2)

	byRecipient := map[string]mail.Envelope{}
	for _, env := range sent {
		byRecipient[env.Recipients()] = env
	}

	admin, ok := byRecipient["owner@acme.dev"]
	require.True(t, ok, "admin notification should target the configured admin address")
	require.Contains(t, admin.Subject, "Dana Reyes")
	require.Contains(t, admin.HTML, "Dana Reyes")
	require.Contains(t, admin.HTML, "https://app.velora.dev/leads/a4f0c3a2-5dc8-4f6d-9b7e-000000000001")
	require.Equal(t, "Velora <notifications@velora.dev>", admin.From)

	client, ok := byRecipient["dana@client.dev"]
	require.True(t, ok, "client confirmation should target the lead's address")
	require.Contains(t, client.Subject, "Dana Reyes")
	require.Contains(t, client.HTML, "Acme Studio")
	require.Equal(t, "support@velora.dev", client.ReplyTo)
}

func TestSendLeadNotificationsSurvivesSendFailures(t *testing.T) {
	t.Parallel()

	channel := &recordingTransport{sendErr: errBoom}
	n := newNotifier(t, brandedStore(), channel)

	// Must settle without panicking even when both sends fail.
	n.SendLeadNotifications(context.Background(), testLead())
	require.Empty(t, channel.envelopes())
}

func TestSendLeadNotificationsSurvivesMissingTenant(t *testing.T) {
	t.Parallel()

	channel := &recordingTransport{}
	n := newNotifier(t, stubStore{}, channel)

	n.SendLeadNotifications(context.Background(), testLead())
	require.Empty(t, channel.envelopes())
}

func TestAdminRecipientFallbacks(t *testing.T) {
	t.Parallel()

	channel := &recordingTransport{}
	store := stubStore{
		names: map[int64]string{1: "Acme Studio"},
		configs: map[int64]json.RawMessage{
			1: json.RawMessage(`{"branding": {"contactEmail": "hello@acme.dev"}}`),
		},
	}
	n := newNotifier(t, store, channel)

	n.NotifyAdminOfLead(context.Background(), testLead())

	sent := channel.envelopes()
	require.Len(t, sent, 1)
	require.Equal(t, "hello@acme.dev", sent[0].Recipients())
}

func TestClientNotificationUsesFixedSenderIdentity(t *testing.T) {
	t.Parallel()

	channel := &recordingTransport{}
	n := newNotifier(t, brandedStore(), channel)

	n.NotifyClientOfLead(context.Background(), testLead())

	sent := channel.envelopes()
	require.Len(t, sent, 1)
	require.Equal(t, "Velora <notifications@velora.dev>", sent[0].From)
	require.Equal(t, "dana@client.dev", sent[0].Recipients())
}
