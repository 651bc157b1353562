package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/velora-dev/backend-velora/internal/obs"
	"github.com/velora-dev/backend-velora/internal/repo"
)

// Branding is the presentation section of a tenant's config blob, feeding
// the notification templates and the compliance footer.
type Branding struct {
	LogoURL      string `json:"logoUrl"`
	PrimaryColor string `json:"primaryColor"`
	AccentColor  string `json:"accentColor"`
	ContactEmail string `json:"contactEmail"`
	Address      string `json:"address"`
	AdminEmail   string `json:"adminEmail"`
	Timezone     string `json:"timezone"`
}

type brandingBlob struct {
	Branding Branding `json:"branding"`
}

// LeadNotificationContext is the flattened data handed to the notification
// templates. Built fresh per send, never cached.
type LeadNotificationContext struct {
	FullName         string
	Email            string
	BusinessName     string
	WhatsAppNumber   string
	Website          string
	Service          string
	CurrentSetup     string
	BudgetRange      string
	MostImportant    string
	Commitment       string
	BiggestPainPoint string

	TenantName   string
	LogoURL      string
	PrimaryColor string
	AccentColor  string
	ContactEmail string
	Address      string

	DashboardURL string
	SubmittedAt  string
	Year         int
}

// Notifier sends lead notifications over a fixed process-configured channel
// with a fixed sender identity, independent of the tenant's own provider
// settings. Every operation is best effort: failures are logged, never
// returned.
type Notifier struct {
	Store    TenantStore
	Channel  Transport
	Renderer *Renderer

	FromEmail        string
	FromName         string
	ReplyTo          string
	DashboardBaseURL string

	Log zerolog.Logger
}

// SendLeadNotifications fans out the admin and client notifications
// concurrently, waits for both regardless of individual failure, and logs
// the aggregate outcome. It never returns an error; lead persistence must
// not depend on notification delivery.
func (n *Notifier) SendLeadNotifications(ctx context.Context, lead repo.Lead) {
	var (
		wg        sync.WaitGroup
		adminErr  error
		clientErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		adminErr = n.notify(ctx, "admin", lead)
	}()
	go func() {
		defer wg.Done()
		clientErr = n.notify(ctx, "client", lead)
	}()
	wg.Wait()

	evt := n.Log.Info()
	if adminErr != nil || clientErr != nil {
		evt = n.Log.Warn().AnErr("admin_error", adminErr).AnErr("client_error", clientErr)
	}
	evt.
		Int64("tenant_id", lead.TenantID).
		Str("lead_id", lead.ID).
		Bool("admin_sent", adminErr == nil).
		Bool("client_sent", clientErr == nil).
		Msg("lead notifications settled")
}

// NotifyAdminOfLead sends the internal new-lead alert. Best effort.
func (n *Notifier) NotifyAdminOfLead(ctx context.Context, lead repo.Lead) {
	_ = n.notify(ctx, "admin", lead)
}

// NotifyClientOfLead sends the submitter's confirmation. Best effort.
func (n *Notifier) NotifyClientOfLead(ctx context.Context, lead repo.Lead) {
	_ = n.notify(ctx, "client", lead)
}

func (n *Notifier) notify(ctx context.Context, kind string, lead repo.Lead) error {
	err := n.send(ctx, kind, lead)
	if err != nil {
		n.Log.Warn().Err(err).
			Int64("tenant_id", lead.TenantID).
			Str("lead_id", lead.ID).
			Str("kind", kind).
			Msg("lead notification failed")
		countNotification(kind, "error")
		return err
	}
	countNotification(kind, "ok")
	return nil
}

func (n *Notifier) send(ctx context.Context, kind string, lead repo.Lead) error {
	name, raw, err := n.Store.TenantConfig(ctx, lead.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	data := n.buildContext(name, raw, lead)

	var (
		tmplName string
		to       string
		subject  string
	)
	switch kind {
	case "admin":
		tmplName = TemplateLeadAdmin
		to = n.adminRecipient(raw)
		subject = fmt.Sprintf("New lead: %s (%s)", lead.FullName, name)
	case "client":
		tmplName = TemplateLeadClient
		to = lead.Email
		subject = fmt.Sprintf("Thanks for reaching out, %s", lead.FullName)
	default:
		return fmt.Errorf("unknown notification kind %q", kind)
	}
	if to == "" {
		return fmt.Errorf("no recipient for %s notification", kind)
	}

	html, err := n.Renderer.Render(tmplName, data)
	if err != nil {
		return err
	}

	env := Envelope{
		From:    fmt.Sprintf("%s <%s>", n.FromName, n.FromEmail),
		ReplyTo: n.ReplyTo,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}
	if _, err := n.Channel.Send(ctx, env); err != nil {
		return err
	}
	return nil
}

func (n *Notifier) buildContext(tenantName string, raw json.RawMessage, lead repo.Lead) LeadNotificationContext {
	var blob brandingBlob
	if len(raw) > 0 {
		// Branding is optional; a malformed blob just leaves the fields blank.
		_ = json.Unmarshal(raw, &blob)
	}
	b := blob.Branding

	loc := time.UTC
	if b.Timezone != "" {
		if l, err := time.LoadLocation(b.Timezone); err == nil {
			loc = l
		}
	}
	submitted := lead.CreatedAt.In(loc)

	return LeadNotificationContext{
		FullName:         lead.FullName,
		Email:            lead.Email,
		BusinessName:     lead.BusinessName,
		WhatsAppNumber:   lead.WhatsAppNumber,
		Website:          lead.Website,
		Service:          lead.Service,
		CurrentSetup:     lead.CurrentSetup,
		BudgetRange:      lead.BudgetRange,
		MostImportant:    lead.MostImportant,
		Commitment:       lead.Commitment,
		BiggestPainPoint: lead.BiggestPainPoint,

		TenantName:   tenantName,
		LogoURL:      b.LogoURL,
		PrimaryColor: b.PrimaryColor,
		AccentColor:  b.AccentColor,
		ContactEmail: b.ContactEmail,
		Address:      b.Address,

		DashboardURL: fmt.Sprintf("%s/leads/%s", strings.TrimRight(n.DashboardBaseURL, "/"), lead.ID),
		SubmittedAt:  submitted.Format("Jan 2, 2006 at 3:04 PM MST"),
		Year:         submitted.Year(),
	}
}

// adminRecipient prefers the tenant's configured admin address, then its
// public contact address, then the fixed sender identity.
func (n *Notifier) adminRecipient(raw json.RawMessage) string {
	var blob brandingBlob
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &blob)
	}
	if blob.Branding.AdminEmail != "" {
		return blob.Branding.AdminEmail
	}
	if blob.Branding.ContactEmail != "" {
		return blob.Branding.ContactEmail
	}
	return n.FromEmail
}

func countNotification(kind, result string) {
	if obs.MailNotificationTotal == nil {
		return
	}
	obs.MailNotificationTotal.WithLabelValues(kind, result).Inc()
}
