// Package renderer turns change records into Slack-formatted notification payloads.
package renderer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Houeta/heidi/internal/lib/markup"
	"github.com/Houeta/heidi/internal/lib/prices"
	"github.com/Houeta/heidi/internal/models"
)

const (
	// DescriptionLimit bounds description excerpts in update notifications.
	DescriptionLimit = 500
	// NameLimit bounds names in update notifications.
	NameLimit = 120
	// SectionDescriptionLimit keeps a new entry's description inside Slack's section text limit.
	SectionDescriptionLimit = 2500

	// Ellipsis marks a truncated value.
	Ellipsis = "…"
	// None stands in for an absent value.
	None = "_None_"

	noDescription = "_No description provided, it's a mystery!_"
	unlimited     = "Unlimited"
	channelAlert  = "<!channel> "
)

// ErrUnknownRecord is returned for a change record variant the renderer does not know.
var ErrUnknownRecord = errors.New("unknown change record")

// Renderer builds notification payloads.
type Renderer struct {
	shopURL        string
	mentionChannel bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithChannelMention toggles the @channel alert at the top of every notification.
func WithChannelMention(enabled bool) Option {
	return func(r *Renderer) { r.mentionChannel = enabled }
}

// New creates a Renderer building purchase links under shopURL.
func New(shopURL string, opts ...Option) *Renderer {
	r := &Renderer{shopURL: strings.TrimRight(shopURL, "/"), mentionChannel: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render maps a change record to a notification payload.
func (r *Renderer) Render(record models.ChangeRecord) (models.NotificationPayload, error) {
	switch rec := record.(type) {
	case models.NewEntry:
		return r.renderNew(rec), nil
	case models.UpdatedEntry:
		return r.renderUpdated(rec), nil
	default:
		return models.NotificationPayload{}, fmt.Errorf("renderer.Render: %w: %T", ErrUnknownRecord, record)
	}
}

// BuyLink returns the purchase URL for an entry.
func (r *Renderer) BuyLink(id models.EntryID) string {
	query := url.Values{"shop_item_id": []string{string(id)}}
	return r.shopURL + "/order?" + query.Encode()
}

func (r *Renderer) renderNew(rec models.NewEntry) models.NotificationPayload {
	e := rec.Entry

	description := noDescription
	if e.Description != "" {
		description = markup.Translate(Truncate(e.Description, SectionDescriptionLimit))
	}

	header := fmt.Sprintf(
		"%s*Ooooh lookie here!* Heidi just spotted something new on the menu! :ultrafastparrot: :flavortown: :yay:\n\n*%s*\n> %s",
		r.alert(), e.Name, description,
	)

	blocks := []models.Block{
		models.TextBlock{Markup: header},
		models.TextBlock{Markup: "*Prices:*\n" + prices.Format(e.Prices)},
		models.TextBlock{Markup: "*Stock:* " + stockLabel(e.Stock) + " left!"},
	}
	if e.ImageURL != "" {
		blocks = append(blocks, models.ImageBlock{URL: e.ImageURL, AltText: e.Name})
	}

	link := r.BuyLink(e.ID)
	blocks = append(blocks, callToAction(link))

	return models.NotificationPayload{
		Summary: fmt.Sprintf("Heidi found a new item: %s!", e.Name),
		Blocks:  blocks,
		LinkURL: link,
	}
}

func (r *Renderer) renderUpdated(rec models.UpdatedEntry) models.NotificationPayload {
	prev, cur := rec.Previous, rec.Current

	var details strings.Builder
	for _, field := range rec.Changed.Fields() {
		switch field {
		case models.FieldPrice:
			fmt.Fprintf(&details, "*Prices changed:*\n*Before:*\n%s\n*Now:*\n%s\n",
				prices.Format(prev.Prices), prices.Format(cur.Prices))
		case models.FieldStock:
			fmt.Fprintf(&details, "*Stock changed:* %s -> %s left!\n", stockLabel(prev.Stock), stockLabel(cur.Stock))
		case models.FieldDescription:
			fmt.Fprintf(&details, "*Description changed:*\n*Before:*\n%s\n*Now:*\n%s\n",
				excerpt(prev.Description), excerpt(cur.Description))
		case models.FieldLongDescription:
			fmt.Fprintf(&details, "*Long description changed:*\n*Before:*\n%s\n*Now:*\n%s\n",
				excerpt(prev.LongDescription), excerpt(cur.LongDescription))
		case models.FieldName:
			fmt.Fprintf(&details, "*Name changed:* %s -> %s\n",
				Truncate(prev.Name, NameLimit), Truncate(cur.Name, NameLimit))
		case models.FieldImage:
			details.WriteString("*Image updated.*\n")
		}
	}

	header := fmt.Sprintf("%s*Heads up!* Heidi noticed some changes for *%s*! :huh:\n\n%s",
		r.alert(), cur.Name, details.String())

	blocks := []models.Block{
		models.TextBlock{Markup: header},
		models.TextBlock{Markup: "*Current Prices:*\n" + prices.Format(cur.Prices)},
	}
	if rec.Changed.Has(models.FieldImage) && cur.ImageURL != "" {
		blocks = append(blocks, models.ImageBlock{URL: cur.ImageURL, AltText: cur.Name})
	}

	link := r.BuyLink(cur.ID)
	blocks = append(blocks, callToAction(link))

	return models.NotificationPayload{
		Summary: fmt.Sprintf("Heidi noticed a change for %s!", cur.Name),
		Blocks:  blocks,
		LinkURL: link,
	}
}

func (r *Renderer) alert() string {
	if r.mentionChannel {
		return channelAlert
	}
	return ""
}

// Truncate cuts text longer than limit runes and appends an ellipsis.
// Absent text is shown as a placeholder.
func Truncate(text string, limit int) string {
	if text == "" {
		return None
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + Ellipsis
}

// excerpt truncates before translating, so markup may be cut mid-token.
func excerpt(text string) string {
	return markup.Translate(Truncate(text, DescriptionLimit))
}

func stockLabel(stock *int) string {
	if stock == nil {
		return unlimited
	}
	return strconv.Itoa(*stock)
}

func callToAction(link string) models.TextBlock {
	return models.TextBlock{Markup: "*<" + link + "|Buy now!>*"}
}
