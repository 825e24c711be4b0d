package renderer_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/services/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopURL = "https://flavortown.example/shop/"

func intPtr(v int) *int { return &v }

func textBlocks(t *testing.T, payload models.NotificationPayload) []string {
	t.Helper()

	var out []string
	for _, b := range payload.Blocks {
		if tb, ok := b.(models.TextBlock); ok {
			out = append(out, tb.Markup)
		}
	}
	return out
}

type unknownRecord struct{ models.NewEntry }

func TestRender_NewEntry(t *testing.T) {
	r := renderer.New(shopURL)
	entry := models.CatalogEntry{
		ID:          "42",
		Name:        "Raspberry Pi 5",
		Description: "**fast** and *small*",
		Prices:      models.PriceTable{{Region: "base_cost", Cost: 5}, {Region: "us", Cost: 5}, {Region: "eu", Cost: 7}},
		Stock:       intPtr(3),
		ImageURL:    "https://img/pi.png",
	}

	payload, err := r.Render(models.NewEntry{Entry: entry})

	require.NoError(t, err)
	assert.Equal(t, "Heidi found a new item: Raspberry Pi 5!", payload.Summary)
	assert.Equal(t, "https://flavortown.example/shop/order?shop_item_id=42", payload.LinkURL)
	require.Len(t, payload.Blocks, 5)

	texts := textBlocks(t, payload)
	assert.True(t, strings.HasPrefix(texts[0], "<!channel> "))
	assert.Contains(t, texts[0], "*Raspberry Pi 5*")
	assert.Contains(t, texts[0], "> *fast* and _small_")
	assert.Equal(t, "*Prices:*\n:flag-us:: 5 :ft-cookie:\n:flag-eu:: 7 :ft-cookie:", texts[1])
	assert.Equal(t, "*Stock:* 3 left!", texts[2])
	assert.Equal(t, models.ImageBlock{URL: "https://img/pi.png", AltText: "Raspberry Pi 5"}, payload.Blocks[3])
	assert.Equal(t, "*<https://flavortown.example/shop/order?shop_item_id=42|Buy now!>*", texts[3])
}

func TestRender_NewEntry_Fallbacks(t *testing.T) {
	r := renderer.New(shopURL, renderer.WithChannelMention(false))

	payload, err := r.Render(models.NewEntry{Entry: models.CatalogEntry{ID: "7", Name: "Mystery"}})

	require.NoError(t, err)
	require.Len(t, payload.Blocks, 4, "no image block without an image url")
	texts := textBlocks(t, payload)
	assert.False(t, strings.Contains(texts[0], "<!channel>"))
	assert.Contains(t, texts[0], "No description provided")
	assert.Equal(t, "*Prices:*\nUnknown", texts[1])
	assert.Equal(t, "*Stock:* Unlimited left!", texts[2])
	_, hasImage := payload.Image()
	assert.False(t, hasImage)
}

func TestRender_NewEntry_LongDescriptionFitsSection(t *testing.T) {
	r := renderer.New(shopURL)
	entry := models.CatalogEntry{ID: "9", Name: "Novel", Description: strings.Repeat("word ", 2000)}

	payload, err := r.Render(models.NewEntry{Entry: entry})

	require.NoError(t, err)
	header := textBlocks(t, payload)[0]
	assert.LessOrEqual(t, utf8.RuneCountInString(header), 3000)
	assert.Contains(t, header, "…")
}

func TestRender_UpdatedEntry_FieldOrder(t *testing.T) {
	r := renderer.New(shopURL)
	prev := models.CatalogEntry{
		ID:          "9",
		Name:        "Old Mug",
		Description: "plain",
		Prices:      models.PriceTable{{Region: "us", Cost: 5}},
		Stock:       intPtr(4),
		ImageURL:    "https://img/old.png",
	}
	cur := prev
	cur.Name = "New Mug"
	cur.Description = "**shiny**"
	cur.Prices = models.PriceTable{{Region: "us", Cost: 6}}
	cur.Stock = nil
	cur.ImageURL = "https://img/new.png"

	payload, err := r.Render(models.UpdatedEntry{
		Previous: prev,
		Current:  cur,
		Changed: models.NewFieldSet(
			models.FieldImage, models.FieldName, models.FieldDescription, models.FieldStock, models.FieldPrice,
		),
	})

	require.NoError(t, err)
	assert.Equal(t, "Heidi noticed a change for New Mug!", payload.Summary)
	require.Len(t, payload.Blocks, 4)

	header := textBlocks(t, payload)[0]
	order := []string{"*Prices changed:*", "*Stock changed:* 4 -> Unlimited left!", "*Description changed:*", "*Name changed:* Old Mug -> New Mug", "*Image updated.*"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(header, marker)
		require.NotEqual(t, -1, idx, "missing %q in %q", marker, header)
		assert.Greater(t, idx, last, "%q is out of order", marker)
		last = idx
	}
	assert.NotContains(t, header, "Long description")
	assert.Contains(t, header, "*Now:*\n*shiny*")

	assert.Equal(t, "*Current Prices:*\n6 :ft-cookie:", textBlocks(t, payload)[1])
	assert.Equal(t, models.ImageBlock{URL: "https://img/new.png", AltText: "New Mug"}, payload.Blocks[2])
	assert.Equal(t, "*<https://flavortown.example/shop/order?shop_item_id=9|Buy now!>*", textBlocks(t, payload)[2])
}

func TestRender_UpdatedEntry_NoImageUnlessChanged(t *testing.T) {
	r := renderer.New(shopURL)
	prev := models.CatalogEntry{ID: "9", Name: "Mug", Stock: intPtr(1), ImageURL: "https://img/mug.png"}
	cur := prev
	cur.Stock = intPtr(0)

	payload, err := r.Render(models.UpdatedEntry{Previous: prev, Current: cur, Changed: models.NewFieldSet(models.FieldStock)})

	require.NoError(t, err)
	_, hasImage := payload.Image()
	assert.False(t, hasImage)
	header := textBlocks(t, payload)[0]
	assert.Contains(t, header, "*Stock changed:* 1 -> 0 left!")
	assert.NotContains(t, header, "Prices changed")
}

func TestRender_UpdatedEntry_TruncatesBeforeTranslating(t *testing.T) {
	r := renderer.New(shopURL)
	long := strings.Repeat("a", renderer.DescriptionLimit) + "**bold**"
	prev := models.CatalogEntry{ID: "1", Name: "Pi"}
	cur := prev
	cur.LongDescription = long

	payload, err := r.Render(models.UpdatedEntry{
		Previous: prev, Current: cur, Changed: models.NewFieldSet(models.FieldLongDescription),
	})

	require.NoError(t, err)
	header := textBlocks(t, payload)[0]
	assert.Contains(t, header, "*Before:*\n_None_\n")
	assert.Contains(t, header, strings.Repeat("a", renderer.DescriptionLimit)+"…")
	assert.NotContains(t, header, "bold")
}

func TestRender_UnknownRecord(t *testing.T) {
	_, err := renderer.New(shopURL).Render(unknownRecord{})

	require.ErrorIs(t, err, renderer.ErrUnknownRecord)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("é", renderer.DescriptionLimit)
	over := exact + "x"

	assert.Equal(t, exact, renderer.Truncate(exact, renderer.DescriptionLimit))

	cut := renderer.Truncate(over, renderer.DescriptionLimit)
	assert.True(t, strings.HasSuffix(cut, "…"))
	assert.Equal(t, exact+"…", cut)

	assert.Equal(t, "_None_", renderer.Truncate("", renderer.NameLimit))
}

func TestBuyLink_EscapesID(t *testing.T) {
	r := renderer.New("https://shop.example")

	assert.Equal(t, "https://shop.example/order?shop_item_id=a+b%26c", r.BuyLink("a b&c"))
}
