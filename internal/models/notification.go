package models

// NotificationPayload is a rendered notification ready for dispatch.
type NotificationPayload struct {
	// Summary is the plain-text fallback shown where blocks are not rendered.
	Summary string
	Blocks  []Block
	// LinkURL is the purchase link also embedded in the blocks.
	LinkURL string
}

// Image returns the first image block, if any.
func (p NotificationPayload) Image() (ImageBlock, bool) {
	for _, b := range p.Blocks {
		if img, ok := b.(ImageBlock); ok {
			return img, true
		}
	}
	return ImageBlock{}, false
}

// Block is a display unit of a notification: TextBlock or ImageBlock.
type Block interface {
	isBlock()
}

// TextBlock holds mrkdwn-formatted text.
type TextBlock struct {
	Markup string
}

// ImageBlock displays an image by URL.
type ImageBlock struct {
	URL     string
	AltText string
}

func (TextBlock) isBlock()  {}
func (ImageBlock) isBlock() {}
