package sefaria

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime"
	"net/url"
	"path"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

const (
	defaultImageMIME     = "image/jpeg"
	defaultImageFilename = "manuscript.jpg"

	resizeFactor      = 0.8
	maxResizeAttempts = 5
	jpegQuality       = 85
)

// ImageInfo describes a downloaded manuscript image.
type ImageInfo struct {
	Success      bool   `json:"success"`
	MIMEType     string `json:"mime_type"`
	Size         int    `json:"size"`
	OriginalSize int    `json:"original_size"`
	WasResized   bool   `json:"was_resized"`
	Filename     string `json:"filename"`
	Title        string `json:"title"`
	SourceURL    string `json:"source_url"`
}

// ManuscriptImage downloads the image at imageURL. Images larger than the
// client's image limit are scaled down, 0.8 of the previous size per
// attempt, until they fit. If they still do not fit after five attempts, or
// cannot be decoded, the original bytes are kept.
func (c *Client) ManuscriptImage(ctx context.Context, log api.LogSink, imageURL, title string) ([]byte, *ImageInfo, error) {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil, &api.InvalidArgumentsError{
			Tool:     "get_manuscript_image",
			Problems: []string{fmt.Sprintf("image_url must be an absolute http or https URL, got %q", imageURL)},
		}
	}

	log.Debug("Downloading manuscript image from %s", imageURL)
	resp, err := c.get(ctx, log, imageURL)
	if err != nil {
		return nil, nil, err
	}

	mimeType := imageMIMEType(resp.contentType)
	original := resp.body
	data := original
	resized := false

	if len(original) > c.maxImageBytes {
		log.Debug("Image size %d bytes exceeds limit of %d bytes, resizing", len(original), c.maxImageBytes)
		if smaller, newMIME, err := c.shrink(log, original, mimeType); err != nil {
			log.Warn("Keeping original image: %v", err)
		} else {
			data, mimeType, resized = smaller, newMIME, true
		}
	}

	filename := imageFilename(u)
	if title == "" {
		title = "Manuscript: " + filename
	}
	if resized {
		p := message.NewPrinter(language.English)
		title += p.Sprintf(" (resized from %d to %d bytes)", len(original), len(data))
	}

	return data, &ImageInfo{
		Success:      true,
		MIMEType:     mimeType,
		Size:         len(data),
		OriginalSize: len(original),
		WasResized:   resized,
		Filename:     filename,
		Title:        title,
		SourceURL:    imageURL,
	}, nil
}

// shrink scales the image down until its encoding fits the image limit. PNG stays
// PNG; everything else is re-encoded as JPEG.
func (c *Client) shrink(log api.LogSink, original []byte, mimeType string) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	outMIME := defaultImageMIME
	if mimeType == "image/png" {
		outMIME = "image/png"
	}

	bounds := src.Bounds()
	factor := resizeFactor
	for attempt := 1; attempt <= maxResizeAttempts; attempt++ {
		w := int(float64(bounds.Dx()) * factor)
		h := int(float64(bounds.Dy()) * factor)
		if w < 1 || h < 1 {
			break
		}

		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

		var buf bytes.Buffer
		if outMIME == "image/png" {
			err = png.Encode(&buf, dst)
		} else {
			err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode resized image: %w", err)
		}

		log.Debug("Resize attempt %d: %dx%d, size: %d bytes", attempt, w, h, buf.Len())
		if buf.Len() <= c.maxImageBytes {
			return buf.Bytes(), outMIME, nil
		}
		factor *= resizeFactor
	}

	return nil, "", fmt.Errorf("could not resize image below %d bytes after %d attempts", c.maxImageBytes, maxResizeAttempts)
}

// imageMIMEType returns the media type of an image response, defaulting to
// JPEG when the server does not say it is an image.
func imageMIMEType(contentType string) string {
	if contentType == "" {
		return defaultImageMIME
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return defaultImageMIME
	}
	return mediaType
}

func imageFilename(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || !strings.Contains(name, ".") {
		return defaultImageFilename
	}
	return name
}
