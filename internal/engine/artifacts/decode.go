package artifacts

import "strings"

// Positional layout of a raw studio artifact.
const (
	rawAudioIndex       = 6 // audio metadata; media list at [5]
	rawAudioMediaIndex  = 5
	rawVideoIndex       = 8 // video metadata; one sub-list holds the url set
	rawSlidesIndex      = 16
	rawSlidesPDFIndex   = 3
	mimeAudioMP4        = "audio/mp4"
	mimeVideoMP4        = "video/mp4"
	mediaURLField       = 0
	mediaMIMEField      = 2
	infographicContent  = 2
	infographicURLField = 1
)

// DecodeURL extracts the direct download URL for an artifact of the given
// kind from its raw payload. It never fails: an unexpected shape means the
// URL is simply not available.
func DecodeURL(kind Kind, payload Value) (string, bool) {
	switch kind {
	case KindAudio:
		return decodeAudioURL(payload)
	case KindVideo:
		return decodeVideoURL(payload)
	case KindInfographic:
		return decodeInfographicURL(payload)
	case KindSlides:
		return decodeSlidesURL(payload)
	default:
		return "", false
	}
}

func decodeAudioURL(payload Value) (string, bool) {
	media := payload.Path(rawAudioIndex, rawAudioMediaIndex)
	return pickMedia(media, mimeAudioMP4)
}

func decodeVideoURL(payload Value) (string, bool) {
	groups, ok := payload.At(rawVideoIndex).Items()
	if !ok {
		return "", false
	}
	for _, g := range groups {
		// The url set is the sub-list whose first entry is itself a media
		// entry starting with an http(s) url.
		if g.Path(0, mediaURLField).IsHTTP() {
			return pickMedia(g, mimeVideoMP4)
		}
	}
	return "", false
}

// pickMedia returns the url of the first entry declaring mime, falling back
// to the first entry's url.
func pickMedia(media Value, mime string) (string, bool) {
	entries, ok := media.Items()
	if !ok || len(entries) == 0 {
		return "", false
	}
	for _, e := range entries {
		if m, ok := e.StrAt(mediaMIMEField); ok && m == mime {
			if u, ok := e.StrAt(mediaURLField); ok && u != "" {
				return u, true
			}
		}
	}
	if u, ok := entries[0].StrAt(mediaURLField); ok && u != "" {
		return u, true
	}
	return "", false
}

func decodeInfographicURL(payload Value) (string, bool) {
	items, ok := payload.Items()
	if !ok {
		return "", false
	}
	for i := len(items) - 1; i >= 0; i-- {
		content := items[i].At(infographicContent)
		if content.Len() == 0 {
			continue
		}
		first := content.At(0)
		if first.Len() < 2 {
			continue
		}
		urls := first.At(infographicURLField)
		if urls.At(0).IsHTTP() {
			u, _ := urls.At(0).Str()
			return u, true
		}
	}
	return "", false
}

func decodeSlidesURL(payload Value) (string, bool) {
	u, ok := payload.StrAt(rawSlidesIndex, rawSlidesPDFIndex)
	if !ok || !strings.HasPrefix(u, "http") {
		return "", false
	}
	return u, true
}
