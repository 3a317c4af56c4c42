package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// padded returns a list of n nulls with the given positions filled.
func padded(n int, at map[int]Value) Value {
	items := make([]Value, n)
	for i, v := range at {
		items[i] = v
	}
	return List(items...)
}

func TestDecodeSlides(t *testing.T) {
	meta := List(Null, Null, Null, String("https://example.com/deck.pdf"))

	t.Run("pdf at fixed offset", func(t *testing.T) {
		u, ok := DecodeURL(KindSlides, padded(17, map[int]Value{16: meta}))
		require.True(t, ok)
		assert.Equal(t, "https://example.com/deck.pdf", u)
	})

	t.Run("payload one element too short", func(t *testing.T) {
		_, ok := DecodeURL(KindSlides, padded(16, nil))
		assert.False(t, ok)
	})

	t.Run("metadata one field too short", func(t *testing.T) {
		_, ok := DecodeURL(KindSlides, padded(17, map[int]Value{16: List(Null, Null, Null)}))
		assert.False(t, ok)
	})

	t.Run("not a url", func(t *testing.T) {
		bad := List(Null, Null, Null, String("deck.pdf"))
		_, ok := DecodeURL(KindSlides, padded(17, map[int]Value{16: bad}))
		assert.False(t, ok)
	})
}

func audioPayload(media ...Value) Value {
	meta := padded(6, map[int]Value{5: List(media...)})
	return padded(7, map[int]Value{6: meta})
}

func TestDecodeAudio(t *testing.T) {
	t.Run("prefers audio/mp4 even when not first", func(t *testing.T) {
		p := audioPayload(
			List(String("https://cdn/a.m3u8"), Null, String("application/x-mpegurl")),
			List(String("https://cdn/a.mp4"), Null, String("audio/mp4")),
		)
		u, ok := DecodeURL(KindAudio, p)
		require.True(t, ok)
		assert.Equal(t, "https://cdn/a.mp4", u)
	})

	t.Run("falls back to first entry", func(t *testing.T) {
		p := audioPayload(
			List(String("https://cdn/first"), Null, String("audio/ogg")),
			List(String("https://cdn/second")),
		)
		u, ok := DecodeURL(KindAudio, p)
		require.True(t, ok)
		assert.Equal(t, "https://cdn/first", u)
	})

	t.Run("empty media list", func(t *testing.T) {
		_, ok := DecodeURL(KindAudio, audioPayload())
		assert.False(t, ok)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, ok := DecodeURL(KindAudio, padded(7, map[int]Value{6: String("nope")}))
		assert.False(t, ok)
	})
}

func TestDecodeVideo(t *testing.T) {
	urls := List(
		List(String("https://cdn/v.webm"), Null, String("video/webm")),
		List(String("https://cdn/v.mp4"), Null, String("video/mp4")),
	)
	meta := List(String("title"), List(Number(1), Number(2)), urls)

	u, ok := DecodeURL(KindVideo, padded(9, map[int]Value{8: meta}))
	require.True(t, ok)
	assert.Equal(t, "https://cdn/v.mp4", u)

	_, ok = DecodeURL(KindVideo, padded(9, map[int]Value{8: List(String("title"))}))
	assert.False(t, ok)
}

func TestDecodeInfographic(t *testing.T) {
	content := func(u string) Value {
		return List(Null, Null, List(List(Null, List(String(u)))))
	}

	t.Run("last matching item wins", func(t *testing.T) {
		p := List(String("id"), content("https://img/first.png"), Number(7), content("https://img/last.png"), Null)
		u, ok := DecodeURL(KindInfographic, p)
		require.True(t, ok)
		assert.Equal(t, "https://img/last.png", u)
	})

	t.Run("first sub-element needs two fields", func(t *testing.T) {
		p := List(List(Null, Null, List(List(List(String("https://img/x.png"))))))
		_, ok := DecodeURL(KindInfographic, p)
		assert.False(t, ok)
	})

	t.Run("non-list payload", func(t *testing.T) {
		_, ok := DecodeURL(KindInfographic, String("x"))
		assert.False(t, ok)
	})
}

func TestDecodeKindsWithoutURL(t *testing.T) {
	for _, k := range []Kind{KindReport, KindMindMap, KindQuiz, KindFlashcards, KindDataTable} {
		_, ok := DecodeURL(k, List(String("https://x")))
		assert.False(t, ok, k)
	}
}

func TestDecodeNeverPanicsOnNull(t *testing.T) {
	for _, k := range DefaultRegistry().Kinds() {
		assert.NotPanics(t, func() { DecodeURL(k, Null) })
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue([]byte(`["a", 3, [null, "b"], {"x": 1}, true]`))
	require.NoError(t, err)
	assert.Equal(t, 5, v.Len())

	s, ok := v.StrAt(0)
	assert.True(t, ok)
	assert.Equal(t, "a", s)

	n, ok := v.At(1).Number()
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	s, ok = v.StrAt(2, 1)
	assert.True(t, ok)
	assert.Equal(t, "b", s)

	assert.True(t, v.At(3).IsNull())
	assert.True(t, v.At(4).IsNull())
	assert.True(t, v.Path(2, 0, 5).IsNull())

	_, err = ParseValue([]byte(`[1,`))
	assert.Error(t, err)
}
