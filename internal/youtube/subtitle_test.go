package youtube

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenSrv1StripsTagsAndEntities(t *testing.T) {
	data := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
<text start="0" dur="2.5">hello &amp; welcome</text>
<text start="2.5" dur="3">to the course</text>
</transcript>`
	require.Equal(t, "hello & welcome to the course", Flatten("srv1", data))
}

func TestFlattenTTML(t *testing.T) {
	data := `<tt><body><div>
<p begin="00:00:00.000" end="00:00:02.000">first line</p>
<p begin="00:00:02.000" end="00:00:04.000">second line</p>
</div></body></tt>`
	require.Equal(t, "first line second line", Flatten("ttml", data))
}

func TestFlattenVTTSkipsHeadersAndCues(t *testing.T) {
	data := `WEBVTT
Kind: captions
Language: en

1
00:00:00.000 --> 00:00:02.000
hello there

2
00:00:02.000 --> 00:00:04.000
<c>general kenobi</c>`
	require.Equal(t, "hello there general kenobi", Flatten("vtt", data))
}

func TestFlattenVTTDedupesRollingCaptions(t *testing.T) {
	data := `WEBVTT

00:00:00.000 --> 00:00:02.000
line one

00:00:02.000 --> 00:00:04.000
line one

00:00:04.000 --> 00:00:06.000
line two`
	require.Equal(t, "line one line two", Flatten("vtt", data))
}

func TestFlattenEmptyInput(t *testing.T) {
	require.Equal(t, "", Flatten("vtt", ""))
	require.Equal(t, "", Flatten("srv1", ""))
}

func TestSelectTrackPrefersManualOverAutomatic(t *testing.T) {
	info := &videoInfo{
		Subtitles: map[string][]subtitleTrack{
			"en": {{Ext: "vtt", URL: "http://example.com/manual.vtt"}},
		},
		AutomaticCaptions: map[string][]subtitleTrack{
			"en": {{Ext: "vtt", URL: "http://example.com/auto.vtt"}},
		},
	}
	track, err := selectTrack(info, []string{"en"}, []string{"srv1", "vtt"})
	require.NoError(t, err)
	require.Equal(t, "http://example.com/manual.vtt", track.URL)
}

func TestSelectTrackFallsBackToLanguageVariant(t *testing.T) {
	info := &videoInfo{
		AutomaticCaptions: map[string][]subtitleTrack{
			"en-orig": {{Ext: "vtt", URL: "http://example.com/en-orig.vtt"}},
		},
	}
	track, err := selectTrack(info, []string{"en"}, []string{"vtt"})
	require.NoError(t, err)
	require.Equal(t, "http://example.com/en-orig.vtt", track.URL)
}

func TestSelectTrackHonorsLanguageOrder(t *testing.T) {
	info := &videoInfo{
		Subtitles: map[string][]subtitleTrack{
			"en": {{Ext: "vtt", URL: "http://example.com/en.vtt"}},
			"id": {{Ext: "vtt", URL: "http://example.com/id.vtt"}},
		},
	}
	track, err := selectTrack(info, []string{"id", "en"}, []string{"vtt"})
	require.NoError(t, err)
	require.Equal(t, "http://example.com/id.vtt", track.URL)
}

func TestSelectTrackNoSupportedFormat(t *testing.T) {
	info := &videoInfo{
		Subtitles: map[string][]subtitleTrack{
			"en": {{Ext: "json3", URL: "http://example.com/en.json3"}},
		},
	}
	_, err := selectTrack(info, []string{"en"}, []string{"srv1", "vtt", "ttml"})
	require.Error(t, err)
}
