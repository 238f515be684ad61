package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/BaSui01/evalflow/capability"
	"github.com/BaSui01/evalflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// 性质：对任意文本与媒体的交错序列，组装产物的部件顺序与输入
// 条目顺序完全一致。
func TestOrderingPreservedProperty(t *testing.T) {
	registry := capability.NewRegistry(nil, zap.NewNop())
	d := NewDispatcher(registry, nil, zap.NewNop())

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")

		items := make([]types.ContentItem, 0, n)
		kinds := make([]string, 0, n)
		for i := 0; i < n; i++ {
			if rapid.Bool().Draw(t, fmt.Sprintf("isText%d", i)) {
				items = append(items, types.NewTextItem(fmt.Sprintf("text-%d", i)))
				kinds = append(kinds, "text")
			} else {
				payload := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("img-%d", i)))
				ref := types.NewInlineReference(types.MediaImage, payload, "image/png")
				items = append(items, types.NewMediaItem(ref))
				kinds = append(kinds, "image")
			}
		}

		payload, resolved, err := d.Dispatch(context.Background(), &Request{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Items:    items,
		})
		require.NoError(t, err)
		require.Len(t, payload.Parts, n)
		require.Len(t, resolved, n)

		for i := 0; i < n; i++ {
			switch kinds[i] {
			case "text":
				require.Equal(t, fmt.Sprintf("text-%d", i), payload.Parts[i]["text"])
			case "image":
				require.Equal(t, "image_url", payload.Parts[i]["type"])
				imageURL := payload.Parts[i]["image_url"].(map[string]any)
				wantData := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("img-%d", i)))
				require.Contains(t, imageURL["url"], wantData)
			}
			require.Equal(t, items[i].Type, resolved[i].Item.Type)
		}
	})
}

func TestMarshalParts(t *testing.T) {
	p := &Payload{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		Parts: []map[string]any{
			{"type": "text", "text": "hi"},
		},
	}

	data, err := p.MarshalParts()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"text","text":"hi"}]`, string(data))
}

func TestBuildPartUnknownProvider(t *testing.T) {
	ref := types.NewInlineReference(types.MediaImage, base64.StdEncoding.EncodeToString([]byte("x")), "image/png")
	rc := &types.ResolvedContent{
		Item:  types.NewMediaItem(ref),
		Media: &types.ResolvedMedia{Kind: types.MediaImage, Bytes: []byte("x"), MimeType: "image/png"},
	}

	_, err := buildPart("mistral", rc, false)
	assert.ErrorContains(t, err, "no payload builder")
}

func TestAnthropicURLSource(t *testing.T) {
	ref := types.NewUploadedReference(types.MediaImage, "https://img.example/a.png")
	rc := &types.ResolvedContent{
		Item:  types.NewMediaItem(ref),
		Media: &types.ResolvedMedia{Kind: types.MediaImage, RemoteURL: "https://img.example/a.png", MimeType: "image/png"},
	}

	part, err := anthropicMediaPart(rc)
	require.NoError(t, err)
	source := part["source"].(map[string]any)
	assert.Equal(t, "url", source["type"])
	assert.Equal(t, "https://img.example/a.png", source["url"])
}

func TestOpenAIAudioPart(t *testing.T) {
	ref := types.NewFileReference(types.MediaAudio, "clip.mp3").WithFormat("mp3")
	rc := &types.ResolvedContent{
		Item:  types.NewMediaItem(ref),
		Media: &types.ResolvedMedia{Kind: types.MediaAudio, Bytes: []byte("mp3-bytes"), MimeType: "audio/mp3"},
	}

	part, err := openAIMediaPart(rc, false)
	require.NoError(t, err)
	assert.Equal(t, "input_audio", part["type"])

	audio := part["input_audio"].(map[string]any)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3-bytes")), audio["data"])
	assert.Equal(t, "mp3", audio["format"])
}
