package evallog

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/BaSui01/evalflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleResolved() []types.ResolvedContent {
	imageRef := types.NewFileReference(types.MediaImage, "pic.png")
	audioRef := types.NewFileReference(types.MediaAudio, "clip.mp3").WithFormat("mp3")

	return []types.ResolvedContent{
		{Item: types.NewTextItem("describe")},
		{
			Item: types.NewMediaItem(imageRef),
			Media: &types.ResolvedMedia{
				Kind: types.MediaImage, Bytes: []byte("png-bytes"),
				MimeType: "image/png", SizeBytes: 9, Origin: "pic.png",
			},
		},
		{
			Item: types.NewMediaItem(audioRef),
			Media: &types.ResolvedMedia{
				Kind: types.MediaAudio, RemoteURL: "https://files.example/abc",
				MimeType: "audio/mp3", SizeBytes: 1024, Origin: "clip.mp3",
			},
		},
	}
}

func TestRedactorIncludesMediaByDefault(t *testing.T) {
	r := NewRedactor(true, nil, zap.NewNop())
	logged := r.Redact(sampleResolved())
	require.Len(t, logged, 3)

	assert.Equal(t, "describe", logged[0].Text)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), logged[1].Data)
	assert.Empty(t, logged[1].Placeholder)
	assert.Equal(t, "https://files.example/abc", logged[2].Data)
}

// 脱敏开启时持久化形态中不得出现任何 base64 载荷。
func TestRedactorDisabledMediaLogging(t *testing.T) {
	r := NewRedactor(false, nil, zap.NewNop())
	logged := r.Redact(sampleResolved())
	require.Len(t, logged, 3)

	assert.Equal(t, "describe", logged[0].Text)

	assert.Empty(t, logged[1].Data)
	assert.Equal(t, "pic.png", logged[1].Placeholder)
	assert.Equal(t, "image/png", logged[1].MimeType)
	assert.Equal(t, int64(9), logged[1].SizeBytes)

	assert.Empty(t, logged[2].Data)
	assert.Equal(t, "clip.mp3", logged[2].Placeholder)

	encoded, err := json.Marshal(logged)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded),
		base64.StdEncoding.EncodeToString([]byte("png-bytes")))
}

func TestRedactorPreservesOrder(t *testing.T) {
	r := NewRedactor(false, nil, zap.NewNop())
	logged := r.Redact(sampleResolved())

	got := make([]string, 0, len(logged))
	for _, item := range logged {
		got = append(got, item.Type)
	}
	assert.Equal(t, "text,image,audio", strings.Join(got, ","))
}

func TestPlaceholderFallbacks(t *testing.T) {
	assert.Equal(t, "pic.png", placeholderFor(&types.ResolvedMedia{Origin: "pic.png"}))
	assert.Equal(t, "https://x/y", placeholderFor(&types.ResolvedMedia{RemoteURL: "https://x/y"}))
	assert.Equal(t, "media", placeholderFor(&types.ResolvedMedia{}))
}

func TestRedactorPolicyReadOnce(t *testing.T) {
	r := NewRedactor(true, nil, zap.NewNop())
	assert.True(t, r.IncludeMedia())

	r = NewRedactor(false, nil, zap.NewNop())
	assert.False(t, r.IncludeMedia())
}
