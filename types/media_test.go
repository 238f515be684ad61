package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFileReference(t *testing.T) {
	ref := NewFileReference(MediaImage, "images/pic.png")
	assert.Equal(t, MediaImage, ref.Kind)
	assert.Equal(t, SourceFile, ref.Source.Kind)
	assert.Equal(t, "images/pic.png", ref.Source.Path)
	assert.Empty(t, ref.Format)
}

func TestDetailOrDefault(t *testing.T) {
	ref := NewFileReference(MediaImage, "pic.png")
	assert.Equal(t, DetailAuto, ref.DetailOrDefault())

	ref = ref.WithDetail(DetailLow)
	assert.Equal(t, DetailLow, ref.DetailOrDefault())
}

func TestWithFormatIsNonMutating(t *testing.T) {
	base := NewFileReference(MediaAudio, "a.mp3")
	withFmt := base.WithFormat("mp3")
	assert.Empty(t, base.Format)
	assert.Equal(t, "mp3", withFmt.Format)
}

func TestContentItemIsMedia(t *testing.T) {
	assert.False(t, NewTextItem("hello").IsMedia())

	item := NewMediaItem(NewFileReference(MediaVideo, "clip.mp4").WithFormat("mp4"))
	assert.True(t, item.IsMedia())
	assert.Equal(t, ContentVideo, item.Type)
}
