package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		filename string
		want     FileClass
	}{
		{"lecture.mp4", ClassVideo},
		{"lecture.MP4", ClassVideo},
		{"intro.webm", ClassVideo},
		{"clip.m4v", ClassVideo},
		{"notes.pdf", ClassDocument},
		{"slides.PPTX", ClassDocument},
		{"archive.zip", ClassDocument},
		{"worksheet.xlsx", ClassDocument},
		{"installer.exe", ClassIgnored},
		{"thumbs.db", ClassIgnored},
		{"noextension", ClassIgnored},
		{".hidden", ClassIgnored},
		{"weird.mp4.txt", ClassDocument},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.filename), "Classify(%q)", tc.filename)
	}
}

func TestFileClassString(t *testing.T) {
	assert.Equal(t, "video", ClassVideo.String())
	assert.Equal(t, "document", ClassDocument.String())
	assert.Equal(t, "ignored", ClassIgnored.String())
}
