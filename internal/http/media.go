package httpapp

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/alphabot-ai/boxshare/internal/model"
	"github.com/alphabot-ai/boxshare/internal/store"
)

const sniffLen = 512

// Audio formats the content sniffer reports as generic data or as mp4.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".aac":  true,
	".m4a":  true,
	".flac": true,
}

// checkMedia sniffs the head of an uploaded file and rejects content that
// does not belong to the box type's media family. The file is rewound on
// success. Code boxes accept any file.
func checkMedia(boxType model.BoxType, fileName string, file io.ReadSeeker) error {
	if boxType != model.TypeImage && boxType != model.TypeAudio {
		return nil
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	detected := http.DetectContentType(head[:n])
	if !mediaMatches(boxType, detected, fileName) {
		return &store.ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("content %q does not match type %s", detected, boxType),
		}
	}
	return nil
}

func mediaMatches(boxType model.BoxType, detected, fileName string) bool {
	switch boxType {
	case model.TypeImage:
		return strings.HasPrefix(detected, "image/")
	case model.TypeAudio:
		if strings.HasPrefix(detected, "audio/") || detected == "application/ogg" {
			return true
		}
		ext := strings.ToLower(path.Ext(fileName))
		return audioExtensions[ext] && (detected == "application/octet-stream" || detected == "video/mp4")
	}
	return false
}

// inlineSafe reports whether an asset may render in the browser on this
// origin. SVG is an image type that can carry script.
func inlineSafe(contentType string) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "audio/")
}
