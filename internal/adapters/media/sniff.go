package media

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

const sniffLen = 512

// Sniff determines the content type of r from its first 512 bytes. The
// declared type is used only when sniffing does not find an image or video
// type and the declared one is a non-scriptable one. The returned reader
// replays the peeked bytes.
func Sniff(r io.Reader, declared string) (string, io.Reader, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	buf = buf[:n]
	replay := io.MultiReader(bytes.NewReader(buf), r)

	detected := http.DetectContentType(buf)
	if isMedia(detected) {
		return baseType(detected), replay, nil
	}
	if d := baseType(declared); isMedia(d) && !Scriptable(d) {
		return d, replay, nil
	}
	return baseType(detected), replay, nil
}

// Scriptable reports whether a browser may run script embedded in content of
// this type when it is opened directly. Such uploads are never accepted as
// media.
func Scriptable(ct string) bool {
	ct = baseType(ct)
	return strings.HasSuffix(ct, "+xml") || strings.Contains(ct, "html")
}

func isMedia(ct string) bool {
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}

func baseType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}
