package media

import (
	"fmt"
	"io"
	"mime/multipart"
)

// FromMultipart turns form file headers into uploads. The content type of
// each file is sniffed from its leading bytes; the client header is only a
// fallback.
func FromMultipart(headers []*multipart.FileHeader) ([]Upload, error) {
	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		ct, err := sniffHeader(fh)
		if err != nil {
			return nil, err
		}
		fh := fh
		uploads = append(uploads, Upload{
			Name:        fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return uploads, nil
}

func sniffHeader(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	ct, _, err := Sniff(f, fh.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return ct, nil
}
