package form

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	// Decoders register themselves with the image package on import.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageSize is the largest accepted upload, in bytes.
const MaxImageSize = 5 << 20

// Upload is an uploaded file read fully into memory.
type Upload struct {
	Filename    string
	ContentType string // sniffed from the bytes, not taken from the browser
	Data        []byte
}

// readUpload reads the named multipart file. A missing file returns nil, nil.
func readUpload(r *http.Request, field string) (*Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := readLimited(file, header)
	if err != nil {
		return nil, err
	}
	return &Upload{Filename: header.Filename, Data: data}, nil
}

// errImageTooLarge marks an upload over MaxImageSize.
var errImageTooLarge = fmt.Errorf("image larger than %d bytes", MaxImageSize)

func readLimited(file multipart.File, header *multipart.FileHeader) ([]byte, error) {
	if header.Size > MaxImageSize {
		return nil, errImageTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, errImageTooLarge
	}
	return data, nil
}

// checkImage decides whether u really is an image.
//
// TWO CHECKS:
// The browser-supplied Content-Type is whatever the client says, so it is
// ignored. mimetype sniffs the magic bytes first, which cheaply rejects text
// files renamed to .gif. Then image.DecodeConfig parses the header with the
// real decoder, which catches truncated or corrupted files that merely start
// with the right magic number.
func checkImage(u *Upload) error {
	if len(u.Data) == 0 {
		return errors.New("empty file")
	}

	mt := mimetype.Detect(u.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("not an image: %s", mt.String())
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(u.Data)); err != nil {
		return fmt.Errorf("decoding %s: %w", mt.String(), err)
	}

	u.ContentType = mt.String()
	return nil
}
