package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/tsawler/pptxgen/format"
	"github.com/tsawler/pptxgen/model"
)

// picture is an image ready to embed.
type picture struct {
	data          []byte
	format        format.Format
	width, height int // pixels, after EXIF orientation
}

// imageLoader reads local images and downloads remote ones into temporary
// files that live until cleanup.
type imageLoader struct {
	client  *http.Client
	timeout time.Duration
	dir     string
	log     *zap.Logger
	temps   []string
}

func isRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (l *imageLoader) load(ctx context.Context, source string) (*picture, error) {
	path := source
	if isRemote(source) {
		p, err := l.download(ctx, source)
		if err != nil {
			return nil, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrImageNotFound, err)
		}
		return nil, fmt.Errorf("reading image %s: %w", source, err)
	}
	pic, err := decodePicture(data)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", source, err)
	}
	return pic, nil
}

func (l *imageLoader) download(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageFetch, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrImageFetch, url, resp.StatusCode)
	}

	f, err := os.CreateTemp(l.dir, "pptxgen-image-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	l.temps = append(l.temps, f.Name())
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: %w", ErrImageFetch, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	l.log.Debug("image downloaded", zap.String("url", url), zap.String("path", f.Name()))
	return f.Name(), nil
}

// cleanup removes every downloaded file.
func (l *imageLoader) cleanup() {
	for _, p := range l.temps {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.log.Debug("removing temp image failed", zap.String("path", p), zap.Error(err))
		}
	}
	l.temps = nil
}

// decodePicture sniffs data and measures it. WebP, BMP and TIFF are
// re-encoded as PNG. A JPEG whose EXIF orientation turns it sideways is
// re-encoded upright.
func decodePicture(data []byte) (*picture, error) {
	f := format.DetectFromMagic(data)
	switch f {
	case format.PNG, format.GIF:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f, err)
		}
		return &picture{data: data, format: f, width: cfg.Width, height: cfg.Height}, nil
	case format.JPEG:
		return decodeJPEG(data)
	case format.WEBP, format.BMP, format.TIFF:
		img, err := decodeForeign(f, data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f, err)
		}
		return encodePNG(img)
	}
	return nil, ErrImageFormat
}

func decodeForeign(f format.Format, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch f {
	case format.WEBP:
		return webp.Decode(r)
	case format.BMP:
		return bmp.Decode(r)
	default:
		return tiff.Decode(r)
	}
}

func decodeJPEG(data []byte) (*picture, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding jpeg: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding jpeg: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == cfg.Width && b.Dy() == cfg.Height {
		return &picture{data: data, format: format.JPEG, width: cfg.Width, height: cfg.Height}, nil
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return &picture{data: buf.Bytes(), format: format.JPEG, width: b.Dx(), height: b.Dy()}, nil
}

func encodePNG(img image.Image) (*picture, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	b := img.Bounds()
	return &picture{data: buf.Bytes(), format: format.PNG, width: b.Dx(), height: b.Dy()}, nil
}

// pictureGeometry applies a sizing mode to a w x h image in box: fit
// contains and centers, fill covers by cropping, stretch uses box as is.
func pictureGeometry(mode string, box model.Box, w, h int) (model.Box, model.Crop) {
	switch mode {
	case model.SizingFill:
		return box, box.Cover(w, h)
	case model.SizingStretch:
		return box, model.Crop{}
	default:
		return box.Fit(w, h), model.Crop{}
	}
}
