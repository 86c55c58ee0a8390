package media

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

type Kind int

const (
	KindProfilePicture Kind = iota
	KindResume
)

const (
	ProfilePictureFolder = "jobportal_profiles"
	ResumeFolder         = "jobportal_resumes"

	// ProfilePictureSize is the edge in pixels of stored profile pictures.
	ProfilePictureSize = 512
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrTooLarge         = errors.New("media file is too large")
	ErrEmpty            = errors.New("media file is empty")
)

var allowed = map[Kind]struct {
	mimeTypes  []string
	extensions []string
}{
	KindProfilePicture: {
		mimeTypes:  []string{"image/jpeg", "image/png"},
		extensions: []string{".jpg", ".jpeg", ".png"},
	},
	KindResume: {
		mimeTypes:  []string{"application/pdf", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		extensions: []string{".pdf", ".docx"},
	},
}

// Asset is a file stored on the media host.
type Asset struct {
	URL      string
	PublicID string
}

// Host stores files remotely and deletes them by public id.
type Host interface {
	Upload(ctx context.Context, file io.Reader, folder, resourceType string) (Asset, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

// Relay validates uploaded files and forwards them to a Host. Nothing is
// written to local disk.
type Relay struct {
	host    Host
	maxSize int64
}

func NewRelay(host Host, maxSize int64) *Relay {
	return &Relay{host: host, maxSize: maxSize}
}

// MaxSize is the largest accepted file in bytes.
func (r *Relay) MaxSize() int64 {
	return r.maxSize
}

func (k Kind) folder() string {
	if k == KindResume {
		return ResumeFolder
	}
	return ProfilePictureFolder
}

func (k Kind) resourceType() string {
	if k == KindResume {
		return "raw"
	}
	return "image"
}

// Check returns the detected mime type of data when it is allowed for kind.
func (r *Relay) Check(kind Kind, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if r.maxSize > 0 && int64(len(data)) > r.maxSize {
		return "", ErrTooLarge
	}
	rules, ok := allowed[kind]
	if !ok {
		return "", ErrUnsupportedMedia
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !contains(rules.extensions, ext) {
		return "", errors.Wrapf(ErrUnsupportedMedia, "extension %q", ext)
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), rules.mimeTypes...) {
		return "", errors.Wrapf(ErrUnsupportedMedia, "content type %s", mt.String())
	}
	return mt.String(), nil
}

// Upload validates data and relays it to the media host. Profile pictures
// are cropped to a centred square and resized first.
func (r *Relay) Upload(ctx context.Context, kind Kind, filename string, data []byte) (Asset, error) {
	contentType, err := r.Check(kind, filename, data)
	if err != nil {
		return Asset{}, err
	}
	if kind == KindProfilePicture {
		data, err = SquarePicture(data, contentType, ProfilePictureSize)
		if err != nil {
			return Asset{}, err
		}
	}
	asset, err := r.host.Upload(ctx, bytes.NewReader(data), kind.folder(), kind.resourceType())
	if err != nil {
		return Asset{}, errors.Wrap(err, "unable to relay media file")
	}
	return asset, nil
}

// Delete removes a previously uploaded asset. An empty public id is a no-op.
func (r *Relay) Delete(ctx context.Context, kind Kind, publicID string) error {
	if publicID == "" {
		return nil
	}
	if err := r.host.Destroy(ctx, publicID, kind.resourceType()); err != nil {
		return errors.Wrapf(err, "unable to delete media %s", publicID)
	}
	return nil
}

// SquarePicture crops the largest centred square out of a jpeg or png and
// scales it to size x size, keeping the original encoding.
func SquarePicture(data []byte, contentType string, size uint) ([]byte, error) {
	decImage, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode image from bytes")
	}
	b := decImage.Bounds()
	min := b.Dy()
	if b.Dx() < min {
		min = b.Dx()
	}
	x := b.Min.X + (b.Dx()-min)/2
	y := b.Min.Y + (b.Dy()-min)/2
	sub, ok := decImage.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedMedia, "image cannot be cropped")
	}
	cutImage := sub.SubImage(image.Rect(x, y, x+min, y+min))
	if uint(min) > size {
		cutImage = resize.Resize(size, size, cutImage, resize.Lanczos3)
	}
	buf := new(bytes.Buffer)
	switch contentType {
	case "image/jpeg":
		err = jpeg.Encode(buf, cutImage, nil)
	case "image/png":
		err = png.Encode(buf, cutImage)
	default:
		return nil, errors.Wrapf(ErrUnsupportedMedia, "content type %s not supported for encoding", contentType)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode picture")
	}
	return buf.Bytes(), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
