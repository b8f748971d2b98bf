package loaders

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

const (
	glUnsignedByte     uint32 = 0x1401
	glAlpha            uint32 = 0x1906
	glRGB              uint32 = 0x1907
	glRGBA             uint32 = 0x1908
	glLuminance        uint32 = 0x1909
	glLuminanceAlpha   uint32 = 0x190A
	glRed              uint32 = 0x1903
	glRG               uint32 = 0x8227
	ktxHeaderSize             = 64
	ktxEndiannessCheck uint32 = 0x04030201
)

var (
	ktxIdentifier = []byte{0xAB, 0x4B, 0x54, 0x58, 0x20, 0x31, 0x31, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A}

	ErrInvalidKTX = errors.New("invalid KTX container")
)

// KTXOptions is the metadata understood by the KTX loader.
type KTXOptions struct {
	Mipmap     resources.MipmapMode `asset:"mipmap"`
	AlphaMode  resources.AlphaMode  `asset:"alpha_mode"`
	Resolution float64              `asset:"resolution"`
}

// KTXLoader parses KTX 1.1 containers. Every array element and cube face becomes
// its own texture, so one identifier may resolve to a resources.Group.
type KTXLoader struct{}

func (kl *KTXLoader) Name() string { return "ktx" }

func (kl *KTXLoader) Test(src string) bool {
	return hasExt(src, "ktx")
}

func (kl *KTXLoader) Load(ctx context.Context, req assets.Request, h assets.Handle) (any, error) {
	data, err := h.Fetch(ctx, req.Src)
	if err != nil {
		return nil, err
	}
	c, err := parseKTX(data)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", req.Src, err)
	}

	opts := KTXOptions{
		Mipmap:     resources.MipmapModeOff,
		AlphaMode:  resources.AlphaModeNoPremultiplied,
		Resolution: resolutionOf(req.Src),
	}
	if err := req.Decode(&opts); err != nil {
		return nil, err
	}

	out := make(resources.Group, 0, len(c.images))
	for _, levels := range c.images {
		base := resources.NewBaseTexture(req.Src, c.width, c.height, resources.BaseTextureOptions{
			Mipmap:     opts.Mipmap,
			AlphaMode:  opts.AlphaMode,
			Resolution: opts.Resolution,
			Format:     c.glFormat,
			Type:       c.glType,
		})
		base.KeyValueData = c.keyValue
		if c.compressed() {
			base.Levels = levels
			base.InternalFormat = c.glInternalFormat
		} else {
			base.Pixels = levels[0]
			base.ChannelCount = channelCount(c.glFormat)
		}
		out = append(out, resources.NewTexture(base))
	}
	return out, nil
}

func (kl *KTXLoader) Unload(asset any) error {
	return destroyTexture(asset)
}

type ktxContainer struct {
	glType           uint32
	glFormat         uint32
	glInternalFormat uint32
	width            uint32
	height           uint32
	keyValue         map[string][]byte
	// images holds the mip levels of every array element and face, in file order.
	images [][][]byte
}

func (c *ktxContainer) compressed() bool {
	return c.glType == 0
}

func parseKTX(data []byte) (*ktxContainer, error) {
	if len(data) < ktxHeaderSize || !bytes.Equal(data[:len(ktxIdentifier)], ktxIdentifier) {
		return nil, ErrInvalidKTX
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch binary.LittleEndian.Uint32(data[12:]) {
	case ktxEndiannessCheck:
	case 0x01020304:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endianness marker", ErrInvalidKTX)
	}

	field := func(i int) uint32 { return order.Uint32(data[16+i*4:]) }
	c := &ktxContainer{
		glType:           field(0),
		glFormat:         field(2),
		glInternalFormat: field(3),
		width:            field(5),
		height:           field(6),
	}
	arrayElements := field(8)
	faces := max(field(9), 1)
	mipLevels := max(field(10), 1)
	kvBytes := int(field(11))

	if c.height == 0 {
		return nil, fmt.Errorf("%w: only 2D textures are supported", ErrInvalidKTX)
	}
	if ktxHeaderSize+kvBytes > len(data) {
		return nil, fmt.Errorf("%w: truncated key/value data", ErrInvalidKTX)
	}
	kv, err := parseKTXKeyValue(data[ktxHeaderSize:ktxHeaderSize+kvBytes], order)
	if err != nil {
		return nil, err
	}
	c.keyValue = kv

	offset := ktxHeaderSize + kvBytes
	cubemap := faces == 6 && arrayElements == 0
	// past the first imageSize word every image takes at least one byte
	n := uint64(max(arrayElements, 1)) * uint64(faces)
	if n == 0 || len(data)-offset < 4 || n > uint64(len(data)-offset-4) {
		return nil, fmt.Errorf("%w: %d images do not fit in %d bytes", ErrInvalidKTX, n, len(data))
	}
	count := int(n)
	c.images = make([][][]byte, count)

	for level := uint32(0); level < mipLevels; level++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated at level %d", ErrInvalidKTX, level)
		}
		imageSize := int(order.Uint32(data[offset:]))
		offset += 4

		size := imageSize
		if !cubemap {
			if imageSize < count {
				return nil, fmt.Errorf("%w: image size %d too small for %d images at level %d", ErrInvalidKTX, imageSize, count, level)
			}
			size = imageSize / count
		}
		for i := 0; i < count; i++ {
			if offset+size > len(data) {
				return nil, fmt.Errorf("%w: truncated at level %d", ErrInvalidKTX, level)
			}
			c.images[i] = append(c.images[i], data[offset:offset+size])
			offset += size
			if cubemap {
				offset = align4(offset)
			}
		}
		offset = align4(offset)
	}
	return c, nil
}

func parseKTXKeyValue(data []byte, order binary.ByteOrder) (map[string][]byte, error) {
	kv := make(map[string][]byte)
	for offset := 0; offset < len(data); {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated key/value pair", ErrInvalidKTX)
		}
		n := int(order.Uint32(data[offset:]))
		offset += 4
		if offset+n > len(data) {
			return nil, fmt.Errorf("%w: truncated key/value pair", ErrInvalidKTX)
		}
		pair := data[offset : offset+n]
		if i := bytes.IndexByte(pair, 0); i >= 0 {
			kv[string(pair[:i])] = pair[i+1:]
		}
		offset = align4(offset + n)
	}
	return kv, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func channelCount(format uint32) uint8 {
	switch format {
	case glRGBA:
		return 4
	case glRGB:
		return 3
	case glRG, glLuminanceAlpha:
		return 2
	case glRed, glAlpha, glLuminance:
		return 1
	}
	return 0
}
