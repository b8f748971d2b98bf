package loaders

import (
	"context"
	"fmt"
	"slices"

	"github.com/gabriel-vasile/mimetype"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// BlobLoader fetches raw bytes and leaves decoding to the transform stage.
type BlobLoader struct {
	// Extensions claimed by the loader, without the dot.
	Extensions []string
}

// NewBlobLoader claims the extensions decoded by DocumentParser and BytecodeParser.
func NewBlobLoader() *BlobLoader {
	exts := append([]string{}, documentExtensions...)
	return &BlobLoader{Extensions: append(exts, bytecodeExtensions...)}
}

func (bl *BlobLoader) Name() string { return "blob" }

func (bl *BlobLoader) Test(src string) bool {
	return hasExt(src, bl.Extensions...)
}

func (bl *BlobLoader) Load(ctx context.Context, req assets.Request, h assets.Handle) (any, error) {
	data, err := h.Fetch(ctx, req.Src)
	if err != nil {
		return nil, err
	}
	return &resources.Blob{
		Source: req.Src,
		Ext:    req.Ext(),
		MIME:   mimetype.Detect(data).String(),
		Data:   data,
	}, nil
}

var bytecodeExtensions = []string{"spv", "bin"}

// BytecodeParser turns raw .spv and .bin blobs into little-endian words.
type BytecodeParser struct{}

func (bp *BytecodeParser) Name() string { return "bytecode" }

func (bp *BytecodeParser) TestTransform(value any, src string) bool {
	b, ok := value.(*resources.Blob)
	return ok && slices.Contains(bytecodeExtensions, b.Ext)
}

func (bp *BytecodeParser) Transform(ctx context.Context, value any, req assets.Request, h assets.Handle) (any, error) {
	b := value.(*resources.Blob)
	if len(b.Data)%4 != 0 {
		return nil, fmt.Errorf("'%s' is %d bytes, not a multiple of 4", req.Src, len(b.Data))
	}
	return resources.NewBytecode(req.Src, b.MIME, uint64(len(b.Data)), bytesToBytecode(b.Data)), nil
}

func (bp *BytecodeParser) Unload(asset any) error {
	bc, ok := asset.(*resources.Bytecode)
	if !ok {
		return fmt.Errorf("cannot unload %T as bytecode", asset)
	}
	bc.Release()
	return nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}
	return byteCode
}
