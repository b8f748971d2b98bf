package loaders

import (
	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/platform"
)

// Defaults returns the built-in parsers in registration order. files is used by
// the parsers that need a path on disk.
func Defaults(files *platform.FileFetcher) []assets.Parser {
	return []assets.Parser{
		&TextureLoader{},
		&KTXLoader{},
		&WebFontLoader{},
		&BitmapFontLoader{Files: files},
		&SystemFontLoader{},
		NewBlobLoader(),
		&DocumentParser{},
		&BytecodeParser{},
		&SpritesheetParser{},
	}
}
