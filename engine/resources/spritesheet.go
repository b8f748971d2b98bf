package resources

import "github.com/spaghettifunk/anima-assets/engine/core"

/**
 * @brief A Spritesheet holds one texture per frame, all sharing the atlas base texture.
 */
type Spritesheet struct {
	/** @brief The unique id of this instance. */
	ID string
	/** @brief The atlas every frame points into. */
	Base *BaseTexture
	/** @brief Frame textures keyed by frame name. */
	Textures map[string]*Texture
	/** @brief Frame names of each animation. */
	Animations map[string][]string
	/** @brief The document the sheet was composed from. */
	Data map[string]any
}

func NewSpritesheet(base *BaseTexture, data map[string]any) *Spritesheet {
	return &Spritesheet{
		ID:         core.NewID(),
		Base:       base,
		Textures:   make(map[string]*Texture),
		Animations: make(map[string][]string),
		Data:       data,
	}
}

func (s *Spritesheet) OnDispose(fn func()) {
	s.Base.OnDispose(fn)
}

// Destroy releases every frame together with the atlas.
func (s *Spritesheet) Destroy() {
	s.Textures = nil
	s.Base.Destroy()
}
