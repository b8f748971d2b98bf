package resources

import "github.com/spaghettifunk/anima-assets/engine/core"

/**
 * @brief Bytecode is a binary blob decoded as little-endian 32-bit words
 * (SPIR-V shaders and similar).
 */
type Bytecode struct {
	/** @brief The unique id of this instance. */
	ID string
	/** @brief The identifier the blob was loaded from. */
	Source string
	/** @brief The detected content type. */
	MIME string
	/** @brief The size of the blob in bytes. */
	DataSize uint64
	/** @brief The decoded words; trailing bytes that do not fill a word are dropped. */
	Words []uint32

	released core.Signal
}

func NewBytecode(source, mime string, size uint64, words []uint32) *Bytecode {
	return &Bytecode{
		ID:       core.NewID(),
		Source:   source,
		MIME:     mime,
		DataSize: size,
		Words:    words,
	}
}

func (b *Bytecode) OnDispose(fn func()) {
	b.released.Subscribe(fn)
}

func (b *Bytecode) Release() {
	b.Words = nil
	b.DataSize = 0
	b.released.Fire()
}

/**
 * @brief A Blob is the raw content behind an identifier, before any decoding.
 */
type Blob struct {
	/** @brief The identifier the blob was fetched from. */
	Source string
	/** @brief The lower-cased extension of the identifier, without the dot. */
	Ext string
	/** @brief The sniffed content type. */
	MIME string
	/** @brief The raw bytes. */
	Data []byte
}
