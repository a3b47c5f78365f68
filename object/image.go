package object

import (
	"errors"
	"io"
)

// Block is a contiguous run of bytes at an absolute address.
type Block struct {
	Address uint32
	Content []byte
}

// End is the first address past the block.
func (blk Block) End() uint64 {
	return uint64(blk.Address) + uint64(len(blk.Content))
}

// Image is a linked memory image, as loaded by the emulator.
type Image struct {
	Blocks []Block
}

// Size is the total number of bytes in all blocks.
func (img *Image) Size() (size uint64) {
	for _, blk := range img.Blocks {
		size += uint64(len(blk.Content))
	}
	return
}

// WriteTo writes the canonical encoding of the image.
func (img *Image) WriteTo(w io.Writer) (n int64, err error) {
	enc := &encoder{w: w}

	enc.uint32(uint32(len(img.Blocks)))
	for _, blk := range img.Blocks {
		enc.uint32(blk.Address)
		enc.bytes(blk.Content)
	}

	n, err = enc.n, enc.err
	return
}

// ReadImage decodes a memory image.
func ReadImage(r io.Reader) (img *Image, err error) {
	dec := &decoder{r: r}
	img = &Image{}

	count := dec.uint32()
	for range count {
		address := dec.uint32()
		content := dec.bytes()
		if dec.err != nil {
			break
		}
		img.Blocks = append(img.Blocks, Block{Address: address, Content: content})
	}

	if dec.err != nil {
		img = nil
		err = errors.Join(ErrDecode, dec.err)
	}

	return
}
