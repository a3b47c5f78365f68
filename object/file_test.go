package object

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleFile builds a small two-section object file.
func sampleFile() *File {
	file := NewFile()

	file.Symbols.Define("text", Symbol{Section: "text", Value: 0, Kind: KindLocal})
	file.Symbols.Define("main", Symbol{Section: "text", Value: 0, Kind: KindGlobal})
	file.Symbols.Define("putc", Symbol{Section: SectionExternal, Value: ValueUndefined, Kind: KindExtern})
	file.Symbols.Define("data", Symbol{Section: "data", Value: 0, Kind: KindLocal})

	text := NewSection("text")
	text.AddSymbol("putc")
	text.AddLiteral(-42)
	text.Length = 8
	text.Finalize()
	_ = text.PutWord(0, 0x21f0_0004)
	_ = text.PutWord(4, 0x0000_0000)

	data := NewSection("data")
	data.Length = 4
	data.Finalize()

	_ = file.Sections.Add(text)
	_ = file.Sections.Add(data)

	file.Relocations.Table("text").Add("putc", 8)
	file.Relocations.Table("data")

	return file
}

func TestFileEncoding(t *testing.T) {
	assert := assert.New(t)

	file := NewFile()
	file.Symbols.Define("a", Symbol{Section: "s", Value: 1, Kind: KindLocal})
	sec := NewSection("s")
	sec.Length = 4
	sec.Finalize()
	_ = sec.PutWord(0, 0x1000_0000)
	_ = file.Sections.Add(sec)
	file.Relocations.Table("s").Add("a", 0)

	var buf bytes.Buffer
	n, err := file.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(buf.Len()), n)

	expected := []byte{
		1, 0, 0, 0, // symbols
		1, 0, 0, 0, 'a',
		1, 0, 0, 0, 's',
		1, 0, 0, 0,
		'l',
		1, 0, 0, 0, // sections
		1, 0, 0, 0, 's', // key
		1, 0, 0, 0, 's', // name
		0, 0, 0, 0, // base
		4, 0, 0, 0, 0, 0, 0, 0x10, // content
		4, 0, 0, 0, // code length
		0, 0, 0, 0, // literals
		0, 0, 0, 0, // symbols
		1, 0, 0, 0, // relocation tables
		1, 0, 0, 0, 's',
		1, 0, 0, 0,
		1, 0, 0, 0, 'a',
		0, 0, 0, 0,
	}
	assert.Equal(expected, buf.Bytes())
}

func TestFileRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	file := sampleFile()

	var buf bytes.Buffer
	_, err := file.WriteTo(&buf)
	require.NoError(err)
	encoded := bytes.Clone(buf.Bytes())

	again, err := ReadFile(&buf)
	require.NoError(err)
	assert.Equal(file, again)

	text, ok := again.Sections.Lookup("text")
	require.True(ok)
	offset, ok := text.SymbolOffset("putc")
	assert.True(ok)
	assert.Equal(uint32(8), offset)
	offset, ok = text.LiteralOffset(-42)
	assert.True(ok)
	assert.Equal(uint32(12), offset)

	// Encoding is deterministic.
	buf.Reset()
	_, err = again.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(encoded, buf.Bytes())
}

func TestFileTruncated(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	_, err := sampleFile().WriteTo(&buf)
	assert.NoError(err)
	encoded := buf.Bytes()

	for _, size := range []int{0, 3, 9, len(encoded) / 2, len(encoded) - 1} {
		file, err := ReadFile(bytes.NewReader(encoded[:size]))
		assert.ErrorIs(err, ErrDecode, size)
		assert.Nil(file)
	}
}

func TestFileGarbled(t *testing.T) {
	assert := assert.New(t)

	tests := map[string][]byte{
		"kind": {
			1, 0, 0, 0,
			1, 0, 0, 0, 'a',
			1, 0, 0, 0, 's',
			0, 0, 0, 0,
			'x',
		},
		"duplicate": {
			2, 0, 0, 0,
			1, 0, 0, 0, 'a', 1, 0, 0, 0, 's', 0, 0, 0, 0, 'l',
			1, 0, 0, 0, 'a', 1, 0, 0, 0, 's', 0, 0, 0, 0, 'l',
		},
		"key": {
			0, 0, 0, 0,
			1, 0, 0, 0,
			1, 0, 0, 0, 'k',
			1, 0, 0, 0, 's',
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
		},
		"pool": {
			0, 0, 0, 0,
			1, 0, 0, 0,
			1, 0, 0, 0, 's',
			1, 0, 0, 0, 's',
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
			1, 0, 0, 0, 7, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 0,
		},
		"huge": {
			1, 0, 0, 0,
			0xff, 0xff, 0xff, 0xff, 'a',
		},
	}

	for name, data := range tests {
		_, err := ReadFile(bytes.NewReader(data))
		assert.ErrorIs(err, ErrDecode, name)
	}
}

func TestImage(t *testing.T) {
	assert := assert.New(t)

	img := &Image{
		Blocks: []Block{
			{Address: 0x4000_0000, Content: []byte{1, 2, 3, 4}},
			{Address: 0x10, Content: []byte{5}},
		},
	}
	assert.Equal(uint64(5), img.Size())
	assert.Equal(uint64(0x4000_0004), img.Blocks[0].End())

	var buf bytes.Buffer
	_, err := img.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal([]byte{
		2, 0, 0, 0,
		0, 0, 0, 0x40, 4, 0, 0, 0, 1, 2, 3, 4,
		0x10, 0, 0, 0, 1, 0, 0, 0, 5,
	}, buf.Bytes())

	again, err := ReadImage(&buf)
	assert.NoError(err)
	assert.Equal(img, again)

	_, err = ReadImage(bytes.NewReader([]byte{1, 0, 0, 0, 0}))
	assert.ErrorIs(err, ErrDecode)
}
