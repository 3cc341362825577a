package assets

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
)

// BMP圧縮方式の定数
const (
	biRGB  = 0 // 非圧縮
	biRLE8 = 1 // 8ビットRLE圧縮
	biRLE4 = 2 // 4ビットRLE圧縮
)

// BMPファイルヘッダー (14バイト)
type bmpFileHeader struct {
	Signature  [2]byte // "BM"
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32
}

// BMP情報ヘッダー (BITMAPINFOHEADER, 40バイト)
type bmpInfoHeader struct {
	HeaderSize      uint32
	Width           int32
	Height          int32 // 負の場合はトップダウン
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// bmpInfo is what the asset commands need from a BMP without decoding its
// pixels.
type bmpInfo struct {
	Width       int
	Height      int
	TopDown     bool
	BitCount    int
	Compression int
	DataOffset  int
	Palette     color.Palette
}

// readBMPInfo reads the headers and color table of a BMP file. Unlike
// golang.org/x/image/bmp it accepts RLE4 and RLE8 compressed files.
func readBMPInfo(r io.Reader) (*bmpInfo, error) {
	var fileHeader bmpFileHeader
	if err := binary.Read(r, binary.LittleEndian, &fileHeader); err != nil {
		return nil, fmt.Errorf("failed to read BMP file header: %w", err)
	}
	if fileHeader.Signature[0] != 'B' || fileHeader.Signature[1] != 'M' {
		return nil, fmt.Errorf("invalid BMP signature: %q", fileHeader.Signature[:])
	}

	var infoHeader bmpInfoHeader
	if err := binary.Read(r, binary.LittleEndian, &infoHeader); err != nil {
		return nil, fmt.Errorf("failed to read BMP info header: %w", err)
	}
	if infoHeader.HeaderSize < 40 {
		return nil, fmt.Errorf("unsupported BMP header size: %d", infoHeader.HeaderSize)
	}

	switch infoHeader.Compression {
	case biRGB:
	case biRLE8:
		if infoHeader.BitCount != 8 {
			return nil, fmt.Errorf("RLE8 compression requires 8-bit depth, got %d", infoHeader.BitCount)
		}
	case biRLE4:
		if infoHeader.BitCount != 4 {
			return nil, fmt.Errorf("RLE4 compression requires 4-bit depth, got %d", infoHeader.BitCount)
		}
	default:
		return nil, fmt.Errorf("unsupported compression: %d", infoHeader.Compression)
	}

	info := &bmpInfo{
		Width:       int(infoHeader.Width),
		Height:      int(infoHeader.Height),
		BitCount:    int(infoHeader.BitCount),
		Compression: int(infoHeader.Compression),
		DataOffset:  int(fileHeader.DataOffset),
	}
	if info.Height < 0 {
		info.Height = -info.Height
		info.TopDown = true
	}

	if infoHeader.BitCount > 8 {
		return info, nil
	}

	// V4/V5ヘッダーの残りを読み飛ばす
	if extra := int64(infoHeader.HeaderSize) - 40; extra > 0 {
		if _, err := io.CopyN(io.Discard, r, extra); err != nil {
			return nil, fmt.Errorf("failed to skip BMP header: %w", err)
		}
	}

	paletteSize := int(infoHeader.ColorsUsed)
	if paletteSize == 0 {
		paletteSize = 1 << infoHeader.BitCount
	}
	info.Palette = make(color.Palette, paletteSize)
	for i := range info.Palette {
		var entry [4]byte // BGRA
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return nil, fmt.Errorf("failed to read palette entry %d: %w", i, err)
		}
		info.Palette[i] = color.RGBA{R: entry[2], G: entry[1], B: entry[0], A: 255}
	}
	return info, nil
}

// decodeBMPRLE decodes an RLE4 or RLE8 compressed BMP to a paletted image.
//
// Each run is a byte pair. A non-zero count repeats the value (RLE4
// alternates its two nibbles). A zero count is an escape: 0 ends the line,
// 1 ends the bitmap, 2 moves by (dx, dy), and n >= 3 copies n literal
// pixels padded to a 16-bit boundary.
func decodeBMPRLE(data []byte) (*image.Paletted, error) {
	info, err := readBMPInfo(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if info.Compression != biRLE8 && info.Compression != biRLE4 {
		return nil, fmt.Errorf("not an RLE compressed BMP (compression %d)", info.Compression)
	}
	if info.DataOffset <= 0 || info.DataOffset > len(data) {
		return nil, fmt.Errorf("invalid BMP data offset: %d", info.DataOffset)
	}
	src := data[info.DataOffset:]
	rle4 := info.Compression == biRLE4
	w, h := info.Width, info.Height
	img := image.NewPaletted(image.Rect(0, 0, w, h), info.Palette)

	set := func(x, y int, idx uint8) {
		if x >= w || y >= h || int(idx) >= len(info.Palette) {
			return
		}
		if !info.TopDown {
			y = h - 1 - y
		}
		img.SetColorIndex(x, y, idx)
	}
	nibble := func(b byte, k int) uint8 {
		if k%2 == 0 {
			return b >> 4
		}
		return b & 0x0F
	}

	x, y := 0, 0
	for i := 0; i+1 < len(src); {
		count, value := int(src[i]), src[i+1]
		i += 2

		if count > 0 {
			for k := 0; k < count; k++ {
				idx := value
				if rle4 {
					idx = nibble(value, k)
				}
				set(x, y, idx)
				x++
			}
			continue
		}

		switch value {
		case 0:
			x = 0
			y++
		case 1:
			return img, nil
		case 2:
			if i+1 >= len(src) {
				return nil, fmt.Errorf("truncated RLE delta at offset %d", i)
			}
			x += int(src[i])
			y += int(src[i+1])
			i += 2
		default:
			n := int(value)
			size := n
			if rle4 {
				size = (n + 1) / 2
			}
			if i+size > len(src) {
				return nil, fmt.Errorf("truncated RLE literal run at offset %d", i)
			}
			for k := 0; k < n; k++ {
				var idx uint8
				if rle4 {
					idx = nibble(src[i+k/2], k)
				} else {
					idx = src[i+k]
				}
				set(x, y, idx)
				x++
			}
			i += size
			if size%2 != 0 {
				i++
			}
		}
	}
	return img, nil
}
