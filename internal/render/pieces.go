package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/hotseat-chess/internal/rules"
)

// Piece outlines on a 45x45 canvas. {fill} and {stroke} are substituted per side.
var pieceShapes = map[rules.PieceType]string{
	rules.Pawn: `<circle cx="22.5" cy="14" r="6" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<path d="M17 38 L28 38 L26 22 L19 22 Z" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<path d="M11 40 L34 40 L34 36 L11 36 Z" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>`,
	rules.Rook: `<path d="M11 39 L34 39 L34 35 L31 35 L29 17 L32 17 L32 10 L28 10 L28 13 L24.5 13 L24.5 10 L20.5 10 ` +
		`L20.5 13 L17 13 L17 10 L13 10 L13 17 L16 17 L14 35 L11 35 Z" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>`,
	rules.Knight: `<path d="M12 39 L34 39 L32 30 L31 18 L25 10 L22 8 L20 11 L14 16 L11 23 L14 25 L19 21 L21 23 L15 31 Z" ` +
		`fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<circle cx="20" cy="15" r="1.2" fill="{stroke}"/>`,
	rules.Bishop: `<circle cx="22.5" cy="7" r="2.5" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<path d="M15 35 L30 35 L26 22 L29 16 L22.5 9 L16 16 L19 22 Z" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<path d="M10 40 L35 40 L35 36 L10 36 Z" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>`,
	rules.Queen: `<path d="M10 39 L35 39 L33 33 L37 14 L30 26 L28 11 L22.5 25 L17 11 L15 26 L8 14 L12 33 Z" ` +
		`fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<circle cx="8" cy="12" r="2" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<circle cx="17" cy="9" r="2" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<circle cx="28" cy="9" r="2" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>` +
		`<circle cx="37" cy="12" r="2" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>`,
	rules.King: `<path d="M21 4 L24 4 L24 8 L28 8 L28 11 L24 11 L24 16 L21 16 L21 11 L17 11 L17 8 L21 8 Z" ` +
		`fill="{fill}" stroke="{stroke}" stroke-width="1.2"/>` +
		`<path d="M11 39 L34 39 L32 31 L35 22 L28 18 L22.5 20 L17 18 L10 22 L13 31 Z" fill="{fill}" stroke="{stroke}" stroke-width="1.5"/>`,
}

var pieceColors = [2]struct{ fill, stroke string }{
	rules.White: {fill: "#f7f4ec", stroke: "#1f1f1f"},
	rules.Black: {fill: "#2b2b2b", stroke: "#e8e2d4"},
}

// pieceSVG builds the SVG document of p.
func pieceSVG(p rules.Piece) ([]byte, error) {
	shape, ok := pieceShapes[p.Type]
	if !ok {
		return nil, fmt.Errorf("no outline for piece %q", p.Type)
	}
	c := pieceColors[p.Color]
	body := strings.NewReplacer("{fill}", c.fill, "{stroke}", c.stroke).Replace(shape)
	doc := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + body + `</svg>`
	return sanitizeSVG([]byte(doc)), nil
}

type pieceCacheKey struct {
	piece rules.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(piece rules.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	data, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
