// Package render draws board snapshots as PNG images.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/hotseat-chess/internal/rules"
)

// MoveHighlight marks the squares of the last committed move.
type MoveHighlight struct {
	From  rules.Square
	To    rules.Square
	Mover rules.Color
}

// Options controls everything drawn around the pieces.
type Options struct {
	Flipped   bool
	Highlight *MoveHighlight
	Selected  *rules.Square
	Targets   []rules.Candidate
	CheckKing *rules.Square
	HUDHeader string
	HUDTurn   string
}

// BoardRenderer turns a board into an encoded image.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, board rules.Board, opts Options) ([]byte, error)
}

type pngRenderer struct {
	squareSize int
}

// NewRenderer returns a PNG renderer with squares of squareSize pixels (default 64).
func NewRenderer(squareSize int) BoardRenderer {
	if squareSize < 24 {
		squareSize = 64
	}
	return &pngRenderer{squareSize: squareSize}
}

const (
	sideMargin   = 28
	topMargin    = 64
	bottomMargin = 28
	panelHeight  = 22
	panelGap     = 6
	panelRadius  = 8
)

// canvasSize returns the full image dimensions for squareSize.
func canvasSize(squareSize int) (int, int) {
	boardSize := squareSize * 8
	return boardSize + sideMargin*2, boardSize + topMargin + bottomMargin
}

func (r *pngRenderer) RenderPNG(ctx context.Context, board rules.Board, opts Options) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	width, height := canvasSize(r.squareSize)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	g := geometry{size: r.squareSize, origin: image.Point{X: sideMargin, Y: topMargin}, flipped: opts.Flipped}

	drawHUD(img, opts, g.boardRect())
	drawSquares(img, g)
	drawHighlight(img, opts.Highlight, g)
	if opts.CheckKing != nil {
		drawSquareOverlay(img, *opts.CheckKing, g, checkOverlayColor)
	}
	if opts.Selected != nil {
		drawSquareOverlay(img, *opts.Selected, g, selectedOverlayColor)
	}
	if err := drawPieces(img, &board, g); err != nil {
		return nil, err
	}
	drawTargets(img, opts.Targets, g)
	drawCoordinates(img, g)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor      = color.RGBA{R: 24, G: 26, B: 38, A: 255}
	lightSquare          = color.RGBA{233, 207, 163, 255}
	darkSquare           = color.RGBA{187, 136, 96, 255}
	whiteMoveFill        = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow       = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	selectedOverlayColor = color.NRGBA{R: 120, G: 200, B: 120, A: 120}
	checkOverlayColor    = color.NRGBA{R: 230, G: 60, B: 60, A: 150}
	targetDotColor       = color.NRGBA{R: 30, G: 30, B: 30, A: 110}
	captureRingColor     = color.NRGBA{R: 200, G: 40, B: 40, A: 150}
	hudPanelColor        = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor    = color.NRGBA{R: 40, G: 44, B: 64, A: 245}
	hudTextPrimary       = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor     = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor  = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// geometry maps board squares to pixels, honouring orientation.
type geometry struct {
	size    int
	origin  image.Point
	flipped bool
}

func (g geometry) boardRect() image.Rectangle {
	return image.Rect(g.origin.X, g.origin.Y, g.origin.X+8*g.size, g.origin.Y+8*g.size)
}

// screen returns the on-screen row and column of sq.
func (g geometry) screen(sq rules.Square) (int, int) {
	if g.flipped {
		return 7 - sq.Row, 7 - sq.Col
	}
	return sq.Row, sq.Col
}

func (g geometry) squareRect(sq rules.Square) image.Rectangle {
	row, col := g.screen(sq)
	x := g.origin.X + col*g.size
	y := g.origin.Y + row*g.size
	return image.Rect(x, y, x+g.size, y+g.size)
}

func (g geometry) center(sq rules.Square) image.Point {
	r := g.squareRect(sq)
	return image.Point{X: r.Min.X + g.size/2, Y: r.Min.Y + g.size/2}
}

func squareColor(sq rules.Square) color.Color {
	if (sq.Row+sq.Col)%2 == 1 {
		return darkSquare
	}
	return lightSquare
}

func drawSquares(dst imagedraw.Image, g geometry) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := rules.Square{Row: row, Col: col}
			imagedraw.Draw(dst, g.squareRect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *rules.Board, g geometry) error {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := rules.Square{Row: row, Col: col}
			piece := board.At(sq)
			if piece.IsEmpty() {
				continue
			}
			img, err := renderPieceImage(piece, g.size)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, g.squareRect(sq), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

// drawHighlight fills both squares of a white move and draws an arrow for a black one.
func drawHighlight(img *image.RGBA, h *MoveHighlight, g geometry) {
	if h == nil || !h.From.Valid() || !h.To.Valid() {
		return
	}
	if h.Mover == rules.Black {
		drawArrow(img, g.center(h.From), g.center(h.To), g.size, blackMoveArrow)
		return
	}
	drawSquareOverlay(img, h.From, g, whiteMoveFill)
	drawSquareOverlay(img, h.To, g, whiteMoveFill)
}

func drawTargets(img *image.RGBA, targets []rules.Candidate, g geometry) {
	for _, t := range targets {
		if !t.To.Valid() {
			continue
		}
		c := g.center(t.To)
		if t.IsCapture {
			drawRing(img, c, g.size/2-3, 4, captureRingColor)
			continue
		}
		drawDisc(img, c, g.size/7, targetDotColor)
	}
}

func drawSquareOverlay(img *image.RGBA, sq rules.Square, g geometry, clr color.Color) {
	if !sq.Valid() {
		return
	}
	imagedraw.Draw(img, g.squareRect(sq), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawHUD(img *image.RGBA, opts Options, boardRect image.Rectangle) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "White vs Black"
	}
	turn := strings.TrimSpace(opts.HUDTurn)

	turnBottom := boardRect.Min.Y - 8
	turnTop := turnBottom - panelHeight
	titleBottom := turnTop - panelGap
	titleTop := titleBottom - panelHeight

	titleRect := image.Rect(boardRect.Min.X, titleTop, boardRect.Max.X, titleBottom)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, truncateWithEllipsis(face, title, titleRect.Dx()-16), hudTextPrimary)

	if turn != "" {
		turnRect := image.Rect(boardRect.Min.X, turnTop, boardRect.Max.X, turnBottom)
		drawRoundedPanel(img, turnRect, panelRadius, hudTurnPanelColor)
		drawCenteredString(drawer, turnRect, truncateWithEllipsis(face, turn, turnRect.Dx()-16), hudTurnTextColor)
	}
}

func drawCoordinates(dst imagedraw.Image, g geometry) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	rect := g.boardRect()

	for i := 0; i < 8; i++ {
		sq := rules.Square{Row: i, Col: i}
		row, col := g.screen(sq)
		rankCenter := rect.Min.Y + row*g.size + g.size/2
		fileCenter := rect.Min.X + col*g.size + g.size/2
		drawCenteredText(drawer, string(sq.Rank()), rect.Min.X-sideMargin/2, rankCenter+ascent/2)
		drawCenteredText(drawer, string(sq.File()), fileCenter, rect.Max.Y+ascent+4)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if drawer == nil || text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}
