package tui

import (
	"strings"

	"github.com/san-kum/tenpush/internal/sim"
)

// Canvas rasterizes the xy projection of a snapshot into a character grid
// covering [-1,1]^2.
type Canvas struct {
	width, height int
	cells         [][]rune
}

func NewCanvas(width, height int) *Canvas {
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = make([]rune, width)
	}
	c := &Canvas{width: width, height: height, cells: cells}
	c.clear()
	return c
}

func (c *Canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *Canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.width && y >= 0 && y < c.height {
		c.cells[y][x] = r
	}
}

// cell maps domain coordinates to a grid cell, y pointing up.
func (c *Canvas) cell(px, py float64) (int, int) {
	x := int((px + 1) / 2 * float64(c.width-1))
	y := int((1 - py) / 2 * float64(c.height-1))
	return x, y
}

// Draw clears the canvas and plots every vertex of sn. Tractlet vertices
// are dots, seeds are drawn on top as 'o'.
func (c *Canvas) Draw(sn *sim.Snapshot) {
	c.clear()
	if sn == nil {
		return
	}
	for _, rec := range sn.Things {
		if rec.Count < 2 {
			continue
		}
		for v := 0; v < rec.Count; v++ {
			p := sn.Vertex(rec.Offset + v)
			x, y := c.cell(p[0], p[1])
			c.set(x, y, '.')
		}
	}
	for _, rec := range sn.Things {
		p := sn.Vertex(rec.Offset + rec.Seed)
		x, y := c.cell(p[0], p[1])
		c.set(x, y, 'o')
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	border := "+" + strings.Repeat("-", c.width) + "+\n"
	b.WriteString(border)
	for _, row := range c.cells {
		b.WriteString("|")
		b.WriteString(string(row))
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}
