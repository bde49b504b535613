package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/ocrdesk/internal/selection"
)

// parseRegion parses "x,y,width,height" in image pixels.
func parseRegion(s string) (selection.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return selection.Rect{}, fmt.Errorf("region %q: want x,y,width,height", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return selection.Rect{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	r := selection.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}
	if r.X < 0 || r.Y < 0 {
		return selection.Rect{}, fmt.Errorf("region %q: negative origin", s)
	}
	if r.Empty() {
		return selection.Rect{}, fmt.Errorf("region %q: width and height must be positive", s)
	}
	return r, nil
}
