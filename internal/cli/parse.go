// Package cli implements the terminal interface: infected-spec parsing,
// grid rendering, and the interactive menu loop.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
)

// ParseInfectedSpec parses one 'floor,room:count' argument.
func ParseInfectedSpec(spec string) (infection.Coord, int, error) {
	coordPart, countPart, ok := strings.Cut(spec, ":")
	if !ok {
		return infection.Coord{}, 0, fmt.Errorf("invalid format %q, expected 'floor,room:count'", spec)
	}
	floorStr, roomStr, ok := strings.Cut(coordPart, ",")
	if !ok {
		return infection.Coord{}, 0, fmt.Errorf("invalid format %q, expected 'floor,room:count'", spec)
	}

	floor, err := strconv.Atoi(strings.TrimSpace(floorStr))
	if err != nil || floor < 0 {
		return infection.Coord{}, 0, fmt.Errorf("invalid floor in %q", spec)
	}
	room, err := strconv.Atoi(strings.TrimSpace(roomStr))
	if err != nil || room < 0 {
		return infection.Coord{}, 0, fmt.Errorf("invalid room in %q", spec)
	}
	count, err := strconv.Atoi(strings.TrimSpace(countPart))
	if err != nil || count < 0 {
		return infection.Coord{}, 0, fmt.Errorf("invalid count in %q", spec)
	}
	return infection.Coord{Floor: floor, Room: room}, count, nil
}

// ParseInfectedSpecs folds a list of 'floor,room:count' arguments into an
// infection map. Later entries override earlier ones at the same coordinate.
func ParseInfectedSpecs(specs []string) (infection.Map, error) {
	infected := make(infection.Map, len(specs))
	for _, spec := range specs {
		coord, count, err := ParseInfectedSpec(spec)
		if err != nil {
			return nil, err
		}
		infected[coord] = infection.Attributes{ZombieCount: count}
	}
	return infected, nil
}

// ParseCoord parses one 'floor,room' argument.
func ParseCoord(s string) (infection.Coord, error) {
	floorStr, roomStr, ok := strings.Cut(s, ",")
	if !ok {
		return infection.Coord{}, fmt.Errorf("invalid format %q, expected 'floor,room'", s)
	}
	floor, err := strconv.Atoi(strings.TrimSpace(floorStr))
	if err != nil || floor < 0 {
		return infection.Coord{}, fmt.Errorf("invalid floor in %q", s)
	}
	room, err := strconv.Atoi(strings.TrimSpace(roomStr))
	if err != nil || room < 0 {
		return infection.Coord{}, fmt.Errorf("invalid room in %q", s)
	}
	return infection.Coord{Floor: floor, Room: room}, nil
}
