// spawn/location.go
package spawn

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is a point in a named world.
type Location struct {
	World string
	X     float64
	Y     float64
	Z     float64
	Yaw   float32
	Pitch float32
}

// Vector is an offset applied to a spawn location on teleport.
type Vector struct {
	X float64
	Y float64
	Z float64
}

// Add returns the location shifted by v.
func (l Location) Add(v Vector) Location {
	l.X += v.X
	l.Y += v.Y
	l.Z += v.Z
	return l
}

func (l Location) String() string {
	return fmt.Sprintf("%s,%g,%g,%g,%g,%g", l.World, l.X, l.Y, l.Z, l.Yaw, l.Pitch)
}

// ParseLocation reads the "world,x,y,z[,yaw,pitch]" config value format.
func ParseLocation(raw string) (Location, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 && len(parts) != 6 {
		return Location{}, fmt.Errorf("invalid location %q: want world,x,y,z[,yaw,pitch]", raw)
	}

	loc := Location{World: strings.TrimSpace(parts[0])}
	coords := make([]float64, 0, 5)
	for _, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Location{}, fmt.Errorf("invalid location %q: %w", raw, err)
		}
		coords = append(coords, v)
	}

	loc.X, loc.Y, loc.Z = coords[0], coords[1], coords[2]
	if len(coords) == 5 {
		loc.Yaw = float32(coords[3])
		loc.Pitch = float32(coords[4])
	}
	return loc, nil
}

// BlockLocation is a block-grid point, used by block-based goals to find which
// physical object a player interacted with.
type BlockLocation struct {
	World string
	X     int
	Y     int
	Z     int
}

// DistanceSquared returns the squared euclidean distance to other. Squared is
// enough for nearest-block queries and avoids the sqrt.
func (b BlockLocation) DistanceSquared(other BlockLocation) int {
	dx := b.X - other.X
	dy := b.Y - other.Y
	dz := b.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}
