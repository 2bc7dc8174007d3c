package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeofence marks a malformed geofence definition: empty id,
// missing or unknown shape, negative circle radius, or a polygon with
// fewer than three vertices.
var ErrInvalidGeofence = errors.New("invalid geofence")

const (
	ShapeCircle  = "circle"
	ShapePolygon = "polygon"
)

// Shape is the region of a geofence, either a Circle or a Polygon.
// Shapes are pure data; containment math lives in the geo package and
// dispatches on the concrete type.
type Shape interface {
	shapeKind() string
}

// Circle is a centre point plus a radius in metres. The boundary is
// inclusive: a point exactly radius metres from the centre is inside.
type Circle struct {
	Center       Coordinate
	RadiusMeters float64
}

// Polygon is a closed ring of vertices in order; the closing edge from
// the last vertex back to the first is implied.
type Polygon struct {
	Vertices []Coordinate
}

func (Circle) shapeKind() string  { return ShapeCircle }
func (Polygon) shapeKind() string { return ShapePolygon }

// Geofence is one named region to monitor. IDs are unique within a
// registry; adding a geofence with an existing id replaces the previous
// definition.
type Geofence struct {
	ID       string
	Name     string
	Shape    Shape
	Metadata map[string]string
}

// Validate checks the definition before it is accepted into a registry.
func (f Geofence) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidGeofence)
	}
	switch s := f.Shape.(type) {
	case Circle:
		if err := s.Center.Validate(); err != nil {
			return fmt.Errorf("%w: center: %v", ErrInvalidGeofence, err)
		}
		if math.IsNaN(s.RadiusMeters) || s.RadiusMeters < 0 {
			return fmt.Errorf("%w: radius %v must be >= 0 meters", ErrInvalidGeofence, s.RadiusMeters)
		}
	case Polygon:
		if len(s.Vertices) < 3 {
			return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidGeofence, len(s.Vertices))
		}
		for i, v := range s.Vertices {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%w: vertex %d: %v", ErrInvalidGeofence, i, err)
			}
		}
	case nil:
		return fmt.Errorf("%w: missing shape", ErrInvalidGeofence)
	default:
		return fmt.Errorf("%w: unsupported shape %T", ErrInvalidGeofence, f.Shape)
	}
	return nil
}

// geofenceJSON is the stable wire and storage form of a Geofence. The
// shape is tagged with a kind so new variants can be added without
// breaking stored documents.
type geofenceJSON struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Shape    shapeJSON         `json:"shape"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type shapeJSON struct {
	Kind         string       `json:"kind"`
	Center       *Coordinate  `json:"center,omitempty"`
	RadiusMeters float64      `json:"radius_meters,omitempty"`
	Vertices     []Coordinate `json:"vertices,omitempty"`
}

func (f Geofence) MarshalJSON() ([]byte, error) {
	doc := geofenceJSON{ID: f.ID, Name: f.Name, Metadata: f.Metadata}
	switch s := f.Shape.(type) {
	case Circle:
		center := s.Center
		doc.Shape = shapeJSON{Kind: ShapeCircle, Center: &center, RadiusMeters: s.RadiusMeters}
	case Polygon:
		doc.Shape = shapeJSON{Kind: ShapePolygon, Vertices: s.Vertices}
	case nil:
		return nil, fmt.Errorf("%w: missing shape", ErrInvalidGeofence)
	default:
		return nil, fmt.Errorf("%w: unsupported shape %T", ErrInvalidGeofence, f.Shape)
	}
	return json.Marshal(doc)
}

func (f *Geofence) UnmarshalJSON(data []byte) error {
	var doc geofenceJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	f.ID = doc.ID
	f.Name = doc.Name
	f.Metadata = doc.Metadata
	switch doc.Shape.Kind {
	case ShapeCircle:
		var center Coordinate
		if doc.Shape.Center != nil {
			center = *doc.Shape.Center
		}
		f.Shape = Circle{Center: center, RadiusMeters: doc.Shape.RadiusMeters}
	case ShapePolygon:
		f.Shape = Polygon{Vertices: doc.Shape.Vertices}
	default:
		return fmt.Errorf("%w: unknown shape kind %q", ErrInvalidGeofence, doc.Shape.Kind)
	}
	return nil
}
