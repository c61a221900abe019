package bus

// Rect is a view-space rectangle given by its top-left corner and size.
type Rect struct {
	X, Y, Width, Height float64
}

// DataRect is the data-space range an annotation covers.
type DataRect struct {
	X1, X2, Y1, Y2 float64
}

// AnnotationDrawn is published by an annotation track for every annotation it
// draws.
type AnnotationDrawn struct {
	Source string   // track that drew the annotation
	ID     string   // annotation identifier, stable across redraws
	View   Rect     // view-space position
	Data   DataRect // data-space extent
}

// TilesDrawn is published by a track once it finished drawing its tiles.
type TilesDrawn struct {
	Source string
}

// Zoom is published by the view that owns the zoom transform.
type Zoom struct {
	K      float64 // scale
	TX, TY float64 // translation
}

// TilesDrawnEnd is the global topic every tiled track publishes to.
var TilesDrawnEnd = NewTopic[TilesDrawn]("tilesDrawnEnd")

// AnnotationDrawnTopic returns the per-track annotation topic "<track>.annotationDrawn".
func AnnotationDrawnTopic(track string) Topic[AnnotationDrawn] {
	return NewTopic[AnnotationDrawn](track + ".annotationDrawn")
}

// ZoomTopic returns the per-track zoom topic "<track>.zoom".
func ZoomTopic(track string) Topic[Zoom] {
	return NewTopic[Zoom](track + ".zoom")
}
