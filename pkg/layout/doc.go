// Package layout computes where insets are drawn.
//
// Two strategies implement [Strategy]:
//
//   - [Center] relaxes insets around their origins with a seeded simulated
//     annealing pass. It uses the inset [insets.Store] so settled insets keep
//     their position between frames.
//   - [Gallery] packs insets into fixed slots around the canvas border. It is
//     stateless: every call assigns slots from scratch.
//
// Both return one [Placement] per positioned inset.
//
// # Choosing a strategy
//
//	s, err := layout.New(layout.ModeCenter, layout.Options{})
//	placements := s.Place(in)
package layout
