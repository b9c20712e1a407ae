package graph

import "log"

// ResolvedImage is one upstream image artifact together with the node
// it came from. Order is meaningful: it follows edge-list order and
// affects what the generator produces.
type ResolvedImage struct {
	SourceNodeID string
	Image        string
}

// ResolvedInputs is the concrete input set for one generator node.
type ResolvedInputs struct {
	Images []ResolvedImage
	Prompt string
}

// ResolveInputs walks the edge set and assembles the inputs feeding
// targetID. Image edges resolve in edge-list order (stable, so the
// ordering that shaped a cached output is reproducible); sources that
// have no image yet are skipped. For text, only the first text edge is
// honored — wiring more than one is ambiguous and logged. An empty
// result is valid here; whether it is enough to generate is the
// engine's call.
func ResolveInputs(targetID string, g *Graph) ResolvedInputs {
	var out ResolvedInputs
	textEdges := 0

	for _, edge := range g.Edges {
		if edge.Target != targetID {
			continue
		}
		source := g.NodeByID(edge.Source)
		if source == nil {
			continue
		}

		switch edge.TargetHandle {
		case HandleImage:
			src, ok := source.Data.(ImageSource)
			if !ok {
				continue
			}
			if img := src.OutputImage(); img != "" {
				out.Images = append(out.Images, ResolvedImage{
					SourceNodeID: source.ID,
					Image:        img,
				})
			}
		case HandleText:
			textEdges++
			if textEdges > 1 {
				log.Printf("graph: node %s has %d text edges, using the first", targetID, textEdges)
				continue
			}
			if src, ok := source.Data.(TextSource); ok {
				out.Prompt = src.OutputText()
			}
		}
	}

	return out
}
