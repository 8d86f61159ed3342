// Package drawer renders simulation artefacts: the sweep pipeline topology
// as a DOT graph with a timing colour gradient, and G81 lattices as SVG.
package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1"

	"github.com/Gurrzz/qec-bsc/internal/graphstore"
	"github.com/Gurrzz/qec-bsc/pkg/sim/measure"
)

// SweepDrawer accumulates the stage topology of a sweep and writes it as a
// DOT file, annotated with stage and channel timings when a measure is
// attached.
type SweepDrawer struct {
	store    graphstore.Store[string, string]
	graph    graph.Graph[string, string]
	fileName string
}

// NewSweepDrawer creates a drawer writing to the given DOT file.
func NewSweepDrawer(fileName string) *SweepDrawer {
	store := graphstore.New[string, string]()

	return &SweepDrawer{
		store:    store,
		graph:    graph.NewWithStore(graph.StringHash, store, graph.Directed()),
		fileName: fileName,
	}
}

// AddStage adds a stage vertex to the topology.
func (d *SweepDrawer) AddStage(name string) error {
	if err := d.graph.AddVertex(name); err != nil {
		return errors.Wrapf(err, "add vertex %s", name)
	}

	return nil
}

// AddLink adds a directed edge from a feeding stage to its consumer.
func (d *SweepDrawer) AddLink(parentName, childName string) error {
	if err := d.graph.AddEdge(parentName, childName); err != nil {
		return errors.Wrapf(err, "add edge %s -> %s", parentName, childName)
	}

	return nil
}

// SetTotalTime labels a stage with the elapsed wall time since start.
func (d *SweepDrawer) SetTotalTime(stageName string, start time.Time) {
	d.store.UpdateVertex(stageName, func(p *graph.VertexProperties) {
		if p.Attributes == nil {
			p.Attributes = map[string]string{}
		}
		p.Attributes["xlabel"] = time.Since(start).String()
	})
}

const maxRGB = 240

// AddMeasure labels stages with their average computation time and colours
// edges on a blue-to-red gradient by average feed time.
func (d *SweepDrawer) AddMeasure(msr *measure.Measure) error {
	gradient := map[time.Duration]string{}
	var sorted []time.Duration

	for _, stage := range msr.All() {
		for _, info := range stage.AVGFeedDuration() {
			if info.Elapsed == 0 {
				continue
			}
			if _, ok := gradient[info.Elapsed]; ok {
				continue
			}
			gradient[info.Elapsed] = ""
			sorted = append(sorted, info.Elapsed)
		}
	}
	if len(sorted) == 0 {
		return d.updateMetrics(msr, gradient)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	maxValue := sorted[0]
	minValue := sorted[len(sorted)-1]

	for curr := range gradient {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(curr-minValue) / float64(maxValue-minValue)
		}

		red := uint8(maxRGB * fraction)
		blue := uint8(maxRGB * (1 - fraction))
		c, err := colors.RGB(red, 0, blue)
		if err != nil {
			return errors.Wrap(err, "gradient colour")
		}
		gradient[curr] = c.ToHEX().String()
	}

	return d.updateMetrics(msr, gradient)
}

func (d *SweepDrawer) updateMetrics(msr *measure.Measure, gradient map[time.Duration]string) error {
	for name, stage := range msr.All() {
		avg := stage.AVGDuration()
		total := stage.TotalDuration()
		d.store.UpdateVertex(name, func(p *graph.VertexProperties) {
			if p.Attributes == nil {
				p.Attributes = map[string]string{}
			}
			if avg != 0 {
				p.Attributes["xlabel"] = avg.String()
			}
			if total > 0 {
				p.Attributes["xlabel"] += ", end: " + total.String()
			}
		})

		for feed, info := range stage.Feeds() {
			if info.Elapsed == 0 {
				continue
			}
			err := d.graph.UpdateEdge(feed, name,
				graph.EdgeAttribute("label", info.Elapsed.String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", gradient[info.Elapsed]),
			)
			if err != nil {
				return errors.Wrapf(err, "update edge %s -> %s", feed, name)
			}
		}
	}

	return nil
}

// Draw writes the topology as a DOT file.
func (d *SweepDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "create %s", d.fileName)
	}
	defer file.Close()

	return dot(d.graph, file)
}

const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot[K comparable, T any](g graph.Graph[K, T], wrt io.Writer) error {
	desc, err := generateDOT(g)
	if err != nil {
		return errors.Wrap(err, "generate DOT description")
	}

	return renderDOT(wrt, desc)
}

func generateDOT[K comparable, T any](g graph.Graph[K, T]) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	if g.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := g.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "adjacency map")
	}

	for vertex, adjacencies := range adjacencyMap {
		_, sourceProperties, err := g.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "vertex properties")
		}

		htmlAttributes := make(map[string]string)
		if xlabel, ok := sourceProperties.Attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, xlabel)
			delete(sourceProperties.Attributes, "xlabel")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceProperties.Attributes,
			HTMLAttributes:   htmlAttributes,
		})

		for adjacency, edge := range adjacencies {
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "parse template")
	}
	if err := tpl.Execute(wrt, desc); err != nil {
		return errors.Wrap(err, "execute template")
	}

	return nil
}
