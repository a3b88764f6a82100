package ast

import (
	"fmt"
	"strings"
)

// Direction is the declared traversal direction of a relationship pattern.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "OUTGOING"
	case Incoming:
		return "INCOMING"
	case Both:
		return "BOTH"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// Reversed returns the direction seen from the opposite endpoint.
func (d Direction) Reversed() Direction {
	switch d {
	case Outgoing:
		return Incoming
	case Incoming:
		return Outgoing
	default:
		return Both
	}
}

// Length is the length kind of a relationship pattern: a single
// relationship, or a variable-length chain of Min..Max relationships.
type Length struct {
	Variable bool
	Min      int
	Max      int
}

// SimpleLength is the length of a single-relationship pattern.
func SimpleLength() Length {
	return Length{}
}

// VarLength is the length of a variable-length pattern.
func VarLength(min, max int) Length {
	return Length{Variable: true, Min: min, Max: max}
}

func (l Length) String() string {
	if !l.Variable {
		return ""
	}
	return fmt.Sprintf("*%d..%d", l.Min, l.Max)
}

// PatternRelationship is one relationship of a MATCH pattern. Node and
// relationship names reference pattern variables; an empty type set matches
// any relationship type.
type PatternRelationship struct {
	StartNode string
	EndNode   string
	Variable  string
	Direction Direction
	Types     []string
	Length    Length
}

func (p PatternRelationship) String() string {
	rel := p.Variable
	if len(p.Types) > 0 {
		rel += ":" + strings.Join(p.Types, "|")
	}
	rel += p.Length.String()

	switch p.Direction {
	case Outgoing:
		return fmt.Sprintf("(%s)-[%s]->(%s)", p.StartNode, rel, p.EndNode)
	case Incoming:
		return fmt.Sprintf("(%s)<-[%s]-(%s)", p.StartNode, rel, p.EndNode)
	default:
		return fmt.Sprintf("(%s)-[%s]-(%s)", p.StartNode, rel, p.EndNode)
	}
}

// Otherwise returns the endpoint opposite to the given node name.
func (p PatternRelationship) Otherwise(node string) string {
	if node == p.StartNode {
		return p.EndNode
	}
	return p.StartNode
}
