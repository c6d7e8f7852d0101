package normalization

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	rdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	predNS = "http://s.opencalais.com/1/pred/"
)

// Node type groups and names found in rdf:type resources.
const (
	ClassEntity        = "e"
	ClassRelation      = "r"
	ClassRelevanceInfo = "RelevanceInfo"
	ClassInstanceInfo  = "InstanceInfo"
	ClassSocialTag     = "SocialTag"
	ClassDocCat        = "DocCat"
)

// NodeClass is the outcome of classifying a top-level RDF node. Known is
// false when the node carries no usable rdf:type.
type NodeClass struct {
	Known     bool
	Group     string
	Name      string
	Reference string
}

// Node is a minimal element tree decoded from RDF/XML.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	text     strings.Builder
}

// Text returns the concatenated character data directly inside n.
func (n *Node) Text() string { return n.text.String() }

// Attr looks up an attribute in namespace ns; undeclared prefixes are
// matched by their literal prefix.
func (n *Node) Attr(ns, prefix, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local && (a.Name.Space == ns || a.Name.Space == prefix) {
			return a.Value
		}
	}
	return ""
}

// find returns the first descendant of n (document order, n excluded)
// accepted by match.
func (n *Node) find(match func(*Node) bool) *Node {
	for _, c := range n.Children {
		if match(c) {
			return c
		}
		if hit := c.find(match); hit != nil {
			return hit
		}
	}
	return nil
}

func (n *Node) about() string    { return n.Attr(rdfNS, "rdf", "about") }
func (n *Node) resource() string { return n.Attr(rdfNS, "rdf", "resource") }

func isRDF(n *Node, local string) bool {
	return n.Name.Local == local && (n.Name.Space == rdfNS || n.Name.Space == "rdf")
}

func isPredicate(n *Node) bool {
	return n.Name.Space == predNS || n.Name.Space == "c"
}

func isPredicateNamed(local string) func(*Node) bool {
	return func(n *Node) bool { return isPredicate(n) && n.Name.Local == local }
}

// Classify reads the node's first rdf:type descendant and splits its
// resource URI into a group and a name.
func Classify(n *Node) NodeClass {
	t := n.find(func(c *Node) bool { return isRDF(c, "type") })
	if t == nil {
		return NodeClass{}
	}
	ref := t.resource()
	group, name, ok := uriTail(ref)
	if !ok {
		return NodeClass{}
	}
	return NodeClass{Known: true, Group: group, Name: name, Reference: ref}
}

// DecodeTree parses r into an element tree and returns the rdf:RDF element
// (or the document root when there is none).
func DecodeTree(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Format: FormatRDF, Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root == nil {
					root = n
				}
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, &DecodeError{Format: FormatRDF, Err: errors.New("document has no root element")}
	}
	if isRDF(root, "RDF") {
		return root, nil
	}
	if doc := root.find(func(c *Node) bool { return isRDF(c, "RDF") }); doc != nil {
		return doc, nil
	}
	return root, nil
}

// ParseRDF normalizes an RDF/XML response. All state is local to the call.
func ParseRDF(r io.Reader) (*Result, error) {
	doc, err := DecodeTree(r)
	if err != nil {
		return nil, err
	}
	p := &rdfParser{res: NewResult(), entities: map[string]*Record{}}
	p.classify(doc.Children)

	steps := []func() error{
		p.parseRelevance,
		p.parseInstances,
		p.parseEntities,
		p.parseRelations,
		p.parseSocialTags,
		p.parseTopics,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return p.res, nil
}

type classified struct {
	node  *Node
	class NodeClass
}

type rdfParser struct {
	nodes    []classified
	res      *Result
	entities map[string]*Record
}

func (p *rdfParser) classify(nodes []*Node) {
	p.nodes = make([]classified, 0, len(nodes))
	for _, n := range nodes {
		c := Classify(n)
		if !c.Known {
			continue
		}
		p.nodes = append(p.nodes, classified{node: n, class: c})
	}
}

func (p *rdfParser) each(match func(NodeClass) bool, fn func(*Node, NodeClass) error) error {
	for _, c := range p.nodes {
		if !match(c.class) {
			continue
		}
		if err := fn(c.node, c.class); err != nil {
			return err
		}
	}
	return nil
}

func named(name string) func(NodeClass) bool {
	return func(c NodeClass) bool { return c.Name == name }
}

func grouped(group string) func(NodeClass) bool {
	return func(c NodeClass) bool { return c.Group == group }
}

func subjectOf(n *Node) (string, error) {
	s := n.find(isPredicateNamed("subject"))
	if s == nil {
		return "", &LookupError{Node: n.about(), Child: "c:subject"}
	}
	return s.resource(), nil
}

func (p *rdfParser) parseRelevance() error {
	return p.each(named(ClassRelevanceInfo), func(n *Node, _ NodeClass) error {
		subject, err := subjectOf(n)
		if err != nil {
			return err
		}
		rel := n.find(isPredicateNamed("relevance"))
		if rel == nil {
			return &LookupError{Node: n.about(), Child: "c:relevance"}
		}
		score, ok := parseScore(rel.Text())
		if !ok {
			return &LookupError{Node: n.about(), Child: "c:relevance", Err: errors.New("not a number: " + rel.Text())}
		}
		p.res.Relevance[subject] = score
		return nil
	})
}

func (p *rdfParser) parseInstances() error {
	return p.each(named(ClassInstanceInfo), func(n *Node, _ NodeClass) error {
		subject, err := subjectOf(n)
		if err != nil {
			return err
		}
		inst := NewRecord(n.about())
		fillMetadata(inst, n, nil)
		p.res.Instances[subject] = append(p.res.Instances[subject], inst)
		return nil
	})
}

// parseEntities creates every entity record before filling any of them, so
// references between entities resolve regardless of document order.
func (p *rdfParser) parseEntities() error {
	var pending []classified
	for _, c := range p.nodes {
		if c.class.Group != ClassEntity {
			continue
		}
		uri := c.node.about()
		// A repeated rdf:about keeps its first node.
		if _, seen := p.entities[uri]; seen {
			continue
		}
		p.entities[uri] = p.stamp(NewRecord(uri), c.class, GroupEntities)
		pending = append(pending, c)
	}
	for _, c := range pending {
		rec := p.entities[c.node.about()]
		fillMetadata(rec, c.node, p.entities)
		p.res.putEntity(rec)
	}
	return nil
}

func (p *rdfParser) parseRelations() error {
	return p.each(grouped(ClassRelation), func(n *Node, c NodeClass) error {
		rec := p.stamp(NewRecord(n.about()), c, GroupRelations)
		fillMetadata(rec, n, p.entities)
		p.res.putRelation(rec)
		return nil
	})
}

func (p *rdfParser) parseSocialTags() error {
	return p.each(named(ClassSocialTag), func(n *Node, _ NodeClass) error {
		rec := NewRecord(n.about())
		fillMetadata(rec, n, nil)
		p.res.SocialTags[rec.URI] = SocialTag{
			URI:        childResource(n, "socialtag", rec.URI),
			Name:       rec.Name(),
			Importance: parseImportance(rec.TextAttr("importance")),
		}
		return nil
	})
}

func (p *rdfParser) parseTopics() error {
	return p.each(named(ClassDocCat), func(n *Node, _ NodeClass) error {
		rec := NewRecord(n.about())
		fillMetadata(rec, n, nil)
		score, _ := parseScore(rec.TextAttr("score"))
		p.res.Topics[rec.URI] = Topic{
			Category:     childResource(n, "category", rec.URI),
			CategoryName: rec.TextAttr("categoryName"),
			Score:        score,
		}
		return nil
	})
}

func (p *rdfParser) stamp(rec *Record, c NodeClass, group string) *Record {
	rec.Type = c.Name
	rec.TypeGroup = group
	rec.TypeReference = c.Reference
	if score, ok := p.res.Relevance[rec.URI]; ok {
		rec.Relevance = &score
	}
	return rec
}

// fillMetadata copies the Calais predicate children of n onto rec. Text
// children become Text values; rdf:resource children become references to
// entities when entities is non-nil (unknown URIs stay as text) and are
// dropped when it is nil.
func fillMetadata(rec *Record, n *Node, entities map[string]*Record) {
	for _, c := range n.Children {
		if !isPredicate(c) {
			continue
		}
		if text := c.Text(); hasText(text) {
			rec.Add(c.Name.Local, Text(text))
			continue
		}
		res := c.resource()
		if res == "" || entities == nil {
			continue
		}
		if target, ok := entities[res]; ok {
			rec.Add(c.Name.Local, Ref(target))
		} else {
			rec.Add(c.Name.Local, Text(res))
		}
	}
}

func childResource(n *Node, local, fallback string) string {
	for _, c := range n.Children {
		if isPredicate(c) && strings.EqualFold(c.Name.Local, local) {
			if res := c.resource(); res != "" {
				return res
			}
		}
	}
	return fallback
}
