// Package hal renders resources in the JSON Hypertext Application Language
// format: resource fields flattened next to a "_links" object, collections
// under "_embedded".
package hal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MediaType is the content type of HAL documents.
const MediaType = "application/hal+json"

// Relation names shared by the resources of this service.
const (
	RelSelf = "self"
)

// Link is a single hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// Rel pairs a relation name with its link.
type Rel struct {
	Name string
	Link Link
}

// Links keeps relations in insertion order, which is the order they are rendered in.
type Links []Rel

// NewLink is shorthand for a Rel with an href.
func NewLink(rel, href string) Rel {
	return Rel{Name: rel, Link: Link{Href: href}}
}

// Href returns the href of rel and whether it is present.
func (l Links) Href(rel string) (string, bool) {
	for _, r := range l {
		if r.Name == rel {
			return r.Link.Href, true
		}
	}
	return "", false
}

func (l Links) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(r.Name)
		if err != nil {
			return nil, err
		}
		link, err := json.Marshal(r.Link)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(link)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Model is a single resource with its links.
type Model[T any] struct {
	Content T
	Links   Links
}

// NewModel wraps content. Content must marshal to a JSON object.
func NewModel[T any](content T, links ...Rel) Model[T] {
	return Model[T]{Content: content, Links: links}
}

func (m Model[T]) MarshalJSON() ([]byte, error) {
	content, err := json.Marshal(m.Content)
	if err != nil {
		return nil, err
	}
	content = bytes.TrimSpace(content)
	if len(content) < 2 || content[0] != '{' || content[len(content)-1] != '}' {
		return nil, fmt.Errorf("hal: content of type %T is not a JSON object", m.Content)
	}

	links, err := json.Marshal(m.Links)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(content[:len(content)-1])
	if len(bytes.TrimSpace(content[1:len(content)-1])) > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString(`"_links":`)
	buf.Write(links)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CollectionModel is a list of resources embedded under a single relation.
// An empty collection renders without "_embedded".
type CollectionModel[T any] struct {
	Rel   string
	Items []Model[T]
	Links Links
}

// NewCollectionModel embeds items under rel.
func NewCollectionModel[T any](rel string, items []Model[T], links ...Rel) CollectionModel[T] {
	return CollectionModel[T]{Rel: rel, Items: items, Links: links}
}

func (c CollectionModel[T]) MarshalJSON() ([]byte, error) {
	type document struct {
		Embedded map[string][]Model[T] `json:"_embedded,omitempty"`
		Links    Links                 `json:"_links"`
	}

	doc := document{Links: c.Links}
	if doc.Links == nil {
		doc.Links = Links{}
	}
	if len(c.Items) > 0 {
		doc.Embedded = map[string][]Model[T]{c.Rel: c.Items}
	}
	return json.Marshal(doc)
}
