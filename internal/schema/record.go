package schema

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/counsel/pkg/record"
)

// sentinels are placeholder answers models give for enum fields they could
// not fill. They become null unless the enum itself allows them.
var sentinels = map[string]bool{
	"":               true,
	"none":           true,
	"n/a":            true,
	"na":             true,
	"null":           true,
	"not specified":  true,
	"not applicable": true,
}

// Warning reports a mandatory field or child absent from a record.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Path + ": " + w.Message
}

// Unwrap strips the root wrapper key (RootKey or the schema name) from v,
// repeatedly, so {"MASTER_SERVICE_AGREEMENT": {"MASTER_SERVICE_AGREEMENT": {...}}}
// yields the inner object. Keys beside the wrapper are merged under the
// wrapped content.
func (n *Node) Unwrap(v record.Value) record.Value {
	for v.Kind() == record.KindObject {
		inner, key, ok := n.wrapped(v)
		if !ok {
			return v
		}

		rest := record.Object()
		for _, k := range v.Keys() {
			if k != key {
				f, _ := v.Get(k)
				rest = rest.With(k, f)
			}
		}
		v, _ = record.Merge(inner, rest)
	}
	return v
}

func (n *Node) wrapped(v record.Value) (record.Value, string, bool) {
	for _, key := range []string{n.RootKey(), n.Name} {
		if inner, ok := v.Get(key); ok && inner.Kind() == record.KindObject {
			return inner, key, true
		}
	}
	return record.Value{}, "", false
}

// Validate walks mandatory fields and children and returns a warning for each
// one absent or null. It descends only into children that are present.
func (n *Node) Validate(v record.Value) []Warning {
	var warnings []Warning
	n.validate("", v, &warnings)
	return warnings
}

func (n *Node) validate(path string, v record.Value, warnings *[]Warning) {
	if v.Kind() != record.KindObject {
		return
	}

	for _, f := range n.Fields {
		if !f.Mandatory {
			continue
		}
		if fv, ok := v.Get(f.Name); !ok || fv.IsNull() {
			*warnings = append(*warnings, Warning{
				Path:    join(path, f.Name),
				Message: "missing mandatory field",
			})
		}
	}

	for _, c := range n.Children {
		cp := join(path, c.Name)
		cv, ok := v.Get(c.Name)
		if !ok || cv.IsNull() {
			if c.Mandatory {
				*warnings = append(*warnings, Warning{
					Path:    cp,
					Message: "missing mandatory section",
				})
			}
			continue
		}

		switch cv.Kind() {
		case record.KindObject:
			c.validate(cp, cv, warnings)
		case record.KindList:
			for i, item := range cv.Items() {
				c.validate(fmt.Sprintf("%s[%d]", cp, i), item, warnings)
			}
		}
	}
}

// Normalize replaces enum placeholder answers ("N/A", "not specified", ...)
// with null throughout v and reports how many values it replaced. A
// placeholder that is itself an allowed value, such as "None" for a license
// type, is kept.
func (n *Node) Normalize(v record.Value) (record.Value, int) {
	count := 0
	out := n.normalize(v, &count)
	return out, count
}

func (n *Node) normalize(v record.Value, count *int) record.Value {
	switch v.Kind() {
	case record.KindObject:
	case record.KindList:
		items := v.Items()
		for i, item := range items {
			items[i] = n.normalizeItem(item, count)
		}
		return record.List(items...)
	default:
		return v
	}

	for _, f := range n.Fields {
		if f.Type != TypeEnum {
			continue
		}
		fv, ok := v.Get(f.Name)
		if !ok {
			continue
		}
		if s, isStr := fv.Str(); isStr && placeholder(f, s) {
			v = v.With(f.Name, record.Null())
			*count++
		}
	}

	for _, c := range n.Children {
		if cv, ok := v.Get(c.Name); ok {
			v = v.With(c.Name, c.normalize(cv, count))
		}
	}

	return v
}

// normalizeItem handles list elements, including bare strings a model emits
// in place of {"value": ...} objects.
func (n *Node) normalizeItem(item record.Value, count *int) record.Value {
	s, isStr := item.Str()
	if !isStr {
		return n.normalize(item, count)
	}
	if len(n.Fields) == 1 && n.Fields[0].Type == TypeEnum && placeholder(n.Fields[0], s) {
		*count++
		return record.Null()
	}
	return item
}

func placeholder(f Field, s string) bool {
	s = strings.TrimSpace(s)
	return sentinels[strings.ToLower(s)] && !f.Allows(s)
}
