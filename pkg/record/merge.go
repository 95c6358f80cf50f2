package record

import "slices"

// Conflict records a scalar disagreement resolved in favor of the base value.
type Conflict struct {
	Path      string `json:"path"`
	Kept      Value  `json:"kept"`
	Discarded Value  `json:"discarded"`
}

// Merge deep-merges update into base.
//
// Keys present only in update are taken as-is, including nulls. A blank value
// (null or "") never replaces anything and is always replaced by a non-blank
// one. Objects merge recursively and lists concatenate, skipping update items
// already present. When both sides hold different non-blank scalars, or values
// of different kinds, base wins and the disagreement is returned as a Conflict.
func Merge(base, update Value) (Value, []Conflict) {
	var conflicts []Conflict
	merged := merge("", base, update, &conflicts)
	return merged, conflicts
}

// MergeAll folds values left to right with Merge, so earlier values win
// genuine conflicts. It returns null when values is empty.
func MergeAll(values ...Value) (Value, []Conflict) {
	if len(values) == 0 {
		return Null(), nil
	}

	var conflicts []Conflict
	acc := values[0]
	for _, v := range values[1:] {
		acc = merge("", acc, v, &conflicts)
	}
	return acc, conflicts
}

func merge(path string, base, update Value, conflicts *[]Conflict) Value {
	switch {
	case update.IsBlank():
		return base
	case base.IsBlank():
		return update
	}

	switch {
	case base.kind == KindObject && update.kind == KindObject:
		return mergeObjects(path, base, update, conflicts)
	case base.kind == KindList && update.kind == KindList:
		return mergeLists(base, update)
	case base.Equal(update):
		return base
	}

	*conflicts = append(*conflicts, Conflict{
		Path:      pathOrRoot(path),
		Kept:      base,
		Discarded: update,
	})
	return base
}

func mergeObjects(path string, base, update Value, conflicts *[]Conflict) Value {
	fields := make([]Field, 0, len(base.keys)+len(update.keys))

	for _, k := range base.keys {
		bv := base.fields[k]
		if uv, ok := update.fields[k]; ok {
			bv = merge(join(path, k), bv, uv, conflicts)
		}
		fields = append(fields, KV(k, bv))
	}

	for _, k := range update.keys {
		if _, ok := base.fields[k]; !ok {
			fields = append(fields, KV(k, update.fields[k]))
		}
	}

	return Object(fields...)
}

func mergeLists(base, update Value) Value {
	items := slices.Clone(base.items)
	for _, u := range update.items {
		if !slices.ContainsFunc(items, u.Equal) {
			items = append(items, u)
		}
	}
	return Value{kind: KindList, items: items}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func pathOrRoot(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
