package model

import (
	"crypto/sha256"
	"fmt"
)

// HashChange represents a changed element detected by hash-based diffing.
type HashChange struct {
	Type    string               `yaml:"type"           json:"type"`
	Name    string               `yaml:"name,omitempty" json:"name,omitempty"`
	Path    string               `yaml:"path"           json:"path"`
	Changes map[string][2]string `yaml:"changes"        json:"changes"`
}

// TreeDiff is the result of comparing two element snapshots by content hash.
type TreeDiff struct {
	Added          []FlatElement `yaml:"added,omitempty"   json:"added,omitempty"`
	Removed        []FlatElement `yaml:"removed,omitempty" json:"removed,omitempty"`
	Changed        []HashChange  `yaml:"changed,omitempty" json:"changed,omitempty"`
	UnchangedCount int           `yaml:"unchanged_count"   json:"unchanged_count"`
}

// Empty reports whether the diff carries no additions, removals or changes.
func (d TreeDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// ElementHash computes a stable identity hash for an element from its
// semantic content and position in the tree, so elements can be matched
// across separate reads.
func ElementHash(el FlatElement) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s", el.Type, el.Name, el.ID, el.Class, el.Path)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// DiffElementsByHash compares two flat element lists using content hashing
// for identity. Elements sharing a hash collapse to the last occurrence.
func DiffElementsByHash(prev, curr []FlatElement) TreeDiff {
	prevByHash := make(map[string]FlatElement, len(prev))
	for _, el := range prev {
		prevByHash[ElementHash(el)] = el
	}
	currByHash := make(map[string]FlatElement, len(curr))
	for _, el := range curr {
		currByHash[ElementHash(el)] = el
	}

	var diff TreeDiff

	for _, el := range curr {
		prevEl, existed := prevByHash[ElementHash(el)]
		if !existed {
			diff.Added = append(diff.Added, el)
			continue
		}
		changes := diffProperties(prevEl, el)
		if len(changes) > 0 {
			diff.Changed = append(diff.Changed, HashChange{
				Type:    el.Type,
				Name:    el.Name,
				Path:    el.Path,
				Changes: changes,
			})
		} else {
			diff.UnchangedCount++
		}
	}

	for _, el := range prev {
		if _, exists := currByHash[ElementHash(el)]; !exists {
			diff.Removed = append(diff.Removed, el)
		}
	}

	return diff
}

// diffProperties compares the mutable properties of two elements matched by
// hash: enabled, visible, position and size.
func diffProperties(prev, curr FlatElement) map[string][2]string {
	diffs := make(map[string][2]string)

	if fmtFlag(prev.Enabled) != fmtFlag(curr.Enabled) {
		diffs["enabled"] = [2]string{fmtFlag(prev.Enabled), fmtFlag(curr.Enabled)}
	}
	if fmtFlag(prev.Visible) != fmtFlag(curr.Visible) {
		diffs["visible"] = [2]string{fmtFlag(prev.Visible), fmtFlag(curr.Visible)}
	}
	if prev.Pos != curr.Pos {
		diffs["pos"] = [2]string{prev.Pos, curr.Pos}
	}
	if prev.Size != curr.Size {
		diffs["size"] = [2]string{prev.Size, curr.Size}
	}

	if len(diffs) == 0 {
		return nil
	}
	return diffs
}

func fmtFlag(b *bool) string {
	if b == nil {
		return "unknown"
	}
	return fmt.Sprintf("%v", *b)
}
