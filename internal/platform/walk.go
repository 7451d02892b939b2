package platform

import (
	"strings"

	"github.com/mj1618/autoallow/internal/model"
)

// Walk visits the descendants of root depth-first in tree order. Direct
// children of root are at depth 1; maxDepth <= 0 means unlimited. When fn
// returns false the subtree below that control is skipped. Controls whose
// children cannot be listed are treated as leaves.
func Walk(root Control, maxDepth int, fn func(c Control, depth int) bool) {
	walk(root, 1, maxDepth, fn)
}

func walk(parent Control, depth, maxDepth int, fn func(Control, int) bool) {
	if maxDepth > 0 && depth > maxDepth {
		return
	}
	children, err := parent.Children()
	if err != nil {
		return
	}
	for _, c := range children {
		if fn(c, depth) {
			walk(c, depth+1, maxDepth, fn)
		}
	}
}

// Descendants returns the descendants of root whose control type equals
// controlType (case-insensitive), in tree order.
func Descendants(root Control, controlType string, maxDepth int) []Control {
	var found []Control
	Walk(root, maxDepth, func(c Control, _ int) bool {
		if strings.EqualFold(c.Info().ControlType, controlType) {
			found = append(found, c)
		}
		return true
	})
	return found
}

// Snapshot copies the tree below root into model elements, root included.
func Snapshot(root Control, maxDepth int) model.Element {
	el := model.Element{ElementInfo: root.Info()}
	el.Children = snapshotChildren(root, 1, maxDepth)
	return el
}

func snapshotChildren(parent Control, depth, maxDepth int) []model.Element {
	if maxDepth > 0 && depth > maxDepth {
		return nil
	}
	children, err := parent.Children()
	if err != nil {
		return nil
	}
	var result []model.Element
	for _, c := range children {
		el := model.Element{ElementInfo: c.Info()}
		el.Children = snapshotChildren(c, depth+1, maxDepth)
		result = append(result, el)
	}
	return result
}
