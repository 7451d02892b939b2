package model

import "strings"

// FilterElements keeps elements whose control type is in types. Elements
// that don't match but have matching descendants are replaced by those
// descendants.
func FilterElements(elements []Element, types []string) []Element {
	if len(types) == 0 {
		return elements
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[strings.ToLower(t)] = true
	}
	return filterByType(elements, typeSet)
}

func filterByType(elements []Element, typeSet map[string]bool) []Element {
	var result []Element
	for _, el := range elements {
		var filteredChildren []Element
		if len(el.Children) > 0 {
			filteredChildren = filterByType(el.Children, typeSet)
		}

		if typeSet[strings.ToLower(el.ControlType)] {
			filtered := el
			filtered.Children = filteredChildren
			result = append(result, filtered)
		} else if len(filteredChildren) > 0 {
			result = append(result, filteredChildren...)
		}
	}
	return result
}

// FilterByText filters elements to those whose name, automation id or class
// contains text (case-insensitive). Ancestors of matches are kept so the
// structure stays readable.
func FilterByText(elements []Element, text string) []Element {
	if text == "" {
		return elements
	}
	textLower := strings.ToLower(text)
	var result []Element
	for _, el := range elements {
		matched := textMatchesElement(el.ElementInfo, textLower)
		childMatches := FilterByText(el.Children, text)

		if matched || len(childMatches) > 0 {
			filtered := el
			filtered.Children = childMatches
			result = append(result, filtered)
		}
	}
	return result
}

func textMatchesElement(info ElementInfo, textLower string) bool {
	return strings.Contains(strings.ToLower(info.Name), textLower) ||
		strings.Contains(strings.ToLower(info.AutomationID), textLower) ||
		strings.Contains(strings.ToLower(info.ClassName), textLower)
}

// isEmptyContainer returns true for unnamed structural nodes (Group, Pane,
// Custom) with no automation id.
func isEmptyContainer(el Element) bool {
	return isContainerType(el.ControlType) && el.Name == "" && el.AutomationID == ""
}

// PruneEmptyContainers removes anonymous container nodes from a tree,
// promoting their children to the parent. Electron windows nest dozens of
// such panes around every control.
func PruneEmptyContainers(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		prunedChildren := PruneEmptyContainers(el.Children)

		if isEmptyContainer(el) {
			result = append(result, prunedChildren...)
		} else {
			pruned := el
			pruned.Children = prunedChildren
			result = append(result, pruned)
		}
	}
	return result
}
