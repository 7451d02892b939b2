package model

// FlatElement is an element with a depth and path breadcrumb instead of
// children. It is the row format of diagnostic dumps.
type FlatElement struct {
	Type    string `yaml:"type"              json:"type"`
	Name    string `yaml:"name,omitempty"    json:"name,omitempty"`
	ID      string `yaml:"id,omitempty"      json:"id,omitempty"`
	Class   string `yaml:"class,omitempty"   json:"class,omitempty"`
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Visible *bool  `yaml:"visible,omitempty" json:"visible,omitempty"`
	Pos     string `yaml:"pos,omitempty"     json:"pos,omitempty"`
	Size    string `yaml:"size,omitempty"    json:"size,omitempty"`
	Depth   int    `yaml:"depth"             json:"depth"`
	Path    string `yaml:"-"                 json:"-"`
}

// FlattenElements converts a tree of elements into a flat list in
// depth-first order. Top-level elements get depth 0. Each element gets a
// path string of control types joined with " > ".
func FlattenElements(elements []Element) []FlatElement {
	var result []FlatElement
	for _, el := range elements {
		flattenRecursive(el, "", 0, &result)
	}
	return result
}

func flattenRecursive(el Element, parentPath string, depth int, result *[]FlatElement) {
	currentPath := el.ControlType
	if parentPath != "" {
		currentPath = parentPath + " > " + el.ControlType
	}

	*result = append(*result, FlattenInfo(el.ElementInfo, depth, currentPath))

	for _, child := range el.Children {
		flattenRecursive(child, currentPath, depth+1, result)
	}
}

// FlattenInfo builds a single dump row.
func FlattenInfo(info ElementInfo, depth int, path string) FlatElement {
	flat := FlatElement{
		Type:    info.ControlType,
		Name:    info.Name,
		ID:      info.AutomationID,
		Class:   info.ClassName,
		Enabled: info.Enabled,
		Visible: info.Visible,
		Depth:   depth,
		Path:    path,
	}
	if info.Bounds != nil {
		flat.Pos = info.Bounds.Pos()
		flat.Size = info.Bounds.Size()
	}
	return flat
}
