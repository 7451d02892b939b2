package model

// ControlTypeMap maps UI Automation control type ids to their names.
var ControlTypeMap = map[int]string{
	50000: "Button",
	50001: "Calendar",
	50002: "CheckBox",
	50003: "ComboBox",
	50004: "Edit",
	50005: "Hyperlink",
	50006: "Image",
	50007: "ListItem",
	50008: "List",
	50009: "Menu",
	50010: "MenuBar",
	50011: "MenuItem",
	50012: "ProgressBar",
	50013: "RadioButton",
	50014: "ScrollBar",
	50015: "Slider",
	50016: "Spinner",
	50017: "StatusBar",
	50018: "Tab",
	50019: "TabItem",
	50020: "Text",
	50021: "ToolBar",
	50022: "ToolTip",
	50023: "Tree",
	50024: "TreeItem",
	50025: "Custom",
	50026: "Group",
	50027: "Thumb",
	50028: "DataGrid",
	50029: "DataItem",
	50030: "Document",
	50031: "SplitButton",
	50032: "Window",
	50033: "Pane",
	50034: "Header",
	50035: "HeaderItem",
	50036: "Table",
	50037: "TitleBar",
	50038: "Separator",
	50039: "SemanticZoom",
	50040: "AppBar",
}

// Candidate control types searched for the Allow affordance, in priority
// order. MenuButton has no UI Automation id of its own.
const (
	TypeButton      = "Button"
	TypeSplitButton = "SplitButton"
	TypeMenuButton  = "MenuButton"
	TypeMenuItem    = "MenuItem"
	TypeHyperlink   = "Hyperlink"
	TypeText        = "Text"
)

// CandidateTypes is the default category priority list.
var CandidateTypes = []string{
	TypeButton,
	TypeSplitButton,
	TypeMenuButton,
	TypeMenuItem,
	TypeHyperlink,
	TypeText,
}

// ControlTypeName converts a control type id to its name.
func ControlTypeName(id int) string {
	if name, ok := ControlTypeMap[id]; ok {
		return name
	}
	return "Unknown"
}

// isContainerType reports types that carry no information when unnamed.
func isContainerType(t string) bool {
	switch t {
	case "Group", "Pane", "Custom", "Unknown":
		return true
	}
	return false
}
