package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestElement_JSONKeys(t *testing.T) {
	el := Element{ElementInfo: ElementInfo{
		ControlType:  "Button",
		Name:         "Allow",
		AutomationID: "allow-btn",
		Bounds:       &Rect{X: 10, Y: 20, Width: 100, Height: 30},
	}}
	data, err := json.Marshal(el)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"type", "name", "id", "bounds"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in JSON output", key)
		}
	}
	if _, ok := m["ElementInfo"]; ok {
		t.Error("embedded struct should be flattened in JSON output")
	}
}

func TestElement_OmitUnknown(t *testing.T) {
	el := Element{ElementInfo: ElementInfo{ControlType: "Pane"}}
	data, err := json.Marshal(el)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"name", "id", "class", "enabled", "visible", "bounds", "children"} {
		if _, ok := m[key]; ok {
			t.Errorf("unknown or empty %q should be omitted", key)
		}
	}
}

func TestElement_YAMLInline(t *testing.T) {
	el := Element{
		ElementInfo: ElementInfo{ControlType: "Window", Name: "Main"},
		Children: []Element{
			{ElementInfo: ElementInfo{ControlType: "Button", Name: "Allow", Enabled: Bool(false)}},
		},
	}
	data, err := yaml.Marshal(el)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "Window" {
		t.Errorf("type: got %v, want Window", m["type"])
	}
	children, ok := m["children"].([]interface{})
	if !ok || len(children) != 1 {
		t.Fatalf("expected 1 child, got %v", m["children"])
	}
	child := children[0].(map[string]interface{})
	if child["enabled"] != false {
		t.Errorf("enabled=false should be included, got %v", child["enabled"])
	}
}

func TestElementInfo_UnknownFlagsDefaultTrue(t *testing.T) {
	var info ElementInfo
	if !info.IsEnabled() {
		t.Error("unknown enabled should read as enabled")
	}
	if !info.IsVisible() {
		t.Error("unknown visible should read as visible")
	}
	info.Enabled = Bool(false)
	info.Visible = Bool(false)
	if info.IsEnabled() || info.IsVisible() {
		t.Error("explicit false flags should be honoured")
	}
}

func TestRect_Formatting(t *testing.T) {
	r := Rect{X: 100, Y: 200, Width: 80, Height: 24}
	if got := r.Pos(); got != "(100,200)" {
		t.Errorf("Pos() = %q", got)
	}
	if got := r.Size(); got != "80x24" {
		t.Errorf("Size() = %q", got)
	}
	x, y := r.Center()
	if x != 140 || y != 212 {
		t.Errorf("Center() = (%d,%d), want (140,212)", x, y)
	}
}

func TestParseHandle(t *testing.T) {
	tests := []struct {
		input string
		want  Handle
	}{
		{"132456", 132456},
		{"0x1F4", 500},
	}
	for _, tt := range tests {
		got, err := ParseHandle(tt.input)
		if err != nil {
			t.Errorf("ParseHandle(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHandle(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
	if _, err := ParseHandle("hwnd"); err == nil {
		t.Error("ParseHandle(\"hwnd\") should fail")
	}
}

func TestHandle_String(t *testing.T) {
	if got := Handle(65890).String(); got != "65890" {
		t.Errorf("String() = %q", got)
	}
}
