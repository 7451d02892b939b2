package dump

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform/fake"
)

func editorTree() *fake.Node {
	return fake.N("Window", "main.go - Visual Studio Code",
		fake.N("Pane", "",
			fake.N("ToolBar", "Editor actions",
				fake.Button("Run"),
				fake.Button("Split Editor"),
			),
			fake.N("Pane", "Chat",
				fake.N("Text", "Run command?"),
				fake.Button("Allow").WithID("chat.confirmation.allow"),
			),
		),
	)
}

func TestWindow_FlattensWithDepth(t *testing.T) {
	d := fake.New()
	w := model.Window{Handle: 0x10, Title: "main.go - Visual Studio Code", Process: "code"}
	d.AddWindow(w, editorTree())

	wd, err := Window(d, w, Options{})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(wd.Elements) != 8 {
		t.Fatalf("got %d elements, want 8", len(wd.Elements))
	}
	if wd.Elements[0].Type != "Window" || wd.Elements[0].Depth != 0 {
		t.Errorf("first element = %+v, want Window at depth 0", wd.Elements[0])
	}
	last := wd.Elements[len(wd.Elements)-1]
	if last.Name != "Allow" || last.Depth != 3 || last.ID != "chat.confirmation.allow" {
		t.Errorf("last element = %+v", last)
	}
	if last.Pos != "(400,600)" || last.Size != "80x24" {
		t.Errorf("geometry = %s %s", last.Pos, last.Size)
	}
	if d.OpenTrees() != 0 {
		t.Errorf("open trees = %d, want 0", d.OpenTrees())
	}
}

func TestWindow_Options(t *testing.T) {
	d := fake.New()
	w := model.Window{Handle: 0x10, Title: "x"}
	d.AddWindow(w, editorTree())

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"depth", Options{Depth: 1}, []string{"Window", "Pane"}},
		{"types", Options{Types: []string{"button"}}, []string{"Button", "Button", "Button"}},
		{"text", Options{Text: "allow"}, []string{"Window", "Pane", "Pane", "Button"}},
		{"prune", Options{Prune: true, Depth: 2}, []string{"Window", "ToolBar", "Pane"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wd, err := Window(d, w, tt.opts)
			if err != nil {
				t.Fatalf("Window: %v", err)
			}
			var got []string
			for _, el := range wd.Elements {
				got = append(got, el.Type)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("types = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindows_KeepsFailedWindows(t *testing.T) {
	d := fake.New()
	ok := model.Window{Handle: 0x10, Title: "a - Visual Studio Code"}
	bad := model.Window{Handle: 0x20, Title: "b - Visual Studio Code"}
	d.AddWindow(ok, editorTree())
	d.AddWindow(bad, nil)
	d.FailConnect(bad.Handle, errors.New("access denied"))

	now := time.Unix(1700000000, 0)
	r := Windows(d, []model.Window{ok, bad}, Options{Top: 2}, now)

	if len(r.Windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(r.Windows))
	}
	if r.Windows[0].Error != "" {
		t.Errorf("first window error = %q", r.Windows[0].Error)
	}
	if !strings.Contains(r.Windows[1].Error, "access denied") {
		t.Errorf("second window error = %q", r.Windows[1].Error)
	}
	if r.Windows[1].Elements == nil {
		t.Error("failed window elements should be empty, not nil")
	}
	if r.Total != 8 {
		t.Errorf("total = %d, want 8", r.Total)
	}
	if r.TS != now.Unix() {
		t.Errorf("ts = %d", r.TS)
	}
	if len(r.Types) != 2 || r.Types[0] != (TypeCount{Type: "Button", Count: 3}) {
		t.Errorf("types = %+v", r.Types)
	}
	if r.Types[1] != (TypeCount{Type: "Pane", Count: 2}) {
		t.Errorf("second type = %+v", r.Types[1])
	}
}

func TestStats_TiesByName(t *testing.T) {
	windows := []WindowDump{{Elements: []model.FlatElement{
		{Type: "Text"}, {Type: "Button"}, {Type: "Pane"}, {Type: "Text"}, {Type: "Button"},
	}}}
	got := Stats(windows, 0)
	want := []TypeCount{{"Button", 2}, {"Text", 2}, {"Pane", 1}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteText(t *testing.T) {
	r := Report{
		Total: 2,
		Windows: []WindowDump{
			{Handle: 0x10, Title: "a", Elements: []model.FlatElement{
				{Type: "Window", Name: "a"},
				{Type: "Button", Name: "Allow", ID: "ok", Depth: 1, Pos: "1,2", Size: "3x4", Enabled: model.Bool(false)},
			}},
			{Handle: 0x20, Title: "b", Error: "boom"},
		},
		Types: []TypeCount{{"Button", 1}, {"Window", 1}},
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"== 16  a",
		"  [Button] \"Allow\" id=ok 1,2 3x4 disabled",
		"error: boom",
		"2 elements in 2 windows",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExportName(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
	if got := ExportName(ts); got != "vscode_scan_20240305_140709.json" {
		t.Errorf("ExportName = %q", got)
	}
}
