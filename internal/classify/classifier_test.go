package classify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/platform"
	"github.com/mj1618/autoallow/internal/platform/fake"
)

func open(t *testing.T, root *fake.Node) platform.Tree {
	t.Helper()
	d := fake.New()
	d.AddWindow(model.Window{Handle: 1, Title: "x - Visual Studio Code", Process: "code"}, root)
	tree, err := d.Connect(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(tree.Close)
	return tree
}

func TestFindAllowControl_CategoryPriority(t *testing.T) {
	link := fake.N(model.TypeHyperlink, "Allow")
	btn := fake.Button("Allow")
	tree := open(t, fake.N("Window", "w",
		link,
		fake.N("Pane", "", btn),
	))

	m, ok := New(Gen2Policy(), nil).FindAllowControl(tree.Root(), 30)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Category != model.TypeButton {
		t.Errorf("Button outranks Hyperlink; got %s", m.Category)
	}
	if m.Depth != 2 {
		t.Errorf("depth = %d, want 2", m.Depth)
	}
}

func TestFindAllowControl_TreeOrderWithinCategory(t *testing.T) {
	tree := open(t, fake.N("Window", "w",
		fake.N("Pane", "", fake.Button("Accept")),
		fake.Button("Allow"),
	))

	m, ok := New(Gen2Policy(), nil).FindAllowControl(tree.Root(), 30)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Info.Name != "Accept" {
		t.Errorf("expected first in tree order (Accept), got %q", m.Info.Name)
	}
}

func TestFindAllowControl_SkipsRejected(t *testing.T) {
	tree := open(t, fake.N("Window", "w",
		fake.Button("Allow the folder"),
		fake.Button("Deny"),
		fake.Button("Confirm"),
	))

	m, ok := New(Gen2Policy(), nil).FindAllowControl(tree.Root(), 30)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Info.Name != "Confirm" {
		t.Errorf("expected Confirm, got %q", m.Info.Name)
	}
}

func TestFindAllowControl_NoMatch(t *testing.T) {
	tree := open(t, fake.N("Window", "w",
		fake.Button("Allow this really long explanatory sentence about permissions"),
		fake.Button("Run"),
	))

	if _, ok := New(Gen2Policy(), nil).FindAllowControl(tree.Root(), 30); ok {
		t.Error("expected no match")
	}
}

func TestFindAllowControl_DepthBound(t *testing.T) {
	deep := fake.N("Pane", "", fake.N("Pane", "", fake.N("Pane", "", fake.Button("Allow"))))
	tree := open(t, fake.N("Window", "w", deep))

	c := New(Gen2Policy(), nil)
	if _, ok := c.FindAllowControl(tree.Root(), 3); ok {
		t.Error("button at depth 4 should be out of reach at depth 3")
	}
	if _, ok := c.FindAllowControl(tree.Root(), 4); !ok {
		t.Error("button at depth 4 should be found at depth 4")
	}
}

func TestFindAllowControl_CategoryDepthCap(t *testing.T) {
	p := Gen2Policy()
	p.DepthCaps = map[string]int{model.TypeButton: 1}
	tree := open(t, fake.N("Window", "w",
		fake.N("Pane", "", fake.Button("Allow")),
		fake.N(model.TypeText, "Allow"),
	))

	m, ok := New(p, nil).FindAllowControl(tree.Root(), 30)
	if !ok {
		t.Fatal("expected the text fallback")
	}
	if m.Category != model.TypeText {
		t.Errorf("button below its depth cap should be ignored, got %s", m.Category)
	}
}

func TestFindAllowControl_RefreshFailureKeepsProperties(t *testing.T) {
	btn := fake.Button("Allow")
	btn.RefreshErr = platform.ErrNoPattern
	tree := open(t, fake.N("Window", "w", btn))

	if _, ok := New(Gen2Policy(), nil).FindAllowControl(tree.Root(), 30); !ok {
		t.Error("a failed refresh should not hide the element")
	}
}

func TestInspect_LogsRefreshFailure(t *testing.T) {
	btn := fake.Button("Allow")
	btn.RefreshErr = platform.ErrNoPattern
	tree := open(t, fake.N("Window", "w", btn))

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	got := New(Gen2Policy(), log).Inspect(tree.Root(), 30)
	if len(got) != 1 || !got[0].Verdict.Accepted {
		t.Fatalf("candidates = %+v", got)
	}
	if !strings.Contains(buf.String(), "refresh failed") {
		t.Errorf("refresh failure not logged: %q", buf.String())
	}
}

func TestFindAllowControl_Idempotent(t *testing.T) {
	tree := open(t, fake.N("Window", "w", fake.Button("Deny"), fake.Button("Allow")))
	c := New(Gen2Policy(), nil)

	first, ok1 := c.FindAllowControl(tree.Root(), 30)
	second, ok2 := c.FindAllowControl(tree.Root(), 30)
	if !ok1 || !ok2 {
		t.Fatal("expected matches")
	}
	if first.Info.Name != second.Info.Name || first.Depth != second.Depth {
		t.Errorf("repeated classification differs: %+v vs %+v", first.Info, second.Info)
	}
}

func TestInspect_ListsNamedCandidates(t *testing.T) {
	tree := open(t, fake.N("Window", "w",
		fake.Button("Deny"),
		fake.Button(""),
		fake.Button("Allow"),
		fake.N("Pane", "not a candidate"),
	))

	got := New(Gen2Policy(), nil).Inspect(tree.Root(), 30)
	if len(got) != 2 {
		t.Fatalf("expected 2 named buttons, got %d", len(got))
	}
	if got[0].Name != "Deny" || got[0].Verdict.Accepted {
		t.Errorf("Deny should be listed and rejected: %+v", got[0])
	}
	if got[1].Name != "Allow" || !got[1].Verdict.Accepted {
		t.Errorf("Allow should be listed and accepted: %+v", got[1])
	}
}
