package fake

import (
	"context"
	"time"

	"github.com/mj1618/autoallow/internal/model"
)

// Demo is a desktop resembling a workstation with two editor windows whose
// chat panels periodically raise an Allow prompt.
type Demo struct {
	*Desktop
	chats map[model.Handle]*Node
}

// NewDemo builds the demo desktop.
func NewDemo() *Demo {
	d := &Demo{Desktop: New(), chats: make(map[model.Handle]*Node)}

	d.addEditor(model.Window{Handle: 0x10a2e, Title: "monitor.go - autoallow - Visual Studio Code", PID: 4120, Process: "code"})
	d.addEditor(model.Window{Handle: 0x20c14, Title: "README.md - notes - Visual Studio Code", PID: 4120, Process: "code"})
	d.addEditor(model.Window{Handle: 0x30f08, Title: "[Extension Development Host] - Visual Studio Code", PID: 5528, Process: "code"})
	d.AddWindow(model.Window{Handle: 0x41b00, Title: "Mozilla Firefox", PID: 7312, Process: "firefox"},
		N("Window", "Mozilla Firefox", Button("Allow").WithID("permission-allow")))
	return d
}

func (d *Demo) addEditor(w model.Window) {
	chat := N("Pane", "Chat").WithID("workbench.panel.chat")
	chat.Children = []*Node{
		N(model.TypeText, "Copilot wants to run a command in the terminal"),
		Button("Deny").WithID("chat.confirmation.deny"),
	}
	root := N("Window", w.Title,
		N("Pane", "",
			N("ToolBar", "Title actions",
				Button("Toggle Primary Side Bar (Ctrl+B)"),
				Button("Customize Layout..."),
			),
			N("Tree", "Files Explorer").WithID("workbench.view.explorer"),
			N("Document", "Editor").WithID("workbench.editor.monaco"),
			chat,
		),
	)
	d.AddWindow(w, root)
	d.chats[w.Handle] = chat
}

// Prompt raises an Allow button in the chat panel of h unless one is
// already showing. It reports whether a prompt was added.
func (d *Demo) Prompt(h model.Handle) bool {
	chat, ok := d.chats[h]
	if !ok {
		return false
	}
	d.mu.Lock()
	for _, c := range chat.Children {
		if c.Transient {
			d.mu.Unlock()
			return false
		}
	}
	d.mu.Unlock()

	allow := Button("Allow").WithID("chat.confirmation.allow")
	allow.Transient = true
	d.Append(chat, allow)
	return true
}

// Run raises prompts round-robin across the editor windows every interval
// until ctx is done.
func (d *Demo) Run(ctx context.Context, every time.Duration) {
	handles := []model.Handle{0x10a2e, 0x20c14, 0x30f08}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Prompt(handles[i%len(handles)])
			i++
		}
	}
}
