package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/hydrate/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

const paletteHelp = `**commands**

- ` + "`/add 250 [drink]`" + ` or ` + "`/add bottle500`" + `
- ` + "`/rm last`" + `, ` + "`/rm <id>`" + `
- ` + "`/weight 70 [175]`" + `
- ` + "`/remind 08:30`" + `, ` + "`/remind rm 08:30`" + `
- ` + "`/interval 90`" + `, ` + "`/interval off`" + `
- ` + "`/mode off|time|interval`" + `
- ` + "`/preset Big glass 400`" + `, ` + "`/preset rm <id>`" + `
- ` + "`/show today|calendar|stats|settings`"

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}) + "\n\n" + views.RenderMarkdown(paletteHelp),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Today, Action: "today"},
		{Key: m.Keys.Calendar, Action: "calendar"},
		{Key: m.Keys.Stats, Action: "stats"},
		{Key: m.Keys.Settings, Action: "settings"},
		{Key: "/", Action: "command"},
		{Key: m.Keys.Help, Action: "help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewToday:
		return []KeyBinding{
			{Key: "a/enter", Action: "log selected quick-add"},
			{Key: "</>", Action: "change quick-add"},
			{Key: "j/k", Action: "move selection"},
			{Key: "x", Action: "delete selected log"},
			{Key: "u", Action: "undo last log"},
		}
	case ViewCalendar:
		return []KeyBinding{
			{Key: "h/l", Action: "previous/next month"},
			{Key: "t", Action: "jump to this month"},
		}
	case ViewStats:
		return []KeyBinding{
			{Key: "t", Action: "toggle 7/30 days"},
		}
	case ViewSettings:
		return []KeyBinding{
			{Key: "j/k", Action: "move reminder cursor"},
			{Key: "x", Action: "remove selected reminder"},
			{Key: "i", Action: "cycle interval reminder"},
			{Key: "m", Action: "turn reminders off or on"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
