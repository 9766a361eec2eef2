package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/hashicorp/go-hclog"
	"github.com/sandeepkv93/hydrate/internal/metrics"
	"github.com/sandeepkv93/hydrate/internal/notify"
	"github.com/sandeepkv93/hydrate/internal/scheduler"
	"github.com/sandeepkv93/hydrate/internal/store"
)

type View string

const (
	ViewToday    View = "Today"
	ViewCalendar View = "Calendar"
	ViewStats    View = "Stats"
	ViewSettings View = "Settings"
)

var allViews = []View{ViewToday, ViewCalendar, ViewStats, ViewSettings}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today    string
	Calendar string
	Stats    string
	Settings string
	Help     string
	Quit     string
}

type TodayState struct {
	Cursor       int
	PresetCursor int
}

type CalendarState struct {
	Year  int
	Month time.Month
}

type StatsState struct {
	Days int
}

type SettingsState struct {
	Cursor int
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	CurrentView   View
	Store         *store.Store
	Reminders     <-chan scheduler.ReminderEvent
	ReminderLog   []scheduler.ReminderEvent
	Today         TodayState
	Calendar      CalendarState
	Stats         StatsState
	Settings      SettingsState
	Palette       CommandPaletteState
	HelpVisible   bool
	Notifications []Notification
	NotifyMode    notify.Mode
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error

	ctx      context.Context
	now      func() time.Time
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      hclog.Logger

	dayProgress  progress.Model
	logTable     table.Model
	commandInput textinput.Model
	helpModel    help.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Event scheduler.ReminderEvent
}

// PersistErrorMsg is sent from the store's persist hook when a queued
// write fails.
type PersistErrorMsg struct {
	Key string
	Err error
}

type Option func(*Model)

func WithReminders(ch <-chan scheduler.ReminderEvent) Option {
	return func(m *Model) {
		m.Reminders = ch
	}
}

func WithNotifier(n notify.Notifier, mode notify.Mode) Option {
	return func(m *Model) {
		if n != nil {
			m.notifier = n
			m.NotifyMode = mode
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Model) {
		m.metrics = mt
	}
}

func WithLogger(logger hclog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.log = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

func WithStatsDays(days int) Option {
	return func(m *Model) {
		if days == 7 || days == 30 {
			m.Stats.Days = days
		}
	}
}

func NewModel(st *store.Store, opts ...Option) Model {
	m := Model{
		CurrentView: ViewToday,
		Store:       st,
		Stats:       StatsState{Days: 7},
		NotifyMode:  notify.ModeInApp,
		Keys: GlobalKeyMap{
			Today:    "1",
			Calendar: "2",
			Stats:    "3",
			Settings: "4",
			Help:     "?",
			Quit:     "q",
		},
		ctx:      context.Background(),
		now:      time.Now,
		notifier: notify.Noop{},
		log:      hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	now := m.now()
	m.Calendar = CalendarState{Year: now.Year(), Month: now.Month()}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Time", Width: 6},
		{Title: "Drink", Width: 10},
		{Title: "Amount", Width: 8},
		{Title: "ID", Width: 12},
	}
	m.logTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(8))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 128
	m.commandInput.Width = 40

	m.dayProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	m.helpModel = help.New()
}
