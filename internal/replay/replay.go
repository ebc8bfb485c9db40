// Package replay drives a list view headlessly through a scripted sequence
// of data edits and interactions, recording the patch plans and animation
// batches each step produces.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/listview/internal/csync"
	"github.com/charmbracelet/listview/internal/datasource"
	core "github.com/charmbracelet/listview/internal/listview"
	"github.com/charmbracelet/listview/internal/listview/anim"
	"github.com/charmbracelet/listview/internal/listview/diff"
	"github.com/charmbracelet/listview/internal/listview/entity"
	"github.com/charmbracelet/listview/internal/listview/groups"
	"github.com/charmbracelet/listview/internal/listview/layout"
	"github.com/charmbracelet/listview/internal/listview/realize"
	"github.com/charmbracelet/listview/internal/listview/selection"
	"gopkg.in/yaml.v3"
)

// maxSteps bounds the messages processed while a step settles.
const maxSteps = 100_000

var ErrUnsettled = errors.New("list view did not settle")

// Script is a replay file.
type Script struct {
	Width     int               `yaml:"width"`
	Height    int               `yaml:"height"`
	Grouped   bool              `yaml:"grouped"`
	Selection string            `yaml:"selection"`
	Tap       string            `yaml:"tap"`
	Layout    string            `yaml:"layout"`
	Columns   int               `yaml:"columns"`
	Overscan  int               `yaml:"overscan"`
	Items     []datasource.Item `yaml:"items"`
	Steps     []Step            `yaml:"steps"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	Insert        *Insert           `yaml:"insert,omitempty"`
	Remove        *Remove           `yaml:"remove,omitempty"`
	Move          *Move             `yaml:"move,omitempty"`
	Change        *Change           `yaml:"change,omitempty"`
	Reload        []datasource.Item `yaml:"reload,omitempty"`
	Select        []int             `yaml:"select,omitempty"`
	Key           string            `yaml:"key,omitempty"`
	EnsureVisible *int              `yaml:"ensure_visible,omitempty"`
	Scroll        *int              `yaml:"scroll,omitempty"`
	Resize        []int             `yaml:"resize,omitempty"`
}

type Insert struct {
	At    int               `yaml:"at"`
	Items []datasource.Item `yaml:"items"`
}

type Remove struct {
	At    int `yaml:"at"`
	Count int `yaml:"count"`
}

type Move struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

type Change struct {
	At     int    `yaml:"at"`
	Text   string `yaml:"text"`
	Detail string `yaml:"detail"`
}

// Name describes the step in reports.
func (s Step) Name() string {
	switch {
	case s.Insert != nil:
		return fmt.Sprintf("insert %d at %d", len(s.Insert.Items), s.Insert.At)
	case s.Remove != nil:
		return fmt.Sprintf("remove %d at %d", s.Remove.Count, s.Remove.At)
	case s.Move != nil:
		return fmt.Sprintf("move %d to %d", s.Move.From, s.Move.To)
	case s.Change != nil:
		return fmt.Sprintf("change %d", s.Change.At)
	case s.Reload != nil:
		return fmt.Sprintf("reload %d", len(s.Reload))
	case s.Select != nil:
		return fmt.Sprintf("select %v", s.Select)
	case s.Key != "":
		return "key " + s.Key
	case s.EnsureVisible != nil:
		return fmt.Sprintf("ensure visible %d", *s.EnsureVisible)
	case s.Scroll != nil:
		return fmt.Sprintf("scroll %d", *s.Scroll)
	case s.Resize != nil:
		return fmt.Sprintf("resize %v", s.Resize)
	default:
		return "noop"
	}
}

// Load parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if s.Width <= 0 {
		s.Width = 40
	}
	if s.Height <= 0 {
		s.Height = 10
	}
	if s.Overscan <= 0 {
		s.Overscan = 2
	}
	return &s, nil
}

// PlanReport summarizes a patch plan.
type PlanReport struct {
	Enter   int    `json:"enter" yaml:"enter"`
	Exit    int    `json:"exit" yaml:"exit"`
	Move    int    `json:"move" yaml:"move"`
	Reflow  int    `json:"reflow" yaml:"reflow"`
	Headers int    `json:"headers" yaml:"headers"`
	Reload  bool   `json:"reload,omitempty" yaml:"reload,omitempty"`
	Window  [2]int `json:"window" yaml:"window"`
}

// BatchReport summarizes an animation batch handed to the executor.
type BatchReport struct {
	Kind        string `json:"kind" yaml:"kind"`
	Transitions int    `json:"transitions" yaml:"transitions"`
	Skip        bool   `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// StepReport is the state after a step settled.
type StepReport struct {
	Step     string        `json:"step" yaml:"step"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Plans    []PlanReport  `json:"plans,omitempty" yaml:"plans,omitempty"`
	Batches  []BatchReport `json:"batches,omitempty" yaml:"batches,omitempty"`
	Events   []string      `json:"events,omitempty" yaml:"events,omitempty"`
	Count    int           `json:"count" yaml:"count"`
	Window   [2]int        `json:"window" yaml:"window"`
	Offset   int           `json:"offset" yaml:"offset"`
	Selected []int         `json:"selected,omitempty" yaml:"selected,omitempty"`
	Focus    string        `json:"focus" yaml:"focus"`
	Start    string        `json:"aria_start" yaml:"aria_start"`
	End      string        `json:"aria_end" yaml:"aria_end"`
}

// Report is the outcome of a replay.
type Report struct {
	Steps []StepReport `json:"steps" yaml:"steps"`
}

type textRenderer struct{}

func (textRenderer) RenderItem(_ context.Context, it datasource.Item, _ int) (any, error) {
	return it.Text, nil
}

func (textRenderer) RenderHeader(_ context.Context, g groups.Group) (any, error) {
	return g.Key, nil
}

func (textRenderer) Release(*realize.Container) {}

// recorder collects what a step produced. Executors may be called from
// command goroutines, so batches go through a concurrent slice.
type recorder struct {
	plans   []PlanReport
	batches *csync.Slice[BatchReport]
	events  []string
}

func newRecorder() *recorder {
	return &recorder{batches: csync.NewSlice[BatchReport]()}
}

func (r *recorder) plan(p diff.Plan) {
	pr := PlanReport{
		Enter:  p.Count(diff.RoleEnter),
		Exit:   p.Count(diff.RoleExit),
		Move:   p.Count(diff.RoleMove),
		Reflow: p.Count(diff.RoleReflow),
		Reload: p.Reload,
		Window: [2]int{p.NewWindow.Start, p.NewWindow.End},
	}
	for _, op := range p.Ops {
		if op.Kind == entity.KindHeader {
			pr.Headers++
		}
	}
	r.plans = append(r.plans, pr)
}

func (r *recorder) execute(_ context.Context, b anim.Batch) error {
	r.batches.Append(BatchReport{Kind: b.Kind.String(), Transitions: len(b.Transitions), Skip: b.Skip})
	return nil
}

func (r *recorder) event(ev core.Event) {
	switch ev.Kind {
	case core.EventError:
		r.events = append(r.events, fmt.Sprintf("%s: %v", ev.Kind, ev.Err))
	case core.EventLoadingStateChanged:
		r.events = append(r.events, fmt.Sprintf("%s: %s", ev.Kind, ev.Loading))
	default:
		r.events = append(r.events, ev.Kind.String())
	}
}

func (r *recorder) drain() (plans []PlanReport, batches []BatchReport, events []string) {
	plans, batches, events = r.plans, r.batches.Drain(), r.events
	r.plans, r.events = nil, nil
	return plans, batches, events
}

// Run replays s and reports the state after the initial load and after
// every step. A failing step is reported and the replay goes on.
func Run(ctx context.Context, s *Script) (*Report, error) {
	var opts []datasource.MemoryOption
	if s.Grouped {
		opts = append(opts, datasource.WithGrouping())
	}
	src, err := datasource.NewMemory(s.Items, opts...)
	if err != nil {
		return nil, err
	}

	listOpts, err := s.options()
	if err != nil {
		return nil, err
	}
	rec := newRecorder()
	listOpts = append(listOpts,
		core.WithExecutor(anim.ExecutorFunc(rec.execute)),
		core.WithHooks(core.Hooks{Plan: rec.plan, Event: rec.event}),
	)
	lv := core.New(src, textRenderer{}, listOpts...)
	defer lv.Dispose()

	report := &Report{}
	if err := settle(ctx, lv, lv.Init()); err != nil {
		return nil, err
	}
	report.Steps = append(report.Steps, snapshot(lv, rec, "load", nil))

	for i, step := range s.Steps {
		slog.Debug("Replay step", "step", i+1, "action", step.Name())
		cmd, stepErr := apply(lv, src, step)
		if err := settle(ctx, lv, tea.Batch(cmd, lv.Flush())); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if stepErr != nil {
			slog.Debug("Replay step failed", "step", i+1, "error", stepErr)
		}
		report.Steps = append(report.Steps, snapshot(lv, rec, step.Name(), stepErr))
	}
	return report, nil
}

func (s *Script) options() ([]core.Option, error) {
	opts := []core.Option{
		core.WithSize(s.Width, s.Height),
		core.WithOverscan(s.Overscan),
	}
	if s.Selection != "" || s.Tap != "" {
		cfg := selection.Config{Mode: selection.ModeMulti, Tap: selection.TapInvokeOnly}
		if s.Selection != "" {
			mode, err := selection.ParseMode(s.Selection)
			if err != nil {
				return nil, err
			}
			cfg.Mode = mode
		}
		if s.Tap != "" {
			tap, err := selection.ParseTapBehavior(s.Tap)
			if err != nil {
				return nil, err
			}
			cfg.Tap = tap
		}
		opts = append(opts, core.WithSelection(cfg))
	}
	if s.Layout != "" {
		kind, err := layout.ParseKind(s.Layout)
		if err != nil {
			return nil, err
		}
		var lopts []layout.Option
		if s.Columns > 0 {
			lopts = append(lopts, layout.WithColumns(s.Columns))
		}
		opts = append(opts, core.WithLayout(layout.New(kind, lopts...)))
	}
	return opts, nil
}

func apply(lv *core.ListView, src *datasource.Memory, step Step) (tea.Cmd, error) {
	switch {
	case step.Insert != nil:
		return nil, src.Insert(step.Insert.At, step.Insert.Items...)
	case step.Remove != nil:
		return nil, src.Remove(step.Remove.At, max(1, step.Remove.Count))
	case step.Move != nil:
		return nil, src.Move(step.Move.From, step.Move.To)
	case step.Change != nil:
		it, err := src.ItemAt(step.Change.At)
		if err != nil {
			return nil, err
		}
		it.Text = step.Change.Text
		if step.Change.Detail != "" {
			it.Detail = step.Change.Detail
		}
		return nil, src.Change(step.Change.At, it)
	case step.Reload != nil:
		return nil, src.Reload(step.Reload)
	case step.Select != nil:
		_, err := lv.SetSelection(step.Select)
		return nil, err
	case step.Key != "":
		kp, err := ParseKey(step.Key)
		if err != nil {
			return nil, err
		}
		_, cmd := lv.Key(kp)
		return cmd, nil
	case step.EnsureVisible != nil:
		return lv.EnsureVisible(entity.Item(*step.EnsureVisible))
	case step.Scroll != nil:
		return lv.SetScrollPosition(*step.Scroll), nil
	case step.Resize != nil:
		if len(step.Resize) != 2 {
			return nil, fmt.Errorf("resize takes width and height, got %v", step.Resize)
		}
		return lv.SetSize(step.Resize[0], step.Resize[1]), nil
	}
	return nil, nil
}

var keyNames = map[string]selection.Key{
	"up":       selection.KeyUp,
	"down":     selection.KeyDown,
	"left":     selection.KeyLeft,
	"right":    selection.KeyRight,
	"home":     selection.KeyHome,
	"end":      selection.KeyEnd,
	"pageup":   selection.KeyPageUp,
	"pagedown": selection.KeyPageDown,
	"enter":    selection.KeyEnter,
	"space":    selection.KeySpace,
	"esc":      selection.KeyEscape,
	"escape":   selection.KeyEscape,
	"tab":      selection.KeyTab,
	"a":        selection.KeySelectAll,
}

// ParseKey parses names such as "down", "shift+down" or "ctrl+a".
func ParseKey(s string) (selection.KeyPress, error) {
	var kp selection.KeyPress
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "shift":
			kp.Shift = true
		case "ctrl":
			kp.Ctrl = true
		default:
			return kp, fmt.Errorf("unknown modifier %q in key %q", mod, s)
		}
	}
	name := parts[len(parts)-1]
	k, ok := keyNames[name]
	if !ok || (k == selection.KeySelectAll && !kp.Ctrl) {
		return kp, fmt.Errorf("unknown key %q", s)
	}
	kp.Key = k
	return kp, nil
}

// settle runs cmd and everything it leads to, feeding every message back
// into lv.
func settle(ctx context.Context, lv *core.ListView, cmd tea.Cmd) error {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if steps >= maxSteps {
			return ErrUnsettled
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, lv.Update(msg))
		}
	}
	return nil
}

func snapshot(lv *core.ListView, rec *recorder, name string, err error) StepReport {
	plans, batches, events := rec.drain()
	w := lv.Window()
	ann := lv.Annotation()
	r := StepReport{
		Step:     name,
		Plans:    plans,
		Batches:  batches,
		Events:   events,
		Count:    lv.Count(),
		Window:   [2]int{w.Start, w.End},
		Offset:   lv.ScrollPosition(),
		Selected: lv.Selected(),
		Focus:    lv.CurrentItem().String(),
		Start:    ann.StartFlowsTo,
		End:      ann.EndFlowsFrom,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
