package app

import (
	"fmt"

	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/keys"
)

// ResolvedKeymap maps concrete keys to AppEvents per scope, built once
// from a config.KeymapConfig plus the built-in defaults.
type ResolvedKeymap struct {
	Procs map[keys.Key]AppEvent
	Term  map[keys.Key]AppEvent
	Copy  map[keys.Key]AppEvent
}

// Lookup resolves a key against the scope active for the given app
// Scope and (when in Term/TermZoom) whether copy mode is active.
func (rk *ResolvedKeymap) Lookup(scope Scope, inCopyMode bool, k keys.Key) (AppEvent, bool) {
	if inCopyMode {
		ev, ok := rk.Copy[k]
		return ev, ok
	}
	switch scope {
	case ScopeProcs:
		ev, ok := rk.Procs[k]
		return ev, ok
	default:
		ev, ok := rk.Term[k]
		return ev, ok
	}
}

// ResolveKeymap builds a ResolvedKeymap from defaults overlaid with the
// user's config.KeymapConfig, honoring a reset:true entry per scope.
func ResolveKeymap(cfg *config.KeymapConfig) (*ResolvedKeymap, error) {
	rk := &ResolvedKeymap{
		Procs: defaultProcsKeymap(),
		Term:  defaultTermKeymap(),
		Copy:  defaultCopyKeymap(),
	}
	if cfg == nil {
		return rk, nil
	}

	if config.Reset(cfg.Procs) {
		rk.Procs = map[keys.Key]AppEvent{}
	}
	if config.Reset(cfg.Term) {
		rk.Term = map[keys.Key]AppEvent{}
	}
	if config.Reset(cfg.Copy) {
		rk.Copy = map[keys.Key]AppEvent{}
	}

	if err := mergeScope(rk.Procs, cfg.Procs); err != nil {
		return nil, err
	}
	if err := mergeScope(rk.Term, cfg.Term); err != nil {
		return nil, err
	}
	if err := mergeScope(rk.Copy, cfg.Copy); err != nil {
		return nil, err
	}
	return rk, nil
}

func mergeScope(dst map[keys.Key]AppEvent, scope map[string]config.EventSpec) error {
	for lit, spec := range scope {
		if lit == "reset" {
			continue
		}
		k, ok := keys.ParseLiteral(lit)
		if !ok {
			return fmt.Errorf("keymap: unrecognized key literal %q", lit)
		}
		ev, err := eventFromSpec(spec)
		if err != nil {
			return fmt.Errorf("keymap: %s: %w", lit, err)
		}
		dst[k] = ev
	}
	return nil
}

// eventFromSpec translates one tagged-union binding into a concrete
// AppEvent. Args-bearing tags read a single scalar from spec.Args; a
// missing or malformed argument falls back to documented defaults rather
// than erroring, since a config error here would otherwise take down the
// whole keymap for one bad binding.
func eventFromSpec(spec config.EventSpec) (AppEvent, error) {
	switch spec.Tag {
	case "quit":
		return EvtRequestQuit{}, nil
	case "force-quit":
		return EvtForceQuit{}, nil
	case "toggle-focus":
		return EvtToggleFocus{}, nil
	case "zoom":
		return EvtZoomToggle{}, nil
	case "next-proc":
		return EvtSelectNext{}, nil
	case "prev-proc":
		return EvtSelectPrev{}, nil
	case "select-proc":
		return EvtSelectIndex{Index: intArg(spec, 0)}, nil
	case "start-proc":
		return EvtStartSelected{}, nil
	case "stop-proc":
		return EvtStopSelected{}, nil
	case "restart-proc":
		return EvtRestartSelected{}, nil
	case "kill-proc":
		return EvtKillSelected{}, nil
	case "show-add-proc":
		return EvtOpenAddProc{}, nil
	case "show-rename-proc":
		return EvtOpenRenameProc{}, nil
	case "show-remove-proc":
		return EvtOpenRemoveProc{}, nil
	case "show-commands-menu":
		return EvtOpenCommandsMenu{}, nil
	case "show-quit-confirm":
		return EvtOpenQuitConfirm{}, nil
	case "hide-modal":
		return EvtCloseModal{}, nil
	case "submit-modal":
		return EvtModalSubmit{}, nil
	case "copy-mode-enter":
		return EvtEnterCopyMode{}, nil
	case "copy-mode-leave":
		return EvtCopyModeLeave{}, nil
	case "copy-mode-end":
		return EvtCopyModeEnd{}, nil
	case "copy-mode-copy":
		return EvtCopyModeCopy{}, nil
	case "copy-mode-move-up":
		return EvtCopyModeMove{DRow: -1}, nil
	case "copy-mode-move-down":
		return EvtCopyModeMove{DRow: 1}, nil
	case "copy-mode-move-left":
		return EvtCopyModeMove{DCol: -1}, nil
	case "copy-mode-move-right":
		return EvtCopyModeMove{DCol: 1}, nil
	case "scroll-up":
		return EvtScrollUp{}, nil
	case "scroll-down":
		return EvtScrollDown{}, nil
	case "scroll-up-lines":
		return EvtScrollUpLines{N: intArg(spec, 1)}, nil
	case "scroll-down-lines":
		return EvtScrollDownLines{N: intArg(spec, 1)}, nil
	default:
		return nil, fmt.Errorf("unrecognized event tag %q", spec.Tag)
	}
}

func intArg(spec config.EventSpec, def int) int {
	if spec.Args.Kind == 0 {
		return def
	}
	var n int
	if err := spec.Args.Decode(&n); err != nil {
		return def
	}
	return n
}

func defaultProcsKeymap() map[keys.Key]AppEvent {
	m := map[keys.Key]AppEvent{}
	mustBind(m, "<C-a>", EvtToggleFocus{})
	mustBind(m, "<Up>", EvtSelectPrev{})
	mustBind(m, "<Down>", EvtSelectNext{})
	mustBind(m, "<C-x>", EvtOpenAddProc{})
	mustBind(m, "<C-r>", EvtOpenRenameProc{})
	mustBind(m, "<C-d>", EvtOpenRemoveProc{})
	mustBind(m, "<C-c>", EvtRequestQuit{})
	mustBind(m, "s", EvtStartSelected{})
	mustBind(m, "x", EvtStopSelected{})
	mustBind(m, "r", EvtRestartSelected{})
	mustBind(m, "k", EvtKillSelected{})
	mustBind(m, "<Enter>", EvtToggleFocus{})
	return m
}

func defaultTermKeymap() map[keys.Key]AppEvent {
	m := map[keys.Key]AppEvent{}
	mustBind(m, "<C-a>", EvtToggleFocus{})
	mustBind(m, "<C-z>", EvtZoomToggle{})
	mustBind(m, "<C-e>", EvtEnterCopyMode{})
	return m
}

func defaultCopyKeymap() map[keys.Key]AppEvent {
	m := map[keys.Key]AppEvent{}
	mustBind(m, "<Up>", EvtCopyModeMove{DRow: -1})
	mustBind(m, "<Down>", EvtCopyModeMove{DRow: 1})
	mustBind(m, "<Left>", EvtCopyModeMove{DCol: -1})
	mustBind(m, "<Right>", EvtCopyModeMove{DCol: 1})
	mustBind(m, "<Enter>", EvtCopyModeEnd{})
	mustBind(m, "<C-c>", EvtCopyModeCopy{})
	mustBind(m, "q", EvtCopyModeLeave{})
	mustBind(m, "<Esc>", EvtCopyModeLeave{})
	return m
}

func mustBind(m map[keys.Key]AppEvent, lit string, ev AppEvent) {
	k, ok := keys.ParseLiteral(lit)
	if !ok {
		panic(fmt.Sprintf("app: bad built-in key literal %q", lit))
	}
	m[k] = ev
}
