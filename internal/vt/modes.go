package vt

// modeTracker sniffs the raw byte stream for the DEC private-mode escape
// sequences midterm applies internally but doesn't surface on its own
// exported API, the same way h2's CapturePlainHistory sniffs
// bytes for DECSTBM to flag ScrollRegionUsed
// (internal/session/virtualterminal/vt.go). It never mutates grid state —
// only the metadata the Screen model needs beyond the grid itself (mouse
// mode, cursor style/visibility, origin/application-cursor-keys modes,
// bracketed paste, alt-screen, title).
type modeTracker struct {
	cursorVisible         bool
	cursorStyle           CursorStyle
	applicationCursorKeys bool
	originMode            bool
	bracketedPaste        bool
	mouseMode             MouseMode
	mouseEncoding         MouseEncoding
	scrollRegionUsed      bool

	state   parseState
	params  []int
	curNum  int
	haveNum bool
	private bool
	inter   byte
	osc     []byte
	oscEsc  bool
}

type parseState int

const (
	stNormal parseState = iota
	stEsc
	stCSI
	stOSC
	stOSCEsc
)

func newModeTracker() modeTracker {
	return modeTracker{cursorVisible: true}
}

type modeEventKind int

const (
	modeBell modeEventKind = iota
	modeVisualBell
	modeCursorVisible
	modeApplicationCursorKeys
	modeOriginMode
	modeBracketedPaste
	modeMouse
	modeMouseEncoding
	modeAltScreen
	modeCursorStyle
	modeSaveCursor
	modeRestoreCursor
	modeTitle
	modeIconTitle
	modeOSCColorQuery
)

type modeEvent struct {
	kind          modeEventKind
	set           bool
	mouseMode     MouseMode
	mouseEncoding MouseEncoding
	cursorStyle   CursorStyle
	text          string
	oscPs         int
}

// Feed scans data for mode-affecting escape sequences and returns the
// events observed, in order.
func (m *modeTracker) Feed(data []byte) []modeEvent {
	var events []modeEvent
	for _, b := range data {
		switch m.state {
		case stNormal:
			switch b {
			case 0x1B:
				m.state = stEsc
			case 0x07:
				events = append(events, modeEvent{kind: modeBell})
			}
		case stEsc:
			switch b {
			case '[':
				m.state = stCSI
				m.params = m.params[:0]
				m.curNum = 0
				m.haveNum = false
				m.private = false
				m.inter = 0
			case ']':
				m.state = stOSC
				m.osc = m.osc[:0]
			case '7':
				events = append(events, modeEvent{kind: modeSaveCursor})
				m.state = stNormal
			case '8':
				events = append(events, modeEvent{kind: modeRestoreCursor})
				m.state = stNormal
			default:
				m.state = stNormal
			}
		case stCSI:
			switch {
			case b == '?' && len(m.params) == 0 && !m.haveNum:
				m.private = true
			case b >= '0' && b <= '9':
				m.curNum = m.curNum*10 + int(b-'0')
				m.haveNum = true
			case b == ';':
				m.params = append(m.params, m.curNum)
				m.curNum = 0
				m.haveNum = false
			case b == ' ':
				m.inter = ' '
			case b >= 0x40 && b <= 0x7E:
				if m.haveNum || len(m.params) == 0 {
					m.params = append(m.params, m.curNum)
				}
				events = m.finishCSI(b, events)
				m.state = stNormal
			default:
				// Unrecognized intermediate; keep scanning until final byte.
			}
		case stOSC:
			if b == 0x07 {
				events = m.finishOSC(events)
				m.state = stNormal
			} else if b == 0x1B {
				m.state = stOSCEsc
			} else {
				m.osc = append(m.osc, b)
			}
		case stOSCEsc:
			if b == '\\' {
				events = m.finishOSC(events)
				m.state = stNormal
			} else if b == 0x1B {
				// stay in stOSCEsc
			} else {
				m.osc = append(m.osc, 0x1B, b)
				m.state = stOSC
			}
		}
	}
	return events
}

func (m *modeTracker) finishCSI(final byte, events []modeEvent) []modeEvent {
	switch final {
	case 'r':
		m.scrollRegionUsed = true
	case 'h', 'l':
		set := final == 'h'
		if !m.private {
			break
		}
		for _, p := range m.params {
			switch p {
			case 25:
				m.cursorVisible = set
				events = append(events, modeEvent{kind: modeCursorVisible, set: set})
			case 1:
				m.applicationCursorKeys = set
				events = append(events, modeEvent{kind: modeApplicationCursorKeys, set: set})
			case 6:
				m.originMode = set
				events = append(events, modeEvent{kind: modeOriginMode, set: set})
			case 9:
				events = append(events, modeEvent{kind: modeMouse, set: set, mouseMode: MouseModeX10})
			case 1000:
				events = append(events, modeEvent{kind: modeMouse, set: set, mouseMode: MouseModeNormal})
			case 1002:
				events = append(events, modeEvent{kind: modeMouse, set: set, mouseMode: MouseModeButtonEvent})
			case 1003:
				events = append(events, modeEvent{kind: modeMouse, set: set, mouseMode: MouseModeAnyEvent})
			case 1005:
				events = append(events, modeEvent{kind: modeMouseEncoding, set: set, mouseEncoding: MouseEncodingUTF8})
			case 1006:
				events = append(events, modeEvent{kind: modeMouseEncoding, set: set, mouseEncoding: MouseEncodingSGR})
			case 2004:
				m.bracketedPaste = set
				events = append(events, modeEvent{kind: modeBracketedPaste, set: set})
			case 1049:
				events = append(events, modeEvent{kind: modeAltScreen, set: set})
			}
		}
	case 'q':
		if m.inter == ' ' && len(m.params) > 0 {
			style := CursorStyleBlock
			switch m.params[0] {
			case 0, 1, 2:
				style = CursorStyleBlock
			case 3, 4:
				style = CursorStyleUnderline
			case 5, 6:
				style = CursorStyleBar
			}
			m.cursorStyle = style
			events = append(events, modeEvent{kind: modeCursorStyle, cursorStyle: style})
		}
	}
	return events
}

func (m *modeTracker) finishOSC(events []modeEvent) []modeEvent {
	// OSC body is "<Ps>;<text>".
	sep := -1
	for i, b := range m.osc {
		if b == ';' {
			sep = i
			break
		}
	}
	if sep < 0 {
		return events
	}
	ps := 0
	for _, b := range m.osc[:sep] {
		if b < '0' || b > '9' {
			return events
		}
		ps = ps*10 + int(b-'0')
	}
	text := string(m.osc[sep+1:])
	switch ps {
	case 0:
		events = append(events, modeEvent{kind: modeTitle, text: text}, modeEvent{kind: modeIconTitle, text: text})
	case 1:
		events = append(events, modeEvent{kind: modeIconTitle, text: text})
	case 2:
		events = append(events, modeEvent{kind: modeTitle, text: text})
	case 10, 11:
		if text == "?" {
			events = append(events, modeEvent{kind: modeOSCColorQuery, oscPs: ps})
		}
	}
	return events
}
