// Package client implements the Client Loop: the bridge between the
// physical controlling terminal and the App/Renderer pair. It puts the
// terminal into raw mode, feeds stdin through the Input Parser, forwards
// decoded events into the app, and replays the renderer's wire messages
// onto the real screen. Grounded on h2's internal/overlay.Overlay.Run
// (raw mode via golang.org/x/term, SIGWINCH -> WatchResize, a ReadInput
// goroutine feeding a mode-dispatch loop) and internal/overlay/render.go's
// hide-cursor/draw/show-cursor framing, generalized from one PTY child's
// byte stream to the app's wire.AppMessage stream.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dcosson/mprocs-go/internal/app"
	"github.com/dcosson/mprocs-go/internal/applog"
	"github.com/dcosson/mprocs-go/internal/keys"
	"github.com/dcosson/mprocs-go/internal/uiclient"
	"github.com/dcosson/mprocs-go/internal/wire"
)

// minRows/minCols mirror h2's Overlay.Run size floor, generalized from a
// fixed 3-row reservation to the sidebar+legend layout's own minimum.
const (
	minRows = 5
	minCols = 20
)

// Client owns the physical terminal: raw mode, resize signal, stdin
// parsing, and replay of the renderer's draw stream. It never touches the
// App directly; everything app-bound crosses link.ToApp, the same
// boundary a future out-of-process --server connection would sit behind.
type Client struct {
	renderer *uiclient.Renderer
	link     *wire.Link

	in  io.Reader
	out *bufio.Writer

	parser *keys.Parser
}

// New builds a Client wired to the given Renderer over link. Run
// RunAppBridge(ctx, a, link) alongside Run to actually deliver the
// client's messages to an App.
func New(renderer *uiclient.Renderer, link *wire.Link) *Client {
	return &Client{
		renderer: renderer,
		link:     link,
		in:       os.Stdin,
		out:      bufio.NewWriter(os.Stdout),
		parser:   keys.NewParser(),
	}
}

// Run puts the terminal into raw mode, wires up resize/input/draw
// handling, and blocks until ctx is canceled or the app sends MsgQuit.
func (c *Client) Run(ctx context.Context) error {
	fd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("get terminal size (is this a terminal?): %w", err)
	}
	if rows < minRows || cols < minCols {
		return fmt.Errorf("terminal too small (need at least %dx%d, have %dx%d)", minCols, minRows, cols, rows)
	}

	restore, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer func() {
		term.Restore(fd, restore)
		c.out.WriteString("\x1b[?25h\x1b[0m\r\n")
		c.out.Flush()
	}()

	c.applySize(rows, cols)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go c.watchResize(ctx, sigCh)
	go c.readInput(ctx)
	go func() {
		c.writeLoop(ctx)
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}

func (c *Client) applySize(rows, cols int) {
	c.renderer.SetSize(rows, cols)
	c.sendToApp(wire.MsgResize{Width: cols, Height: rows})
}

// sendToApp puts a ClientMessage on the link toward the app, dropping it
// with a log line if the app-side bridge is stalled rather than blocking
// the read loop — the same non-blocking-send idiom kernel.Kernel.send
// uses for its own CmdSink fan-out.
func (c *Client) sendToApp(msg wire.ClientMessage) {
	select {
	case c.link.ToApp <- msg:
	default:
		applog.Warn("client: app inbox full, dropping %T", msg)
	}
}

func (c *Client) watchResize(ctx context.Context, sigCh <-chan os.Signal) {
	fd := int(os.Stdin.Fd())
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			cols, rows, err := term.GetSize(fd)
			if err != nil || rows < minRows || cols < minCols {
				continue
			}
			c.applySize(rows, cols)
		}
	}
}

// readInput reads raw stdin bytes, decodes them with the Input Parser, and
// forwards each TermEvent to the app.
func (c *Client) readInput(ctx context.Context) {
	buf := make([]byte, 4096)
	for {
		n, err := c.in.Read(buf)
		if err != nil {
			return
		}
		for _, ev := range c.parser.Feed(buf[:n]) {
			select {
			case <-ctx.Done():
				return
			default:
			}
			c.dispatchTermEvent(ev)
		}
	}
}

func (c *Client) dispatchTermEvent(ev keys.TermEvent) {
	switch e := ev.(type) {
	case keys.EventKey:
		c.sendToApp(wire.MsgKey{Key: e.Key})
	case keys.EventMouse:
		c.sendToApp(wire.MsgMouse{Event: e.Event})
	case keys.EventPaste:
		c.sendToApp(wire.MsgPaste{Text: e.Text})
	case keys.EventResize:
		c.applySize(e.Rows, e.Cols)
	case keys.EventFocusGained:
		c.sendToApp(wire.MsgFocusGained{})
	case keys.EventFocusLost:
		c.sendToApp(wire.MsgFocusLost{})
	case keys.EventInitTimeout:
		// no app-visible effect. The parser never emits this event on its
		// own, and this client never calls Parser.BeginPaste, so
		// bracketed-paste payloads reach the app as individual keys.
	}
}

// RunAppBridge drains link.ToApp and translates each ClientMessage into
// the matching App call. It is the in-process stand-in for what an
// out-of-process --server connection would do on the app side: decode
// wire messages and call the same App methods a local Client calls
// directly in h2's single-process overlay.
func RunAppBridge(ctx context.Context, a *app.App, link *wire.Link) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-link.ToApp:
			switch m := msg.(type) {
			case wire.MsgInit:
				a.SetSize(m.Height, m.Width)
			case wire.MsgResize:
				a.SetSize(m.Height, m.Width)
			case wire.MsgKey:
				a.DispatchKey(m.Key)
			case wire.MsgMouse:
				a.DispatchMouse(m.Event)
			case wire.MsgPaste:
				a.DispatchPaste(m.Text)
			case wire.MsgFocusGained, wire.MsgFocusLost:
				// no app-visible effect yet, see dispatchTermEvent.
			default:
				applog.Warn("client: unhandled client message %T", m)
			}
		}
	}
}

// writeLoop drains the renderer's wire messages and replays them as bytes
// on the real terminal, the same hide-cursor/draw/show-cursor/flush
// framing Overlay.RenderScreen/RenderBar use for one PTY child.
func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.link.ToClient:
			if c.applyMessage(msg) {
				return
			}
		}
	}
}

func (c *Client) applyMessage(msg wire.AppMessage) (quit bool) {
	switch m := msg.(type) {
	case wire.MsgClear:
		c.out.WriteString("\x1b[2J\x1b[H")
	case wire.MsgDraw:
		c.out.Write(m.Bytes)
	case wire.MsgSetCursor:
		fmt.Fprintf(c.out, "\x1b[%d;%dH", m.Row+1, m.Col+1)
	case wire.MsgShowCursor:
		c.out.WriteString("\x1b[?25h")
	case wire.MsgHideCursor:
		c.out.WriteString("\x1b[?25l")
	case wire.MsgCursorShape:
		c.out.WriteString(decscusr(m.Style))
	case wire.MsgFlush:
		c.out.Flush()
	case wire.MsgQuit:
		c.out.Flush()
		return true
	default:
		applog.Warn("client: unhandled wire message %T", m)
	}
	return false
}

func decscusr(style wire.CursorShape) string {
	switch style {
	case wire.CursorShapeUnderline:
		return "\x1b[4 q"
	case wire.CursorShapeBar:
		return "\x1b[6 q"
	default:
		return "\x1b[2 q"
	}
}
