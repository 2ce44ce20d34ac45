// goarena is a terminal console that hosts a Go game session with real-time
// clocks, checkpoints and archived results.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"goarena/config"
	"goarena/logging"
	"goarena/session"
	"goarena/types"
	"goarena/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagSettings   = flag.String("settings", "", "Settings file (defaults to goarena/config.json in the XDG config dirs)")
	flagConfig     = flag.String("config", "", "Game configuration file (.json, .yaml or .sgf)")
	flagCheckpoint = flag.String("checkpoint", "", "Checkpoint file")
	flagPlay       = flag.Bool("play", false, "Start the game immediately")
	flagVersion    = flag.Bool("version", false, "Print version and exit")
)

type console struct {
	app      *tview.Application
	log      *zap.Logger
	registry *session.Registry
	id       uuid.UUID
	manager  *session.Manager

	board *ui.BoardView
	panel *ui.StatusPanel
	hint  *tview.TextView

	showTerritories bool
	message         string
}

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("goarena %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "goarena: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if *flagConfig != "" {
		cfg.Session.GameConfig = *flagConfig
	}
	if *flagCheckpoint != "" {
		cfg.Session.Checkpoint = *flagCheckpoint
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return fmt.Errorf("log path: %w", err)
	}
	logger, err := logging.New(logPath, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	c := &console{
		app:      tview.NewApplication(),
		log:      logger,
		registry: session.NewRegistry(),
	}

	c.manager, err = session.NewManager(session.Paths{
		ConfigFile:     cfg.Session.GameConfig,
		CheckpointFile: cfg.Session.Checkpoint,
	}, session.Options{
		Logger:       logger,
		TickInterval: time.Duration(cfg.Session.TickInterval),
		OnTick:       c.queueRefresh,
		OnEnd:        func(types.EndReason) { c.queueRefresh() },
		OnReload:     c.queueRefresh,
		ExportSGF:    cfg.Session.ExportSGF,
	})
	if err != nil {
		return err
	}
	c.id = c.registry.Add(c.manager)
	logger.Info("console started",
		zap.String("version", Version),
		zap.String("session", c.id.String()),
		zap.String("game_config", cfg.Session.GameConfig),
		zap.String("checkpoint", cfg.Session.Checkpoint))

	root := c.build(cfg.Theme)
	if *flagPlay {
		c.start()
	}
	c.refresh()

	runErr := c.app.SetRoot(root, true).Run()
	// Checkpoint a running game before exiting.
	if err := c.registry.StopAll(); err != nil {
		logger.Error("failed to stop sessions", zap.Error(err))
	}
	return runErr
}

func loadSettings() (*config.Config, error) {
	if *flagSettings != "" {
		return config.Load(*flagSettings)
	}
	return config.InitConfig()
}

func (c *console) build(theme config.Theme) tview.Primitive {
	c.hint = tview.NewTextView()
	c.hint.SetBorder(true)
	c.hint.SetBorderPadding(0, 0, 1, 1)
	c.hint.SetTitle(" Keys ")
	c.hint.SetTitleAlign(tview.AlignLeft)

	c.board = ui.NewBoardView(theme)
	c.panel = ui.NewStatusPanel()
	c.board.Box.SetInputCapture(c.handleKey)

	frame := ui.CreateGameLayout(c.board, c.panel, c.hint)
	frame.SetBorder(true).SetTitle(" ⬡ goarena ")
	return frame
}

func (c *console) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		c.board.MoveSelection(-1, 0)
	case tcell.KeyDown:
		c.board.MoveSelection(1, 0)
	case tcell.KeyLeft:
		c.board.MoveSelection(0, -1)
	case tcell.KeyRight:
		c.board.MoveSelection(0, 1)
	case tcell.KeyEsc:
		c.board.ResetSelection()
	case tcell.KeyEnter:
		if p, ok := c.board.SelectedPoint(); ok {
			c.play(types.Place{Point: p})
		}
	case tcell.KeyRune:
		switch event.Rune() {
		case 'h':
			c.board.MoveSelection(0, -1)
		case 'j':
			c.board.MoveSelection(1, 0)
		case 'k':
			c.board.MoveSelection(-1, 0)
		case 'l':
			c.board.MoveSelection(0, 1)
		case 'p':
			c.play(types.Pass{})
		case 'R':
			c.play(types.Resign{})
		case 'A':
			c.message = ""
			if err := c.manager.Abort(); err != nil {
				c.message = err.Error()
			}
		case 's':
			if c.manager.GameRunning() {
				c.stop()
			} else {
				c.start()
			}
		case 'c':
			c.message = ""
			if err := c.manager.ClearCheckpoint(); err != nil {
				c.message = err.Error()
			}
		case 't':
			c.showTerritories = !c.showTerritories
		case 'L':
			c.message = ""
			c.manager.Reload()
		case 'q':
			if _, ok := c.board.SelectedPoint(); ok {
				c.board.ResetSelection()
			} else {
				c.app.Stop()
			}
			return nil
		default:
			return event
		}
	default:
		return event
	}
	c.refresh()
	return nil
}

func (c *console) start() {
	c.message = ""
	if err := c.manager.Start(); err != nil {
		c.log.Warn("could not start game", zap.Error(err))
		c.message = err.Error()
	}
}

func (c *console) stop() {
	c.message = ""
	if err := c.manager.Stop(); err != nil {
		c.message = err.Error()
	}
}

func (c *console) play(move types.Move) {
	res, err := c.manager.Apply(move)
	switch {
	case err != nil:
		c.message = err.Error()
	case !res.Valid:
		c.message = res.Message
	default:
		c.message = ""
		c.board.ResetSelection()
	}
}

// queueRefresh schedules a redraw from outside the event loop. It runs on
// its own goroutine so callbacks fired from the event loop cannot block it.
func (c *console) queueRefresh() {
	go c.app.QueueUpdateDraw(c.refresh)
}

func (c *console) refresh() {
	m := c.manager
	state := m.CurrentState()
	history := m.History()
	var territories types.Board
	if c.showTerritories {
		territories = m.Territories()
	}
	c.board.SetState(state, ui.LastPlaced(history), territories)

	cfg := m.CurrentConfiguration()
	info := ui.SessionInfo{
		ID:            c.id.String(),
		Status:        m.Status(),
		State:         state,
		FirstTurn:     cfg.InitialState.Turn,
		Scores:        m.Scores(),
		Komi:          cfg.Komi,
		Moves:         history,
		HasCheckpoint: m.HasCheckpoint(),
		Message:       c.message,
	}
	if end, ok := m.EndGameInfo(); ok {
		info.End = &end
	}
	if err := m.Err(); err != nil && info.Message == "" {
		info.Message = err.Error()
	}
	c.panel.SetInfo(info)
	c.hint.SetText(ui.HintText(m.GameRunning(), m.CanClear()))
}
