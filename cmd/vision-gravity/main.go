// Command vision-gravity runs one catch session in the terminal. The paddle
// follows the mouse, a replayed camera feed, or a serial paddle controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/TEJM09/Vision-Core/internal/audio"
	"github.com/TEJM09/Vision-Core/internal/config"
	"github.com/TEJM09/Vision-Core/internal/db"
	"github.com/TEJM09/Vision-Core/internal/economy"
	"github.com/TEJM09/Vision-Core/internal/gameloop"
	"github.com/TEJM09/Vision-Core/internal/input"
	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/monitor"
	"github.com/TEJM09/Vision-Core/internal/monitoring"
	"github.com/TEJM09/Vision-Core/internal/sensor"
	"github.com/TEJM09/Vision-Core/internal/serialmux"
	"github.com/TEJM09/Vision-Core/internal/timeutil"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"github.com/TEJM09/Vision-Core/internal/version"
	"github.com/TEJM09/Vision-Core/internal/world"
	"github.com/gdamore/tcell/v2"
)

var (
	difficultyFlag = flag.String("difficulty", "medium", "Difficulty preset: easy, medium or hard")
	themeFlag      = flag.String("theme", "cosmic", "Theme: cosmic, neon_city, nature, urban_rain, mind_lab or retro")
	avatarFlag     = flag.String("avatar", "aero", "Avatar: aero, nova, gears or leaf")
	inputFlag      = flag.String("input", "pointer", "Paddle input: pointer, vision or device")
	framesDir      = flag.String("frames", "", "Directory of camera frames to replay (vision input)")
	portFlag       = flag.String("port", "sim", "Serial port of the paddle controller, or \"sim\" (device input)")
	baudFlag       = flag.Int("baud", serialmux.DefaultBaudRate, "Paddle controller baud rate")
	framingFlag    = flag.String("framing", serialmux.DefaultFraming, "Paddle controller framing, e.g. 8N1")
	dbPath         = flag.String("db", "vision-gravity.db", "Session history database (empty to disable)")
	configPath     = flag.String("config", "", "Tuning config JSON (defaults when empty)")
	debugListen    = flag.String("debug-listen", "", "Serve debug pages on this address, e.g. localhost:8090")
	logPath        = flag.String("log", "vision-gravity.log", "Log file (empty discards)")
	mute           = flag.Bool("mute", false, "Disable audio cues")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

// sessionFlags is the validated session selection.
type sessionFlags struct {
	Difficulty economy.Difficulty
	Theme      economy.ThemeID
	Avatar     economy.Avatar
	Input      input.Mode
}

func parseSessionFlags(difficulty, theme, avatar, mode string) (sessionFlags, error) {
	var sf sessionFlags
	var err error
	if sf.Difficulty, err = economy.ParseDifficulty(difficulty); err != nil {
		return sf, err
	}
	if sf.Theme, err = economy.ParseTheme(theme); err != nil {
		return sf, err
	}
	if sf.Avatar, err = economy.ParseAvatar(avatar); err != nil {
		return sf, err
	}
	if sf.Input, err = input.ParseMode(mode); err != nil {
		return sf, err
	}
	return sf, nil
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("vision-gravity %s\n", version.String())
		return
	}

	sf, err := parseSessionFlags(*difficultyFlag, *themeFlag, *avatarFlag, *inputFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	logFile, err := monitoring.LogToFile(*logPath)
	if err != nil {
		log.Fatalf("failed to open log: %v", err)
	}
	defer logFile.Close()

	tuning, err := loadTuning(*configPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	result, history, err := run(sf, tuning)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vision-gravity: %v\n", err)
		os.Exit(1)
	}
	printSummary(os.Stdout, result, history)
}

// run plays one session and returns its result (nil when the player quit
// early) and the recent session history.
func run(sf sessionFlags, tuning *config.TuningConfig) (*world.Result, []db.SessionRecord, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *db.DB
	highScore := 0
	if *dbPath != "" {
		var err error
		store, err = db.NewDB(*dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		defer store.Close()
		if highScore, err = store.HighScore(); err != nil {
			monitoring.Logf("failed to read high score: %v", err)
		}
	}

	clock := timeutil.RealClock{}
	position := latest.NewValue(tracking.Position{X: tracking.InitialEstimate})
	results := make(chan world.Result, 1)

	wcfg := world.ConfigFromTuning(tuning)
	wcfg.Difficulty = sf.Difficulty
	wcfg.Theme = sf.Theme
	wcfg.Avatar = sf.Avatar.ID
	wcfg.InputMode = string(sf.Input)
	wcfg.HighScore = highScore
	wcfg.OnResult = func(r world.Result) { results <- r }
	w := world.New(wcfg, clock.Now())
	paused := func() bool { return w.Phase() == world.PhasePaused }

	var wg sync.WaitGroup
	var (
		pointer      *input.PointerSource
		refresh      func()
		sensorStatus func() sensor.Status
		diagnostics  *tracking.Diagnostics
		routers      []monitor.AdminRouter
	)

	switch sf.Input {
	case input.Pointer:
		pointer = input.NewPointerSource(position, clock, tuning.GetPointerStaleAfter(), paused)
		refresh = pointer.Refresh

	case input.Vision:
		pipeline := newVisionPipeline(*framesDir, tuning, position)
		diagnostics = pipeline.Diag
		sensorStatus = pipeline.Status.Load
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				monitoring.Logf("vision pipeline stopped: %v", err)
			}
		}()

	case input.Device:
		mux, err := openController(*portFlag, serialmux.PortOptions{BaudRate: *baudFlag, Framing: *framingFlag})
		if err != nil {
			return nil, nil, err
		}
		defer mux.Close()
		if err := mux.Initialize(); err != nil {
			monitoring.Logf("failed to initialize paddle controller: %v", err)
		}
		routers = append(routers, mux)

		device := input.NewDeviceSource(mux, position, clock, tuning.GetPointerStaleAfter(), paused)
		refresh = device.Pointer.Refresh
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := mux.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
				monitoring.Logf("paddle controller monitor stopped: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := device.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				monitoring.Logf("paddle controller input stopped: %v", err)
			}
		}()
	}

	player := audio.NewPlayer()
	_ = player.Initialize() // muted on failure
	if *mute {
		player.SetMuted(true)
	}
	defer player.Close()

	snapshots := &latest.Value[world.Snapshot]{}
	timeline := monitor.NewTimeline(250*time.Millisecond, 2400)
	driver := gameloop.New(w, gameloop.Options{
		Clock:    clock,
		Interval: tuning.GetFrameInterval(),
		Position: position,
		Sink: func(s world.Snapshot) {
			snapshots.Store(s)
			timeline.Observe(s)
		},
		OnStep: func(r world.StepResult) {
			player.OnStep(r)
			timeline.Count(r)
		},
		SensorStatus: sensorStatus,
	})

	if *debugListen != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:     *debugListen,
			Snapshots:   snapshots,
			Timeline:    timeline,
			Diagnostics: diagnostics,
			DB:          store,
			Routers:     routers,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(ctx); err != nil {
				monitoring.Logf("debug server: %v", err)
			}
		}()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialise terminal: %w", err)
	}
	screen.EnableMouse()
	screen.HideCursor()

	gameCtx, cancelGame := context.WithCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := driver.Run(gameCtx); err != nil && !errors.Is(err, context.Canceled) {
			monitoring.Logf("game loop: %v", err)
		}
	}()

	hst := newHost(screen, driver, snapshots, pointer, refresh, tuning.GetFrameInterval())
	hst.sound, hst.muted = player, player.Muted()
	hst.run(ctx)
	screen.Fini()
	cancelGame()
	stop()
	wg.Wait()

	var res *world.Result
	select {
	case r := <-results:
		res = &r
	default:
		monitoring.Logf("session %s abandoned after %d frames", w.SessionID(), driver.Frames())
	}

	if store == nil {
		return res, nil, nil
	}
	if res != nil {
		status := sensor.StatusIdle
		if sensorStatus != nil {
			status = sensorStatus()
		}
		if err := store.RecordSession(sessionRecord(*res, status)); err != nil {
			monitoring.Logf("failed to record session: %v", err)
		}
	}
	history, err := store.RecentSessions(5)
	if err != nil {
		monitoring.Logf("failed to list sessions: %v", err)
	}
	return res, history, nil
}

func newVisionPipeline(dir string, tuning *config.TuningConfig, out *latest.Value[tracking.Position]) *tracking.VisionPipeline {
	var src sensor.FrameSource = sensor.UnavailableSource{Reason: errors.New("no frame directory given")}
	if dir != "" {
		ds, err := sensor.OpenDir(dir, sensor.DirOptions{
			Width:    tuning.GetFrameWidth(),
			Height:   tuning.GetFrameHeight(),
			Interval: tuning.GetCameraInterval(),
			Loop:     true,
		})
		if err != nil {
			src = sensor.UnavailableSource{Reason: err}
		} else {
			monitoring.Logf("vision: replaying %d frames from %s", ds.Len(), dir)
			src = ds
		}
	}
	p := tracking.NewVisionPipeline(src, sensor.NewSampler(sensor.SamplerConfigFromTuning(tuning)), tracking.FilterFromTuning(tuning), out)
	p.Diag = tracking.NewDiagnostics(600)
	return p
}

func openController(port string, opts serialmux.PortOptions) (serialmux.SerialMuxInterface, error) {
	if port == "sim" {
		return serialmux.NewSimulatedSerialMux(33*time.Millisecond, 4*time.Second), nil
	}
	mux, err := serialmux.NewRealSerialMux(port, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open paddle controller %s: %w", port, err)
	}
	return mux, nil
}

func sessionRecord(r world.Result, status sensor.Status) db.SessionRecord {
	return db.SessionRecord{
		SessionID:    r.SessionID,
		Difficulty:   string(r.Difficulty),
		Theme:        string(r.Theme),
		Avatar:       r.Avatar,
		InputMode:    r.InputMode,
		SensorStatus: status.String(),
		FinalScore:   r.FinalScore,
		NewHighScore: r.NewHighScore,
		Caught:       r.Caught,
		Missed:       r.Missed,
		HazardHits:   r.HazardHits,
		Elapsed:      r.Elapsed,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
}

func printSummary(out io.Writer, res *world.Result, history []db.SessionRecord) {
	if res == nil {
		fmt.Fprintln(out, "Session ended before game over.")
	} else {
		fmt.Fprintf(out, "Final score %d (%s, %s) in %s\n",
			res.FinalScore, res.Difficulty, res.Theme, res.Elapsed.Round(time.Second))
		fmt.Fprintf(out, "Caught %d, missed %d, hazards hit %d\n", res.Caught, res.Missed, res.HazardHits)
		if res.NewHighScore {
			fmt.Fprintf(out, "New high score! (previous %d)\n", res.PreviousHighScore)
		}
	}
	if len(history) == 0 {
		return
	}

	fmt.Fprintln(out, "\nRecent sessions:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDED\tSCORE\tDIFFICULTY\tTHEME\tINPUT\tDURATION")
	for _, s := range history {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			s.EndedAt.Local().Format("2006-01-02 15:04"), s.FinalScore, s.Difficulty, s.Theme, s.InputMode, s.Elapsed.Round(time.Second))
	}
	tw.Flush()
}
