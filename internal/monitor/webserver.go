package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TEJM09/Vision-Core/internal/db"
	"github.com/TEJM09/Vision-Core/internal/economy"
	"github.com/TEJM09/Vision-Core/internal/latest"
	"github.com/TEJM09/Vision-Core/internal/monitoring"
	"github.com/TEJM09/Vision-Core/internal/tracking"
	"github.com/TEJM09/Vision-Core/internal/version"
	"github.com/TEJM09/Vision-Core/internal/world"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"tailscale.com/tsweb"
)

// AdminRouter is implemented by components that mount their own debug
// routes, such as the serial mux.
type AdminRouter interface {
	AttachAdminRoutes(*http.ServeMux)
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address     string
	Snapshots   *latest.Value[world.Snapshot]
	Timeline    *Timeline
	Diagnostics *tracking.Diagnostics // nil outside vision mode
	DB          *db.DB                // optional session history
	Routers     []AdminRouter
}

// WebServer is the debug HTTP surface for one session.
type WebServer struct {
	address   string
	snapshots *latest.Value[world.Snapshot]
	timeline  *Timeline
	diag      *tracking.Diagnostics
	db        *db.DB
	server    *http.Server
	mux       *http.ServeMux
}

// NewWebServer builds the server and its routes. Nothing listens until
// Start.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:   config.Address,
		snapshots: config.Snapshots,
		timeline:  config.Timeline,
		diag:      config.Diagnostics,
		db:        config.DB,
	}
	ws.mux = ws.setupRoutes(config.Routers)
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Handler returns the route mux.
func (ws *WebServer) Handler() http.Handler { return ws.mux }

func (ws *WebServer) setupRoutes(routers []AdminRouter) *http.ServeMux {
	mux := http.NewServeMux()
	debug := tsweb.Debugger(mux)

	debug.KV("Version", version.String())
	debug.HandleFunc("session", "Latest world snapshot (JSON)", ws.handleSnapshot)
	debug.HandleFunc("timeline", "Score, lives and difficulty over the session", ws.handleTimelineChart)
	debug.HandleFunc("filter", "Position filter trace", ws.handleFilterChart)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/sessions", ws.handleSessions)

	if ws.db != nil {
		if err := ws.db.AttachAdminRoutes(mux); err != nil {
			monitoring.Logf("monitor: db admin routes unavailable: %v", err)
		}
	}
	for _, r := range routers {
		r.AttachAdminRoutes(mux)
	}
	return mux
}

// Start serves until ctx is cancelled, then shuts down.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("monitor: debug server listening on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("debug server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("monitor: shutdown error: %v", err)
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("monitor: encode: %v", err)
	}
}

// snapshotView is the JSON shape of a world.Snapshot.
type snapshotView struct {
	SessionID    string       `json:"session_id"`
	Phase        string       `json:"phase"`
	Difficulty   string       `json:"difficulty"`
	Theme        string       `json:"theme"`
	Avatar       string       `json:"avatar"`
	Score        float64      `json:"score"`
	Lives        float64      `json:"lives"`
	MaxLives     float64      `json:"max_lives"`
	Combo        int          `json:"combo"`
	DifficultyX  float64      `json:"difficulty_scalar"`
	ElapsedSec   float64      `json:"elapsed_sec"`
	PaddleX      float64      `json:"paddle_x"`
	Detected     bool         `json:"detected"`
	Paused       bool         `json:"paused"`
	HighScore    int          `json:"high_score"`
	SensorStatus string       `json:"sensor_status"`
	Preset       presetView   `json:"preset"`
	Objects      []objectView `json:"objects"`
	Counts       *EventCounts `json:"counts,omitempty"`
}

type presetView struct {
	InitialLives      float64 `json:"initial_lives"`
	Growth            float64 `json:"growth"`
	MissPenalty       float64 `json:"miss_penalty"`
	HazardPenalty     float64 `json:"hazard_penalty"`
	SpawnBaseMs       float64 `json:"spawn_base_ms"`
	RegenPerMilestone float64 `json:"regen_per_milestone"`
}

func newPresetView(p economy.Preset) presetView {
	return presetView{
		InitialLives:      p.InitialLives,
		Growth:            p.Growth,
		MissPenalty:       p.MissPenalty,
		HazardPenalty:     p.HazardPenalty,
		SpawnBaseMs:       p.SpawnBaseMs,
		RegenPerMilestone: p.RegenPerMilestone,
	}
}

type objectView struct {
	ID       uint64  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Category string  `json:"category"`
	Variant  string  `json:"variant"`
}

func newSnapshotView(s world.Snapshot) snapshotView {
	v := snapshotView{
		SessionID:    s.SessionID.String(),
		Phase:        s.Phase.String(),
		Difficulty:   string(s.Difficulty),
		Theme:        string(s.Theme),
		Avatar:       s.Avatar,
		Score:        s.Economy.Score,
		Lives:        s.Economy.Lives,
		MaxLives:     s.Economy.MaxLives,
		Combo:        s.Economy.Combo,
		DifficultyX:  s.Economy.Difficulty,
		ElapsedSec:   s.Economy.Elapsed.Seconds(),
		PaddleX:      s.PaddleX,
		Detected:     s.Detected,
		Paused:       s.Paused,
		HighScore:    s.HighScore,
		SensorStatus: s.SensorStatus.String(),
		Preset:       newPresetView(economy.PresetFor(s.Difficulty)),
		Objects:      make([]objectView, 0, len(s.Objects)),
	}
	for _, o := range s.Objects {
		v.Objects = append(v.Objects, objectView{
			ID: o.ID, X: o.X, Y: o.Y, Radius: o.Radius,
			Category: o.Category.String(), Variant: o.Variant,
		})
	}
	return v
}

func (ws *WebServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if ws.snapshots == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no session")
		return
	}
	snap, ok := ws.snapshots.Load()
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no frame yet")
		return
	}
	v := newSnapshotView(snap)
	if ws.timeline != nil {
		c := ws.timeline.Counts()
		v.Counts = &c
	}
	ws.writeJSON(w, v)
}

type statsView struct {
	Counts  *EventCounts                 `json:"counts,omitempty"`
	Filter  *tracking.DiagnosticsSummary `json:"filter,omitempty"`
	History []historyView                `json:"history,omitempty"`
}

type historyView struct {
	Difficulty string  `json:"difficulty"`
	Sessions   int     `json:"sessions"`
	BestScore  int     `json:"best_score"`
	MeanScore  float64 `json:"mean_score"`
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	var v statsView
	if ws.timeline != nil {
		c := ws.timeline.Counts()
		v.Counts = &c
	}
	if ws.diag != nil {
		s := ws.diag.Summary()
		v.Filter = &s
	}
	if ws.db != nil {
		stats, err := ws.db.StatsByDifficulty()
		if err != nil {
			ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, st := range stats {
			v.History = append(v.History, historyView(st))
		}
	}
	ws.writeJSON(w, v)
}

type sessionView struct {
	SessionID    string  `json:"session_id"`
	Difficulty   string  `json:"difficulty"`
	Theme        string  `json:"theme"`
	InputMode    string  `json:"input_mode"`
	FinalScore   int     `json:"final_score"`
	NewHighScore bool    `json:"new_high_score"`
	ElapsedSec   float64 `json:"elapsed_sec"`
	EndedAt      string  `json:"ended_at"`
}

func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no session database")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			ws.writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	recs, err := ws.db.RecentSessions(limit)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]sessionView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sessionView{
			SessionID:    rec.SessionID.String(),
			Difficulty:   rec.Difficulty,
			Theme:        rec.Theme,
			InputMode:    rec.InputMode,
			FinalScore:   rec.FinalScore,
			NewHighScore: rec.NewHighScore,
			ElapsedSec:   rec.Elapsed.Seconds(),
			EndedAt:      rec.EndedAt.UTC().Format(time.RFC3339),
		})
	}
	ws.writeJSON(w, out)
}

func (ws *WebServer) handleTimelineChart(w http.ResponseWriter, r *http.Request) {
	if ws.timeline == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no timeline")
		return
	}
	points := ws.timeline.Points()
	if len(points) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no timeline points yet")
		return
	}

	x := make([]string, len(points))
	score := make([]opts.LineData, len(points))
	lives := make([]opts.LineData, len(points))
	difficulty := make([]opts.LineData, len(points))
	for i, p := range points {
		x[i] = fmt.Sprintf("%.1f", p.Elapsed.Seconds())
		score[i] = opts.LineData{Value: p.Score}
		lives[i] = opts.LineData{Value: p.Lives}
		difficulty[i] = opts.LineData{Value: p.Difficulty}
	}

	scoreChart := charts.NewLine()
	scoreChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session timeline", Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Score", Subtitle: fmt.Sprintf("points=%d", len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed (s)"}),
	)
	scoreChart.SetXAxis(x).AddSeries("score", score)

	econChart := charts.NewLine()
	econChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Lives and difficulty"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed (s)"}),
	)
	econChart.SetXAxis(x).
		AddSeries("lives", lives).
		AddSeries("difficulty", difficulty)

	ws.renderPage(w, scoreChart, econChart)
}

func (ws *WebServer) handleFilterChart(w http.ResponseWriter, r *http.Request) {
	if ws.diag == nil {
		ws.writeJSONError(w, http.StatusNotFound, "filter diagnostics unavailable outside vision mode")
		return
	}
	trace := ws.diag.Trace()
	if len(trace) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "no filter samples yet")
		return
	}
	sum := ws.diag.Summary()

	x := make([]int, len(trace))
	meas := make([]opts.LineData, len(trace))
	est := make([]opts.LineData, len(trace))
	cov := make([]opts.LineData, len(trace))
	for i, s := range trace {
		x[i] = i
		if s.Detected {
			meas[i] = opts.LineData{Value: s.Z}
		} else {
			meas[i] = opts.LineData{Value: "-"}
		}
		est[i] = opts.LineData{Value: s.X}
		cov[i] = opts.LineData{Value: s.P}
	}

	posChart := charts.NewLine()
	posChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Position filter", Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title: "Measurement vs estimate",
			Subtitle: fmt.Sprintf("detections=%d rejections=%d innovation mean=%.3f sd=%.3f",
				sum.Detections, sum.Rejections, sum.MeanInnovation, sum.StdInnovation),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	posChart.SetXAxis(x).
		AddSeries("z", meas).
		AddSeries("x", est)

	covChart := charts.NewLine()
	covChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Covariance", Subtitle: fmt.Sprintf("gain=%.3f", sum.LastGain)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	covChart.SetXAxis(x).AddSeries("p", cov)

	ws.renderPage(w, posChart, covChart)
}

func (ws *WebServer) renderPage(w http.ResponseWriter, c ...components.Charter) {
	page := components.NewPage()
	page.AddCharts(c...)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
