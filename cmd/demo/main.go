package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kass/go-trip-splitter/pkg/geometry"
	"github.com/kass/go-trip-splitter/pkg/models"
	"github.com/kass/go-trip-splitter/pkg/pipeline"
	"github.com/kass/go-trip-splitter/pkg/report"
)

const (
	numRows   = 100000
	outputDir = "demo_out"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

type stage int

const (
	stageGenerating stage = iota
	stageGenComplete
	stageValidating
	stageValidateComplete
	stageSegmenting
	stageSegmentComplete
	stageExporting
	stageDone
)

type model struct {
	stage           stage
	spinner         spinner.Model
	progress        progress.Model
	progressPercent float64

	genStats      genResult
	validateStats validateResult
	segmentStats  segmentResult
	exportStats   exportResult

	messages []string
	width    int
	height   int
}

type genResult struct {
	rows     int
	devices  int
	duration time.Duration
}

type validateResult struct {
	accepted int
	rejected int
	duration time.Duration
}

type segmentResult struct {
	trips       int
	totalKM     float64
	maxSpeedKMH float64
	duration    time.Duration
}

type exportResult struct {
	features int
	outDir   string
	duration time.Duration
}

type progressMsg float64
type stageCompleteMsg struct {
	stage stage
	stats interface{}
}
type messageMsg string

func initialModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	p := progress.New(progress.WithDefaultGradient())

	return model{
		stage:    stageGenerating,
		spinner:  s,
		progress: p,
		messages: []string{},
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		runDemo(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		m.progressPercent = float64(msg)
		return m, m.progress.SetPercent(float64(msg))

	case messageMsg:
		m.messages = append(m.messages, string(msg))
		if len(m.messages) > 5 {
			m.messages = m.messages[1:]
		}
		return m, nil

	case stageCompleteMsg:
		switch msg.stage {
		case stageGenerating:
			if stats, ok := msg.stats.(genResult); ok {
				m.genStats = stats
			}
			m.stage = stageValidating
		case stageValidating:
			if stats, ok := msg.stats.(validateResult); ok {
				m.validateStats = stats
			}
			m.stage = stageSegmenting
		case stageSegmenting:
			if stats, ok := msg.stats.(segmentResult); ok {
				m.segmentStats = stats
			}
			m.stage = stageExporting
		case stageExporting:
			if stats, ok := msg.stats.(exportResult); ok {
				m.exportStats = stats
			}
			m.stage = stageDone
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🛰️  Trip Splitter Demo"))
	b.WriteString("\n\n")

	switch m.stage {
	case stageGenerating:
		b.WriteString(subtitleStyle.Render("Generating Fix Stream"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + fmt.Sprintf(" Generating %d synthetic GPS fixes (with malformed rows)...\n\n", numRows))
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageValidating:
		b.WriteString(subtitleStyle.Render("Validating Records"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Parsing coordinates and normalizing timestamps...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageSegmenting:
		b.WriteString(subtitleStyle.Render("Segmenting Trips"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Sorting points and splitting on time/distance gaps...\n\n")

	case stageExporting:
		b.WriteString(subtitleStyle.Render("Exporting Artifacts"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Writing trip CSVs, statistics and trips.geojson...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageDone:
		b.WriteString(renderSummary(m))
	}

	if len(m.messages) > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Recent activity:"))
		b.WriteString("\n")
		for _, msg := range m.messages {
			b.WriteString(dimStyle.Render("• " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press 'q' to quit"))

	return b.String()
}

func renderSummary(m model) string {
	summary := titleStyle.Render("🎉 Pipeline Complete!")
	summary += "\n\n"

	summary += infoStyle.Render("The trip pipeline demonstrated:")
	summary += "\n\n"

	features := []string{
		fmt.Sprintf("• Validated %s raw rows in %s", statStyle.Render(fmt.Sprintf("%d", m.genStats.rows)), statStyle.Render(m.validateStats.duration.String())),
		fmt.Sprintf("• Rejected %s malformed rows without aborting", statStyle.Render(fmt.Sprintf("%d", m.validateStats.rejected))),
		fmt.Sprintf("• Split the stream into %s trips", statStyle.Render(fmt.Sprintf("%d", m.segmentStats.trips))),
		fmt.Sprintf("• Emitted %s GeoJSON features", statStyle.Render(fmt.Sprintf("%d", m.exportStats.features))),
	}

	for _, feature := range features {
		summary += successStyle.Render(feature) + "\n"
	}

	summary += "\n"
	summary += boxStyle.Render(
		infoStyle.Render("Run Summary:\n\n") +
			fmt.Sprintf("Devices simulated: %s\n", statStyle.Render(fmt.Sprintf("%d", m.genStats.devices))) +
			fmt.Sprintf("Valid points: %s\n", statStyle.Render(fmt.Sprintf("%d", m.validateStats.accepted))) +
			fmt.Sprintf("Total distance: %s\n", statStyle.Render(fmt.Sprintf("%.1f km", m.segmentStats.totalKM))) +
			fmt.Sprintf("Fastest segment: %s\n", statStyle.Render(fmt.Sprintf("%.1f km/h", m.segmentStats.maxSpeedKMH))) +
			fmt.Sprintf("Artifacts written to: %s", statStyle.Render(m.exportStats.outDir)),
	)

	return summary
}

func runDemo() tea.Cmd {
	return func() tea.Msg {
		go executeDemo()
		return nil
	}
}

var program *tea.Program

func executeDemo() {
	rows := generateRows(numRows)

	time.Sleep(300 * time.Millisecond)
	points, _ := validateRows(rows)

	time.Sleep(300 * time.Millisecond)
	trips, stats := segmentPoints(points)

	time.Sleep(300 * time.Millisecond)
	exportArtifacts(trips, stats)
}

// generateRows produces a synthetic fix stream: a handful of devices
// wandering with occasional long pauses and jumps, plus a few percent of
// deliberately malformed rows.
func generateRows(n int) []models.RawRecord {
	start := time.Now()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	numDevices := 8
	type walker struct {
		lat, lon float64
		clock    time.Time
	}
	walkers := make([]walker, numDevices)
	for i := range walkers {
		walkers[i] = walker{
			lat:   r.Float64()*140 - 70,
			lon:   r.Float64()*340 - 170,
			clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	rows := make([]models.RawRecord, 0, n)
	for i := 1; i <= n; i++ {
		d := r.Intn(numDevices)
		w := &walkers[d]

		// Mostly short hops; sometimes a gap or a teleport that will
		// split a trip downstream.
		switch r.Intn(100) {
		case 0:
			w.clock = w.clock.Add(time.Duration(30+r.Intn(120)) * time.Minute)
		case 1:
			w.lat += r.Float64()*2 - 1
			w.lon += r.Float64()*2 - 1
		default:
			w.clock = w.clock.Add(time.Duration(5+r.Intn(55)) * time.Second)
			w.lat += (r.Float64() - 0.5) * 0.002
			w.lon += (r.Float64() - 0.5) * 0.002
		}

		fields := []string{
			fmt.Sprintf("device_%d", d),
			fmt.Sprintf("%.6f", w.lat),
			fmt.Sprintf("%.6f", w.lon),
			w.clock.Format("2006-01-02 15:04:05"),
		}

		// ~3% malformed rows exercise the reject path.
		switch r.Intn(100) {
		case 0:
			fields = fields[:3]
		case 1:
			fields[1] = "not-a-number"
		case 2:
			fields[3] = "yesterday"
		}

		rows = append(rows, models.RawRecord{Index: i, Fields: fields})

		if i%5000 == 0 {
			program.Send(progressMsg(float64(i) / float64(n)))
		}
	}

	program.Send(stageCompleteMsg{
		stage: stageGenerating,
		stats: genResult{rows: n, devices: numDevices, duration: time.Since(start)},
	})
	return rows
}

func validateRows(rows []models.RawRecord) ([]models.GpsPoint, int) {
	start := time.Now()

	var points []models.GpsPoint
	rejected := 0
	for i, row := range rows {
		point, rej := pipeline.ValidateRecord(row)
		if rej != nil {
			rejected++
		} else {
			points = append(points, *point)
		}

		if (i+1)%5000 == 0 {
			program.Send(progressMsg(float64(i+1) / float64(len(rows))))
		}
	}

	program.Send(messageMsg(fmt.Sprintf("%d rows rejected during validation", rejected)))
	program.Send(stageCompleteMsg{
		stage: stageValidating,
		stats: validateResult{accepted: len(points), rejected: rejected, duration: time.Since(start)},
	})
	return points, rejected
}

func segmentPoints(points []models.GpsPoint) ([]models.Trip, []models.TripStats) {
	start := time.Now()

	sorted := pipeline.SortByTime(points)
	trips := pipeline.Segment(sorted, pipeline.DefaultConfig())
	stats := pipeline.ComputeAllStats(trips)

	var totalKM, maxSpeed float64
	for _, s := range stats {
		totalKM += s.DistanceKM
		if s.MaxSpeedKMH > maxSpeed {
			maxSpeed = s.MaxSpeedKMH
		}
	}

	program.Send(stageCompleteMsg{
		stage: stageSegmenting,
		stats: segmentResult{
			trips:       len(trips),
			totalKM:     totalKM,
			maxSpeedKMH: maxSpeed,
			duration:    time.Since(start),
		},
	})
	return trips, stats
}

func exportArtifacts(trips []models.Trip, stats []models.TripStats) {
	start := time.Now()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error creating %s: %v", outputDir, err)))
		return
	}
	emitter := report.Emitter{OutDir: outputDir}

	for i, trip := range trips {
		if err := emitter.WriteTripCSV(i+1, trip); err != nil {
			program.Send(messageMsg(fmt.Sprintf("Error writing trip %d: %v", i+1, err)))
			return
		}
		if err := emitter.WriteTripStats(i+1, stats[i]); err != nil {
			program.Send(messageMsg(fmt.Sprintf("Error writing trip %d stats: %v", i+1, err)))
			return
		}
		if (i+1)%10 == 0 || i+1 == len(trips) {
			program.Send(progressMsg(float64(i+1) / float64(len(trips))))
		}
	}

	fc, excluded := geometry.BuildCollection(trips, stats, geometry.Options{})
	if len(excluded) > 0 {
		program.Send(messageMsg(fmt.Sprintf("%d degenerate trips excluded from GeoJSON", len(excluded))))
	}
	if err := emitter.WriteGeoJSON(fc); err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error writing geojson: %v", err)))
		return
	}

	program.Send(stageCompleteMsg{
		stage: stageExporting,
		stats: exportResult{
			features: len(fc.Features),
			outDir:   outputDir,
			duration: time.Since(start),
		},
	})
}

func main() {
	program = tea.NewProgram(initialModel())

	if _, err := program.Run(); err != nil {
		log.Fatal(err)
	}
}
