package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"coursecal/internal/config"
	"coursecal/internal/grade"
	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/model"
	"coursecal/internal/source"
	"coursecal/internal/timeline"
	"coursecal/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	serve      bool
	view       string
	date       string
	step       int
	format     string
	weeks      bool
	grades     bool
	offline    bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.Configure(conf.Log.Format, appLog.Level(conf.Log.Level))
	defer appLog.Sync()

	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("coursecal starting",
		"version", version,
		"timezone", conf.Timezone,
		"snapshot", conf.SnapshotPath,
		"ics_count", len(conf.ICS),
		"serve", flags.serve,
	)

	personal, err := source.OpenPersonalStore(conf.PersonalPath)
	if err != nil {
		appLog.Error("failed to open personal store", err, "path", conf.PersonalPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.serve {
		srv := web.NewServer(conf, personal)
		if err := srv.Run(ctx); err != nil {
			appLog.Error("server stopped with error", err)
			os.Exit(1)
		}
		appLog.Info("coursecal exiting")
		return
	}

	if err := printOnce(ctx, conf, personal, flags, os.Stdout); err != nil {
		appLog.Error("print failed", err)
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./coursecal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.serve, "serve", false, "Run the HTTP API with scheduled reloads")
	flag.StringVar(&cfg.view, "view", "", "View granularity: month, week, day or agenda (default from config)")
	flag.StringVar(&cfg.date, "date", "", "Reference date YYYY-MM-DD (default today)")
	flag.IntVar(&cfg.step, "step", 0, "Move the view N periods forward (negative: back)")
	flag.StringVar(&cfg.format, "format", "text", "Output format: text, json or ics")
	flag.BoolVar(&cfg.weeks, "weeks", false, "Group text output by relative week instead of by day")
	flag.BoolVar(&cfg.grades, "grades", false, "Print the grade summary instead of the timeline")
	flag.BoolVar(&cfg.offline, "offline", false, "Skip fetching personal ICS feeds")

	flag.Parse()
	return cfg
}

func printOnce(ctx context.Context, conf *config.Config, personal *source.PersonalStore, flags flagConfig, out io.Writer) error {
	loc := conf.Location()
	now := time.Now().In(loc)

	snap, err := source.LoadSnapshot(conf.SnapshotPath)
	if err != nil {
		return err
	}

	if flags.grades {
		return printGrades(out, snap.AssessmentItems(), flags.format)
	}

	view := flags.view
	if view == "" {
		view = conf.DefaultView
	}
	g, err := model.ParseGranularity(view)
	if err != nil {
		return err
	}
	ref := now
	if flags.date != "" {
		ref, err = time.ParseInLocation("2006-01-02", flags.date, loc)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", flags.date, err)
		}
	}
	ref = timeline.Step(ref, g, flags.step)

	personalTemplates := personal.List()
	if !flags.offline {
		personalTemplates = append(personalTemplates, fetchFeeds(ctx, conf, loc)...)
	}

	res, err := timeline.ComposeView(timeline.Sources{
		Lessons:     snap.Templates(),
		Assessments: snap.AssessmentItems(),
		Personal:    personalTemplates,
	}, ref, g, timeline.Options{
		Filters:                   conf.Filters,
		Location:                  loc,
		HideCancelled:             conf.HideCancelled,
		MaxOccurrencesPerTemplate: conf.MaxOccurrencesPerTemplate,
	})
	if err != nil {
		return err
	}

	switch flags.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "ics":
		_, err := io.WriteString(out, ics.Export(res.Items, now))
		return err
	case "text":
		return printTimeline(out, res, now, flags.weeks)
	default:
		return fmt.Errorf("unknown -format %q", flags.format)
	}
}

func fetchFeeds(ctx context.Context, conf *config.Config, loc *time.Location) []model.EventTemplate {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		id := c.ID
		if id == "" {
			id = c.URL
		}
		sources = append(sources, ics.Source{ID: id, Name: c.Name, URL: c.URL})
	}
	if len(sources) == 0 {
		return nil
	}

	results, errs := ics.NewFetcher(conf.CacheDir).FetchAll(ctx, sources)
	if len(errs) > 0 {
		appLog.Error("one or more ICS fetches failed", errors.Join(errs...), "error_count", len(errs))
	}
	var out []model.EventTemplate
	for _, r := range results {
		tmpls, err := ics.ParseICS(r.Source, r.Body, loc)
		if err != nil {
			continue
		}
		out = append(out, tmpls...)
	}
	return out
}

func printTimeline(out io.Writer, res timeline.Result, now time.Time, byWeek bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s view %s .. %s\n\n", res.Window.Granularity,
		res.Window.Start.Format("Mon Jan 2 2006"), res.Window.End.Format("Mon Jan 2 2006"))

	if byWeek {
		start := res.Window.Start
		for _, b := range timeline.Group(res.Items, &start) {
			fmt.Fprintf(tw, "Week %d (from %s)\n", b.Index, b.Start.Format("Jan 2"))
			for _, it := range b.Items {
				printItem(tw, it, true)
			}
			fmt.Fprintln(tw)
		}
	} else {
		for _, d := range timeline.DayGroups(res.Items, now) {
			fmt.Fprintln(tw, d.Label)
			for _, it := range d.Items {
				printItem(tw, it, false)
			}
			fmt.Fprintln(tw)
		}
	}

	if n := len(res.Skipped); n > 0 {
		fmt.Fprintf(tw, "skipped templates with unsupported recurrence: %s\n", strings.Join(res.Skipped, ", "))
	}
	if n := len(res.MonthlyOverflow); n > 0 {
		fmt.Fprintf(tw, "monthly templates missing some months: %s\n", strings.Join(res.MonthlyOverflow, ", "))
	}
	return tw.Flush()
}

func printItem(w io.Writer, it model.TimelineItem, withDate bool) {
	when := "all day"
	if !it.AllDay() {
		when = it.Start().Format("15:04") + "-" + it.End().Format("15:04")
	}
	if withDate {
		when = it.Start().Format("Mon Jan 2") + " " + when
	}
	meta := it.Category().Meta()
	fmt.Fprintf(w, "  %s\t%s %s\t%s\n", when, meta.Icon, meta.Label, it.Title())
}

func printGrades(out io.Writer, items []model.AssessmentItem, format string) error {
	overall := grade.Display(grade.Summarize(items))
	perCourse := grade.SummarizeByCourse(items)

	if format == "json" {
		rounded := make(map[string]model.GradeSummary, len(perCourse))
		for code, s := range perCourse {
			rounded[code] = grade.Display(s)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"overall": overall, "courses": rounded})
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tGPA\tBAND\tPROGRESS\tGRADED")
	for _, code := range grade.Courses(items) {
		printRollup(tw, code, grade.Display(perCourse[code]).Rollup)
	}
	printRollup(tw, "overall", overall.Rollup)
	for _, an := range overall.Anomalies {
		fmt.Fprintf(tw, "warning: %s %s (excluded: %t)\n", an.ItemID, an.Reason, an.Excluded)
	}
	return tw.Flush()
}

func printRollup(w io.Writer, label string, r model.Rollup) {
	gpa := "-"
	if r.WeightedGPA != nil {
		gpa = fmt.Sprintf("%.2f", *r.WeightedGPA)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%d/%d\n", label, gpa, grade.BandOf(r.WeightedGPA), r.Progress, r.GradedCount, r.ItemCount)
}
