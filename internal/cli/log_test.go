package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("crawl", "root", "Account") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("fetch", "entity", "Contact") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("fetch", "entity", "Contact") }, true},
		{"warn at info", log.InfoLevel, func(l *log.Logger) { l.Warn("truncated") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("org", "instance", "https://acme.my.salesforce.com")
	if !strings.Contains(buf.String(), "acme.my.salesforce.com") {
		t.Errorf("debug output missing after SetLogLevel: %q", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Built Account: 3 nodes, 2 edges")

	out := buf.String()
	if !strings.Contains(out, "Built Account: 3 nodes, 2 edges (") {
		t.Errorf("progress output = %q", out)
	}
	if !strings.Contains(out, "s)") {
		t.Errorf("progress output has no duration: %q", out)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield the default logger")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Fatal("loggerFromContext did not return the attached logger")
	}
}

func TestRootCommandAttachesLogger(t *testing.T) {
	c := isolate(t)
	var seen *log.Logger
	root := c.RootCommand()
	probe := root.Commands()[0]
	probe.RunE = nil
	probe.Run = func(cmd *cobra.Command, args []string) { seen = loggerFromContext(cmd.Context()) }
	probe.Args = nil
	root.SetArgs([]string{probe.Name()})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if seen != c.Logger {
		t.Error("commands should see the CLI logger in their context")
	}
}
