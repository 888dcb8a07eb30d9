// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command clickd is the engine's driver: it parses a configuration,
// builds and activates a Router, optionally exposes it over a control
// socket, invokes any requested handlers, and runs the scheduler's
// driver loops until stopped.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"github.com/clickrt/clickrt/common"
	"github.com/clickrt/clickrt/config"
	"github.com/clickrt/clickrt/element"
	_ "github.com/clickrt/clickrt/elements"
	"github.com/clickrt/clickrt/router"
	"github.com/clickrt/clickrt/scheduler"
)

var version = "dev"

type options struct {
	file            string
	expression      string
	output          string
	port            string
	unixSocket      string
	handlers        []string
	exitHandler     string
	allowReconfig   bool
	threads         int
	quit            bool
	printTime       bool
	clickpath       string
	warnings        bool
	showHelp        bool
	showVersion     bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("clickd", flag.ContinueOnError)
	o := &options{}
	fs.StringVarP(&o.file, "file", "f", "", "configuration file")
	fs.StringVarP(&o.expression, "expression", "e", "", "configuration text")
	fs.StringVarP(&o.output, "output", "o", "", "dump flat configuration to FILE")
	fs.StringVarP(&o.port, "port", "p", "", "auto-instantiate a TCP control socket on PORT[+]")
	fs.StringVarP(&o.unixSocket, "unix-socket", "u", "", "auto-instantiate a UNIX control socket at PATH")
	fs.StringArrayVarP(&o.handlers, "handler", "h", nil, "ELEMENT.HANDLER to read after the driver exits")
	fs.StringVarP(&o.exitHandler, "exit-handler", "x", "", "ELEMENT.HANDLER whose value becomes the exit code")
	fs.BoolVarP(&o.allowReconfig, "allow-reconfigure", "R", false, "enable the writable hotconfig handler")
	fs.IntVar(&o.threads, "threads", 1, "number of RouterThreads")
	fs.BoolVarP(&o.quit, "quit", "q", false, "parse and initialize, but do not run")
	fs.BoolVarP(&o.printTime, "time", "t", false, "print wall-clock duration of the run")
	fs.StringVarP(&o.clickpath, "clickpath", "C", "", "search path for rc-file defaults")
	fs.BoolVarP(&o.warnings, "warnings", "w", false, "enable verbose warning output")
	fs.BoolVar(&o.showHelp, "help", false, "show usage")
	fs.BoolVar(&o.showVersion, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	applyRCDefaults(o, fs)
	return o, nil
}

// applyRCDefaults fills in --threads and --allow-reconfigure, when the
// user did not set them on the command line, from an rc file (clickd.ini
// under --clickpath); no other flag is read from it. It is the same layered-config
// pattern the teacher's own CLI uses for its DPDK defaults.
func applyRCDefaults(o *options, fs *flag.FlagSet) {
	if o.clickpath == "" {
		return
	}
	path := o.clickpath + string(os.PathSeparator) + "clickd.ini"
	cfg, err := ini.Load(path)
	if err != nil {
		return
	}
	sec := cfg.Section("")
	if !fs.Changed("threads") {
		if v, err := sec.Key("threads").Int(); err == nil {
			o.threads = v
		}
	}
	if !fs.Changed("allow-reconfigure") {
		o.allowReconfig = sec.Key("allow_reconfigure").MustBool(o.allowReconfig)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	o, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if o.showVersion {
		fmt.Println("clickd", version)
		return 0
	}
	if o.showHelp {
		fmt.Println("usage: clickd -f FILE | -e EXPR [options]")
		return 0
	}
	if o.warnings {
		common.SetLogType(common.No | common.Initialization | common.Debug | common.Verbose)
	}
	log := common.With(zap.String("component", "clickd"))
	defer common.Sync()

	text, source, err := readConfig(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	text = withControlSockets(o, text)

	decls, err := config.ParseAndExpand(source, text)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	master := scheduler.NewMaster(o.threads, log, prometheus.DefaultRegisterer)
	r, err := router.Load(master, log, decls)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	r.Activate()

	if o.output != "" {
		if err := os.WriteFile(o.output, []byte(r.FlatConfig()), 0644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	swapper := router.NewHotSwapper(master, log, r)
	if o.allowReconfig {
		publishHotconfig(r, swapper)
		if o.file != "" {
			watchForReconfigure(o.file, swapper, log)
		}
	}

	if o.quit {
		return finish(r, o, time.Time{})
	}

	started := time.Now()
	wg := master.StartThreads()
	waitForShutdown(r)
	wg.Wait()

	return finish(r, o, started)
}

func readConfig(o *options) (text, source string, err error) {
	switch {
	case o.file != "":
		data, err := os.ReadFile(o.file)
		if err != nil {
			return "", "", err
		}
		return string(data), o.file, nil
	case o.expression != "":
		return o.expression, "-e", nil
	default:
		return "", "", fmt.Errorf("clickd: one of --file or --expression is required")
	}
}

// withControlSockets appends auto-instantiated ControlSocket declarations
// for --port/--unix-socket, the CLI-visible shorthand spec.md describes
// instead of requiring the user to write them into the configuration.
func withControlSockets(o *options, text string) string {
	var extra strings.Builder
	if o.port != "" {
		port := strings.TrimSuffix(o.port, "+")
		fmt.Fprintf(&extra, "\n_cli_controlsocket_tcp :: ControlSocket(%s);\n", port)
	}
	if o.unixSocket != "" {
		fmt.Fprintf(&extra, "\n_cli_controlsocket_unix :: ControlSocket(unix, %q);\n", o.unixSocket)
	}
	if extra.Len() == 0 {
		return text
	}
	return text + extra.String()
}

// publishHotconfig makes the root element's hotconfig handler writable:
// a WRITE whose payload is a complete configuration text triggers the
// atomic-replacement protocol, per spec.md §4.5. Only registered when
// --allow-reconfigure is set; without it, hotconfig stays absent rather
// than merely read-only, since there is nothing useful to read before a
// swap has ever happened.
func publishHotconfig(r *router.Router, swapper *router.HotSwapper) {
	r.AddHandler(element.Handler{
		Name: "hotconfig",
		WriteFn: func(payload string) error {
			return swapper.Swap("hotconfig", payload)
		},
	})
}

// watchForReconfigure arms an fsnotify watch on path and feeds every
// write event through the hot-swap protocol, so editing the running
// configuration file on disk behaves like writing to the hotconfig
// handler.
func watchForReconfigure(path string, swapper *router.HotSwapper, log *zap.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("hotconfig watch disabled", zap.Error(err))
		return
	}
	if err := watcher.Add(path); err != nil {
		log.Warn("hotconfig watch disabled", zap.Error(err))
		watcher.Close()
		return
	}
	go func() {
		defer watcher.Close()
		for event := range watcher.Events {
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("hotconfig reload failed", zap.Error(err))
				continue
			}
			if err := swapper.Swap(path, string(data)); err != nil {
				log.Warn("hotconfig swap rejected", zap.Error(err))
			}
		}
	}()
}

func waitForShutdown(r *router.Router) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	signal.Ignore(syscall.SIGPIPE)
	<-sigCh
	r.Stop()
}

func finish(r *router.Router, o *options, started time.Time) int {
	for _, h := range o.handlers {
		value, err := r.ReadHandler(h)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", h, err)
			continue
		}
		fmt.Print(value)
	}

	code := 0
	if o.exitHandler != "" {
		value, err := r.ReadHandler(o.exitHandler)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			code = 1
		} else if n, convErr := strconv.Atoi(strings.TrimSpace(value)); convErr == nil {
			code = n
		} else if b, convErr := strconv.ParseBool(strings.TrimSpace(value)); convErr == nil {
			if !b {
				code = 1
			}
		} else {
			fmt.Fprintf(os.Stderr, "%s: exit handler value %q is neither an integer nor a boolean\n", o.exitHandler, strings.TrimSpace(value))
			code = -1
		}
	}

	if o.printTime && !started.IsZero() {
		fmt.Fprintf(os.Stderr, "clickd: %s wall\n", time.Since(started))
	}
	return code
}
