package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/undertow/internal/config"
	"github.com/llehouerou/undertow/internal/errmsg"
	"github.com/llehouerou/undertow/internal/logging"
	"github.com/llehouerou/undertow/internal/output"
	"github.com/llehouerou/undertow/internal/playback"
	"github.com/llehouerou/undertow/internal/player"
	"github.com/llehouerou/undertow/internal/probe"
	"github.com/llehouerou/undertow/internal/state"
	"github.com/llehouerou/undertow/internal/stderr"
	"github.com/llehouerou/undertow/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// run has restored fd 2 by now.
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logFile, err := logging.Setup(cfg.GetLogConfig())
	if err != nil {
		return err
	}
	defer logFile.Close()

	// Capture C library noise before miniaudio initializes.
	if err := stderr.Start(log); err != nil {
		log.WithError(err).Warn("stderr capture unavailable")
	}
	defer stderr.Stop()

	files := playableFiles(args, log)

	session := openSession(cfg, log)
	if session != nil {
		defer session.Close()
	}

	pc := cfg.GetPlaybackConfig()
	volume := float32(*pc.Volume)
	start := 0
	if session != nil {
		if s, err := session.GetSession(); err != nil {
			log.WithError(err).Warn(errmsg.Format(errmsg.OpSessionLoad, err))
		} else if s != nil {
			if !cfg.HasVolume() {
				volume = float32(min(max(s.Volume, 0), 1))
			}
			start = tui.StartIndex(files, s.LastPath)
		}
	}

	oc := cfg.GetOutputConfig()
	format, err := output.ParseFormat(oc.Format)
	if err != nil {
		return err
	}

	host, err := output.NewMalgoHost(log)
	if err != nil {
		return err
	}
	defer host.Close()

	sub := playback.NewSubscription()
	defer sub.Close()

	p, err := player.New(player.Options{
		Host:           host,
		Probe:          probe.Probe,
		Shared:         playback.NewShared(volume),
		Sink:           sub,
		Log:            log,
		Format:         format,
		PeriodMs:       uint32(oc.PeriodMs),
		Backoff:        pc.Backoff,
		PauseBackoff:   pc.PauseBackoff,
		ReportInterval: pc.PositionInterval,
		IdleInterval:   pc.IdleInterval,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	log.WithFields(logrus.Fields{
		"files":  len(files),
		"volume": volume,
		"format": format,
	}).Info("starting")

	m := tui.New(tui.Options{
		Engine:  p,
		Sub:     sub,
		Session: session,
		Log:     log,
		Files:   files,
		Start:   start,
		Volume:  volume,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// playableFiles keeps the arguments naming regular files. Containers are
// detected from content, so unknown extensions are only noted.
func playableFiles(args []string, log logrus.FieldLogger) []string {
	files := make([]string, 0, len(args))
	for _, a := range args {
		l := log.WithField("path", a)
		info, err := os.Stat(a)
		if err != nil || !info.Mode().IsRegular() {
			l.WithError(err).Warn("skipping argument: not a regular file")
			continue
		}
		if !probe.IsSupported(a) {
			l.Debug("unknown extension, container will be sniffed")
		}
		files = append(files, a)
	}
	return files
}

func openSession(cfg *config.Config, log logrus.FieldLogger) state.Interface {
	if cfg.State.Disabled {
		return nil
	}
	mgr, err := state.Open()
	if err != nil {
		log.WithError(err).Warn("session state unavailable")
		return nil
	}
	mgr.OnSaveError(func(err error) {
		log.WithError(err).Warn(errmsg.Format(errmsg.OpSessionSave, err))
	})
	return mgr
}
