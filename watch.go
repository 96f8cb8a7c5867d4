package main

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"sketchover/internal/logging"
)

const reloadDebounce = 300 * time.Millisecond

// watchConfig sends configReloadMsg whenever the config file is written
// or replaced. The directory is watched so editors that save by renaming
// are seen too. It returns a function that stops watching.
func watchConfig(path string, send func(tea.Msg)) func() {
	abs, err := filepath.Abs(path)
	if err != nil {
		return func() {}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Logger().Warn("config watcher: create failed", "err", err)
		return func() {}
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		logging.Logger().Debug("config watcher: not watching", "dir", filepath.Dir(abs), "err", err)
		watcher.Close()
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		var timer *time.Timer
		for {
			select {
			case <-done:
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if name, _ := filepath.Abs(event.Name); name != abs {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() { send(configReloadMsg{}) })
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Logger().Warn("config watcher: error", "err", err)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}
}

// scheduleAutosave sends autosaveMsg on the cron spec, for example
// "@every 30s". An empty or invalid spec disables autosave.
func scheduleAutosave(spec string, send func(tea.Msg)) func() {
	if spec == "" {
		return func() {}
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { send(autosaveMsg{}) }); err != nil {
		logging.Logger().Warn("autosave: invalid schedule", "spec", spec, "err", err)
		return func() {}
	}
	c.Start()
	return func() { <-c.Stop().Done() }
}
