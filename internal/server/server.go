// Package server implements the analyzer daemon: a single-threaded
// cooperative loop that owns one module graph and one file-system watcher
// per process lifetime, serializes request handling, and exposes the
// check/recheck command surface over a framed JSON transport.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/lucalysoft/mypy/internal/analyzer"
	"github.com/lucalysoft/mypy/internal/fswatcher"
	"github.com/lucalysoft/mypy/internal/ipc"
	"github.com/lucalysoft/mypy/internal/trigger"
)

// ConnectionName is the daemon's socket name.
const ConnectionName = "mypyd"

// Version participates in the run command's restart decision.
const Version = "0.770"

// InvalidSourceList reports a source-discovery failure; it maps to exit
// status 2.
type InvalidSourceList struct {
	Reason string
}

func (e *InvalidSourceList) Error() string { return e.Reason }

// SourceLister turns the file arguments of check/run into build sources.
type SourceLister func(files []string, opts Options) ([]analyzer.BuildSource, error)

// SuggestionEngine proposes signatures for functions. The daemon only
// defines the boundary; the engine itself lives upstream.
type SuggestionEngine interface {
	Suggest(function string) (string, error)
	SuggestCallsites(function string) (string, error)
}

// Config wires a Server to its collaborators.
type Config struct {
	Options    Options
	StatusFile string
	Timeout    time.Duration
	Log        *log.Logger

	// Analyzer is the upstream semantic analyzer re-checking targets.
	Analyzer analyzer.Analyzer
	// Sources discovers build sources from command-line file arguments.
	Sources SourceLister
	// Suggest is optional; nil reports suggestions as unavailable.
	Suggest SuggestionEngine
}

// Server holds all daemon state. One request is processed to completion
// before the next is read; the graph and watcher never leak outside the
// loop.
type Server struct {
	options         Options
	optionsSnapshot string
	statusFile      string
	timeout         time.Duration
	formatter       *Formatter
	log             *log.Logger

	cfg Config

	engine          *trigger.Engine
	watcher         *fswatcher.Watcher
	previousSources []analyzer.BuildSource

	stats map[string]interface{}
}

// New constructs a server; serving starts with Serve.
func New(cfg Config) *Server {
	logger := cfg.Log
	if logger == nil {
		logger = log.New(os.Stderr, "mypyd: ", log.LstdFlags)
	}
	return &Server{
		options:         cfg.Options,
		optionsSnapshot: cfg.Options.Snapshot(),
		statusFile:      cfg.StatusFile,
		timeout:         cfg.Timeout,
		formatter:       NewFormatter(),
		log:             logger,
		cfg:             cfg,
		stats:           make(map[string]interface{}),
	}
}

// Serve accepts and answers requests until stop or idle timeout. The
// status file is written before the first request is served and unlinked
// exactly once on clean stop; any other exit removes it here.
func (s *Server) Serve() error {
	listener, err := ipc.NewListener(ConnectionName, s.timeout)
	if err != nil {
		return err
	}
	lastCommand := ""
	defer func() {
		if lastCommand != "stop" {
			os.Remove(s.statusFile)
		}
		listener.Cleanup()
	}()

	if err := s.writeStatusFile(listener.ConnectionName()); err != nil {
		return err
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Idle timeout: exit as cleanly as a stop would.
			s.log.Printf("connection timeout or accept failure: %v", err)
			os.Remove(s.statusFile)
			lastCommand = "stop"
			return nil
		}
		data, err := ipc.ReadFrame(conn)
		if err != nil {
			s.log.Printf("malformed request: %v", err)
			conn.Close()
			continue
		}

		var resp map[string]interface{}
		rawCommand, present := data["command"]
		command, isString := rawCommand.(string)
		switch {
		case !present:
			resp = map[string]interface{}{"error": "No command found in request"}
		case !isString:
			resp = map[string]interface{}{"error": "Command is not a string"}
		default:
			lastCommand = command
			delete(data, "command")
			resp, err = s.dispatch(command, data)
			if err != nil {
				// A crash is reported to the client, then the process
				// terminates.
				for k, v := range s.responseMetadata() {
					resp[k] = v
				}
				ipc.WriteFrame(conn, resp)
				conn.Close()
				return err
			}
		}
		for k, v := range s.responseMetadata() {
			resp[k] = v
		}
		if err := ipc.WriteFrame(conn, resp); err != nil {
			// Maybe the client hung up.
			s.log.Printf("write failed: %v", err)
		}
		conn.Close()
		if command, ok := rawCommand.(string); ok && command == "stop" {
			return nil
		}
	}
}

func (s *Server) writeStatusFile(connectionName string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"pid":             os.Getpid(),
		"connection_name": connectionName,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(s.statusFile, append(payload, '\n'), 0o644)
}

func (s *Server) responseMetadata() map[string]interface{} {
	return map[string]interface{}{
		"platform":       s.options.Platform,
		"python_version": fmt.Sprintf("%d_%d", s.options.VersionMajor, s.options.VersionMinor),
	}
}

// dispatch runs one command. A panic in a handler is formatted into a
// crash response and returned as an error so Serve can terminate after
// reporting it.
func (s *Server) dispatch(command string, data map[string]interface{}) (resp map[string]interface{}, crash error) {
	defer func() {
		if r := recover(); r != nil {
			tb := fmt.Sprintf("%v\n%s", r, debug.Stack())
			resp = map[string]interface{}{"error": "Daemon crashed!\n" + tb}
			crash = fmt.Errorf("daemon crashed: %v", r)
		}
	}()

	isTTY := boolArg(data, "is_tty")
	terminalWidth := intArg(data, "terminal_width")

	switch command {
	case "status":
		return s.cmdStatus(stringArg(data, "fswatcher_dump_file")), nil
	case "stop":
		return s.cmdStop(), nil
	case "hang":
		time.Sleep(100 * time.Second)
		return map[string]interface{}{}, nil
	case "run":
		return s.cmdRun(stringArg(data, "version"), stringListArg(data, "args"), isTTY, terminalWidth), nil
	case "check":
		return s.cmdCheck(stringListArg(data, "files"), isTTY, terminalWidth), nil
	case "recheck":
		return s.cmdRecheck(listArgOrNil(data, "remove"), listArgOrNil(data, "update"), isTTY, terminalWidth), nil
	case "suggest":
		return s.cmdSuggest(stringArg(data, "function"), boolArg(data, "callsites")), nil
	case "inspect":
		return s.cmdInspect(stringArg(data, "show"), stringArg(data, "location"), boolArg(data, "raw")), nil
	default:
		return map[string]interface{}{"error": fmt.Sprintf("Unrecognized command '%s'", command)}, nil
	}
}

func (s *Server) cmdStatus(dumpFile string) map[string]interface{} {
	res := getMeminfo()
	if dumpFile != "" {
		data := map[string]fswatcher.FileData{}
		if s.watcher != nil {
			data = s.watcher.DumpFileData()
		}
		payload, err := json.Marshal(data)
		if err == nil {
			err = os.WriteFile(dumpFile, payload, 0o644)
		}
		if err != nil {
			res["fswatcher_dump_error"] = err.Error()
		}
	}
	return res
}

func (s *Server) cmdStop() map[string]interface{} {
	// The status file goes away before the response completes; otherwise a
	// subsequent command could see a status file from a dying server and
	// think it is live.
	os.Remove(s.statusFile)
	return map[string]interface{}{}
}

func (s *Server) cmdRun(version string, args []string, isTTY bool, terminalWidth int) map[string]interface{} {
	var files []string
	var flags []string
	for _, arg := range args {
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)
		} else {
			files = append(files, arg)
		}
	}
	opts, err := ProcessStartFlags(s.options, flags)
	if err != nil {
		return map[string]interface{}{"out": "", "err": err.Error() + "\n", "status": 2}
	}
	if opts.Snapshot() != s.optionsSnapshot {
		return map[string]interface{}{"restart": "configuration changed"}
	}
	if version != Version {
		return map[string]interface{}{"restart": "mypy version changed"}
	}
	sources, err := s.cfg.Sources(files, s.options)
	if err != nil {
		return map[string]interface{}{"out": "", "err": err.Error() + "\n", "status": 2}
	}
	return s.check(sources, isTTY, terminalWidth)
}

func (s *Server) cmdCheck(files []string, isTTY bool, terminalWidth int) map[string]interface{} {
	sources, err := s.cfg.Sources(files, s.options)
	if err != nil {
		return map[string]interface{}{"out": "", "err": err.Error() + "\n", "status": 2}
	}
	return s.check(sources, isTTY, terminalWidth)
}

// cmdRecheck re-checks the previously checked files. Explicit remove and
// update lists modify the previous set without stat calls; with neither
// given, every tracked file is stat'ed.
func (s *Server) cmdRecheck(remove, update []string, isTTY bool, terminalWidth int) map[string]interface{} {
	if s.engine == nil {
		return map[string]interface{}{"error": "Command 'recheck' is only valid after a 'check' command"}
	}
	t0 := time.Now()
	sources := s.previousSources
	if remove != nil {
		removals := make(map[string]bool, len(remove))
		for _, path := range remove {
			removals[path] = true
		}
		var kept []analyzer.BuildSource
		for _, src := range sources {
			if src.Path == "" || !removals[src.Path] {
				kept = append(kept, src)
			}
		}
		sources = kept
	}
	if update != nil {
		known := make(map[string]bool, len(sources))
		for _, src := range sources {
			known[src.Path] = true
		}
		var added []string
		for _, path := range update {
			if !known[path] {
				added = append(added, path)
			}
		}
		addedSources, err := s.cfg.Sources(added, s.options)
		if err != nil {
			return map[string]interface{}{"out": "", "err": err.Error() + "\n", "status": 2}
		}
		sources = append(append([]analyzer.BuildSource(nil), sources...), addedSources...)
	}
	s.log.Printf("fine-grained increment: cmd_recheck: %.3fs", time.Since(t0).Seconds())
	res := s.fineGrainedIncrement(sources, remove, update, isTTY, terminalWidth)
	s.updateStats(res)
	return res
}

// check runs fine-grained incremental mode, cold on the first call.
func (s *Server) check(sources []analyzer.BuildSource, isTTY bool, terminalWidth int) map[string]interface{} {
	var res map[string]interface{}
	if s.engine == nil {
		res = s.initializeFineGrained(sources, isTTY, terminalWidth)
	} else {
		res = s.fineGrainedIncrement(sources, nil, nil, isTTY, terminalWidth)
	}
	s.updateStats(res)
	return res
}

func (s *Server) updateStats(res map[string]interface{}) {
	if s.engine != nil {
		for k, v := range s.engine.Stats() {
			s.stats[k] = v
		}
	}
	res["stats"] = s.stats
	s.stats = make(map[string]interface{})
}

func (s *Server) initializeFineGrained(sources []analyzer.BuildSource, isTTY bool, terminalWidth int) map[string]interface{} {
	s.watcher = fswatcher.New()
	t0 := time.Now()

	// With the fine-grained cache enabled, pull times and hashes out of
	// the saved entries and stick them into the watcher, so the first poll
	// picks up only what actually changed since the cache was written.
	fresh := map[string]bool{}
	if s.options.UseFineGrainedCache && s.options.CacheDir != "" {
		fresh = s.seedFromCache(sources)
	}
	s.updateSources(sources)

	// Everything that missed the cache is analyzed from scratch; cached
	// modules re-register with identical results.
	var changed []trigger.ModulePath
	for _, src := range sources {
		changed = append(changed, trigger.ModulePath{ID: src.Module, Path: src.Path})
	}
	s.engine = trigger.NewEngine(s.cfg.Analyzer)
	messages, err := s.engine.Update(changed, nil)
	if err != nil {
		return map[string]interface{}{"out": "", "err": err.Error() + "\n", "status": 2}
	}
	nFresh := 0
	for id, ok := range fresh {
		if ok {
			s.engine.Graph.MarkFresh(id)
			nFresh++
		}
	}
	s.stats["cache_fresh_modules"] = nFresh
	s.previousSources = sources

	// Store the initial watcher state as a side effect.
	s.watcher.FindChanged()
	s.saveCache()

	s.stats["update_sources_time"] = time.Since(t0).Seconds()
	s.stats["files_changed"] = len(changed)

	status := 0
	if len(messages) > 0 {
		status = 1
	}
	messages = s.prettyMessages(messages, len(sources), isTTY, terminalWidth)
	return map[string]interface{}{"out": joinLines(messages), "err": "", "status": status}
}

func (s *Server) fineGrainedIncrement(sources []analyzer.BuildSource, remove, update []string,
	isTTY bool, terminalWidth int) map[string]interface{} {
	t0 := time.Now()
	var changed, removed []trigger.ModulePath
	if remove == nil && update == nil {
		// Poll the watcher for updated, added or deleted files.
		s.updateSources(sources)
		changed, removed = s.findChanged(sources)
	} else {
		// The caller's lists are authoritative; no stat calls for
		// unchanged files.
		changedPaths := s.watcher.UpdateChanged(remove, update)
		changed, removed = s.splitChanged(sources, changedPaths)
	}
	t1 := time.Now()
	s.log.Printf("fine-grained increment: find_changed: %.3fs", t1.Sub(t0).Seconds())
	messages, err := s.engine.Update(changed, removed)
	if err != nil {
		return map[string]interface{}{"out": "", "err": err.Error() + "\n", "status": 2}
	}
	t2 := time.Now()
	s.log.Printf("fine-grained increment: update: %.3fs", t2.Sub(t1).Seconds())
	s.stats["find_changes_time"] = t1.Sub(t0).Seconds()
	s.stats["fg_update_time"] = t2.Sub(t1).Seconds()
	s.stats["files_changed"] = len(changed) + len(removed)

	status := 0
	if len(messages) > 0 {
		status = 1
	}
	s.previousSources = sources
	s.saveCache()
	messages = s.prettyMessages(messages, len(sources), isTTY, terminalWidth)
	return map[string]interface{}{"out": joinLines(messages), "err": "", "status": status}
}

func (s *Server) updateSources(sources []analyzer.BuildSource) {
	var paths []string
	for _, src := range sources {
		if src.Path != "" {
			paths = append(paths, src.Path)
		}
	}
	s.watcher.AddWatchedPaths(paths)
}

func (s *Server) findChanged(sources []analyzer.BuildSource) (changed, removed []trigger.ModulePath) {
	return s.splitChanged(sources, s.watcher.FindChanged())
}

// splitChanged classifies changed paths against the current and previous
// source lists: modified or added files, files dropped from the build, and
// files whose module id changed (reported as removed under the old id and
// changed under the new one).
func (s *Server) splitChanged(sources []analyzer.BuildSource, changedPaths map[string]bool) (changed, removed []trigger.ModulePath) {
	for _, src := range sources {
		if src.Path != "" && changedPaths[src.Path] {
			changed = append(changed, trigger.ModulePath{ID: src.Module, Path: src.Path})
		}
	}
	modules := make(map[string]bool, len(sources))
	for _, src := range sources {
		modules[src.Module] = true
	}
	for _, src := range s.previousSources {
		if !modules[src.Module] {
			removed = append(removed, trigger.ModulePath{ID: src.Module, Path: src.Path})
		}
	}
	last := make(map[string]string, len(s.previousSources))
	for _, src := range s.previousSources {
		last[src.Path] = src.Module
	}
	for _, src := range sources {
		if prev, ok := last[src.Path]; ok && prev != src.Module {
			removed = append(removed, trigger.ModulePath{ID: prev, Path: src.Path})
			changed = append(changed, trigger.ModulePath{ID: src.Module, Path: src.Path})
		}
	}
	return changed, removed
}

func (s *Server) cmdSuggest(function string, callsites bool) map[string]interface{} {
	if s.engine == nil {
		return map[string]interface{}{"error": "Command 'suggest' is only valid after a 'check' command"}
	}
	if s.cfg.Suggest == nil {
		return map[string]interface{}{"error": "suggestions are not available"}
	}
	var out string
	var err error
	if callsites {
		out, err = s.cfg.Suggest.SuggestCallsites(function)
	} else {
		out, err = s.cfg.Suggest.Suggest(function)
	}
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	if out == "" {
		out = "No suggestions\n"
	} else if out[len(out)-1] != '\n' {
		out += "\n"
	}
	return map[string]interface{}{"out": out, "err": "", "status": 0}
}

func (s *Server) cmdInspect(show, location string, raw bool) map[string]interface{} {
	if s.engine == nil {
		return map[string]interface{}{"error": "Command 'inspect' is only valid after a 'check' command"}
	}
	out, err := s.inspect(show, location, raw)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return map[string]interface{}{"out": out, "err": "", "status": 0}
}

func (s *Server) prettyMessages(messages []string, nSources int, isTTY bool, terminalWidth int) []string {
	useColor := s.options.ColorOutput && isTTY
	if s.options.Pretty && isTTY {
		messages = s.formatter.FitInTerminal(messages, terminalWidth)
	}
	if s.options.ErrorSummary {
		var summary string
		if len(messages) > 0 {
			nErrors, nFiles := CountStats(messages)
			if nErrors > 0 {
				summary = s.formatter.FormatError(nErrors, nFiles, nSources, useColor)
			}
		} else {
			summary = s.formatter.FormatSuccess(nSources, useColor)
		}
		if summary != "" {
			messages = append(append([]string(nil), messages...), summary)
		}
	}
	if useColor {
		colored := make([]string, len(messages))
		for i, m := range messages {
			colored[i] = s.formatter.Colorize(m)
		}
		messages = colored
	}
	return messages
}

func joinLines(messages []string) string {
	out := ""
	for _, m := range messages {
		out += m + "\n"
	}
	return out
}

// Argument decoding helpers over the generic request payload.

func boolArg(data map[string]interface{}, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func intArg(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func stringArg(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func stringListArg(data map[string]interface{}, key string) []string {
	list := listArgOrNil(data, key)
	if list == nil {
		return []string{}
	}
	return list
}

// listArgOrNil distinguishes an absent list from an empty one: recheck
// treats them differently.
func listArgOrNil(data map[string]interface{}, key string) []string {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
