package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/lucalysoft/mypy/internal/ipc"
	"github.com/lucalysoft/mypy/internal/server"
)

const clientVersion = server.Version

// statusInfo is the decoded status file.
type statusInfo struct {
	PID            int    `json:"pid"`
	ConnectionName string `json:"connection_name"`
}

func readStatus() (*statusInfo, error) {
	data, err := os.ReadFile(statusFile)
	if err != nil {
		return nil, fmt.Errorf("No status file found")
	}
	var info statusInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("Malformed status file: %w", err)
	}
	return &info, nil
}

func isRunning() bool {
	info, err := readStatus()
	if err != nil {
		return false
	}
	return syscall.Kill(info.PID, 0) == nil
}

// request sends one command to the daemon and decodes the response.
func request(command string, payload map[string]interface{}) (map[string]interface{}, error) {
	info, err := readStatus()
	if err != nil {
		return nil, err
	}
	conn, err := ipc.Dial(info.ConnectionName)
	if err != nil {
		return nil, fmt.Errorf("Daemon not responding: %w", err)
	}
	defer conn.Close()

	frame := map[string]interface{}{"command": command}
	for k, v := range payload {
		frame[k] = v
	}
	if err := ipc.WriteFrame(conn, frame); err != nil {
		return nil, err
	}
	return ipc.ReadFrame(conn)
}

// checkOutput prints a check-shaped response and exits with its status.
func checkOutput(resp map[string]interface{}, err error) error {
	if err != nil {
		return err
	}
	if errMsg, ok := resp["error"].(string); ok {
		return fmt.Errorf("%s", errMsg)
	}
	if out, ok := resp["out"].(string); ok {
		fmt.Print(out)
	}
	if errOut, ok := resp["err"].(string); ok {
		fmt.Fprint(os.Stderr, errOut)
	}
	if status, ok := resp["status"].(float64); ok && status != 0 {
		os.Exit(int(status))
	}
	return nil
}

// daemonize launches the daemon as a detached subprocess running the
// daemon subcommand, with the effective options riding along base64-packed.
func daemonize(flags []string, timeout int) error {
	opts, err := server.ProcessStartFlags(server.DefaultOptions(), flags)
	if err != nil {
		return err
	}
	optionsData := base64.StdEncoding.EncodeToString([]byte(opts.Snapshot()))

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	args := []string{
		"--status-file", statusFile,
		"daemon",
		"--options-data", optionsData,
	}
	if timeout > 0 {
		args = append(args, "--timeout", fmt.Sprint(timeout))
	}
	if logFile != "" {
		args = append(args, "--daemon-log-file", logFile)
	}
	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return err
	}
	// Don't reap the child; it outlives us.
	if err := cmd.Process.Release(); err != nil {
		return err
	}

	// Wait for the status file so an immediately following command finds a
	// live daemon.
	for i := 0; i < 100; i++ {
		if isRunning() {
			fmt.Println("Daemon started")
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("Daemon failed to start")
}

func killDaemon() error {
	info, err := readStatus()
	if err != nil {
		return err
	}
	if err := syscall.Kill(info.PID, syscall.SIGKILL); err != nil {
		return err
	}
	os.Remove(statusFile)
	fmt.Println("Daemon killed")
	return nil
}

func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		var n int
		if _, err := fmt.Sscanf(cols, "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	return 80
}
