package ipc

import (
	"net"
	"testing"
	"time"
)

func TestFrameRoundTrip(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	go func() {
		WriteFrame(client, map[string]interface{}{
			"command": "check",
			"files":   []string{"a.py"},
		})
	}()

	got, err := ReadFrame(srv)
	if err != nil {
		t.Fatal(err)
	}
	if got["command"] != "check" {
		t.Errorf("command = %v", got["command"])
	}
	files, ok := got["files"].([]interface{})
	if !ok || len(files) != 1 || files[0] != "a.py" {
		t.Errorf("files = %v", got["files"])
	}
}

func TestListenerAcceptAndDial(t *testing.T) {
	l, err := NewListener("mypyd-test", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Cleanup()

	done := make(chan error, 1)
	go func() {
		conn, err := Dial(l.ConnectionName())
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- WriteFrame(conn, map[string]interface{}{"command": "status"})
	}()

	conn, err := l.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	frame, err := ReadFrame(conn)
	if err != nil {
		t.Fatal(err)
	}
	if frame["command"] != "status" {
		t.Errorf("command = %v", frame["command"])
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("client goroutine stuck")
	}
}
