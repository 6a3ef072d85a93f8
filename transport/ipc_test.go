package transport

import (
	"bufio"
	"net"
	"testing"
	"time"
)

func TestIPCFrameConnRoundTripsNewlineDelimitedFrames(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := &ipcFrameConn{conn: client, reader: bufio.NewReaderSize(client, 64*1024)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := server.Write([]byte("hello\n")); err != nil {
			t.Errorf("server write: %v", err)
		}
	}()

	frame, err := conn.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(frame) != "hello" {
		t.Fatalf("ReadFrame = %q, want %q (trailing newline must be trimmed)", frame, "hello")
	}
	<-done

	readBack := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		readBack <- buf[:n]
	}()

	if err := conn.WriteFrame([]byte("world")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	select {
	case got := <-readBack:
		if string(got) != "world\n" {
			t.Fatalf("server observed %q, want %q (WriteFrame must append the delimiter)", got, "world\n")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for WriteFrame's bytes")
	}
}
