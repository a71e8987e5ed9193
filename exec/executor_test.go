package exec

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRealExecutor_Output(t *testing.T) {
	executor := NewRealExecutor()

	output, err := executor.Output(context.Background(), "", "echo", "world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(output) != "world\n" {
		t.Errorf("expected 'world\\n', got %q", string(output))
	}
}

func TestRealExecutor_Spawn(t *testing.T) {
	executor := NewRealExecutor()

	proc, err := executor.Spawn("", "cat")
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}

	if _, err := io.WriteString(proc.Stdin(), "ping\n"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	line, err := bufio.NewReader(proc.Stdout()).ReadString('\n')
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if line != "ping\n" {
		t.Errorf("echoed line = %q, want %q", line, "ping\n")
	}

	proc.Stdin().Close()
	if err := proc.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil after stdin EOF", err)
	}
}

func TestMockExecutor_PrefixMatch(t *testing.T) {
	mock := NewMockExecutor(nil)
	mock.AddPrefixMatch("pgrep", []string{"-f"}, MockResponse{Stdout: []byte("123\n")})

	out, err := mock.Output(context.Background(), "", "pgrep", "-f", "gdb7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "123\n" {
		t.Errorf("Output = %q, want %q", out, "123\n")
	}

	out, err = mock.Output(context.Background(), "", "ps", "-p", "123")
	if err != nil || out != nil {
		t.Errorf("unmatched command = (%q, %v), want (nil, nil)", out, err)
	}

	calls := mock.GetCalls()
	if len(calls) != 2 {
		t.Fatalf("GetCalls len = %d, want 2", len(calls))
	}
	if calls[0].Name != "pgrep" || calls[1].Name != "ps" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestMockExecutor_CombinedOutputDoesNotAliasStdout(t *testing.T) {
	mock := NewMockExecutor(nil)
	stdout := make([]byte, 3, 16)
	copy(stdout, "out")
	mock.AddPrefixMatch("cmd", nil, MockResponse{Stdout: stdout, Stderr: []byte("err")})

	combined, err := mock.CombinedOutput(context.Background(), "", "cmd")
	if err != nil {
		t.Fatal(err)
	}
	if string(combined) != "outerr" {
		t.Errorf("CombinedOutput = %q, want %q", combined, "outerr")
	}
	if string(stdout[:cap(stdout)][3:6]) == "err" {
		t.Error("CombinedOutput should not write into the rule's stdout backing array")
	}
}

func TestMockExecutor_Fallback(t *testing.T) {
	fallback := NewMockExecutor(nil)
	fallback.AddPrefixMatch("which", nil, MockResponse{Err: errors.New("not found")})
	mock := NewMockExecutor(fallback)

	if _, err := mock.Output(context.Background(), "", "which", "gdb7"); err == nil {
		t.Error("expected fallback error")
	}
	if len(fallback.GetCalls()) != 1 {
		t.Errorf("fallback should record the delegated call")
	}
}

func TestMockExecutor_Spawn(t *testing.T) {
	mock := NewMockExecutor(nil)
	mock.OnSpawn(func(dir, name string, args []string) (*MockProcess, error) {
		return NewMockProcess(func(p *MockProcess, command string) {
			p.WriteStdout("got " + command + "\n")
		}), nil
	})

	proc, err := mock.Spawn("/work", "gdb7", "fw.elf")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	reader := bufio.NewReader(proc.Stdout())
	done := make(chan string, 1)
	go func() {
		line, _ := reader.ReadString('\n')
		done <- line
	}()

	if _, err := io.WriteString(proc.Stdin(), "run\n"); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case line := <-done:
		if line != "got run\n" {
			t.Errorf("response = %q, want %q", line, "got run\n")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
	}

	if len(mock.Spawned()) != 1 {
		t.Errorf("Spawned len = %d, want 1", len(mock.Spawned()))
	}
	calls := mock.GetCalls()
	if len(calls) != 1 || calls[0].Dir != "/work" || strings.Join(calls[0].Args, " ") != "fw.elf" {
		t.Errorf("calls = %+v", calls)
	}

	proc.Kill()
	if err := proc.Wait(); !errors.Is(err, ErrKilled) {
		t.Errorf("Wait() = %v, want ErrKilled", err)
	}
}

func TestMockProcess_StdinEOFExits(t *testing.T) {
	p := NewMockProcess(nil)

	if _, err := io.WriteString(p.Stdin(), "quit\n"); err != nil {
		t.Fatal(err)
	}
	p.Stdin().Close()

	if err := p.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
	if got := p.Commands(); len(got) != 1 || got[0] != "quit" {
		t.Errorf("Commands = %v, want [quit]", got)
	}
	if _, err := io.ReadAll(p.Stdout()); err != nil {
		t.Errorf("stdout should reach EOF cleanly: %v", err)
	}
}

func TestMockProcess_WriteAfterExitFails(t *testing.T) {
	p := NewMockProcess(nil)
	p.Exit(nil)

	if _, err := io.WriteString(p.Stdin(), "run\n"); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("write after exit = %v, want io.ErrClosedPipe", err)
	}
	if !p.Exited() {
		t.Error("Exited() should be true")
	}
}

func TestDefaultExecutorConcurrentAccess(t *testing.T) {
	original := GetDefaultExecutor()
	defer SetDefaultExecutor(original)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetDefaultExecutor(NewMockExecutor(nil))
		}()
		go func() {
			defer wg.Done()
			_ = GetDefaultExecutor()
		}()
	}
	wg.Wait()
}
