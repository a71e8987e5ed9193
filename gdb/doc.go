// Package gdb drives a debugger process over its textual command protocol to
// recover the bytes a microcontroller writes to its UART transmit register.
//
// # Overview
//
// A Session spawns the debugger and starts one goroutine per output stream.
// Each goroutine reads lines and pushes them, tagged with their origin, onto a
// shared EventQueue:
//
//	stdout ──ReadStream(Primary)────┐
//	                                ├──> EventQueue ──> Spy / console
//	stderr ──ReadStream(Diagnostic)─┘
//
// Commands travel the other way through a CommandChannel, which writes one
// newline-terminated line per command and flushes it immediately.
//
// # Spy
//
// Spy arms the breakpoints, starts the target and then loops over the queue.
// Every breakpoint trigger is answered with a register read followed by a
// resume; every register reply is rendered as a two-digit hex byte:
//
//	spy := gdb.NewSpy(sess, sess.Queue(), os.Stdout, cfg, m, log)
//	err := spy.Run(ctx)
//
// Output is broken into lines whenever the target stays quiet longer than the
// configured idle gap. The break fires once per gap.
//
// # Ordering
//
// Lines from one stream keep their order. Lines from different streams are
// interleaved in arrival order only.
package gdb
