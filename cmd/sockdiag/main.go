// cmd/sockdiag/main.go
// License: Apache-2.0
//
// sockdiag is a small diagnostic tool for the socket layer: it can run a
// loopback self-test and dump the performance counters and debug probes.

package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/portabus/sockport/api"
	"github.com/portabus/sockport/control"
	"github.com/portabus/sockport/socket"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:   "sockdiag",
		Short: "Diagnostics for the portable socket layer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			control.SetVerbose(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "emit debug-level records")
	root.AddCommand(selftestCmd(), countersCmd(), probesCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func selftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Create a loopback pair and exchange a payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			fds, err := socket.Pair()
			if err != nil {
				return fmt.Errorf("pair: %w", err)
			}
			defer socket.Close(fds[0])
			defer socket.Close(fds[1])

			payload := []byte("sockdiag self-test")
			if _, err := socket.Send(fds[0], payload); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			buf := make([]byte, len(payload))
			n, err := socket.Recv(fds[1], buf)
			if err != nil {
				return fmt.Errorf("recv: %w", err)
			}
			if string(buf[:n]) != string(payload) {
				return fmt.Errorf("payload mismatch: got %q", buf[:n])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d bytes echoed over the loopback pair\n", n)

			if err := optionRoundTrips(fds[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok: option round-trips")

			if err := transferRoundTrip(fds); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok: descriptor transfer")
			return nil
		},
	}
}

func optionRoundTrips(fd api.Fd) error {
	if err := socket.SetSndBuf(fd, 64*1024); err != nil {
		return fmt.Errorf("sndbuf: %w", err)
	}
	if got, err := socket.GetSndBuf(fd); err != nil {
		return fmt.Errorf("sndbuf readback: %w", err)
	} else if got < 64*1024 {
		return fmt.Errorf("sndbuf shrank: asked 65536, got %d", got)
	}
	if err := socket.SetLinger(fd, true, 1); err != nil {
		return fmt.Errorf("linger: %w", err)
	}
	if err := socket.SetNagle(fd, false); err != nil {
		return fmt.Errorf("nagle: %w", err)
	}
	if on, err := socket.GetNagle(fd); err != nil {
		return fmt.Errorf("nagle readback: %w", err)
	} else if on {
		return fmt.Errorf("nagle readback: still enabled")
	}
	return nil
}

func transferRoundTrip(fds [2]api.Fd) error {
	moved := make([]api.Fd, 0, 5)
	for i := 0; i < 5; i++ {
		fd, err := socket.Open(api.AFInet, api.Datagram)
		if err != nil {
			return fmt.Errorf("open: %w", err)
		}
		defer socket.Close(fd)
		moved = append(moved, fd)
	}

	if _, err := socket.SendWithFds(fds[0], []byte("PING"), moved, os.Getpid()); err != nil {
		return fmt.Errorf("sendfds: %w", err)
	}
	// Let the out-of-band byte land before the receiver checks the mark.
	time.Sleep(200 * time.Millisecond)

	buf := make([]byte, 16)
	n, got, err := socket.RecvWithFds(fds[1], buf, socket.MaxTransferFds)
	if err != nil {
		return fmt.Errorf("recvfds: %w", err)
	}
	for _, fd := range got {
		socket.Close(fd)
	}
	if string(buf[:n]) != "PING" || len(got) != len(moved) {
		return fmt.Errorf("transfer mismatch: payload %q, %d descriptors", buf[:n], len(got))
	}
	return nil
}

func countersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counters",
		Short: "Dump the per-operation performance counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := control.PerfSnapshot()
			if err != nil {
				return err
			}
			ops := make([]string, 0, len(snap))
			for op := range snap {
				ops = append(ops, op)
			}
			sort.Strings(ops)
			for _, op := range ops {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %.0f\n", op, snap[op])
			}
			return nil
		},
	}
}

func probesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probes",
		Short: "Dump the registered debug probes",
		Run: func(cmd *cobra.Command, args []string) {
			state := control.Probes.DumpState()
			names := make([]string, 0, len(state))
			for name := range state {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", name, state[name])
			}
		},
	}
}
