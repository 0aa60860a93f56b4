// Command ndpmon opens a raw ICMPv6 socket, dispatches incoming Neighbor
// Discovery messages through the ndp package, and renders a live
// per-peer traffic summary either as a bubbletea TUI or as a redrawn
// plain-text table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/ndplib/ndp/ndp"
)

func main() {
	var (
		listenAddr = flag.String("listen", "::", "IPv6 address to bind the raw ICMPv6 socket to")
		ifname     = flag.String("ifname", "", "restrict monitoring to this interface (default: all)")
		msgType    = flag.String("msg-type", "", "restrict monitoring to one message type: rs, ra, ns, na, r (default: all)")
		logLevel   = flag.String("log-level", "info", "debug|info|warn|error")
		window     = flag.Duration("window", 15*time.Minute, "sliding window for per-peer counters")
		refresh    = flag.Duration("refresh", 2*time.Second, "table redraw interval")
		useTUI     = flag.Bool("tui", true, "render with the bubbletea TUI instead of a plain redrawn table")
	)
	flag.Parse()

	if err := run(*listenAddr, *ifname, *msgType, *logLevel, *window, *refresh, *useTUI); err != nil {
		fmt.Fprintln(os.Stderr, "ndpmon:", err)
		os.Exit(1)
	}
}

func run(listenAddr, ifname, msgTypeFlag, logLevel string, window, refresh time.Duration, useTUI bool) error {
	wantType, err := ndp.ParseMsgType(msgTypeFlag)
	if err != nil {
		return err
	}

	wantIfIndex := 0
	if ifname != "" {
		iface, err := net.InterfaceByName(ifname)
		if err != nil {
			return fmt.Errorf("resolving --ifname %q: %w", ifname, err)
		}
		wantIfIndex = iface.Index
	}

	// Log to a file instead of stderr so output doesn't corrupt the TUI
	// alt screen.
	logFile, err := os.OpenFile("ndpmon.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	handler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: parseLogLevel(logLevel)})
	logger := slog.New(handler).With("component", "ndpmon")

	nc, err := ndp.Open(ndp.WithListenAddr(listenAddr))
	if err != nil {
		return fmt.Errorf("opening ndp context: %w", err)
	}
	defer nc.Close()
	nc.SetLogSink(handler, slog.LevelWarn)

	stats := NewStats(window)
	if err := nc.Register(recordStats(stats), wantType, wantIfIndex, nil); err != nil {
		return fmt.Errorf("registering handler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger.Info("starting", "listen", listenAddr, "ifname", ifname, "msg_type", wantType, "window", window)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serviceLoop(gctx, nc) })
	g.Go(func() error { return prune(gctx, stats, window) })

	if useTUI {
		g.Go(func() error { return runTUI(gctx, stats, refresh) })
	} else {
		g.Go(func() error { return runPlain(gctx, stats, window, refresh) })
	}

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

// recordStats builds the ndp.HandlerFunc registered against the
// Context: every matching message updates the shared Stats cache.
func recordStats(stats *Stats) ndp.HandlerFunc {
	return func(_ *ndp.Context, m *ndp.Message, _ any) error {
		src := m.AddrTo()
		stats.RecordMessage(src, m.Type())

		var optType ndp.OptType
		switch m.Type() {
		case ndp.MsgTypeRS, ndp.MsgTypeNS:
			optType = ndp.OptTypeSourceLinkLayerAddr
		case ndp.MsgTypeNA, ndp.MsgTypeRedirect:
			optType = ndp.OptTypeTargetLinkLayerAddr
		default:
			return nil
		}
		if mac, ok := m.LinkLayerAddr(optType); ok {
			stats.RecordMAC(src, net.HardwareAddr(mac))
		}
		return nil
	}
}

// serviceLoop drives one Context's event source until ctx is canceled,
// using a short read deadline so cancellation is noticed promptly
// instead of blocking indefinitely in a kernel read.
func serviceLoop(ctx context.Context, nc *ndp.Context) error {
	es := nc.NextEventSource(nil)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := nc.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			return err
		}
		if err := nc.Service(es); err != nil {
			return err
		}
	}
}

func prune(ctx context.Context, stats *Stats, window time.Duration) error {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats.Prune()
		}
	}
}

func runTUI(ctx context.Context, stats *Stats, refresh time.Duration) error {
	p := tea.NewProgram(newModel(stats, refresh), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func runPlain(ctx context.Context, stats *Stats, window, refresh time.Duration) error {
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			renderPlain(os.Stdout, stats.GetStats(), window)
		}
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
