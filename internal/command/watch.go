package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamavenir/confab/internal/api"
	"github.com/adamavenir/confab/internal/chat"
	"github.com/adamavenir/confab/internal/loop"
	"github.com/adamavenir/confab/internal/push"
	"github.com/adamavenir/confab/internal/types"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <conversation>",
		Short: "Stream a conversation's messages in real-time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			notify, _ := cmd.Flags().GetBool("notify")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			if metricsAddr == "" {
				metricsAddr = ctx.Config.MetricsAddr
			}

			metrics, stopMetrics, err := serveMetrics(metricsAddr, ctx.Logger)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer stopMetrics()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			id := args[0]
			title := id
			if conv, err := ctx.Client.GetConversation(runCtx, id); err == nil {
				title = conversationTitle(conv)
			} else {
				ctx.Logger.Debug("conversation lookup failed", "conversation", id, "error", err)
			}

			w := &watcher{
				out:      cmd.OutOrStdout(),
				jsonMode: ctx.JSONMode,
				title:    title,
				log:      ctx.Logger,
			}
			if notify {
				w.notify = func(msg types.Message) {
					if err := chat.SendNotification(chat.NotificationText(title, msg)); err != nil {
						ctx.Logger.Debug("notification failed", "error", err)
					}
				}
			}

			if err := w.run(runCtx, ctx.Client, id, metrics); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().Bool("notify", false, "show a desktop notification for assistant replies")
	cmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address (default metrics_addr)")

	return cmd
}

// watcher prints push events for one conversation. Its callbacks run on the
// loop goroutine.
type watcher struct {
	out      io.Writer
	jsonMode bool
	title    string
	log      *slog.Logger
	notify   func(types.Message)

	mgr     *push.Manager
	queue   *loop.Queue
	failed  error
	closing bool
	done    chan error
}

// run streams until ctx is done or the connection fails. A server timeout
// notice reconnects; any other failure ends the watch with its error.
func (w *watcher) run(ctx context.Context, client *api.Client, id string, metrics *push.Metrics) error {
	w.queue = loop.NewQueue()
	w.done = make(chan error, 1)
	w.mgr = push.NewManager(w.queue, push.Options{
		Dialer:    client.Dial,
		Metrics:   metrics,
		Logger:    w.log,
		OnMessage: w.message,
		OnState:   w.state,
	})

	loopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.queue.Run(loopCtx) }()

	w.queue.Post(func() { w.mgr.SetActive(id) })

	var err error
	select {
	case err = <-w.done:
	case <-ctx.Done():
	}

	closed := make(chan struct{})
	w.queue.Post(func() {
		w.closing = true
		w.mgr.Close()
		close(closed)
	})
	<-closed
	return err
}

func (w *watcher) message(conversationID string, msg types.Message) {
	if w.jsonMode {
		_ = json.NewEncoder(w.out).Encode(msg)
	} else {
		fmt.Fprintln(w.out, FormatMessage(msg))
	}
	if w.notify != nil && msg.Type == types.MessageTypeAssistant {
		w.notify(msg)
	}
}

func (w *watcher) state(state types.ConnectionState, err error) {
	switch state {
	case types.ConnectionConnected:
		w.failed = nil
		if !w.jsonMode {
			fmt.Fprintf(w.out, "%s--- watching %s (Ctrl+C to stop) ---%s\n", dim, w.title, reset)
		}
	case types.ConnectionError:
		w.failed = err
	case types.ConnectionDisconnected:
		if w.closing {
			return
		}
		if w.failed != nil {
			w.finish(w.failed)
			return
		}
		w.log.Info("push connection timed out, reconnecting", "conversation", w.mgr.Active())
		w.queue.Post(w.mgr.Reconnect)
	}
}

func (w *watcher) finish(err error) {
	select {
	case w.done <- err:
	default:
	}
}
