package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stillmind-app/stillmind/internal/api"
	"github.com/stillmind-app/stillmind/internal/audio"
	"github.com/stillmind-app/stillmind/internal/models"
	"github.com/stillmind-app/stillmind/internal/notify"
	"github.com/stillmind-app/stillmind/internal/output"
	"github.com/stillmind-app/stillmind/internal/session"
	"github.com/stillmind-app/stillmind/internal/store"
)

var meditateCmd = &cobra.Command{
	Use:   "meditate [meditation-id]",
	Short: "Run a timed meditation session",
	Long: `Run a timed meditation session with optional background audio.

Controls while the session runs:
  enter or p   pause / resume (restarts after completion)
  d <minutes>  change the session length
  q            quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: meditateRun,
}

var (
	meditateDuration string
	meditateNoAudio  bool
)

func init() {
	meditateCmd.Flags().StringVarP(&meditateDuration, "duration", "d", "", "Session length (e.g. 10m, 90s); defaults to session.duration")
	meditateCmd.Flags().BoolVar(&meditateNoAudio, "no-audio", false, "Run without background audio")

	rootCmd.AddCommand(meditateCmd)
}

// sessionRecorder lands a completed session in the local journal and, when a
// credential is stored, in the remote history. The journal write always
// happens; the record is marked unsynced when the remote write fails.
type sessionRecorder struct {
	store   store.Store
	backend *api.Client
	logger  *slog.Logger
}

func (r *sessionRecorder) PersistSession(ctx context.Context, rec models.SessionRecord) error {
	var remoteErr error
	synced := false

	token, err := r.store.AuthToken(ctx)
	if err != nil {
		r.logger.Warn("read credential", "error", err)
	} else if token != "" {
		remoteErr = r.backend.AddSession(ctx, token, rec)
		synced = remoteErr == nil
	}

	if err := r.store.AppendSession(ctx, &rec, synced); err != nil {
		return fmt.Errorf("append session journal: %w", err)
	}
	return remoteErr
}

func meditateRun(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	medID := "1"
	if len(args) > 0 {
		medID = args[0]
	}
	entry, ok := cat.Get(medID)
	if !ok {
		return fmt.Errorf("unknown meditation id %q (see 'stillmind meditations')", medID)
	}

	durStr := meditateDuration
	if durStr == "" {
		durStr = viper.GetString("session.duration")
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", durStr, err)
	}
	if dur <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	var coord *audio.Coordinator
	if !meditateNoAudio && entry.Audio != "" {
		player := &audio.ExecPlayer{Command: viper.GetString("audio.player_cmd")}
		source := filepath.Join(viper.GetString("assets_dir"), entry.Audio)
		coord = audio.NewCoordinator(player, source)
	}

	ctrl := session.New(session.Config{
		MeditationID: entry.ID,
		Title:        entry.Title,
		DurationSec:  int(dur.Seconds()),
		Audio:        coord,
		Recorder:     &sessionRecorder{store: s, backend: backendClient(), logger: slog.Default()},
		Logger:       slog.Default(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ui.Info("%s  (%s)", output.Cyan(entry.Title), formatClock(ctrl.Initial()))
	if entry.Description != "" {
		ui.VerboseLog("%s", entry.Description)
	}

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	go ctrl.Run(ctx)

	// Keyboard input arrives line-buffered; each line is one command.
	input := make(chan string)
	go func() {
		defer close(input)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case input <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	notified := false
	render := time.NewTicker(250 * time.Millisecond)
	defer render.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			break loop

		case line, open := <-input:
			if !open {
				break loop
			}
			switch {
			case line == "q":
				fmt.Println()
				break loop
			case line == "" || line == "p":
				if err := ctrl.Toggle(ctx); err != nil {
					ui.Warning("toggle: %v", err)
				}
				if ctrl.State() == models.SessionStateRunning {
					notified = false
				}
			case strings.HasPrefix(line, "d "):
				minutes, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "d ")))
				if convErr != nil || minutes < 1 {
					ui.Warning("usage: d <minutes>")
					continue
				}
				if err := ctrl.BeginAdjust(ctx); err != nil {
					ui.Warning("pause for adjust: %v", err)
				}
				if err := ctrl.ApplyDuration(minutes * 60); err != nil {
					ui.Warning("set duration: %v", err)
					continue
				}
				ui.Info("Session length set to %d min (enter to resume)", minutes)
			default:
				ui.Warning("unknown command %q", line)
			}

		case <-render.C:
			switch ctrl.State() {
			case models.SessionStateCompleted:
				if !notified {
					notified = true
					fmt.Printf("\r%-40s\n", "")
					ui.Success("Session complete: %d min of %s", sessionMinutes(ctrl.Initial()), entry.Title)
					ui.Info("Press enter to meditate again, q to quit")
					if viper.GetBool("notify.enabled") {
						if err := notify.SessionComplete(entry.Title, sessionMinutes(ctrl.Initial())); err != nil {
							slog.Debug("desktop notification", "error", err)
						}
					}
				}
			case models.SessionStateRunning:
				status := formatClock(ctrl.Remaining())
				if ctrl.Paused() {
					status += "  " + output.Yellow("paused")
				}
				fmt.Printf("\r  %-30s", status)
			}
		}
	}

	if err := ctrl.Close(context.Background()); err != nil {
		slog.Warn("release audio", "error", err)
	}
	ctrl.Wait()
	return nil
}

// formatClock renders seconds as MM:SS.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// sessionMinutes mirrors how completed sessions are recorded: whole minutes,
// never less than one.
func sessionMinutes(seconds int) int {
	m := (seconds + 30) / 60
	if m < 1 {
		m = 1
	}
	return m
}
