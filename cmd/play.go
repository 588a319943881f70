package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/iksnae/deskcorder/internal"
	"github.com/iksnae/deskcorder/internal/fileio"
	"github.com/iksnae/deskcorder/internal/playback"
)

var (
	playFrom     float64
	playAudioOut string
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Replay a session without a display",
	Long: `Replay a session in real time, logging every clear and stroke segment
(use -v to see them). Audio is played through the configured backend;
with the memory backend, --audio-out captures the played samples as WAV.
Interrupt with Ctrl-C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := fileOptions("")
		if err != nil {
			return err
		}
		l, _, err := fileio.Load(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}

		audio, err := playback.NewAudio(cfg.AudioBackend, cfg.SampleRate)
		if err != nil {
			return err
		}
		var played *bytes.Buffer
		if mem, ok := audio.(*playback.MemoryAudio); ok && playAudioOut != "" {
			played = &bytes.Buffer{}
			mem.Out = played
		}

		c := playback.NewController(l, audio)
		if playFrom > 0 {
			if err := c.Seek(playFrom); err != nil {
				return err
			}
			if err := c.Resume(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sink := &playback.LogSink{}
		internal.PrintInfo(fmt.Sprintf("Playing %s (%s)", args[0], formatSeconds(c.Duration())))
		err = playback.Run(ctx, c, sink, cfg.TickInterval)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			internal.PrintWarning("Playback interrupted")
			err = nil
		}
		if err != nil {
			return err
		}

		if played != nil {
			if err := writeWAVFile(playAudioOut, played.Bytes(), cfg.SampleRate); err != nil {
				return err
			}
		}
		internal.PrintSuccess(fmt.Sprintf("Playback finished: %d clears, %d draws", sink.Clears, sink.Draws))
		return nil
	},
}

func writeWAVFile(path string, pcm []byte, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	if err := fileio.WriteWAV(f, pcm, rate); err != nil {
		_ = f.Close()
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Float64Var(&playFrom, "from", 0, "Start this many seconds into the session")
	playCmd.Flags().StringVar(&playAudioOut, "audio-out", "", "Write the played audio to this WAV file (memory backend)")
}
